package roster

import (
	"cmp"
	"slices"
	"strings"

	"github.com/okian/internboard/internal/domain/model"
	"github.com/okian/internboard/internal/domain/types"
)

// Flatten turns the backend's medal buckets into one ranked list: gold, then
// silver, then bronze; inside a bucket by score desc, name asc, id asc.
// limit <= 0 returns everything.
func (v *View) Flatten(b model.RankingBuckets, limit int) []types.Entry {
	out := make([]types.Entry, 0, b.Len())
	for _, bucket := range []struct {
		name    string
		interns []model.Intern
	}{
		{model.BucketGold, b.Gold},
		{model.BucketSilver, b.Silver},
		{model.BucketBronze, b.Bronze},
	} {
		rows := v.Rows(bucket.interns)
		slices.SortStableFunc(rows, compareRanked)
		for i := range rows {
			out = append(out, types.Entry{
				Rank:   len(out) + 1,
				Bucket: bucket.name,
				ID:     rows[i].ID,
				Name:   rows[i].Name,
				Dept:   rows[i].Department,
				Score:  rows[i].EffectiveScore,
				Tier:   rows[i].Tier,
			})
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func compareRanked(a, b types.Row) int {
	if c, decided := compareMissing(a.EffectiveScore, b.EffectiveScore); decided {
		return c
	}
	if a.EffectiveScore != nil && b.EffectiveScore != nil {
		if c := cmp.Compare(*b.EffectiveScore, *a.EffectiveScore); c != 0 {
			return c
		}
	}
	if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
