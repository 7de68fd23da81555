package roster_test

import (
	"math"
	"testing"

	"github.com/okian/internboard/internal/domain/model"
	"github.com/okian/internboard/internal/domain/roster"
	"github.com/okian/internboard/internal/domain/tier"
	"github.com/okian/internboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleInterns() []model.Intern {
	return []model.Intern{
		{ID: "1", Name: "Zara", Email: "zara@example.com", Department: "Platform", Mentor: "Iyer", Score: model.Float(91), Status: model.StatusApproved, IsActive: true},
		{ID: "2", Name: "amir", Email: "amir@example.com", Department: "Data", Mentor: "Chen", Score: model.Float(72), Status: model.StatusPending, IsActive: true},
		{ID: "3", Name: "Bea", Email: "bea@example.com", Department: "platform", Mentor: "Iyer", Status: model.StatusPending},
		{ID: "4", Name: "Chidi", Email: "chidi@example.com", Department: "Data", Mentor: "Chen", Score: model.Float(40), Status: model.StatusRejected, IsActive: true},
		{ID: "5", Name: "Dara", Email: "dara@example.com", Department: "Design", Mentor: "Okafor",
			Scores: &model.SubScores{TaskCompletion: model.Float(60), Attendance: model.Float(50)}, Status: model.StatusApproved},
	}
}

func collect(rows []types.Row) []string {
	out := make([]string, len(rows))
	for i := range rows {
		out[i] = rows[i].ID
	}
	return out
}

func TestView_Apply(t *testing.T) {
	Convey("Given a fetched roster", t, func() {
		view := roster.NewView(nil, nil)
		interns := sampleInterns()

		Convey("When no filter is set", func() {
			page := view.Apply(interns, roster.Query{})

			Convey("Then rows are sorted by name case-insensitively", func() {
				So(page.Total, ShouldEqual, 5)
				So(page.Page, ShouldEqual, 1)
				So(page.PageSize, ShouldEqual, roster.DefaultPageSize)
				names := []string{}
				for _, r := range page.Items {
					names = append(names, r.Name)
				}
				So(names, ShouldResemble, []string{"amir", "Bea", "Chidi", "Dara", "Zara"})
			})

			Convey("And every row carries its tier", func() {
				byID := map[string]tier.Tier{}
				for _, r := range page.Items {
					byID[r.ID] = r.Tier.Tier
				}
				So(byID["1"], ShouldEqual, tier.Excellent)
				So(byID["2"], ShouldEqual, tier.Good)
				So(byID["3"], ShouldEqual, tier.Unrated)
				So(byID["4"], ShouldEqual, tier.NeedsImprovement)
				So(byID["5"], ShouldEqual, tier.Average)
			})

			Convey("And the summary covers the whole roster", func() {
				So(page.Summary.Count, ShouldEqual, 5)
				So(page.Summary.Rated, ShouldEqual, 4)
				So(page.Summary.ByTier["unrated"], ShouldEqual, 1)
				So(page.Summary.ByStatus["Pending"], ShouldEqual, 2)
				So(*page.Summary.AverageScore, ShouldAlmostEqual, (91.0+72+40+55)/4)
			})
		})

		Convey("When filtering by department and search text", func() {
			page := view.Apply(interns, roster.Query{Department: "PLATFORM", Search: " iyer "})

			Convey("Then matching is case-insensitive", func() {
				So(page.Total, ShouldEqual, 2)
				So(page.Items[0].ID, ShouldEqual, "3")
				So(page.Items[1].ID, ShouldEqual, "1")
			})
		})

		Convey("When filtering by tier, status and active flag", func() {
			good := tier.Good
			active := true
			page := view.Apply(interns, roster.Query{Tier: &good, Status: model.StatusPending, Active: &active})

			Convey("Then all conditions apply", func() {
				So(page.Total, ShouldEqual, 1)
				So(page.Items[0].ID, ShouldEqual, "2")
			})
		})

		Convey("When sorting by score", func() {
			asc := view.Apply(interns, roster.Query{SortBy: roster.SortByScore})
			desc := view.Apply(interns, roster.Query{SortBy: roster.SortByScore, Order: roster.Desc})

			Convey("Then missing scores are last in both directions", func() {
				So(collect(asc.Items), ShouldResemble, []string{"4", "5", "2", "1", "3"})
				So(collect(desc.Items), ShouldResemble, []string{"1", "2", "5", "4", "3"})
			})
		})

		Convey("When paging", func() {
			second := view.Apply(interns, roster.Query{Page: 2, PageSize: 2})
			beyond := view.Apply(interns, roster.Query{Page: 9, PageSize: 2})
			huge := view.Apply(interns, roster.Query{PageSize: 5000})

			Convey("Then the requested slice is returned with totals", func() {
				So(collect(second.Items), ShouldResemble, []string{"4", "5"})
				So(second.TotalPages, ShouldEqual, 3)
				So(len(beyond.Items), ShouldEqual, 0)
				So(beyond.Total, ShouldEqual, 5)
				So(huge.PageSize, ShouldEqual, roster.MaxPageSize)
			})
		})
	})
}

func TestPaginate_Extremes(t *testing.T) {
	Convey("Given three rows", t, func() {
		rows := make([]types.Row, 3)
		for i := range rows {
			rows[i].ID = string(rune('a' + i))
		}

		Convey("When the page number is as large as int allows", func() {
			page := roster.Paginate(rows, math.MaxInt, 10)

			Convey("Then the page is empty and totals are intact", func() {
				So(page.Items, ShouldBeEmpty)
				So(page.Total, ShouldEqual, 3)
				So(page.TotalPages, ShouldEqual, 1)
				So(page.Page, ShouldEqual, math.MaxInt)
			})
		})

		Convey("When the page size is as large as int allows", func() {
			page := roster.Paginate(rows, 1, math.MaxInt)

			Convey("Then every row fits on the first page", func() {
				So(collect(page.Items), ShouldResemble, []string{"a", "b", "c"})
				So(page.TotalPages, ShouldEqual, 1)
			})
		})

		Convey("When both are huge", func() {
			So(roster.Paginate(rows, math.MaxInt, math.MaxInt).Items, ShouldBeEmpty)
		})

		Convey("When there are no rows", func() {
			page := roster.Paginate(nil, 5, 10)
			So(page.Items, ShouldBeEmpty)
			So(page.TotalPages, ShouldEqual, 0)
		})
	})
}

func TestView_Flatten(t *testing.T) {
	Convey("Given backend ranking buckets", t, func() {
		view := roster.NewView(nil, nil)
		buckets := model.RankingBuckets{
			Gold: []model.Intern{
				{ID: "g2", Name: "Noor", Score: model.Float(88)},
				{ID: "g1", Name: "Ali", Score: model.Float(96)},
			},
			Silver: []model.Intern{
				{ID: "s1", Name: "Mei", Score: model.Float(75)},
				{ID: "s2", Name: "Lea", Score: model.Float(75)},
			},
			Bronze: []model.Intern{
				{ID: "b1", Name: "Ola"},
				{ID: "b2", Name: "Kai", Score: model.Float(55)},
			},
		}

		Convey("When flattening without a limit", func() {
			entries := view.Flatten(buckets, 0)

			Convey("Then buckets keep medal order and sort inside", func() {
				got := []string{}
				for _, e := range entries {
					got = append(got, e.ID)
				}
				So(got, ShouldResemble, []string{"g1", "g2", "s2", "s1", "b2", "b1"})
			})

			Convey("And ranks are consecutive", func() {
				for i, e := range entries {
					So(e.Rank, ShouldEqual, i+1)
				}
				So(entries[0].Bucket, ShouldEqual, model.BucketGold)
				So(entries[5].Bucket, ShouldEqual, model.BucketBronze)
				So(entries[5].Tier.Tier, ShouldEqual, tier.Unrated)
			})
		})

		Convey("When flattening with a limit", func() {
			entries := view.Flatten(buckets, 3)

			Convey("Then the top entries are kept", func() {
				So(len(entries), ShouldEqual, 3)
				So(entries[2].ID, ShouldEqual, "s2")
			})
		})

		Convey("When buckets are empty", func() {
			So(view.Flatten(model.RankingBuckets{}, 10), ShouldBeEmpty)
		})
	})
}

func TestView_MissingPolicy(t *testing.T) {
	Convey("Given a view that renders missing scores as the lowest tier", t, func() {
		view := roster.NewView(tier.New(tier.WithMissingPolicy(tier.MissingAsLowest)), nil)

		row := view.Row(model.Intern{ID: "x"})

		Convey("Then an unscored intern is NeedsImprovement", func() {
			So(row.EffectiveScore, ShouldBeNil)
			So(row.Tier.Tier, ShouldEqual, tier.NeedsImprovement)
		})
	})
}
