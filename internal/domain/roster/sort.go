package roster

import (
	"cmp"
	"slices"
	"strings"

	"github.com/okian/internboard/internal/domain/types"
)

// Sort orders rows in place. Rows without a score always sort last; ties
// fall back to the intern id so the order is deterministic.
func Sort(rows []types.Row, key SortKey, order Order) {
	slices.SortStableFunc(rows, func(a, b types.Row) int {
		if key == SortByScore {
			if c, decided := compareMissing(a.EffectiveScore, b.EffectiveScore); decided {
				return c
			}
		}
		c := compareBy(key, &a, &b)
		if order == Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// compareMissing puts nil scores after present ones regardless of order.
func compareMissing(a, b *float64) (int, bool) {
	switch {
	case a == nil && b == nil:
		return 0, false
	case a == nil:
		return 1, true
	case b == nil:
		return -1, true
	}
	return 0, false
}

func compareBy(key SortKey, a, b *types.Row) int {
	switch key {
	case SortByScore:
		if a.EffectiveScore == nil || b.EffectiveScore == nil {
			return 0
		}
		return cmp.Compare(*a.EffectiveScore, *b.EffectiveScore)
	case SortByDepartment:
		return compareFold(a.Department, b.Department)
	case SortByStatus:
		return cmp.Compare(string(a.Status), string(b.Status))
	default:
		return compareFold(a.Name, b.Name)
	}
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
