package roster

import (
	"strings"

	"github.com/okian/internboard/internal/domain/model"
	"github.com/okian/internboard/internal/domain/tier"
	"github.com/okian/internboard/internal/domain/types"
)

// SortKey names a sortable column.
type SortKey string

const (
	SortByName       SortKey = "name"
	SortByScore      SortKey = "score"
	SortByDepartment SortKey = "department"
	SortByStatus     SortKey = "status"
)

// Order is the sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Query describes the table state of the intern list.
// Empty fields do not filter.
type Query struct {
	Search     string
	Department string
	Course     string
	Mentor     string
	Status     model.Status
	Tier       *tier.Tier
	Active     *bool
	SortBy     SortKey
	Order      Order
	Page       int
	PageSize   int
}

func (q Query) normalized() Query {
	switch q.SortBy {
	case SortByName, SortByScore, SortByDepartment, SortByStatus:
	default:
		q.SortBy = SortByName
	}
	if q.Order != Desc {
		q.Order = Asc
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	q.Search = strings.ToLower(strings.TrimSpace(q.Search))
	return q
}

// Filter returns the rows matching q, in their original order.
func Filter(rows []types.Row, q Query) []types.Row {
	q.Search = strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]types.Row, 0, len(rows))
	for i := range rows {
		if matches(&rows[i], q) {
			out = append(out, rows[i])
		}
	}
	return out
}

func matches(r *types.Row, q Query) bool {
	if q.Department != "" && !strings.EqualFold(r.Department, q.Department) {
		return false
	}
	if q.Course != "" && !strings.EqualFold(r.Course, q.Course) {
		return false
	}
	if q.Mentor != "" && !strings.EqualFold(r.Mentor, q.Mentor) {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.Tier != nil && r.Tier.Tier != *q.Tier {
		return false
	}
	if q.Active != nil && r.IsActive != *q.Active {
		return false
	}
	if q.Search == "" {
		return true
	}
	for _, field := range []string{r.Name, r.Email, r.Department, r.Mentor} {
		if strings.Contains(strings.ToLower(field), q.Search) {
			return true
		}
	}
	return false
}
