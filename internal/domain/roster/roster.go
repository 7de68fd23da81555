// Package roster implements the dashboard's table logic over an
// already-fetched intern list: annotation, filtering, sorting, paging,
// summaries and the flattened ranking.
package roster

import (
	"github.com/okian/internboard/internal/domain/model"
	"github.com/okian/internboard/internal/domain/scoring"
	"github.com/okian/internboard/internal/domain/tier"
	"github.com/okian/internboard/internal/domain/types"
)

// Paging limits.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// View annotates interns with the shared classifier and aggregator.
type View struct {
	classifier *tier.Classifier
	aggregator *scoring.Aggregator
}

// NewView creates a View. nil arguments fall back to the defaults.
func NewView(c *tier.Classifier, a *scoring.Aggregator) *View {
	if c == nil {
		c = tier.New()
	}
	if a == nil {
		a = scoring.NewAggregator()
	}
	return &View{classifier: c, aggregator: a}
}

// Classifier returns the classifier used by the view.
func (v *View) Classifier() *tier.Classifier { return v.classifier }

// Row annotates a single intern.
func (v *View) Row(in model.Intern) types.Row {
	score := v.aggregator.Effective(&in)
	return types.Row{
		Intern:         in,
		EffectiveScore: score,
		Tier:           v.classifier.ClassifyPtr(score),
	}
}

// Rows annotates a list of interns, preserving order.
func (v *View) Rows(interns []model.Intern) []types.Row {
	rows := make([]types.Row, len(interns))
	for i := range interns {
		rows[i] = v.Row(interns[i])
	}
	return rows
}

// Apply runs the full table pipeline: annotate, filter, summarize, sort, page.
// The summary covers every matching row, not just the returned page.
func (v *View) Apply(interns []model.Intern, q Query) types.Page {
	q = q.normalized()
	rows := Filter(v.Rows(interns), q)
	summary := Summarize(rows)
	Sort(rows, q.SortBy, q.Order)
	page := Paginate(rows, q.Page, q.PageSize)
	page.Summary = summary
	return page
}

// Summarize counts rows per tier and status and averages the rated scores.
func Summarize(rows []types.Row) types.Summary {
	s := types.Summary{
		Count:    len(rows),
		ByTier:   make(map[string]int),
		ByStatus: make(map[string]int),
	}
	var sum float64
	for i := range rows {
		s.ByTier[rows[i].Tier.Tier.String()]++
		s.ByStatus[string(rows[i].Status)]++
		if rows[i].EffectiveScore != nil {
			sum += *rows[i].EffectiveScore
			s.Rated++
		}
	}
	if s.Rated > 0 {
		avg := sum / float64(s.Rated)
		s.AverageScore = &avg
	}
	return s
}
