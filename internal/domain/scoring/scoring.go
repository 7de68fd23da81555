// Package scoring derives the score an intern is ranked and tiered by.
package scoring

import (
	"math"

	"github.com/okian/internboard/internal/domain/model"
)

// Sub-metric names, matching the backend JSON keys.
const (
	TaskCompletion    = "task_completion"
	TaskQuality       = "task_quality"
	DeadlineAdherence = "deadline_adherence"
	Attendance        = "attendance"
	MentorFeedback    = "mentor_feedback"
	Communication     = "communication"
)

// Metrics lists the sub-metric names in the order of model.SubScores.Values.
var Metrics = []string{
	TaskCompletion,
	TaskQuality,
	DeadlineAdherence,
	Attendance,
	MentorFeedback,
	Communication,
}

const (
	defaultMetricWeight = 1.0
	minScoreValue       = 0
	maxScoreValue       = 100
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithWeightsFromConfig sets per-metric weights. Non-positive weights and
// unknown metric names are ignored.
func WithWeightsFromConfig(weights map[string]float64) Option {
	return func(a *Aggregator) {
		known := make(map[string]bool, len(Metrics))
		for _, m := range Metrics {
			known[m] = true
		}
		for metric, weight := range weights {
			if known[metric] && weight > 0 {
				a.weights[metric] = weight
			}
		}
	}
}

// Aggregator averages sub-metrics into a single 0-100 score.
type Aggregator struct {
	weights map[string]float64
}

// NewAggregator creates an Aggregator that weighs every metric equally
// unless configured otherwise.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{weights: make(map[string]float64, len(Metrics))}
	for _, m := range Metrics {
		a.weights[m] = defaultMetricWeight
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Weights returns a copy of the active weights.
func (a *Aggregator) Weights() map[string]float64 {
	out := make(map[string]float64, len(a.weights))
	for k, v := range a.weights {
		out[k] = v
	}
	return out
}

// Average returns the weighted mean of the present sub-metrics, each clamped
// to [0,100]. NaN values count as absent. ok is false when nothing is present.
func (a *Aggregator) Average(s model.SubScores) (avg float64, ok bool) {
	var sum, total float64
	for i, v := range s.Values() {
		if v == nil || math.IsNaN(*v) {
			continue
		}
		w := a.weights[Metrics[i]]
		sum += Clamp(*v) * w
		total += w
	}
	if total == 0 {
		return 0, false
	}
	return sum / total, true
}

// Effective returns the score used for ranking and tiers: the sub-metric
// average when any sub-metric is present, otherwise the overall score.
// nil means the intern has no score yet.
func (a *Aggregator) Effective(in *model.Intern) *float64 {
	if in == nil {
		return nil
	}
	if in.Scores != nil {
		if avg, ok := a.Average(*in.Scores); ok {
			return &avg
		}
	}
	if in.Score == nil || math.IsNaN(*in.Score) {
		return nil
	}
	v := Clamp(*in.Score)
	return &v
}

// Clamp limits a score to [0,100].
func Clamp(score float64) float64 {
	return math.Max(minScoreValue, math.Min(maxScoreValue, score))
}
