// Package tier maps intern scores to the named performance tiers shown on
// badges, tables and charts.
//
// A single threshold table is shared by every view. The classifier is total:
// any float64 (including NaN and infinities) and a nil score map to exactly
// one tier.
package tier

import (
	"encoding/json"
	"math"
	"strings"
)

// Tier is an ordered performance bracket. Higher values rank higher.
type Tier int

const (
	Unrated Tier = iota
	NeedsImprovement
	Average
	Good
	Excellent
)

var tierNames = [...]string{"unrated", "needs_improvement", "average", "good", "excellent"}

var tierLabels = [...]string{"Not Rated", "Needs Improvement", "Average", "Good", "Excellent"}

var tierMedals = [...]string{"", "", "bronze", "silver", "gold"}

var tierColors = [...]string{"#9ca3af", "#dc2626", "#f59e0b", "#2563eb", "#16a34a"}

// All lists the rated tiers from best to worst.
var All = []Tier{Excellent, Good, Average, NeedsImprovement}

func (t Tier) valid() bool { return t >= Unrated && t <= Excellent }

// String returns the machine name, e.g. "needs_improvement".
func (t Tier) String() string {
	if t.valid() {
		return tierNames[t]
	}
	return tierNames[Unrated]
}

// Label returns the display label, e.g. "Needs Improvement".
func (t Tier) Label() string {
	if t.valid() {
		return tierLabels[t]
	}
	return tierLabels[Unrated]
}

// Medal returns gold, silver, bronze or "" for tiers without a medal.
func (t Tier) Medal() string {
	if t.valid() {
		return tierMedals[t]
	}
	return ""
}

// Color returns the badge/chart color as a hex string.
func (t Tier) Color() string {
	if t.valid() {
		return tierColors[t]
	}
	return tierColors[Unrated]
}

// MarshalJSON implements json.Marshaler.
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := Parse(s)
	if !ok {
		return ErrUnknownTier
	}
	*t = parsed
	return nil
}

// Parse accepts machine names, display labels and medal names
// ("excellent", "Needs Improvement", "gold", ...), case-insensitively.
func Parse(s string) (Tier, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	switch key {
	case "excellent", "gold":
		return Excellent, true
	case "good", "silver":
		return Good, true
	case "average", "bronze":
		return Average, true
	case "needs_improvement", "poor":
		return NeedsImprovement, true
	case "unrated", "not_rated":
		return Unrated, true
	}
	return Unrated, false
}

// Result is what views render for a score.
type Result struct {
	Tier  Tier   `json:"tier"`
	Label string `json:"label"`
	Medal string `json:"medal,omitempty"`
	Color string `json:"color"`
}

func resultOf(t Tier) Result {
	return Result{Tier: t, Label: t.Label(), Medal: t.Medal(), Color: t.Color()}
}

// MissingPolicy decides how a missing score is rendered.
type MissingPolicy int

const (
	// MissingAsUnrated renders missing scores as a separate "Not Rated" tier.
	MissingAsUnrated MissingPolicy = iota
	// MissingAsLowest renders missing scores as NeedsImprovement.
	MissingAsLowest
)

// ParseMissingPolicy accepts "unrated" or "lowest".
func ParseMissingPolicy(s string) (MissingPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unrated":
		return MissingAsUnrated, true
	case "lowest":
		return MissingAsLowest, true
	}
	return MissingAsUnrated, false
}

func (p MissingPolicy) String() string {
	if p == MissingAsLowest {
		return "lowest"
	}
	return "unrated"
}

// Thresholds holds the inclusive lower bound of each rated tier above
// NeedsImprovement.
type Thresholds struct {
	Excellent float64 `json:"excellent"`
	Good      float64 `json:"good"`
	Average   float64 `json:"average"`
}

// DefaultThresholds is the canonical table: 85 / 70 / 50.
var DefaultThresholds = Thresholds{Excellent: 85, Good: 70, Average: 50}

// Valid reports whether the table partitions [0,100] into four non-empty,
// non-overlapping ranges.
func (t Thresholds) Valid() bool {
	return t.Average > minScore && t.Good > t.Average && t.Excellent > t.Good && t.Excellent <= maxScore
}

const (
	minScore = 0
	maxScore = 100
)

// Classifier maps scores to tiers. The zero value is not usable; use New.
type Classifier struct {
	thresholds  Thresholds
	missing     MissingPolicy
	zeroMissing bool
}

// New creates a Classifier with the canonical thresholds, rendering missing
// scores as Unrated unless overridden by options.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		thresholds: DefaultThresholds,
		missing:    MissingAsUnrated,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Thresholds returns the active threshold table.
func (c *Classifier) Thresholds() Thresholds { return c.thresholds }

// MissingPolicy returns the active missing-score policy.
func (c *Classifier) MissingPolicy() MissingPolicy { return c.missing }

// Classify maps a score to its tier. NaN counts as a missing score; values
// outside [0,100] are clamped.
func (c *Classifier) Classify(score float64) Result {
	if math.IsNaN(score) || (c.zeroMissing && score == 0) {
		return c.classifyMissing()
	}
	return resultOf(c.rated(clamp(score)))
}

// ClassifyPtr classifies an optional score; nil counts as missing.
func (c *Classifier) ClassifyPtr(score *float64) Result {
	if score == nil {
		return c.classifyMissing()
	}
	return c.Classify(*score)
}

func (c *Classifier) classifyMissing() Result {
	if c.missing == MissingAsLowest {
		return resultOf(NeedsImprovement)
	}
	return resultOf(Unrated)
}

func (c *Classifier) rated(score float64) Tier {
	switch {
	case score >= c.thresholds.Excellent:
		return Excellent
	case score >= c.thresholds.Good:
		return Good
	case score >= c.thresholds.Average:
		return Average
	default:
		return NeedsImprovement
	}
}

// Band describes one row of the threshold table.
type Band struct {
	Result
	Min float64 `json:"min"`
	Max float64 `json:"max"` // exclusive, except for the top band
}

// Table returns the active table from best to worst tier.
func (c *Classifier) Table() []Band {
	t := c.thresholds
	return []Band{
		{Result: resultOf(Excellent), Min: t.Excellent, Max: maxScore},
		{Result: resultOf(Good), Min: t.Good, Max: t.Excellent},
		{Result: resultOf(Average), Min: t.Average, Max: t.Good},
		{Result: resultOf(NeedsImprovement), Min: minScore, Max: t.Average},
	}
}

func clamp(score float64) float64 {
	return math.Max(minScore, math.Min(maxScore, score))
}

var defaultClassifier = New()

// Classify maps a score with the canonical table and the Unrated policy.
func Classify(score float64) Result { return defaultClassifier.Classify(score) }

// ClassifyPtr is Classify for an optional score.
func ClassifyPtr(score *float64) Result { return defaultClassifier.ClassifyPtr(score) }
