package model

// Medal names of the backend ranking buckets, best first.
const (
	BucketGold   = "gold"
	BucketSilver = "silver"
	BucketBronze = "bronze"
)

// RankingBuckets is the backend's server-side ranking, grouped by medal.
type RankingBuckets struct {
	Gold   []Intern `json:"gold"`
	Silver []Intern `json:"silver"`
	Bronze []Intern `json:"bronze"`
}

// Len returns the total number of ranked interns.
func (b RankingBuckets) Len() int {
	return len(b.Gold) + len(b.Silver) + len(b.Bronze)
}
