package cli

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/okian/internboard/internal/domain/model"
	"github.com/okian/internboard/internal/domain/tier"
)

// Score distribution of generated interns, as [min, range) pairs.
// Most interns land in the middle tiers; a few are elite or struggling.
var scoreBands = [...][2]float64{
	{50, 20}, // average, most common
	{70, 15}, // good
	{55, 25},
	{85, 15}, // excellent, rare
	{20, 30}, // needs improvement
	{65, 20},
	{40, 20},
	{0, 100}, // anything
}

var (
	seedFirstNames  = []string{"Asha", "Bea", "Chidi", "Dara", "Emil", "Farah", "Goran", "Hana", "Ivo", "Jun", "Kemi", "Lea"}
	seedLastNames   = []string{"Rao", "Okafor", "Chen", "Iyer", "Novak", "Haddad", "Sato", "Mensah", "Ruiz", "Berg"}
	seedDepartments = []string{"Platform", "Data", "Design", "Mobile", "Security"}
	seedMentors     = []string{"R. Iyer", "M. Chen", "A. Okafor", "S. Novak"}
)

type seedStats struct {
	Requested int            `json:"requested"`
	Created   int            `json:"created"`
	Failed    int            `json:"failed"`
	ByTier    map[string]int `json:"by_tier"`
	Duration  string         `json:"duration"`
}

func newSeedCommand(g *globals) *cobra.Command {
	var (
		count   int
		workers int
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create synthetic interns spread across all tiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 || workers < 1 {
				return fmt.Errorf("%w: --count and --workers must be positive", ErrUsage)
			}
			inputs := generateInterns(count)
			if dryRun {
				return renderJSON(cmd.OutOrStdout(), inputs)
			}
			c, err := g.client()
			if err != nil {
				return err
			}
			cl := g.classifier()
			stats := submitInterns(cmd.Context(), c, inputs, workers, cl)
			if g.json() {
				return renderJSON(cmd.OutOrStdout(), stats)
			}
			results := []tier.Result{cl.ClassifyPtr(nil)}
			for _, b := range cl.Table() {
				results = append(results, b.Result)
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results[1:] {
				rows = append(rows, []string{badge(r), strconv.Itoa(stats.ByTier[r.Tier.String()])})
			}
			if n := stats.ByTier[tier.Unrated.String()]; n > 0 {
				rows = append(rows, []string{badge(results[0]), strconv.Itoa(n)})
			}
			if err := renderTable(cmd.OutOrStdout(), []string{"Tier", "Created"}, rows); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %d of %d in %s, %d failed\n",
				stats.Created, stats.Requested, stats.Duration, stats.Failed)
			return err
		},
	}
	cmd.Flags().IntVar(&count, "count", 20, "Number of interns to create")
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent create requests")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the generated interns instead of creating them")
	return cmd
}

// generateInterns builds n valid create forms with unique emails.
func generateInterns(n int) []model.InternInput {
	out := make([]model.InternInput, n)
	for i := range out {
		first := seedFirstNames[rand.IntN(len(seedFirstNames))]
		last := seedLastNames[rand.IntN(len(seedLastNames))]
		active := rand.IntN(4) != 0
		out[i] = model.InternInput{
			Name:       first + " " + last,
			Email:      fmt.Sprintf("%s.%s.%s@example.com", first, last, uuid.NewString()[:8]),
			Department: seedDepartments[rand.IntN(len(seedDepartments))],
			Mentor:     seedMentors[rand.IntN(len(seedMentors))],
			Score:      model.Float(variedScore()),
			Status:     model.Statuses[rand.IntN(len(model.Statuses))],
			IsActive:   &active,
		}
	}
	return out
}

func variedScore() float64 {
	b := scoreBands[rand.IntN(len(scoreBands))]
	v := b[0] + rand.Float64()*b[1]
	return float64(int(v*10)) / 10
}

type internCreator interface {
	CreateIntern(ctx context.Context, in model.InternInput) (model.Intern, error)
}

// submitInterns creates inputs with a fixed number of workers and counts the
// created interns per tier. Failed and unsent inputs count as failed.
func submitInterns(ctx context.Context, c internCreator, inputs []model.InternInput, workers int, cl *tier.Classifier) seedStats {
	start := time.Now()
	stats := seedStats{Requested: len(inputs), ByTier: map[string]int{}}

	jobs := make(chan model.InternInput)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for range min(workers, len(inputs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for in := range jobs {
				created, err := c.CreateIntern(ctx, in)
				if err != nil {
					continue
				}
				s := created.Score
				if s == nil {
					s = in.Score
				}
				mu.Lock()
				stats.Created++
				stats.ByTier[cl.ClassifyPtr(s).Tier.String()]++
				mu.Unlock()
			}
		}()
	}

feed:
	for _, in := range inputs {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- in:
		}
	}
	close(jobs)
	wg.Wait()

	stats.Failed = stats.Requested - stats.Created
	stats.Duration = time.Since(start).Round(time.Millisecond).String()
	return stats
}
