package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRankingsCommand(g *globals) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "rankings",
		Short: "Show the ranking, gold then silver then bronze",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("%w: --limit must not be negative", ErrUsage)
			}
			c, err := g.client()
			if err != nil {
				return err
			}
			buckets, err := c.Rankings(cmd.Context())
			if err != nil {
				return err
			}
			entries := g.view().Flatten(buckets, limit)
			if g.json() {
				return renderJSON(cmd.OutOrStdout(), entries)
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{strconv.Itoa(e.Rank), e.Bucket, e.Name, e.Dept, score(e.Score), badge(e.Tier)})
			}
			return renderTable(cmd.OutOrStdout(), []string{"#", "Bucket", "Name", "Department", "Score", "Tier"}, rows)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of entries, 0 for all")
	return cmd
}
