package cli

import (
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/internboard/internal/domain/tier"
)

type classified struct {
	Input string      `json:"input"`
	Score *float64    `json:"score"`
	Tier  tier.Result `json:"tier_info"`
}

func newClassifyCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <score>...",
		Short: "Classify scores into performance tiers",
		Long:  "Classify each score. Empty or non-numeric values are treated as missing.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := g.classifier()
			out := make([]classified, 0, len(args))
			for _, a := range args {
				s := parseScore(a)
				out = append(out, classified{Input: a, Score: s, Tier: c.ClassifyPtr(s)})
			}
			if g.json() {
				return renderJSON(cmd.OutOrStdout(), out)
			}
			rows := make([][]string, 0, len(out))
			for _, r := range out {
				rows = append(rows, []string{r.Input, badge(r.Tier), medal(r.Tier)})
			}
			return renderTable(cmd.OutOrStdout(), []string{"Score", "Tier", "Medal"}, rows)
		},
	}
}

func newTiersCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "tiers",
		Short: "Show the tier threshold table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := g.classifier()
			bands := c.Table()
			if g.json() {
				return renderJSON(cmd.OutOrStdout(), bands)
			}
			rows := make([][]string, 0, len(bands)+1)
			for _, b := range bands {
				rows = append(rows, []string{badge(b.Result), bandRange(b), medal(b.Result)})
			}
			if c.MissingPolicy() == tier.MissingAsUnrated {
				rows = append(rows, []string{badge(c.ClassifyPtr(nil)), "no score", "-"})
			}
			return renderTable(cmd.OutOrStdout(), []string{"Tier", "Range", "Medal"}, rows)
		},
	}
}

func bandRange(b tier.Band) string {
	lo := strconv.FormatFloat(b.Min, 'f', -1, 64)
	if b.Tier == tier.Excellent {
		return ">= " + lo
	}
	return lo + " - <" + strconv.FormatFloat(b.Max, 'f', -1, 64)
}

func parseScore(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	return &v
}
