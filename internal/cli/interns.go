package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/internboard/internal/domain/model"
	"github.com/okian/internboard/internal/domain/roster"
	"github.com/okian/internboard/internal/domain/tier"
	"github.com/okian/internboard/internal/domain/types"
)

type listFlags struct {
	search     string
	department string
	course     string
	mentor     string
	status     string
	tier       string
	active     string
	sort       string
	order      string
	page       int
	pageSize   int
}

func newInternsCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interns",
		Short: "List and show interns",
	}
	cmd.AddCommand(newInternsListCommand(g), newInternsShowCommand(g))
	return cmd
}

func newInternsListCommand(g *globals) *cobra.Command {
	f := &listFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List interns with their tiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := f.query()
			if err != nil {
				return err
			}
			c, err := g.client()
			if err != nil {
				return err
			}
			interns, err := c.ListInterns(cmd.Context())
			if err != nil {
				return err
			}
			page := g.view().Apply(interns, q)
			if g.json() {
				return renderJSON(cmd.OutOrStdout(), page)
			}
			return renderPage(cmd, page)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.search, "search", "", "Match name, email, department or mentor")
	fl.StringVar(&f.department, "department", "", "Filter by department")
	fl.StringVar(&f.course, "course", "", "Filter by course")
	fl.StringVar(&f.mentor, "mentor", "", "Filter by mentor")
	fl.StringVar(&f.status, "status", "", "Filter by status (pending|approved|rejected)")
	fl.StringVar(&f.tier, "tier", "", "Filter by tier (excellent|good|average|needs_improvement|unrated)")
	fl.StringVar(&f.active, "active", "", "Filter by active flag (true|false)")
	fl.StringVar(&f.sort, "sort", string(roster.SortByName), "Sort by name|score|department|status")
	fl.StringVar(&f.order, "order", string(roster.Asc), "Sort order asc|desc")
	fl.IntVar(&f.page, "page", 1, "Page number")
	fl.IntVar(&f.pageSize, "page-size", roster.DefaultPageSize, "Rows per page")
	return cmd
}

func (f *listFlags) query() (roster.Query, error) {
	q := roster.Query{
		Search:     f.search,
		Department: f.department,
		Course:     f.course,
		Mentor:     f.mentor,
		SortBy:     roster.SortKey(strings.ToLower(f.sort)),
		Order:      roster.Order(strings.ToLower(f.order)),
		Page:       f.page,
		PageSize:   f.pageSize,
	}
	if f.status != "" {
		st, ok := model.ParseStatus(f.status)
		if !ok {
			return q, fmt.Errorf("%w: unknown status %q", ErrUsage, f.status)
		}
		q.Status = st
	}
	if f.tier != "" {
		t, ok := tier.Parse(f.tier)
		if !ok {
			return q, fmt.Errorf("%w: %w %q", ErrUsage, tier.ErrUnknownTier, f.tier)
		}
		q.Tier = &t
	}
	if f.active != "" {
		b, err := strconv.ParseBool(f.active)
		if err != nil {
			return q, fmt.Errorf("%w: --active must be true or false", ErrUsage)
		}
		q.Active = &b
	}
	return q, nil
}

func renderPage(cmd *cobra.Command, page types.Page) error {
	rows := make([][]string, 0, len(page.Items))
	for _, r := range page.Items {
		rows = append(rows, []string{r.ID, r.Name, r.Department, score(r.EffectiveScore), badge(r.Tier), string(r.Status)})
	}
	w := cmd.OutOrStdout()
	if err := renderTable(w, []string{"ID", "Name", "Department", "Score", "Tier", "Status"}, rows); err != nil {
		return err
	}
	s := page.Summary
	_, err := fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("page %d/%d  total %d  rated %d  average %s",
		page.Page, max(page.TotalPages, 1), page.Total, s.Rated, score(s.AverageScore))))
	return err
}

func newInternsShowCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one intern with its tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			in, err := c.GetIntern(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			row := g.view().Row(in)
			if g.json() {
				return renderJSON(cmd.OutOrStdout(), row)
			}
			rows := [][]string{
				{"ID", row.ID},
				{"Name", row.Name},
				{"Email", row.Email},
				{"Department", row.Department},
				{"Course", row.Course},
				{"Mentor", row.Mentor},
				{"Score", score(row.EffectiveScore)},
				{"Tier", badge(row.Tier)},
				{"Status", string(row.Status)},
				{"Active", strconv.FormatBool(row.IsActive)},
				{"LOR generated", strconv.FormatBool(row.LORGenerated)},
				{"LOR sent", strconv.FormatBool(row.LORSent)},
			}
			return renderTable(cmd.OutOrStdout(), []string{"Field", "Value"}, rows)
		},
	}
}
