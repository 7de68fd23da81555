package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/internboard/internal/app"
	"github.com/okian/internboard/internal/domain/model"
)

func newLORCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lor",
		Short: "Generate or send letters of recommendation",
	}
	cmd.AddCommand(
		newLORActionCommand(g, model.LORGenerate, "Generate the letter for an intern"),
		newLORActionCommand(g, model.LORSend, "Send a generated letter to an intern"),
	)
	return cmd
}

func newLORActionCommand(g *globals, action model.LORAction, short string) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   string(action) + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			id := args[0]
			if !force {
				in, err := c.GetIntern(cmd.Context(), id)
				if err != nil {
					return err
				}
				if err := service.Eligible(&in, action); err != nil {
					return err
				}
			}
			res, err := c.RunLOR(cmd.Context(), id, action)
			if err != nil {
				return err
			}
			if g.json() {
				return renderJSON(cmd.OutOrStdout(), res)
			}
			msg := res.Message
			if msg == "" {
				msg = fmt.Sprintf("lor %s done for %s", action, id)
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(msg)); err != nil {
				return err
			}
			if res.URL != "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), res.URL)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Skip the local eligibility check")
	return cmd
}
