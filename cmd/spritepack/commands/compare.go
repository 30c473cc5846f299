package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SpritePack/internal/engine"
)

func newCompareCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "compare <input>",
		Short: "Show the layout every ordering produces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rects, settings, err := a.loadRects(cmd, args[0])
			if err != nil {
				return err
			}

			packer := engine.New(settings, engine.WithLogger(a.logger))
			reports, err := packer.CompareHints(cmd.Context(), rects, settings.Hints)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(reports)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderComparison(reports))
			return nil
		},
	}

	addSettingsFlags(cmd.Flags())
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the reports as JSON")
	return cmd
}
