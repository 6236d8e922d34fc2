package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/covmark/covmark/internal/covdata"
	"github.com/covmark/covmark/internal/debugopts"
)

func installCombineCmd(app *App) {
	combineCmd := &cobra.Command{
		Use:   "combine [data files]",
		Short: "Combine parallel coverage data files",
		Long: `Combine coverage measurements into the main data file.

Parallel data files, named like the data file plus a dotted suffix, are found automatically; additional data files can be listed as arguments. Combined inputs are removed once merged.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := covdata.Combine(app.logFor(debugopts.TopicDataIO), app.dataFile(), args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Combined %d data file(s) into %s\n", n, app.dataFile())
			return nil
		},
	}

	app.cmd.AddCommand(combineCmd)
}
