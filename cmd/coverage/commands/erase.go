package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/covmark/covmark/internal/covdata"
	"github.com/covmark/covmark/internal/debugopts"
)

func installEraseCmd(app *App) {
	eraseCmd := &cobra.Command{
		Use:   "erase",
		Short: "Erase collected coverage data",
		Long:  "Delete the coverage data file and any parallel data files next to it.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return app.usageErrorf("unexpected arguments: %s", strings.Join(args, " "))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return covdata.Erase(app.logFor(debugopts.TopicDataIO), app.dataFile())
		},
	}

	app.cmd.AddCommand(eraseCmd)
}
