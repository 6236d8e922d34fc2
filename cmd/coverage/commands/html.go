package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/covmark/covmark/internal/debugopts"
	"github.com/covmark/covmark/internal/filematch"
	"github.com/covmark/covmark/internal/htmlreport"
)

type htmlConfig struct {
	Directory    string
	Title        string
	IgnoreErrors bool
	Include      []string
	Omit         []string

	modules []string
}

func installHTMLCmd(app *App) {
	htmlCmd := &cobra.Command{
		Use:   "html [flags] [modules]",
		Short: "Write an HTML coverage report",
		Long: `Write a browsable HTML report: an index page with per-file coverage and one page per source file with executed, missed and excluded lines highlighted.

The report is written to the directory given with -d, htmlcov by default.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.config.HTML.modules = args
			return app.htmlRun(cmd)
		},
	}

	htmlCmd.Flags().StringVarP(&app.config.HTML.Directory, "directory", "d", "", "write the report pages to this directory")
	htmlCmd.Flags().StringVar(&app.config.HTML.Title, "title", "", "report heading on every page")
	htmlCmd.Flags().BoolVarP(&app.config.HTML.IgnoreErrors, "ignore-errors", "i", false, "ignore errors while reading source files")
	htmlCmd.Flags().StringSliceVar(&app.config.HTML.Include, "include", nil, "include only files whose paths match one of these patterns, accepts shell-style wildcards, which must be quoted")
	htmlCmd.Flags().StringSliceVar(&app.config.HTML.Omit, "omit", nil, "omit files whose paths match one of these patterns, accepts shell-style wildcards, which must be quoted")

	if err := htmlCmd.MarkFlagDirname("directory"); err != nil {
		// This should never happen.
		panic(fmt.Sprintf("failed to mark directory flag as dirname: %v", err))
	}

	app.cmd.AddCommand(htmlCmd)
}

// htmlRun runs the html command.
func (a *App) htmlRun(cmd *cobra.Command) error {
	cfg := a.config.HTML
	s := a.settings
	if !cmd.Flags().Changed("directory") {
		cfg.Directory = s.HTML.Directory
	}
	if !cmd.Flags().Changed("title") {
		cfg.Title = s.HTML.Title
	}
	if !cmd.Flags().Changed("ignore-errors") {
		cfg.IgnoreErrors = s.HTML.IgnoreErrors
	}
	if !cmd.Flags().Changed("include") {
		cfg.Include = s.IncludeFor(s.HTML.Include)
	}
	if !cmd.Flags().Changed("omit") {
		cfg.Omit = s.OmitFor(s.HTML.Omit)
	}
	if err := filematch.Validate(append(append([]string{}, cfg.Include...), cfg.Omit...)); err != nil {
		return a.usageErrorf("%v", err)
	}

	files, data, err := a.selectFiles(cfg.modules, cfg.Include, cfg.Omit, cfg.IgnoreErrors)
	if err != nil {
		return err
	}

	w := htmlreport.New(a.logFor(debugopts.TopicDataIO), cfg.Directory, cfg.Title, cfg.IgnoreErrors)
	n, err := w.Run(data, files)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote HTML report for %d file(s) to %s\n", n, filepath.Join(cfg.Directory, "index.html"))
	return nil
}
