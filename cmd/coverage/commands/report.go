package commands

import (
	"github.com/spf13/cobra"

	"github.com/covmark/covmark/internal/debugopts"
	"github.com/covmark/covmark/internal/filematch"
	"github.com/covmark/covmark/internal/reporter"
)

type reportConfig struct {
	ShowMissing  bool
	IgnoreErrors bool
	Include      []string
	Omit         []string
	FailUnder    float64
	Precision    int

	modules []string
}

func installReportCmd(app *App) {
	reportCmd := &cobra.Command{
		Use:   "report [flags] [modules]",
		Short: "Report per-file coverage",
		Long:  "Report coverage statistics per measured file: statement count, missed statements, and coverage percentage, with an optional column of missed line ranges.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.config.Report.modules = args
			return app.reportRun(cmd)
		},
	}

	reportCmd.Flags().BoolVarP(&app.config.Report.ShowMissing, "show-missing", "m", false, "show line numbers of statements that weren't executed")
	reportCmd.Flags().BoolVarP(&app.config.Report.IgnoreErrors, "ignore-errors", "i", false, "ignore errors while reading source files")
	reportCmd.Flags().StringSliceVar(&app.config.Report.Include, "include", nil, "include only files whose paths match one of these patterns, accepts shell-style wildcards, which must be quoted")
	reportCmd.Flags().StringSliceVar(&app.config.Report.Omit, "omit", nil, "omit files whose paths match one of these patterns, accepts shell-style wildcards, which must be quoted")
	reportCmd.Flags().Float64Var(&app.config.Report.FailUnder, "fail-under", 0, "exit with status 2 if total coverage is below this percentage")
	reportCmd.Flags().IntVar(&app.config.Report.Precision, "precision", 0, "number of digits after the decimal point in coverage percentages")

	app.cmd.AddCommand(reportCmd)
}

// reportRun runs the report command.
func (a *App) reportRun(cmd *cobra.Command) error {
	cfg := a.config.Report
	s := a.settings
	if !cmd.Flags().Changed("show-missing") {
		cfg.ShowMissing = s.Report.ShowMissing
	}
	if !cmd.Flags().Changed("ignore-errors") {
		cfg.IgnoreErrors = s.Report.IgnoreErrors
	}
	if !cmd.Flags().Changed("include") {
		cfg.Include = s.IncludeFor(s.Report.Include)
	}
	if !cmd.Flags().Changed("omit") {
		cfg.Omit = s.OmitFor(s.Report.Omit)
	}
	if !cmd.Flags().Changed("fail-under") {
		cfg.FailUnder = s.Report.FailUnder
	}
	if !cmd.Flags().Changed("precision") {
		cfg.Precision = s.Report.Precision
	}
	if err := filematch.Validate(append(append([]string{}, cfg.Include...), cfg.Omit...)); err != nil {
		return a.usageErrorf("%v", err)
	}
	if cfg.Precision < 0 || cfg.Precision > 6 {
		return a.usageErrorf("precision must be between 0 and 6, got %d", cfg.Precision)
	}

	files, data, err := a.selectFiles(cfg.modules, cfg.Include, cfg.Omit, cfg.IgnoreErrors)
	if err != nil {
		return err
	}

	r := reporter.New(a.logFor(debugopts.TopicTrace), cfg.ShowMissing, cfg.Precision)
	total, err := r.Write(cmd.OutOrStdout(), data, files)
	if err != nil {
		return err
	}
	return r.CheckFailUnder(total, cfg.FailUnder)
}
