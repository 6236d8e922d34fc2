package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/covmark/covmark/internal/annotate"
	"github.com/covmark/covmark/internal/covdata"
	"github.com/covmark/covmark/internal/debugopts"
	"github.com/covmark/covmark/internal/filematch"
)

type annotateConfig struct {
	Directory    string
	IgnoreErrors bool
	Include      []string
	Omit         []string

	modules []string
}

func installAnnotateCmd(app *App) {
	annotateCmd := &cobra.Command{
		Use:   "annotate [flags] [modules]",
		Short: "Annotate source files with execution markers",
		Long: `Make annotated copies of the given files, marking statements that are executed with > and statements that are missed with !.

Annotated copies are written next to their sources, or into the directory given with -d.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.config.Annotate.modules = args
			return app.annotateRun(cmd)
		},
	}

	annotateCmd.Flags().StringVarP(&app.config.Annotate.Directory, "directory", "d", "", "write the output files to this directory")
	annotateCmd.Flags().BoolVarP(&app.config.Annotate.IgnoreErrors, "ignore-errors", "i", false, "ignore errors while reading source files")
	annotateCmd.Flags().StringSliceVar(&app.config.Annotate.Include, "include", nil, "include only files whose paths match one of these patterns, accepts shell-style wildcards, which must be quoted")
	annotateCmd.Flags().StringSliceVar(&app.config.Annotate.Omit, "omit", nil, "omit files whose paths match one of these patterns, accepts shell-style wildcards, which must be quoted")

	if err := annotateCmd.MarkFlagDirname("directory"); err != nil {
		// This should never happen.
		panic(fmt.Sprintf("failed to mark directory flag as dirname: %v", err))
	}

	app.cmd.AddCommand(annotateCmd)
}

// annotateRun runs the annotate command.
func (a *App) annotateRun(cmd *cobra.Command) error {
	cfg := a.config.Annotate
	s := a.settings
	if !cmd.Flags().Changed("directory") {
		cfg.Directory = s.Annotate.Directory
	}
	if !cmd.Flags().Changed("ignore-errors") {
		cfg.IgnoreErrors = s.Annotate.IgnoreErrors
	}
	if !cmd.Flags().Changed("include") {
		cfg.Include = s.IncludeFor(s.Annotate.Include)
	}
	if !cmd.Flags().Changed("omit") {
		cfg.Omit = s.OmitFor(s.Annotate.Omit)
	}
	if err := filematch.Validate(append(append([]string{}, cfg.Include...), cfg.Omit...)); err != nil {
		return a.usageErrorf("%v", err)
	}

	files, data, err := a.selectFiles(cfg.modules, cfg.Include, cfg.Omit, cfg.IgnoreErrors)
	if err != nil {
		return err
	}

	ann := annotate.New(a.logFor(debugopts.TopicDataIO), cfg.Directory, cfg.IgnoreErrors)
	n, err := ann.Run(data, files)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Annotated %d file(s)\n", n)
	return nil
}

// selectFiles loads the data file and narrows its measured files with the
// module arguments and the include/omit patterns.
func (a *App) selectFiles(modules, include, omit []string, ignoreErrors bool) ([]string, *covdata.Data, error) {
	data, err := covdata.Load(a.logFor(debugopts.TopicDataIO), a.dataFile())
	if err != nil {
		if errors.Is(err, covdata.ErrNoData) {
			return nil, nil, fmt.Errorf("%w; produce it first or merge parallel data with %q", err, "coverage combine")
		}
		return nil, nil, err
	}

	sel := filematch.New(a.logFor(debugopts.TopicTrace), modules, include, omit)
	files, unmatched := sel.Select(data.MeasuredFiles())
	if len(unmatched) > 0 && !ignoreErrors {
		return nil, nil, fmt.Errorf("no measured files match: %s", strings.Join(unmatched, ", "))
	}
	return files, data, nil
}
