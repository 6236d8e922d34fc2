package commands

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/covmark/covmark/internal/constants"
	"github.com/covmark/covmark/internal/covdata"
	"github.com/covmark/covmark/internal/debugopts"
)

func installDebugCmd(app *App) {
	debugCmd := &cobra.Command{
		Use:       "debug [sys|data|config]",
		Short:     "Dump diagnostic information",
		Long:      "Dump diagnostic information: the runtime environment (sys), a summary of the data file (data), or the resolved configuration (config).",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"sys", "data", "config"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "sys":
				return app.debugSys(cmd)
			case "data":
				return app.debugData(cmd)
			default:
				return app.debugConfig(cmd)
			}
		},
	}

	app.cmd.AddCommand(debugCmd)
}

func (a *App) debugSys(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	exe, err := os.Executable()
	if err != nil {
		exe = fmt.Sprintf("unknown (%v)", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = fmt.Sprintf("unknown (%v)", err)
	}

	fmt.Fprintf(w, "version: %s\n", constants.Version)
	fmt.Fprintf(w, "go: %s\n", runtime.Version())
	fmt.Fprintf(w, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "executable: %s\n", exe)
	fmt.Fprintf(w, "cwd: %s\n", cwd)
	fmt.Fprintf(w, "data_file: %s\n", a.dataFile())
	fmt.Fprintf(w, "rcfile: %s\n", orNone(a.settings.RCFile))
	fmt.Fprintf(w, "%s: %s\n", constants.RCFileEnv, orNone(os.Getenv(constants.RCFileEnv)))
	fmt.Fprintf(w, "%s: %s\n", constants.DebugEnv, orNone(os.Getenv(constants.DebugEnv)))
	return nil
}

func (a *App) debugData(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "path: %s\n", a.dataFile())

	data, err := covdata.Load(a.logFor(debugopts.TopicDataIO), a.dataFile())
	if errors.Is(err, covdata.ErrNoData) {
		fmt.Fprintln(w, "has_data: false")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "has_data: true")
	fmt.Fprintf(w, "measured_files: %d\n", len(data.Files))
	for _, file := range data.MeasuredFiles() {
		fd := data.Files[file]
		fmt.Fprintf(w, "    %s: %d statements, %d executed, %d excluded\n",
			file, len(fd.Statements), len(fd.Executed), len(fd.Excluded))
	}

	parallels, err := covdata.ParallelFiles(a.dataFile())
	if err != nil {
		return err
	}
	sort.Strings(parallels)
	fmt.Fprintf(w, "parallel_files: %d\n", len(parallels))
	for _, p := range parallels {
		fmt.Fprintf(w, "    %s\n", p)
	}
	return nil
}

func (a *App) debugConfig(cmd *cobra.Command) error {
	out, err := yaml.Marshal(a.settings)
	if err != nil {
		return fmt.Errorf("could not render settings: %v", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func orNone(s string) string {
	if s == "" {
		return "-none-"
	}
	return s
}
