// Package commands implements the coverage command line tool.
package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/covmark/covmark/internal/cli"
	"github.com/covmark/covmark/internal/config"
	"github.com/covmark/covmark/internal/constants"
	"github.com/covmark/covmark/internal/debugopts"
)

// App represents the application.
type App struct {
	cmd   *cobra.Command
	viper *viper.Viper

	config appConfig

	settings *config.Settings
	debug    debugopts.Options
}

// appConfig holds the configuration for the application.
// The persistent fields are filled by viper (flags and COVERAGE_* environment
// variables), the per-command sections directly by their flags.
type appConfig struct {
	Verbosity int
	RCFile    string   `mapstructure:"rcfile"`
	Debug     []string `mapstructure:"debug"`
	DataFile  string   `mapstructure:"data-file"`

	Annotate annotateConfig `mapstructure:"-"`
	Report   reportConfig   `mapstructure:"-"`
	HTML     htmlConfig     `mapstructure:"-"`
}

// New creates a new App instance with default values.
func New() (*App, error) {
	a := App{}

	a.cmd = &cobra.Command{
		Use:           constants.CmdName,
		Short:         "Measure, combine and annotate line coverage data",
		Long:          "Work with line coverage data files: merge parallel measurements, report per-file coverage, and write annotated copies of sources marking executed and missed statements.",
		Version:       constants.Version,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Command parsing has been successful. Returns to not print usage anymore.
			a.cmd.SilenceUsage = true
			cli.SetVerbosity(a.config.Verbosity)

			if err := a.viper.Unmarshal(&a.config, viper.DecodeHook(
				mapstructure.StringToSliceHookFunc(","))); err != nil {
				return fmt.Errorf("unable to decode configuration: %w", err)
			}

			settings, err := config.Load(slog.Default(), a.config.RCFile)
			if err != nil {
				return err
			}
			a.settings = settings

			opts, err := debugopts.Parse(append(append([]string{}, a.config.Debug...), settings.Run.Debug...)...)
			if err != nil {
				a.cmd.SilenceUsage = false
				return err
			}
			a.debug = opts

			a.logFor(debugopts.TopicProcess).Debug("Starting", "command", cmd.Name(), "args", args, "rcfile", settings.RCFile)
			a.logFor(debugopts.TopicConfig).Debug("Resolved settings", "rcfile", settings.RCFile, "data_file", a.dataFile())
			return nil
		},
	}
	a.viper = viper.New()
	a.cmd.CompletionOptions.HiddenDefaultCmd = true

	installRootFlags(&a)

	a.viper.SetEnvPrefix(strings.ToUpper(constants.CmdName))
	a.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.viper.AutomaticEnv()
	if err := a.viper.BindPFlags(a.cmd.PersistentFlags()); err != nil {
		return nil, err
	}

	installAnnotateCmd(&a)
	installReportCmd(&a)
	installHTMLCmd(&a)
	installCombineCmd(&a)
	installEraseCmd(&a)
	installDebugCmd(&a)

	return &a, nil
}

func installRootFlags(app *App) {
	cmd := app.cmd

	cmd.PersistentFlags().CountVarP(&app.config.Verbosity, "verbose", "v", "issue INFO (-v), DEBUG (-vv)")
	cmd.PersistentFlags().StringVar(&app.config.RCFile, "rcfile", "", "configuration file; defaults to searching "+strings.Join(constants.DefaultRCFiles, ", ")+" [env: "+constants.RCFileEnv+"]")
	cmd.PersistentFlags().StringSliceVar(&app.config.Debug, "debug", nil, "debug topics to enable ("+strings.Join(debugopts.ValidTopics(), ", ")+"), comma separated [env: "+constants.DebugEnv+"]")
	cmd.PersistentFlags().StringVar(&app.config.DataFile, "data-file", "", "coverage data file to read, defaults to "+constants.DefaultDataFile+" or the configured [run] data_file")

	if err := cmd.MarkPersistentFlagFilename("rcfile"); err != nil {
		// This should never happen.
		panic(fmt.Sprintf("failed to mark rcfile flag as filename: %v", err))
	}
	if err := cmd.MarkPersistentFlagFilename("data-file"); err != nil {
		// This should never happen.
		panic(fmt.Sprintf("failed to mark data-file flag as filename: %v", err))
	}
}

// Run executes the command and associated process, returning an error if any.
func (a *App) Run() error {
	return a.cmd.Execute()
}

// UsageError returns if the error is a command parsing or runtime one.
func (a *App) UsageError() bool {
	return !a.cmd.SilenceUsage
}

// SetArgs changes the root command args. Shouldn't be in general necessary apart for tests.
func (a *App) SetArgs(args []string) {
	a.cmd.SetArgs(args)
}

// RootCmd returns the root command.
func (a *App) RootCmd() cobra.Command {
	return *a.cmd
}

// dataFile returns the effective coverage data file path.
func (a *App) dataFile() string {
	if a.config.DataFile != "" {
		return a.config.DataFile
	}
	return a.settings.Run.DataFile
}

// logFor returns the default logger, switched to the dedicated debug logger
// when the given debug topic was requested.
func (a *App) logFor(topic string) *slog.Logger {
	if a.debug.Enabled(topic) {
		return a.debug.Logger(topic)
	}
	return slog.Default()
}

// usageErrorf reports a bad invocation, making cobra print the usage again.
func (a *App) usageErrorf(format string, args ...any) error {
	a.cmd.SilenceUsage = false
	return fmt.Errorf(format, args...)
}
