// Package constants is responsible for defining the constants used in the application.
package constants

import "log/slog"

var (
	// Version is the version of the application.
	Version = "Dev"
)

const (
	// CmdName is the name of the command line tool.
	CmdName = "coverage"

	// DefaultDataFile is the default name of the coverage data file.
	DefaultDataFile = ".coverage.json"

	// DataFileVersion is the version of the data file schema this build reads and writes.
	DataFileVersion = 1

	// ToolName is the name recorded in the meta section of data files.
	ToolName = "covmark"

	// AnnotationSuffix is appended to the source file name to form the annotated copy's name.
	AnnotationSuffix = ",cover"

	// DefaultHTMLDir is the default output directory of the html command.
	DefaultHTMLDir = "htmlcov"

	// DefaultHTMLTitle is the report heading used when none is configured.
	DefaultHTMLTitle = "Coverage report"

	// RCFileEnv overrides the configuration file search when set.
	RCFileEnv = "COVERAGE_RCFILE"

	// DebugEnv enables debug topics when set, same syntax as the --debug flag.
	DebugEnv = "COVERAGE_DEBUG"

	// DefaultLogLevel is the default log level selected without any verbosity flags.
	DefaultLogLevel = slog.LevelWarn
)

// DefaultRCFiles are the configuration files searched, in order, when no
// rcfile is given explicitly.
var DefaultRCFiles = []string{".coveragerc", "setup.cfg", "tox.ini", "pyproject.toml"}
