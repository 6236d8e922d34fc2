// Package config is the implementation of the settings component.
// Settings come from an rcfile, which is either given explicitly or found by
// searching the working directory for the well-known configuration files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ubuntu/decorate"
	"gopkg.in/ini.v1"

	"github.com/covmark/covmark/internal/constants"
)

var (
	// ErrRCFileNotFound is returned when an explicitly requested rcfile does not exist.
	ErrRCFileNotFound = errors.New("configuration file not found")
)

// Run holds the settings shared by all commands.
type Run struct {
	DataFile string
	Include  []string
	Omit     []string
	Debug    []string
}

// Report holds the settings of the report command.
type Report struct {
	IgnoreErrors bool
	ShowMissing  bool
	Include      []string
	Omit         []string
	FailUnder    float64
	Precision    int
}

// Annotate holds the settings of the annotate command.
type Annotate struct {
	Directory    string
	IgnoreErrors bool
	Include      []string
	Omit         []string
}

// HTML holds the settings of the html command.
type HTML struct {
	Directory    string
	Title        string
	IgnoreErrors bool
	Include      []string
	Omit         []string
}

// Settings is the resolved tool configuration.
type Settings struct {
	// RCFile is the path of the configuration file the settings were read
	// from, or empty when running on defaults only.
	RCFile string

	Run      Run
	Report   Report
	Annotate Annotate
	HTML     HTML
}

// Default returns the settings used when no configuration file is present.
func Default() *Settings {
	return &Settings{
		Run:  Run{DataFile: constants.DefaultDataFile},
		HTML: HTML{Directory: constants.DefaultHTMLDir, Title: constants.DefaultHTMLTitle},
	}
}

// Load resolves and parses the configuration file.
//
// When rcfile is non-empty it must exist and parse, and for the shared
// formats (setup.cfg, tox.ini, pyproject.toml) it is used even when it
// carries no coverage sections. When rcfile is empty the well-known
// candidates are searched in order, and a shared file without coverage
// sections does not stop the search.
func Load(l *slog.Logger, rcfile string) (s *Settings, err error) {
	defer decorate.OnError(&err, "could not load configuration")

	if rcfile != "" {
		s := Default()
		if _, err := os.Stat(rcfile); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrRCFileNotFound, rcfile)
		}
		if _, err := readInto(s, rcfile); err != nil {
			return nil, err
		}
		s.RCFile = rcfile
		l.Debug("Read configuration file", "topic", "config", "file", rcfile)
		return s, nil
	}

	for _, candidate := range constants.DefaultRCFiles {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		s := Default()
		found, err := readInto(s, candidate)
		if err != nil {
			return nil, err
		}
		// A shared config file that does not mention coverage is not ours.
		if !found && candidate != ".coveragerc" {
			l.Debug("Configuration file has no coverage sections, continuing search", "topic", "config", "file", candidate)
			continue
		}
		s.RCFile = candidate
		l.Debug("Read configuration file", "topic", "config", "file", candidate)
		return s, nil
	}

	l.Debug("No configuration file found, using defaults", "topic", "config")
	return Default(), nil
}

// IncludeFor returns the include patterns for the given command section,
// falling back to the run section.
func (s *Settings) IncludeFor(include []string) []string {
	if len(include) > 0 {
		return include
	}
	return s.Run.Include
}

// OmitFor returns the omit patterns for the given command section, falling
// back to the run section.
func (s *Settings) OmitFor(omit []string) []string {
	if len(omit) > 0 {
		return omit
	}
	return s.Run.Omit
}

// readInto parses path into s based on its file name, reporting whether any
// coverage configuration was found in it.
func readInto(s *Settings, path string) (found bool, err error) {
	name := strings.ToLower(path)
	switch {
	case strings.HasSuffix(name, ".toml"):
		return readTOML(s, path)
	case strings.HasSuffix(name, "setup.cfg"), strings.HasSuffix(name, "tox.ini"):
		return readINI(s, path, "coverage:")
	default:
		return readINI(s, path, "")
	}
}

func readINI(s *Settings, path, prefix string) (found bool, err error) {
	defer decorate.OnError(&err, "invalid configuration file %s", path)

	cfg, err := ini.LoadSources(ini.LoadOptions{AllowPythonMultilineValues: true}, path)
	if err != nil {
		return false, err
	}

	if sec, err := cfg.GetSection(prefix + "run"); err == nil {
		found = true
		if sec.HasKey("data_file") {
			s.Run.DataFile = sec.Key("data_file").String()
		}
		if sec.HasKey("include") {
			s.Run.Include = splitList(sec.Key("include").String())
		}
		if sec.HasKey("omit") {
			s.Run.Omit = splitList(sec.Key("omit").String())
		}
		if sec.HasKey("debug") {
			s.Run.Debug = splitList(sec.Key("debug").String())
		}
	}

	if sec, err := cfg.GetSection(prefix + "report"); err == nil {
		found = true
		if sec.HasKey("ignore_errors") {
			if s.Report.IgnoreErrors, err = sec.Key("ignore_errors").Bool(); err != nil {
				return false, fmt.Errorf("ignore_errors: %v", err)
			}
		}
		if sec.HasKey("show_missing") {
			if s.Report.ShowMissing, err = sec.Key("show_missing").Bool(); err != nil {
				return false, fmt.Errorf("show_missing: %v", err)
			}
		}
		if sec.HasKey("include") {
			s.Report.Include = splitList(sec.Key("include").String())
		}
		if sec.HasKey("omit") {
			s.Report.Omit = splitList(sec.Key("omit").String())
		}
		if sec.HasKey("fail_under") {
			if s.Report.FailUnder, err = sec.Key("fail_under").Float64(); err != nil {
				return false, fmt.Errorf("fail_under: %v", err)
			}
		}
		if sec.HasKey("precision") {
			if s.Report.Precision, err = sec.Key("precision").Int(); err != nil {
				return false, fmt.Errorf("precision: %v", err)
			}
		}
	}

	if sec, err := cfg.GetSection(prefix + "annotate"); err == nil {
		found = true
		if sec.HasKey("directory") {
			s.Annotate.Directory = sec.Key("directory").String()
		}
		if sec.HasKey("ignore_errors") {
			if s.Annotate.IgnoreErrors, err = sec.Key("ignore_errors").Bool(); err != nil {
				return false, fmt.Errorf("ignore_errors: %v", err)
			}
		}
		if sec.HasKey("include") {
			s.Annotate.Include = splitList(sec.Key("include").String())
		}
		if sec.HasKey("omit") {
			s.Annotate.Omit = splitList(sec.Key("omit").String())
		}
	}

	if sec, err := cfg.GetSection(prefix + "html"); err == nil {
		found = true
		if sec.HasKey("directory") {
			s.HTML.Directory = sec.Key("directory").String()
		}
		if sec.HasKey("title") {
			s.HTML.Title = sec.Key("title").String()
		}
		if sec.HasKey("ignore_errors") {
			if s.HTML.IgnoreErrors, err = sec.Key("ignore_errors").Bool(); err != nil {
				return false, fmt.Errorf("ignore_errors: %v", err)
			}
		}
		if sec.HasKey("include") {
			s.HTML.Include = splitList(sec.Key("include").String())
		}
		if sec.HasKey("omit") {
			s.HTML.Omit = splitList(sec.Key("omit").String())
		}
	}

	return found, nil
}

// tomlSettings mirrors the [tool.coverage.*] tables of a pyproject.toml.
type tomlSettings struct {
	Tool struct {
		Coverage struct {
			Run struct {
				DataFile *string  `toml:"data_file"`
				Include  []string `toml:"include"`
				Omit     []string `toml:"omit"`
				Debug    []string `toml:"debug"`
			} `toml:"run"`
			Report struct {
				IgnoreErrors *bool    `toml:"ignore_errors"`
				ShowMissing  *bool    `toml:"show_missing"`
				Include      []string `toml:"include"`
				Omit         []string `toml:"omit"`
				FailUnder    *float64 `toml:"fail_under"`
				Precision    *int     `toml:"precision"`
			} `toml:"report"`
			Annotate struct {
				Directory    *string  `toml:"directory"`
				IgnoreErrors *bool    `toml:"ignore_errors"`
				Include      []string `toml:"include"`
				Omit         []string `toml:"omit"`
			} `toml:"annotate"`
			HTML struct {
				Directory    *string  `toml:"directory"`
				Title        *string  `toml:"title"`
				IgnoreErrors *bool    `toml:"ignore_errors"`
				Include      []string `toml:"include"`
				Omit         []string `toml:"omit"`
			} `toml:"html"`
		} `toml:"coverage"`
	} `toml:"tool"`
}

func readTOML(s *Settings, path string) (found bool, err error) {
	defer decorate.OnError(&err, "invalid configuration file %s", path)

	var doc tomlSettings
	md, err := toml.DecodeFile(path, &doc)
	if err != nil {
		return false, err
	}
	if !md.IsDefined("tool", "coverage") {
		return false, nil
	}

	cov := doc.Tool.Coverage
	if cov.Run.DataFile != nil {
		s.Run.DataFile = *cov.Run.DataFile
	}
	if cov.Run.Include != nil {
		s.Run.Include = cov.Run.Include
	}
	if cov.Run.Omit != nil {
		s.Run.Omit = cov.Run.Omit
	}
	if cov.Run.Debug != nil {
		s.Run.Debug = cov.Run.Debug
	}

	if cov.Report.IgnoreErrors != nil {
		s.Report.IgnoreErrors = *cov.Report.IgnoreErrors
	}
	if cov.Report.ShowMissing != nil {
		s.Report.ShowMissing = *cov.Report.ShowMissing
	}
	if cov.Report.Include != nil {
		s.Report.Include = cov.Report.Include
	}
	if cov.Report.Omit != nil {
		s.Report.Omit = cov.Report.Omit
	}
	if cov.Report.FailUnder != nil {
		s.Report.FailUnder = *cov.Report.FailUnder
	}
	if cov.Report.Precision != nil {
		s.Report.Precision = *cov.Report.Precision
	}

	if cov.Annotate.Directory != nil {
		s.Annotate.Directory = *cov.Annotate.Directory
	}
	if cov.Annotate.IgnoreErrors != nil {
		s.Annotate.IgnoreErrors = *cov.Annotate.IgnoreErrors
	}
	if cov.Annotate.Include != nil {
		s.Annotate.Include = cov.Annotate.Include
	}
	if cov.Annotate.Omit != nil {
		s.Annotate.Omit = cov.Annotate.Omit
	}

	if cov.HTML.Directory != nil {
		s.HTML.Directory = *cov.HTML.Directory
	}
	if cov.HTML.Title != nil {
		s.HTML.Title = *cov.HTML.Title
	}
	if cov.HTML.IgnoreErrors != nil {
		s.HTML.IgnoreErrors = *cov.HTML.IgnoreErrors
	}
	if cov.HTML.Include != nil {
		s.HTML.Include = cov.HTML.Include
	}
	if cov.HTML.Omit != nil {
		s.HTML.Omit = cov.HTML.Omit
	}

	return true, nil
}

// splitList parses an INI list value, accepting both comma and newline
// separated entries.
func splitList(value string) []string {
	var items []string
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == '\n' }) {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}
