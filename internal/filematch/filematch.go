// Package filematch selects the measured files a command operates on, based
// on module arguments and include/omit glob patterns.
package filematch

import (
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// Selector narrows a set of measured files.
type Selector struct {
	// Modules are positional arguments: file paths, directories, or glob
	// patterns. Empty means all measured files.
	Modules []string
	// Include keeps only files matching one of the patterns. Empty keeps all.
	Include []string
	// Omit drops files matching one of the patterns.
	Omit []string

	log *slog.Logger
}

// New returns a Selector over the given restrictions.
func New(l *slog.Logger, modules, include, omit []string) *Selector {
	return &Selector{
		Modules: modules,
		Include: normalize(include),
		Omit:    normalize(omit),
		log:     l,
	}
}

// Select filters measured, which must be sorted, and returns the files to
// operate on plus the module arguments that matched nothing.
func (s *Selector) Select(measured []string) (selected []string, unmatched []string) {
	matchedModules := make(map[string]bool, len(s.Modules))

	for _, file := range measured {
		if len(s.Modules) > 0 {
			var hit bool
			for _, module := range s.Modules {
				if matchesModule(file, module) {
					matchedModules[module] = true
					hit = true
				}
			}
			if !hit {
				continue
			}
		}
		if len(s.Include) > 0 && !Match(file, s.Include) {
			s.log.Debug("File not included", "topic", "trace", "file", file)
			continue
		}
		if Match(file, s.Omit) {
			s.log.Debug("File omitted", "topic", "trace", "file", file)
			continue
		}
		selected = append(selected, file)
	}

	for _, module := range s.Modules {
		if !matchedModules[module] {
			unmatched = append(unmatched, module)
		}
	}
	return selected, unmatched
}

// Match reports whether file matches any of the shell-style patterns.
// Patterns support ** and are tried against the slash-normalized path and
// against the base name.
func Match(file string, patterns []string) bool {
	file = filepath.ToSlash(file)
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, file); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, path.Base(file)); err == nil && ok {
			return true
		}
	}
	return false
}

// Validate reports the first malformed pattern as an error.
func Validate(patterns []string) error {
	for _, pattern := range normalize(patterns) {
		if _, err := doublestar.Match(pattern, "x"); err != nil {
			return fmt.Errorf("invalid pattern %q: %v", pattern, err)
		}
	}
	return nil
}

// matchesModule reports whether file is the module itself, lives under it, or
// matches it as a glob pattern.
func matchesModule(file, module string) bool {
	file = filepath.ToSlash(file)
	module = strings.TrimSuffix(filepath.ToSlash(module), "/")
	if file == module || strings.HasPrefix(file, module+"/") {
		return true
	}
	if ok, err := doublestar.Match(module, file); err == nil && ok {
		return true
	}
	return false
}

func normalize(patterns []string) []string {
	var out []string
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(filepath.ToSlash(pattern))
		if pattern != "" {
			out = append(out, pattern)
		}
	}
	return out
}
