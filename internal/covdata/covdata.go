// Package covdata is the implementation of the coverage data file component.
// A data file records, per measured source file, which lines are statements,
// which of those were executed, and which lines were excluded from measurement.
package covdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/ubuntu/decorate"

	"github.com/covmark/covmark/internal/constants"
	"github.com/covmark/covmark/internal/fileutils"
)

var (
	// ErrNoData is returned when a required data file does not exist.
	ErrNoData = errors.New("no coverage data file")
)

// Meta identifies the schema and producer of a data file.
type Meta struct {
	Version int    `json:"version"`
	Tool    string `json:"tool"`
}

// FileData is the measurement recorded for a single source file.
type FileData struct {
	Statements []int `json:"statements"`
	Executed   []int `json:"executed"`
	Excluded   []int `json:"excluded,omitempty"`
}

// Data is the in-memory form of a coverage data file.
type Data struct {
	Meta  Meta                `json:"meta"`
	Files map[string]FileData `json:"files"`
}

// New returns an empty Data with current meta information.
func New() *Data {
	return &Data{
		Meta:  Meta{Version: constants.DataFileVersion, Tool: constants.ToolName},
		Files: make(map[string]FileData),
	}
}

// Load reads and validates the data file at path.
// A missing or zero-byte file is reported as ErrNoData so callers can decide
// whether that is fatal for them.
func Load(l *slog.Logger, path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoData, path)
		}
		return nil, fmt.Errorf("could not read data file %s: %v", path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoData, path)
	}

	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("malformed data file %s: %v", path, err)
	}
	if d.Meta.Version != constants.DataFileVersion {
		return nil, fmt.Errorf("data file %s has version %d, this build reads version %d", path, d.Meta.Version, constants.DataFileVersion)
	}
	if d.Files == nil {
		d.Files = make(map[string]FileData)
	}
	d.normalize()

	l.Debug("Read data file", "topic", "dataio", "file", path, "measured", len(d.Files))
	return &d, nil
}

// Save writes the data file atomically, replacing it if it already exists.
func (d *Data) Save(l *slog.Logger, path string) (err error) {
	defer decorate.OnError(&err, "could not write data file %s", path)

	d.normalize()
	raw, err := json.MarshalIndent(d, "", " ")
	if err != nil {
		return err
	}
	l.Debug("Writing data file", "topic", "dataio", "file", path, "measured", len(d.Files))
	return fileutils.AtomicWrite(path, append(raw, '\n'))
}

// Merge adds the measurements of other into d. Line sets are unioned, so
// merging is commutative and merging the same data twice changes nothing.
func (d *Data) Merge(other *Data) {
	for name, ofd := range other.Files {
		fd := d.Files[name]
		fd.Statements = union(fd.Statements, ofd.Statements)
		fd.Executed = union(fd.Executed, ofd.Executed)
		fd.Excluded = union(fd.Excluded, ofd.Excluded)
		d.Files[name] = fd
	}
	d.normalize()
}

// MeasuredFiles returns the measured file paths, sorted.
func (d *Data) MeasuredFiles() []string {
	files := make([]string, 0, len(d.Files))
	for name := range d.Files {
		files = append(files, name)
	}
	sort.Strings(files)
	return files
}

// Missing returns the statements that were never executed, sorted.
func (fd FileData) Missing() []int {
	executed := make(map[int]struct{}, len(fd.Executed))
	for _, line := range fd.Executed {
		executed[line] = struct{}{}
	}
	var missing []int
	for _, line := range fd.Statements {
		if _, ok := executed[line]; !ok {
			missing = append(missing, line)
		}
	}
	return missing
}

// normalize sorts and deduplicates all line sets and promotes executed lines
// that are not recorded as statements into the statement set.
func (d *Data) normalize() {
	for name, fd := range d.Files {
		fd.Statements = dedupe(fd.Statements)
		fd.Executed = dedupe(fd.Executed)
		fd.Excluded = dedupe(fd.Excluded)
		fd.Statements = union(fd.Statements, fd.Executed)
		d.Files[name] = fd
	}
}

func dedupe(lines []int) []int {
	if lines == nil {
		return []int{}
	}
	slices.Sort(lines)
	return slices.Compact(lines)
}

func union(a, b []int) []int {
	return dedupe(append(slices.Clone(a), b...))
}

// ParallelFiles returns the parallel data files next to path, which are the
// files named like the data file plus a dotted suffix. The main data file
// itself is not included.
func ParallelFiles(path string) ([]string, error) {
	matches, err := filepath.Glob(path + ".*")
	if err != nil {
		return nil, fmt.Errorf("could not scan for parallel data files: %v", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Erase removes the data file and all its parallel data files.
// A missing data file is not an error.
func Erase(l *slog.Logger, path string) (err error) {
	defer decorate.OnError(&err, "could not erase coverage data")

	parallels, err := ParallelFiles(path)
	if err != nil {
		return err
	}
	for _, p := range append([]string{path}, parallels...) {
		if err := os.Remove(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		l.Debug("Removed data file", "topic", "dataio", "file", p)
	}
	return nil
}

// Combine merges the parallel data files next to path, plus any explicitly
// given extra data files, into the data file at path. Merged inputs are
// removed afterwards. It returns the number of files combined.
func Combine(l *slog.Logger, path string, extras []string) (n int, err error) {
	defer decorate.OnError(&err, "could not combine data files")

	inputs, err := ParallelFiles(path)
	if err != nil {
		return 0, err
	}
	for _, extra := range extras {
		if !slices.Contains(inputs, extra) {
			inputs = append(inputs, extra)
		}
	}

	merged := New()
	if main, err := Load(l, path); err == nil {
		merged.Merge(main)
	} else if !errors.Is(err, ErrNoData) {
		return 0, err
	}

	if len(inputs) == 0 {
		return 0, fmt.Errorf("no data files to combine next to %s", path)
	}

	for _, input := range inputs {
		d, err := Load(l, input)
		if err != nil {
			return 0, err
		}
		merged.Merge(d)
	}

	if err := merged.Save(l, path); err != nil {
		return 0, err
	}

	for _, input := range inputs {
		if err := os.Remove(input); err != nil {
			l.Warn("Failed to remove combined data file", "file", input, "error", err)
		}
	}
	return len(inputs), nil
}
