// Package annotate is the implementation of the source annotation component.
// It writes copies of measured source files where every line carries a
// two-character marker with its execution status.
package annotate

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ubuntu/decorate"

	"github.com/covmark/covmark/internal/constants"
	"github.com/covmark/covmark/internal/covdata"
	"github.com/covmark/covmark/internal/fileutils"
)

// Line markers, chosen to line up in a fixed-width view of the output.
const (
	markerExecuted = "> "
	markerMissed   = "! "
	markerExcluded = "- "
	markerNone     = "  "
)

// Annotator writes annotated copies of source files.
type Annotator struct {
	// Directory receives the annotated copies. Empty writes them next to
	// their sources.
	Directory string
	// IgnoreErrors skips unreadable source files instead of aborting.
	IgnoreErrors bool

	log *slog.Logger
}

// New returns an Annotator writing to dir, or alongside sources when dir is
// empty.
func New(l *slog.Logger, dir string, ignoreErrors bool) *Annotator {
	return &Annotator{Directory: dir, IgnoreErrors: ignoreErrors, log: l}
}

// Run annotates the given measured files and returns how many copies were
// written.
func (a *Annotator) Run(data *covdata.Data, files []string) (n int, err error) {
	defer decorate.OnError(&err, "could not annotate")

	for _, file := range files {
		fd, ok := data.Files[file]
		if !ok {
			// Selection starts from measured files, so this is a caller bug.
			return n, fmt.Errorf("no measurement for %s", file)
		}
		if err := a.annotateFile(file, fd); err != nil {
			if a.IgnoreErrors {
				a.log.Warn("Skipping unannotatable file", "file", file, "error", err)
				continue
			}
			return n, err
		}
		n++
	}
	return n, nil
}

func (a *Annotator) annotateFile(file string, fd covdata.FileData) error {
	src, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("could not read source file: %v", err)
	}

	executed := toSet(fd.Executed)
	excluded := toSet(fd.Excluded)
	missing := toSet(fd.Missing())

	var out bytes.Buffer
	lines := splitLines(src)
	for i, line := range lines {
		lineno := i + 1
		switch {
		case excluded[lineno]:
			out.WriteString(markerExcluded)
		case missing[lineno]:
			out.WriteString(markerMissed)
		case executed[lineno]:
			out.WriteString(markerExecuted)
		default:
			out.WriteString(markerNone)
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}

	dest := OutputPath(a.Directory, file)
	if err := fileutils.AtomicWriteInDir(dest, out.Bytes()); err != nil {
		return err
	}
	a.log.Debug("Wrote annotated copy", "topic", "dataio", "source", file, "dest", dest)
	return nil
}

// OutputPath returns where the annotated copy of src goes. With a directory,
// the source path is flattened into a single file name so copies from
// different directories cannot collide.
func OutputPath(dir, src string) string {
	if dir == "" {
		return src + constants.AnnotationSuffix
	}
	flat := strings.ReplaceAll(filepath.ToSlash(src), "/", "_")
	return filepath.Join(dir, flat+constants.AnnotationSuffix)
}

// splitLines splits source content on newlines without fabricating a final
// empty line for content that ends in a newline.
func splitLines(src []byte) []string {
	s := strings.ReplaceAll(string(src), "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func toSet(lines []int) map[int]bool {
	set := make(map[int]bool, len(lines))
	for _, line := range lines {
		set[line] = true
	}
	return set
}
