// Package htmlreport renders coverage data as browsable HTML: an index page
// with the per-file summary table and one page per source file with lines
// colored by execution status.
package htmlreport

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ubuntu/decorate"

	"github.com/covmark/covmark/internal/covdata"
	"github.com/covmark/covmark/internal/fileutils"
)

// Writer renders the HTML report pages.
type Writer struct {
	// Directory receives the report pages.
	Directory string
	// Title is the report heading on every page.
	Title string
	// IgnoreErrors skips unreadable source files instead of aborting.
	IgnoreErrors bool

	log *slog.Logger
}

// New returns a Writer rendering into dir under the given title.
func New(l *slog.Logger, dir, title string, ignoreErrors bool) *Writer {
	return &Writer{Directory: dir, Title: title, IgnoreErrors: ignoreErrors, log: l}
}

// Run renders a page for every given measured file plus the index, and
// returns how many file pages were written.
func (w *Writer) Run(data *covdata.Data, files []string) (n int, err error) {
	defer decorate.OnError(&err, "could not write HTML report")

	var rows []indexRow
	var totalStmts, totalMissed int
	for _, file := range files {
		fd, ok := data.Files[file]
		if !ok {
			// Selection starts from measured files, so this is a caller bug.
			return n, fmt.Errorf("no measurement for %s", file)
		}
		page := PageName(file)
		if err := w.writeFilePage(file, fd, page); err != nil {
			if w.IgnoreErrors {
				w.log.Warn("Skipping unreportable file", "file", file, "error", err)
				continue
			}
			return n, err
		}
		n++
		missed := len(fd.Missing())
		totalStmts += len(fd.Statements)
		totalMissed += missed
		rows = append(rows, indexRow{
			Name:   file,
			Link:   page,
			Stmts:  len(fd.Statements),
			Missed: missed,
			Cover:  percent(len(fd.Statements), missed),
		})
	}

	index, err := render(indexTmpl, indexData{
		Title: w.Title,
		Rows:  rows,
		Total: indexRow{Name: "TOTAL", Stmts: totalStmts, Missed: totalMissed, Cover: percent(totalStmts, totalMissed)},
	})
	if err != nil {
		return n, err
	}
	if err := fileutils.AtomicWriteInDir(filepath.Join(w.Directory, "index.html"), index); err != nil {
		return n, err
	}
	w.log.Debug("Wrote HTML report", "topic", "dataio", "dir", w.Directory, "pages", n)
	return n, nil
}

func (w *Writer) writeFilePage(file string, fd covdata.FileData, page string) error {
	src, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("could not read source file: %v", err)
	}

	executed := toSet(fd.Executed)
	excluded := toSet(fd.Excluded)
	missing := toSet(fd.Missing())

	var lines []sourceLine
	for i, text := range splitLines(src) {
		lineno := i + 1
		var class string
		switch {
		case excluded[lineno]:
			class = "exc"
		case missing[lineno]:
			class = "mis"
		case executed[lineno]:
			class = "run"
		}
		lines = append(lines, sourceLine{Number: lineno, Class: class, Text: text})
	}

	out, err := render(fileTmpl, filePageData{
		Title: w.Title,
		Name:  file,
		Cover: percent(len(fd.Statements), len(fd.Missing())),
		Lines: lines,
	})
	if err != nil {
		return err
	}
	return fileutils.AtomicWriteInDir(filepath.Join(w.Directory, page), out)
}

// PageName returns the page file name for src. The source path is flattened
// into a single name so files from different directories cannot collide.
func PageName(src string) string {
	return strings.ReplaceAll(filepath.ToSlash(src), "/", "_") + ".html"
}

func percent(stmts, missed int) string {
	if stmts == 0 {
		return "100%"
	}
	return fmt.Sprintf("%.0f%%", 100*float64(stmts-missed)/float64(stmts))
}

func render(t *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("could not render template: %v", err)
	}
	return buf.Bytes(), nil
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

type indexData struct {
	Title string
	Rows  []indexRow
	Total indexRow
}

type indexRow struct {
	Name   string
	Link   string
	Stmts  int
	Missed int
	Cover  string
}

type filePageData struct {
	Title string
	Name  string
	Cover string
	Lines []sourceLine
}

type sourceLine struct {
	Number int
	Class  string
	Text   string
}

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; }
table { border-collapse: collapse; }
th, td { padding: 0.25em 1em; border-bottom: 1px solid #ccc; text-align: right; }
th.name, td.name { text-align: left; }
tr.total td { font-weight: bold; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<table>
<tr><th class="name">Name</th><th>Stmts</th><th>Miss</th><th>Cover</th></tr>
{{range .Rows}}<tr><td class="name"><a href="{{.Link}}">{{.Name}}</a></td><td>{{.Stmts}}</td><td>{{.Missed}}</td><td>{{.Cover}}</td></tr>
{{end}}<tr class="total"><td class="name">TOTAL</td><td>{{.Total.Stmts}}</td><td>{{.Total.Missed}}</td><td>{{.Total.Cover}}</td></tr>
</table>
</body>
</html>
`))

var fileTmpl = template.Must(template.New("file").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}: {{.Name}}</title>
<style>
body { font-family: sans-serif; }
.line { white-space: pre; font-family: monospace; }
.run { background: #dfd; }
.mis { background: #fdd; }
.exc { background: #eee; }
.num { display: inline-block; width: 4em; color: #888; text-align: right; padding-right: 1em; }
</style>
</head>
<body>
<h1>{{.Name}}: {{.Cover}}</h1>
<p><a href="index.html">&laquo; index</a></p>
<div>
{{range .Lines}}<div class="line {{.Class}}"><span class="num">{{.Number}}</span>{{.Text}}</div>
{{end}}</div>
</body>
</html>
`))
