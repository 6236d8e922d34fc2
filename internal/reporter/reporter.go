// Package reporter renders the text coverage summary table.
package reporter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/covmark/covmark/internal/covdata"
)

var (
	// ErrFailUnder is returned when total coverage is below the configured threshold.
	ErrFailUnder = errors.New("coverage below fail-under threshold")
)

// Reporter writes per-file coverage summaries.
type Reporter struct {
	// ShowMissing adds a column listing missed line ranges.
	ShowMissing bool
	// Precision is the number of digits after the decimal point in percentages.
	Precision int

	log *slog.Logger
}

// New returns a Reporter with the given rendering options.
func New(l *slog.Logger, showMissing bool, precision int) *Reporter {
	return &Reporter{ShowMissing: showMissing, Precision: precision, log: l}
}

// Write renders the table for the given measured files to w and returns the
// total coverage percentage.
func (r *Reporter) Write(w io.Writer, data *covdata.Data, files []string) (total float64, err error) {
	nameWidth := len("Name")
	for _, file := range files {
		nameWidth = max(nameWidth, len(file))
	}
	coverWidth := len("Cover")
	if r.Precision > 0 {
		coverWidth = max(coverWidth, 4+1+r.Precision) // up to "100." plus decimals, plus %
	}

	header := fmt.Sprintf("%-*s %7s %6s %*s", nameWidth, "Name", "Stmts", "Miss", coverWidth+1, "Cover")
	if r.ShowMissing {
		header += "   Missing"
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	var totalStmts, totalMissed int
	for _, file := range files {
		fd := data.Files[file]
		missing := fd.Missing()
		totalStmts += len(fd.Statements)
		totalMissed += len(missing)

		row := fmt.Sprintf("%-*s %7d %6d %*s", nameWidth, file,
			len(fd.Statements), len(missing), coverWidth+1, r.percent(len(fd.Statements), len(missing)))
		if r.ShowMissing {
			row += "   " + ranges(missing)
		}
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}

	fmt.Fprintln(w, strings.Repeat("-", len(header)))
	p := message.NewPrinter(language.English)
	totalRow := fmt.Sprintf("%-*s %7s %6s %*s", nameWidth, "TOTAL",
		p.Sprintf("%d", totalStmts), p.Sprintf("%d", totalMissed),
		coverWidth+1, r.percent(totalStmts, totalMissed))
	fmt.Fprintln(w, totalRow)

	r.log.Debug("Report written", "topic", "trace", "files", len(files), "statements", totalStmts, "missed", totalMissed)
	return coverage(totalStmts, totalMissed), nil
}

// CheckFailUnder compares the total against the threshold, rounding the total
// to the reporter's precision first so the check agrees with what was printed.
func (r *Reporter) CheckFailUnder(total, threshold float64) error {
	if threshold <= 0 {
		return nil
	}
	scale := math.Pow(10, float64(r.Precision))
	if math.Round(total*scale)/scale < threshold {
		return fmt.Errorf("%w: total of %.*f%% is below --fail-under=%s",
			ErrFailUnder, r.Precision, total, strconv.FormatFloat(threshold, 'f', -1, 64))
	}
	return nil
}

func coverage(stmts, missed int) float64 {
	if stmts == 0 {
		return 100
	}
	return 100 * float64(stmts-missed) / float64(stmts)
}

func (r *Reporter) percent(stmts, missed int) string {
	return fmt.Sprintf("%.*f%%", r.Precision, coverage(stmts, missed))
}

// ranges renders sorted line numbers as comma separated ranges, "3-5, 9".
func ranges(lines []int) string {
	if len(lines) == 0 {
		return ""
	}
	var parts []string
	start, prev := lines[0], lines[0]
	flush := func() {
		if start == prev {
			parts = append(parts, strconv.Itoa(start))
			return
		}
		parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
	}
	for _, line := range lines[1:] {
		if line == prev+1 {
			prev = line
			continue
		}
		flush()
		start, prev = line, line
	}
	flush()
	return strings.Join(parts, ", ")
}
