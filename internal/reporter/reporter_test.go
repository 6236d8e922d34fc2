package reporter_test

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covmark/covmark/internal/covdata"
	"github.com/covmark/covmark/internal/reporter"
	"github.com/covmark/covmark/internal/testutils"
)

func testData() *covdata.Data {
	d := covdata.New()
	d.Files["a.go"] = covdata.FileData{Statements: []int{1, 2, 3, 4}, Executed: []int{1, 2, 4}}
	d.Files["c.go"] = covdata.FileData{
		Statements: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		Executed:   []int{1, 2, 6, 7, 8, 10},
	}
	d.Files["pkg/b.go"] = covdata.FileData{Statements: []int{1, 2}, Executed: []int{1, 2}}
	return d
}

func TestWrite(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		showMissing bool
		precision   int
	}{
		"Plain":         {},
		"Show missing":  {showMissing: true},
		"Precision two": {precision: 2},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			d := testData()
			r := reporter.New(slog.Default(), tc.showMissing, tc.precision)

			var out strings.Builder
			total, err := r.Write(&out, d, d.MeasuredFiles())
			require.NoError(t, err, "Write should succeed")
			assert.InDelta(t, 68.75, total, 0.0001, "Unexpected total coverage")

			want := testutils.LoadWithUpdateFromGolden(t, out.String())
			assert.Equal(t, want, out.String(), "Report table should match golden file")
		})
	}
}

func TestWriteEmptySelection(t *testing.T) {
	t.Parallel()

	r := reporter.New(slog.Default(), false, 0)
	var out strings.Builder
	total, err := r.Write(&out, covdata.New(), nil)
	require.NoError(t, err, "Write should succeed on empty selection")
	assert.InDelta(t, 100.0, total, 0.0001, "No statements should report 100%")
	assert.Contains(t, out.String(), "TOTAL", "Even an empty report has a TOTAL row")
}

func TestCheckFailUnder(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		total     float64
		threshold float64
		precision int

		wantErr bool
	}{
		"Above threshold":                 {total: 80, threshold: 70},
		"No threshold":                    {total: 10, threshold: 0},
		"Below threshold":                 {total: 68.75, threshold: 70, wantErr: true},
		"Rounding saves the day":          {total: 68.75, threshold: 69},
		"Precision keeps exact total":     {total: 68.75, threshold: 69, precision: 2, wantErr: true},
		"Exactly at threshold":            {total: 70, threshold: 70},
		"Just under with zero precision":  {total: 69.4, threshold: 70, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := reporter.New(slog.Default(), false, tc.precision)
			err := r.CheckFailUnder(tc.total, tc.threshold)
			if tc.wantErr {
				require.ErrorIs(t, err, reporter.ErrFailUnder, "Total below threshold should fail")
				return
			}
			require.NoError(t, err, "Total at or above threshold should pass")
		})
	}
}
