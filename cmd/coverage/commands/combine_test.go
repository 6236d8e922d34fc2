package commands_test

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covmark/covmark/cmd/coverage/commands"
	"github.com/covmark/covmark/internal/constants"
	"github.com/covmark/covmark/internal/covdata"
)

func TestCombineCommand(t *testing.T) {
	app, out := newAppForTests(t, "combine")

	// A parallel measurement executing the line the main data file misses.
	d := covdata.New()
	d.Files["sample.go"] = covdata.FileData{Statements: []int{3, 4, 5, 7}, Executed: []int{5}}
	require.NoError(t, d.Save(slogDiscard(), constants.DefaultDataFile+".worker1"), "Setup: could not write parallel data file")

	require.NoError(t, app.Run(), "Combine should succeed")
	assert.Contains(t, out.String(), "Combined 1 data file(s)")
	assert.NoFileExists(t, constants.DefaultDataFile+".worker1", "Merged parallel file should be removed")

	got, err := covdata.Load(slogDiscard(), constants.DefaultDataFile)
	require.NoError(t, err, "Combined data file should load")
	assert.Equal(t, []int{3, 4, 5, 7}, got.Files["sample.go"].Executed, "Executed lines should be the union of both measurements")
}

func TestCombineCommandNothingToCombine(t *testing.T) {
	app, _ := newAppForTests(t, "combine")

	err := app.Run()
	require.Error(t, err, "Combine with no parallel files should fail")
	assert.False(t, app.UsageError(), "Nothing to combine is a runtime error")
}

func TestEraseCommand(t *testing.T) {
	app, _ := newAppForTests(t, "erase")

	require.NoError(t, os.WriteFile(constants.DefaultDataFile+".w2", []byte("{}"), 0600), "Setup: could not write parallel data file")

	require.NoError(t, app.Run(), "Erase should succeed")
	assert.NoFileExists(t, constants.DefaultDataFile, "Data file should be gone")
	assert.NoFileExists(t, constants.DefaultDataFile+".w2", "Parallel data file should be gone")
}

func TestEraseCommandUnexpectedArguments(t *testing.T) {
	app, _ := newAppForTests(t, "erase", "foo", "bar")

	err := app.Run()
	require.Error(t, err, "Erase with arguments should fail")
	assert.ErrorContains(t, err, "unexpected arguments: foo bar")
	assert.True(t, app.UsageError(), "Unexpected arguments are a usage error")
}

func TestEraseCommandNothingToErase(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	app, err := commands.New()
	require.NoError(t, err, "Setup: could not create app")
	app.SetArgs([]string{"erase"})
	app.SetOut(&strings.Builder{})

	require.NoError(t, app.Run(), "Erase with nothing to erase should succeed")
}

func TestDebugCommand(t *testing.T) {
	tests := map[string]struct {
		topic string

		wantContains []string
	}{
		"Sys":    {topic: "sys", wantContains: []string{"version:", "platform:", "data_file:"}},
		"Data":   {topic: "data", wantContains: []string{"has_data: true", "sample.go: 4 statements, 3 executed"}},
		"Config": {topic: "config", wantContains: []string{"run:", "datafile:"}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			app, out := newAppForTests(t, "debug", tc.topic)

			require.NoError(t, app.Run(), "Debug should succeed")
			for _, want := range tc.wantContains {
				assert.Contains(t, out.String(), want, "Debug output should mention %q", want)
			}
		})
	}
}

func TestDebugCommandUnknownTopic(t *testing.T) {
	app, _ := newAppForTests(t, "debug", "everything")

	err := app.Run()
	require.Error(t, err, "Unknown debug dump topic should fail")
	assert.True(t, app.UsageError(), "Unknown debug dump topic is a usage error")
}
