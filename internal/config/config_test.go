package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covmark/covmark/internal/config"
)

const coveragercContent = `[run]
data_file = build/.coverage.json
omit =
    vendor/*
    */generated/*
debug = dataio, config

[report]
ignore_errors = true
show_missing = true
fail_under = 79.5
precision = 2

[annotate]
directory = annotated
include = src/*, lib/*

[html]
directory = web
title = Site coverage
`

const setupCfgContent = `[metadata]
name = somepackage

[coverage:run]
omit = vendor/*

[coverage:annotate]
ignore_errors = true
`

const pyprojectContent = `[build-system]
requires = ["setuptools"]

[tool.coverage.run]
data_file = ".cov/data.json"
include = ["src/**"]

[tool.coverage.report]
show_missing = true
fail_under = 90
precision = 1

[tool.coverage.annotate]
directory = "out"
omit = ["**/*_test.go"]

[tool.coverage.html]
directory = "site"
`

func TestLoadExplicitRCFile(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		filename string
		content  string
		noFile   bool

		wantErr   bool
		wantCheck func(t *testing.T, s *config.Settings)
	}{
		"Coveragerc": {
			filename: ".coveragerc", content: coveragercContent,
			wantCheck: func(t *testing.T, s *config.Settings) {
				t.Helper()
				assert.Equal(t, "build/.coverage.json", s.Run.DataFile)
				assert.Equal(t, []string{"vendor/*", "*/generated/*"}, s.Run.Omit)
				assert.Equal(t, []string{"dataio", "config"}, s.Run.Debug)
				assert.True(t, s.Report.IgnoreErrors)
				assert.True(t, s.Report.ShowMissing)
				assert.InDelta(t, 79.5, s.Report.FailUnder, 0.0001)
				assert.Equal(t, 2, s.Report.Precision)
				assert.Equal(t, "annotated", s.Annotate.Directory)
				assert.Equal(t, []string{"src/*", "lib/*"}, s.Annotate.Include)
				assert.Equal(t, "web", s.HTML.Directory)
				assert.Equal(t, "Site coverage", s.HTML.Title)
			},
		},
		"Setup.cfg with prefixed sections": {
			filename: "setup.cfg", content: setupCfgContent,
			wantCheck: func(t *testing.T, s *config.Settings) {
				t.Helper()
				assert.Equal(t, []string{"vendor/*"}, s.Run.Omit)
				assert.True(t, s.Annotate.IgnoreErrors)
			},
		},
		"Pyproject.toml": {
			filename: "pyproject.toml", content: pyprojectContent,
			wantCheck: func(t *testing.T, s *config.Settings) {
				t.Helper()
				assert.Equal(t, ".cov/data.json", s.Run.DataFile)
				assert.Equal(t, []string{"src/**"}, s.Run.Include)
				assert.True(t, s.Report.ShowMissing)
				assert.InDelta(t, 90.0, s.Report.FailUnder, 0.0001)
				assert.Equal(t, 1, s.Report.Precision)
				assert.Equal(t, "out", s.Annotate.Directory)
				assert.Equal(t, []string{"**/*_test.go"}, s.Annotate.Omit)
				assert.Equal(t, "site", s.HTML.Directory)
				assert.Equal(t, config.Default().HTML.Title, s.HTML.Title, "Unset title should stay at its default")
			},
		},
		"Explicit shared file without coverage sections is still used": {
			filename: "tox.ini", content: "[tox]\nenvlist = py3\n",
			wantCheck: func(t *testing.T, s *config.Settings) {
				t.Helper()
				assert.Equal(t, config.Default().Run.DataFile, s.Run.DataFile, "Settings should stay at defaults")
			},
		},

		"Missing explicit file":  {filename: ".coveragerc", noFile: true, wantErr: true},
		"Malformed INI":          {filename: ".coveragerc", content: "[run\nomit=", wantErr: true},
		"Malformed TOML":         {filename: "pyproject.toml", content: "[tool.coverage.run\n", wantErr: true},
		"Bad boolean value":      {filename: ".coveragerc", content: "[report]\nignore_errors = maybe\n", wantErr: true},
		"Bad fail_under value":   {filename: ".coveragerc", content: "[report]\nfail_under = high\n", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), tc.filename)
			if !tc.noFile {
				require.NoError(t, os.WriteFile(path, []byte(tc.content), 0600), "Setup: could not write rcfile")
			}

			s, err := config.Load(slog.Default(), path)
			if tc.wantErr {
				require.Error(t, err, "Load should fail")
				return
			}
			require.NoError(t, err, "Load should succeed")
			assert.Equal(t, path, s.RCFile, "Settings should record their rcfile")
			tc.wantCheck(t, s)
		})
	}
}

func TestLoadMissingExplicitFileIsNotFoundError(t *testing.T) {
	t.Parallel()

	_, err := config.Load(slog.Default(), filepath.Join(t.TempDir(), "nope.coveragerc"))
	require.ErrorIs(t, err, config.ErrRCFileNotFound, "A missing explicit rcfile should be reported as not found")
}

func TestLoadSearch(t *testing.T) {
	tests := map[string]struct {
		files map[string]string

		wantRCFile   string
		wantDataFile string
	}{
		"No candidates, defaults": {
			wantRCFile:   "",
			wantDataFile: ".coverage.json",
		},
		"Coveragerc wins over later candidates": {
			files: map[string]string{
				".coveragerc":    "[run]\ndata_file = first.json\n",
				"pyproject.toml": pyprojectContent,
			},
			wantRCFile:   ".coveragerc",
			wantDataFile: "first.json",
		},
		"Empty coveragerc still stops the search": {
			files: map[string]string{
				".coveragerc":    "",
				"pyproject.toml": pyprojectContent,
			},
			wantRCFile:   ".coveragerc",
			wantDataFile: ".coverage.json",
		},
		"Shared file without coverage sections is skipped": {
			files: map[string]string{
				"setup.cfg":      "[metadata]\nname = pkg\n",
				"pyproject.toml": pyprojectContent,
			},
			wantRCFile:   "pyproject.toml",
			wantDataFile: ".cov/data.json",
		},
		"Toml without tool.coverage falls back to defaults": {
			files: map[string]string{
				"pyproject.toml": "[build-system]\nrequires = []\n",
			},
			wantRCFile:   "",
			wantDataFile: ".coverage.json",
		},
		"Tox.ini with coverage sections is used": {
			files: map[string]string{
				"tox.ini": "[tox]\nenvlist = py3\n\n[coverage:run]\ndata_file = tox.json\n",
			},
			wantRCFile:   "tox.ini",
			wantDataFile: "tox.json",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tc.files {
				require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600), "Setup: could not write candidate file")
			}
			t.Chdir(dir)

			s, err := config.Load(slog.Default(), "")
			require.NoError(t, err, "Load should succeed")
			assert.Equal(t, tc.wantRCFile, s.RCFile, "Unexpected rcfile picked by the search")
			assert.Equal(t, tc.wantDataFile, s.Run.DataFile, "Unexpected data file setting")
		})
	}
}

func TestIncludeOmitFallback(t *testing.T) {
	t.Parallel()

	s := config.Default()
	s.Run.Include = []string{"src/*"}
	s.Run.Omit = []string{"vendor/*"}

	assert.Equal(t, []string{"src/*"}, s.IncludeFor(nil), "Empty section include should fall back to run include")
	assert.Equal(t, []string{"a"}, s.IncludeFor([]string{"a"}), "Section include should win")
	assert.Equal(t, []string{"vendor/*"}, s.OmitFor(nil), "Empty section omit should fall back to run omit")
	assert.Equal(t, []string{"b"}, s.OmitFor([]string{"b"}), "Section omit should win")
}
