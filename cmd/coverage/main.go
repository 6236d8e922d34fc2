// Main package for the coverage command line tool.
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/covmark/covmark/cmd/coverage/commands"
	"github.com/covmark/covmark/internal/constants"
	"github.com/covmark/covmark/internal/reporter"
)

func main() {
	slog.SetLogLoggerLevel(constants.DefaultLogLevel)

	a, err := commands.New()
	if err != nil {
		os.Exit(1)
	}

	os.Exit(run(a))
}

type app interface {
	Run() error
	UsageError() bool
}

func run(a app) int {
	if err := a.Run(); err != nil {
		slog.Error(err.Error())

		if a.UsageError() {
			return 2
		}
		if errors.Is(err, reporter.ErrFailUnder) {
			return 2
		}
		return 1
	}

	return 0
}
