package commands

import "io"

// SetOut redirects the root command output streams. Shouldn't be in general necessary apart for tests.
func (a *App) SetOut(w io.Writer) {
	a.cmd.SetOut(w)
	a.cmd.SetErr(w)
}
