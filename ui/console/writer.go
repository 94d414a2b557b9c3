// Package console contains the terminal facing output of smdecode.
package console

import (
	"io"
	"sync"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Default terminal width in characters.
const defaultTermWidth = 80

// Writer syncs writes with a mutex shared between stdout and stderr.
type Writer struct {
	Mutex  *sync.Mutex
	Writer io.Writer
	IsTTY  bool
	// Width of the terminal in characters, 0 when it is unknown or there is
	// no terminal.
	Width int
}

// Write writes p while holding the mutex.
func (w *Writer) Write(p []byte) (n int, err error) {
	w.Mutex.Lock()
	defer w.Mutex.Unlock()

	return w.Writer.Write(p)
}

// IsTerminal reports whether fd is an interactive terminal. A "dumb"
// termType is never one.
func IsTerminal(fd uintptr, termType string) bool {
	return termType != "dumb" && (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// TermWidth returns the terminal window width in characters. If the window
// size lookup fails, the default value of 80 will be returned.
func TermWidth(fd uintptr) int {
	width, _, err := term.GetSize(int(fd))
	if width <= 0 || err != nil {
		return defaultTermWidth
	}
	return width
}
