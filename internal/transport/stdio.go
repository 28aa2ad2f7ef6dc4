package transport

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Stdio wraps os.Stdin/os.Stdout as a single io.ReadWriter, matching
// original_source/main-stdout.py's StdioWrapper (os.read(0,n)/os.write(1,s)).
type Stdio struct {
	in  io.Reader
	out io.Writer
}

// NewStdio returns a Stdio bound to the process's standard streams.
func NewStdio() *Stdio {
	return &Stdio{in: os.Stdin, out: os.Stdout}
}

func (s *Stdio) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s *Stdio) Write(p []byte) (int, error) { return s.out.Write(p) }

// RawMode puts stdin into raw mode for the duration of the session if it is
// a real terminal (as opposed to a pipe or redirected file), returning a
// restore function that must be called before the process exits. If stdin
// isn't a terminal, RawMode is a no-op.
func RawMode() (restore func(), err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() { _ = term.Restore(fd, state) }, nil
}
