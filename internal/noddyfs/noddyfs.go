// Package noddyfs is a small fixed demo driver, a direct port of the
// original implementation's noddy.py sample tree: a /dev with a random
// source (512 fresh bytes per open), a zero source (4096 zero bytes per
// open), a null sink, and a handful of placeholder tty files that accept
// and discard writes. It backs cmd/9pd's default mode and is not a
// production backing store; the session engine's tests use their own
// small tree instead.
package noddyfs

import (
	"crypto/rand"

	"github.com/NERVsystems/nine9p/internal/fsdriver"
	"github.com/NERVsystems/nine9p/internal/wire"
)

// Path values match noddy.py's hand-assigned Qid paths so golden-vector
// tests that reference specific paths keep working unmodified.
const (
	pathRoot  = 1
	pathDev   = 2
	pathTtys  = 20
	pathRand  = 11
	pathZero  = 12
	pathNull  = 13
	pathTty1  = 21
	pathTtyN  = 25 // tty1..tty5 inclusive
)

// New builds the noddy demo tree as an fsdriver.Driver.
func New() fsdriver.Driver {
	var ttys []*fsdriver.Node
	for p := uint64(pathTty1); p <= pathTtyN; p++ {
		path := p
		n := path - pathTty1 + 1
		ttys = append(ttys, &fsdriver.Node{
			Name: ttyName(n),
			Qid:  wire.Qid{Type: wire.QTFILE, Path: path},
			Mode: wire.DMREAD | wire.DMWRITE,
			Content: func() []byte {
				return nil
			},
			Write: func(offset int64, data []byte) (int, error) {
				return len(data), nil
			},
		})
	}

	ttysDir := &fsdriver.Node{
		Name:     "ttys",
		Qid:      wire.Qid{Type: wire.QTDIR, Path: pathTtys},
		Mode:     wire.DMDIR,
		Children: ttys,
	}

	random := &fsdriver.Node{
		Name: "random",
		Qid:  wire.Qid{Type: wire.QTFILE, Path: pathRand},
		Mode: wire.DMREAD,
		Content: func() []byte {
			buf := make([]byte, 512)
			_, _ = rand.Read(buf)
			return buf
		},
	}

	zero := &fsdriver.Node{
		Name: "zero",
		Qid:  wire.Qid{Type: wire.QTFILE, Path: pathZero},
		Mode: wire.DMREAD,
		Content: func() []byte {
			return make([]byte, 4096)
		},
	}

	null := &fsdriver.Node{
		Name:    "null",
		Qid:     wire.Qid{Type: wire.QTFILE, Path: pathNull},
		Mode:    wire.DMREAD | wire.DMWRITE,
		Content: func() []byte { return nil },
		Write: func(offset int64, data []byte) (int, error) {
			return len(data), nil
		},
	}

	dev := &fsdriver.Node{
		Name:     "dev",
		Qid:      wire.Qid{Type: wire.QTDIR, Path: pathDev},
		Mode:     wire.DMDIR,
		Children: []*fsdriver.Node{random, zero, null, ttysDir},
	}

	root := &fsdriver.Node{
		Name:     "/",
		Qid:      wire.Qid{Type: wire.QTDIR, Path: pathRoot},
		Mode:     wire.DMDIR,
		Children: []*fsdriver.Node{dev},
	}

	return fsdriver.NewTree(root, 4096)
}

func ttyName(n uint64) string {
	digits := "0123456789"
	return "tty" + string(digits[n])
}
