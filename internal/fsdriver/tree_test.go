package fsdriver

import (
	"bytes"
	"testing"

	"github.com/NERVsystems/nine9p/internal/wire"
)

func buildTestTree() *Tree {
	zero := &Node{Name: "zero", Qid: wire.Qid{Type: wire.QTFILE, Path: NextPath()}, Mode: wire.DMREAD,
		Content: func() []byte { return bytes.Repeat([]byte{0}, 4) }}
	greeting := &Node{Name: "greeting", Qid: wire.Qid{Type: wire.QTFILE, Path: NextPath()}, Mode: wire.DMREAD | wire.DMWRITE,
		Content: func() []byte { return []byte("hi") }}
	root := &Node{Name: "/", Qid: wire.Qid{Type: wire.QTDIR, Path: NextPath()}, Mode: wire.DMDIR,
		Children: []*Node{zero, greeting}}
	return NewTree(root, 4096)
}

func TestTreeGetQidAndStat(t *testing.T) {
	tr := buildTestTree()
	qid, err := tr.GetQid(tr.GetRoot(), "greeting")
	if err != nil {
		t.Fatalf("GetQid: %v", err)
	}
	st, err := tr.GetStat(qid)
	if err != nil {
		t.Fatalf("GetStat: %v", err)
	}
	if st.Name != "greeting" || st.Length != 2 {
		t.Fatalf("stat = %+v", st)
	}
}

func TestTreeReadFile(t *testing.T) {
	tr := buildTestTree()
	qid, err := tr.GetQid(tr.GetRoot(), "zero")
	if err != nil {
		t.Fatalf("GetQid: %v", err)
	}
	state, err := tr.OpenFile(qid, 0)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	buf := make([]byte, 10)
	n, err := tr.ReadFile(qid, state, 0, buf)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if n != 4 {
		t.Fatalf("n = %d, want 4", n)
	}
}

func TestTreeReadDirConcatenatesEntries(t *testing.T) {
	tr := buildTestTree()
	state, err := tr.OpenFile(tr.GetRoot(), 0)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	buf := make([]byte, 4096)
	n, err := tr.ReadFile(tr.GetRoot(), state, 0, buf)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if n == 0 {
		t.Fatal("expected a non-empty directory listing")
	}
}

func TestTreeWritePermission(t *testing.T) {
	tr := buildTestTree()
	qid, _ := tr.GetQid(tr.GetRoot(), "zero")
	_, err := tr.WriteFile(qid, nil, 0, []byte("x"))
	if err != ErrPermission {
		t.Fatalf("err = %v, want ErrPermission", err)
	}
}

func TestTreeNotFound(t *testing.T) {
	tr := buildTestTree()
	_, err := tr.GetQid(tr.GetRoot(), "nope")
	if err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
