package fsdriver

import (
	"sync/atomic"

	"github.com/NERVsystems/nine9p/internal/wire"
)

// pathCounter hands out unique Qid paths to nodes that don't specify one
// explicitly, the way BaseFile.NextPath did in the teacher's fs.go.
var pathCounter uint64

// NextPath returns a fresh, process-unique Qid path.
func NextPath() uint64 { return atomic.AddUint64(&pathCounter, 1) }

// Generator produces a file's current content on demand; it is called once
// per OpenFile and the result is served for the life of that fid, so a
// generator need not worry about being re-invoked mid-read. GetStat also
// calls it (once per call) to report the file's length.
type Generator func() []byte

// Writer handles a write to a file's content; offset and data follow
// Twrite semantics directly. A nil Writer makes a node read-only.
type Writer func(offset int64, data []byte) (int, error)

// Node is one entry in a Tree: either a directory (Children non-nil) or a
// file (Content set).
type Node struct {
	Name    string
	Qid     wire.Qid
	Mode    uint32
	Content Generator
	Write   Writer

	Children []*Node
}

// dirState is the opaque per-fid state OpenFile returns for a directory
// node: a snapshot of the packed Stat entries taken at open time, so
// concurrent modification of the tree doesn't shift a reader's pagination
// mid-read.
type dirState struct {
	packed []byte
}

// fileState is the opaque per-fid state OpenFile returns for a regular
// file: content captured at open time for reads, nothing extra needed for
// writes (which go straight to node.Write).
type fileState struct {
	content []byte
}

// Tree is a generic Driver backed by an in-memory node graph, suitable both
// for static fixtures (see package noddyfs) and for trees built dynamically
// from a config file (see package config).
type Tree struct {
	root   *Node
	ioSize uint32
}

// NewTree builds a Tree rooted at root. root.Qid.Type must include
// wire.QTDIR.
func NewTree(root *Node, ioSize uint32) *Tree {
	if ioSize == 0 {
		ioSize = 4096
	}
	return &Tree{root: root, ioSize: ioSize}
}

func (t *Tree) IOSize() uint32 { return t.ioSize }

// Reset is a no-op: a Tree's shape doesn't change across protocol resets.
func (t *Tree) Reset() {}

func (t *Tree) GetRoot() wire.Qid { return t.root.Qid }

func (t *Tree) findByQid(qid wire.Qid) *Node {
	var walk func(n *Node) *Node
	walk = func(n *Node) *Node {
		if n.Qid.Path == qid.Path {
			return n
		}
		for _, c := range n.Children {
			if found := walk(c); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(t.root)
}

func (t *Tree) HasEntry(parent wire.Qid, name string) bool {
	n := t.findByQid(parent)
	if n == nil {
		return false
	}
	for _, c := range n.Children {
		if c.Name == name {
			return true
		}
	}
	return false
}

func (t *Tree) GetQid(parent wire.Qid, name string) (wire.Qid, error) {
	n := t.findByQid(parent)
	if n == nil {
		return wire.Qid{}, ErrNotFound
	}
	if n.Children == nil {
		return wire.Qid{}, ErrNotDir
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c.Qid, nil
		}
	}
	return wire.Qid{}, ErrNotFound
}

func (t *Tree) GetStat(qid wire.Qid) (wire.Stat, error) {
	n := t.findByQid(qid)
	if n == nil {
		return wire.Stat{}, ErrNotFound
	}
	length := uint64(0)
	if n.Children == nil && n.Content != nil {
		length = uint64(len(n.Content()))
	}
	return wire.Stat{
		Qid:    n.Qid,
		Mode:   n.Mode,
		Length: length,
		Name:   n.Name,
		Uid:    "none",
		Gid:    "none",
		Muid:   "none",
	}, nil
}

func (t *Tree) OpenFile(qid wire.Qid, mode uint8) (interface{}, error) {
	n := t.findByQid(qid)
	if n == nil {
		return nil, ErrNotFound
	}
	if n.Children != nil {
		// Packed in insertion order, not sorted: callers (e.g. noddyfs)
		// define their children in the order a directory listing should
		// read back in.
		var packed []byte
		for _, c := range n.Children {
			st, err := t.GetStat(c.Qid)
			if err != nil {
				return nil, err
			}
			packed = wire.RstatBody(packed, st)
		}
		return &dirState{packed: packed}, nil
	}
	var content []byte
	if n.Content != nil {
		content = n.Content()
	}
	return &fileState{content: content}, nil
}

func (t *Tree) CloseFile(wire.Qid, interface{}) {}

func (t *Tree) ReadFile(qid wire.Qid, state interface{}, offset int64, p []byte) (int, error) {
	n := t.findByQid(qid)
	if n == nil {
		return 0, ErrNotFound
	}
	var buf []byte
	switch s := state.(type) {
	case *dirState:
		buf = s.packed
	case *fileState:
		buf = s.content
	default:
		return 0, ErrNotFound
	}
	if offset < 0 || offset > int64(len(buf)) {
		return 0, nil
	}
	n2 := copy(p, buf[offset:])
	return n2, nil
}

func (t *Tree) WriteFile(qid wire.Qid, _ interface{}, offset int64, data []byte) (int, error) {
	n := t.findByQid(qid)
	if n == nil {
		return 0, ErrNotFound
	}
	if n.Children != nil {
		return 0, ErrIsDir
	}
	if n.Write == nil {
		return 0, ErrPermission
	}
	return n.Write(offset, data)
}
