// Package fsdriver defines the boundary the session engine calls through to
// reach an actual backing store, plus a generic in-memory Tree that
// implements it for static and dynamically-generated content.
package fsdriver

import (
	"github.com/NERVsystems/nine9p/internal/wire"
)

// Error is a sentinel driver error. Session-layer code maps these to the
// fixed Rerror strings; drivers never construct an Rerror string
// themselves.
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrNotFound   Error = "not found"
	ErrNotDir     Error = "not a directory"
	ErrIsDir      Error = "is a directory"
	ErrPermission Error = "permission denied"
	ErrBadOffset  Error = "bad offset"
)

// Driver is the abstraction the session engine calls through for every
// file operation. It knows nothing about fids, tags, or wire shapes: those
// all belong to package session. State returned by OpenFile is opaque to
// the driver's caller and is threaded back unmodified on every subsequent
// ReadFile/WriteFile/CloseFile call for that fid — so two fids walked to
// the same Qid each get independent state, unlike attaching state to the
// Qid itself.
type Driver interface {
	// IOSize is the largest single Read/Write chunk the driver wants to
	// see; the session engine caps each Tread's count at this value, but
	// passes Twrite data to WriteFile uncapped.
	IOSize() uint32

	// Reset restores the driver to its initial state. Called when a
	// session's Tversion resets the connection.
	Reset()

	// GetRoot returns the Qid of the tree's root.
	GetRoot() wire.Qid

	// HasEntry reports whether name exists as a child of the directory
	// identified by parent.
	HasEntry(parent wire.Qid, name string) bool

	// GetQid returns the Qid of name within the directory identified by
	// parent.
	GetQid(parent wire.Qid, name string) (wire.Qid, error)

	// GetStat returns the Stat record for qid.
	GetStat(qid wire.Qid) (wire.Stat, error)

	// OpenFile opens qid for the given 9P open mode and returns opaque
	// per-fid state to be threaded through subsequent calls.
	OpenFile(qid wire.Qid, mode uint8) (state interface{}, err error)

	// CloseFile releases whatever OpenFile allocated.
	CloseFile(qid wire.Qid, state interface{})

	// ReadFile reads up to len(p) bytes at offset into p, returning the
	// number of bytes actually read.
	ReadFile(qid wire.Qid, state interface{}, offset int64, p []byte) (int, error)

	// WriteFile writes data at offset, returning the number of bytes
	// actually written.
	WriteFile(qid wire.Qid, state interface{}, offset int64, data []byte) (int, error)
}
