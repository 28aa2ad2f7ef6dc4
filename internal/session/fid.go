package session

import "github.com/NERVsystems/nine9p/internal/wire"

// fidEntry is everything the session tracks for one client-chosen fid: the
// Qid it currently names, whether it has been Topen'd, and (once opened)
// the opaque per-fid state the driver handed back from OpenFile. Keeping
// this state on the table entry rather than on the Qid means two fids
// walked to the same file never share state.
type fidEntry struct {
	qid    wire.Qid
	opened bool
	mode   uint8
	state  interface{}
}

// fidTable is the per-connection map from client fid numbers to their
// entries.
type fidTable struct {
	entries map[uint32]*fidEntry
}

func newFidTable() *fidTable {
	return &fidTable{entries: make(map[uint32]*fidEntry)}
}

func (t *fidTable) exists(fid uint32) bool {
	_, ok := t.entries[fid]
	return ok
}

func (t *fidTable) get(fid uint32) (*fidEntry, bool) {
	e, ok := t.entries[fid]
	return e, ok
}

func (t *fidTable) add(fid uint32, qid wire.Qid) *fidEntry {
	e := &fidEntry{qid: qid}
	t.entries[fid] = e
	return e
}

func (t *fidTable) remove(fid uint32) {
	delete(t.entries, fid)
}

func (t *fidTable) reset() {
	t.entries = make(map[uint32]*fidEntry)
}
