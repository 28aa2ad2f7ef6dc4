package session

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/NERVsystems/nine9p/internal/fsdriver"
	"github.com/NERVsystems/nine9p/internal/proto"
	"github.com/NERVsystems/nine9p/internal/wire"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytesDiscard{}, nil))
}

type bytesDiscard struct{}

func (bytesDiscard) Write(p []byte) (int, error) { return len(p), nil }

func testDriver() fsdriver.Driver {
	random := &fsdriver.Node{Name: "random", Qid: wire.Qid{Type: wire.QTFILE, Path: 11}, Mode: wire.DMREAD,
		Content: func() []byte { return bytes.Repeat([]byte{0x2A}, 8) }}
	zero := &fsdriver.Node{Name: "zero", Qid: wire.Qid{Type: wire.QTFILE, Path: 12}, Mode: wire.DMREAD,
		Content: func() []byte { return bytes.Repeat([]byte{0}, 8) }}
	dev := &fsdriver.Node{Name: "dev", Qid: wire.Qid{Type: wire.QTDIR, Path: 2}, Mode: wire.DMDIR,
		Children: []*fsdriver.Node{random, zero}}
	root := &fsdriver.Node{Name: "/", Qid: wire.Qid{Type: wire.QTDIR, Path: 1}, Mode: wire.DMDIR,
		Children: []*fsdriver.Node{dev}}
	return fsdriver.NewTree(root, 4096)
}

// conn is a bidirectional in-memory pipe split into separate request/reply
// buffers so a test can write a request then read exactly the reply it
// produced.
type conn struct {
	toServer   *bytes.Buffer
	fromServer *bytes.Buffer
}

func (c *conn) Read(p []byte) (int, error)  { return c.toServer.Read(p) }
func (c *conn) Write(p []byte) (int, error) { return c.fromServer.Write(p) }

func newHarness() (*Session, *conn) {
	c := &conn{toServer: &bytes.Buffer{}, fromServer: &bytes.Buffer{}}
	s := New(c, testDriver(), proto.DefaultMsize, discardLogger())
	return s, c
}

func sendFrame(t *testing.T, c *conn, verb uint8, tag uint16, body []byte) {
	t.Helper()
	if err := proto.WriteFrame(c.toServer, verb, tag, body); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
}

// readReply splits the next reply frame off the server's output.
// proto.ReadFrame accepts only client T-verbs, so R-frames are parsed here.
func readReply(t *testing.T, c *conn) proto.Frame {
	t.Helper()
	b := c.fromServer.Bytes()
	size, _, err := wire.GetUint32(b)
	if err != nil || size < 7 || size > proto.DefaultMsize || int(size) > len(b) {
		t.Fatalf("reading reply frame: %d bytes buffered", len(b))
	}
	tag, _, _ := wire.GetUint16(b[5:7])
	f := proto.Frame{Verb: b[4], Tag: tag, Body: append([]byte(nil), b[7:size]...)}
	c.fromServer.Next(int(size))
	return f
}

func versionHandshake(t *testing.T, s *Session, c *conn) {
	t.Helper()
	sendFrame(t, c, proto.Tversion, proto.NoTag, proto.TversionMsg{Msize: proto.DefaultMsize, Version: proto.Version}.Encode(nil))
	if err := s.dispatch(mustReadFrame(t, c)); err != nil {
		t.Fatalf("dispatch Tversion: %v", err)
	}
	r := readReply(t, c)
	if r.Verb != proto.Rversion {
		t.Fatalf("verb = %s, want Rversion", proto.MessageName(r.Verb))
	}
}

func mustReadFrame(t *testing.T, c *conn) proto.Frame {
	t.Helper()
	f, err := proto.ReadFrame(c.toServer, proto.DefaultMsize)
	if err != nil {
		t.Fatalf("ReadFrame (request side): %v", err)
	}
	return f
}

func TestVersionGoodTagAndVersion(t *testing.T) {
	s, c := newHarness()
	versionHandshake(t, s, c)
}

func TestVersionBadTagYieldsTwoReplies(t *testing.T) {
	s, c := newHarness()
	sendFrame(t, c, proto.Tversion, 7, proto.TversionMsg{Msize: proto.DefaultMsize, Version: proto.Version}.Encode(nil))
	if err := s.dispatch(mustReadFrame(t, c)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	first := readReply(t, c)
	if first.Verb != proto.Rerror || first.Tag != 7 {
		t.Fatalf("first reply = verb %s tag %d, want Rerror tag 7", proto.MessageName(first.Verb), first.Tag)
	}
	second := readReply(t, c)
	if second.Verb != proto.Rversion || second.Tag != proto.NoTag {
		t.Fatalf("second reply = verb %s tag %d, want Rversion tag NoTag", proto.MessageName(second.Verb), second.Tag)
	}
}

func TestVersionUnsupportedVersionString(t *testing.T) {
	s, c := newHarness()
	sendFrame(t, c, proto.Tversion, proto.NoTag, proto.TversionMsg{Msize: proto.DefaultMsize, Version: "unknown"}.Encode(nil))
	err := s.dispatch(mustReadFrame(t, c))
	if _, ok := err.(*proto.FatalError); !ok {
		t.Fatalf("dispatch err = %v (%T), want *proto.FatalError (unsupported version terminates the session)", err, err)
	}
	r := readReply(t, c)
	if r.Verb != proto.Rerror {
		t.Fatalf("verb = %s, want Rerror", proto.MessageName(r.Verb))
	}
	msg, _, err2 := wire.GetString(r.Body)
	if err2 != nil || msg != E9P2000Only {
		t.Fatalf("body = %q err %v, want %q", msg, err2, E9P2000Only)
	}
}

func TestVersionRejectsNonExactVersionString(t *testing.T) {
	s, c := newHarness()
	sendFrame(t, c, proto.Tversion, proto.NoTag, proto.TversionMsg{Msize: proto.DefaultMsize, Version: "9P2000.u"}.Encode(nil))
	err := s.dispatch(mustReadFrame(t, c))
	if _, ok := err.(*proto.FatalError); !ok {
		t.Fatalf("dispatch err = %v, want *proto.FatalError for a non-exact version match", err)
	}
	r := readReply(t, c)
	if r.Verb != proto.Rerror {
		t.Fatalf("verb = %s, want Rerror", proto.MessageName(r.Verb))
	}
}

func attach(t *testing.T, s *Session, c *conn, fid uint32) {
	t.Helper()
	sendFrame(t, c, proto.Tattach, 1, proto.TattachMsg{Fid: fid, Afid: proto.NoFid, Uname: "u", Aname: ""}.Encode(nil))
	if err := s.dispatch(mustReadFrame(t, c)); err != nil {
		t.Fatalf("dispatch Tattach: %v", err)
	}
	r := readReply(t, c)
	if r.Verb != proto.Rattach {
		t.Fatalf("verb = %s, want Rattach", proto.MessageName(r.Verb))
	}
}

func TestAttachThenDuplicateFid(t *testing.T) {
	s, c := newHarness()
	versionHandshake(t, s, c)
	attach(t, s, c, 0)

	sendFrame(t, c, proto.Tattach, 2, proto.TattachMsg{Fid: 0, Afid: proto.NoFid}.Encode(nil))
	if err := s.dispatch(mustReadFrame(t, c)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	r := readReply(t, c)
	if r.Verb != proto.Rerror {
		t.Fatalf("verb = %s, want Rerror", proto.MessageName(r.Verb))
	}
	msg, _, _ := wire.GetString(r.Body)
	if msg != EDuplicateFid {
		t.Fatalf("msg = %q, want %q", msg, EDuplicateFid)
	}
}

func TestWalkDuplicateNewfidEqualsFidIsUnconditional(t *testing.T) {
	s, c := newHarness()
	versionHandshake(t, s, c)
	attach(t, s, c, 0)

	sendFrame(t, c, proto.Twalk, 3, encodeTwalk(0, 0, nil))
	if err := s.dispatch(mustReadFrame(t, c)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	r := readReply(t, c)
	if r.Verb != proto.Rerror {
		t.Fatalf("verb = %s, want Rerror", proto.MessageName(r.Verb))
	}
	msg, _, _ := wire.GetString(r.Body)
	if msg != EDuplicateFid {
		t.Fatalf("msg = %q, want %q (newfid == fid must still collide)", msg, EDuplicateFid)
	}
}

func TestWalkIntoDevAndReadRandom(t *testing.T) {
	s, c := newHarness()
	versionHandshake(t, s, c)
	attach(t, s, c, 0)

	sendFrame(t, c, proto.Twalk, 3, encodeTwalk(0, 1, []string{"dev", "random"}))
	if err := s.dispatch(mustReadFrame(t, c)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	r := readReply(t, c)
	if r.Verb != proto.Rwalk {
		t.Fatalf("verb = %s, want Rwalk", proto.MessageName(r.Verb))
	}

	sendFrame(t, c, proto.Topen, 4, proto.TopenMsg{Fid: 1, Mode: proto.OREAD}.Encode(nil))
	if err := s.dispatch(mustReadFrame(t, c)); err != nil {
		t.Fatalf("dispatch Topen: %v", err)
	}
	if r := readReply(t, c); r.Verb != proto.Ropen {
		t.Fatalf("verb = %s, want Ropen", proto.MessageName(r.Verb))
	}

	sendFrame(t, c, proto.Tread, 5, proto.TreadMsg{Fid: 1, Offset: 0, Count: 8}.Encode(nil))
	if err := s.dispatch(mustReadFrame(t, c)); err != nil {
		t.Fatalf("dispatch Tread: %v", err)
	}
	r = readReply(t, c)
	if r.Verb != proto.Rread {
		t.Fatalf("verb = %s, want Rread", proto.MessageName(r.Verb))
	}
}

func TestWalkNonexistentFirstElementYieldsEmptyRwalk(t *testing.T) {
	s, c := newHarness()
	versionHandshake(t, s, c)
	attach(t, s, c, 0)

	sendFrame(t, c, proto.Twalk, 3, encodeTwalk(0, 1, []string{"nope"}))
	if err := s.dispatch(mustReadFrame(t, c)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	r := readReply(t, c)
	if r.Verb != proto.Rwalk {
		t.Fatalf("verb = %s, want Rwalk (a short walk is not itself an error)", proto.MessageName(r.Verb))
	}
	nwqid, _, err := wire.GetUint16(r.Body)
	if err != nil {
		t.Fatalf("GetUint16: %v", err)
	}
	if nwqid != 0 {
		t.Fatalf("nwqid = %d, want 0", nwqid)
	}

	// newfid must not have been bound by the failed walk.
	sendFrame(t, c, proto.Tstat, 4, proto.TstatMsg{Fid: 1}.Encode(nil))
	if err := s.dispatch(mustReadFrame(t, c)); err != nil {
		t.Fatalf("dispatch Tstat: %v", err)
	}
	r2 := readReply(t, c)
	if r2.Verb != proto.Rerror {
		t.Fatalf("verb = %s, want Rerror (newfid should be unbound)", proto.MessageName(r2.Verb))
	}
}

func TestWalkNonDirSourceWithNamesFails(t *testing.T) {
	s, c := newHarness()
	versionHandshake(t, s, c)
	attach(t, s, c, 0)

	sendFrame(t, c, proto.Twalk, 3, encodeTwalk(0, 1, []string{"dev", "random"}))
	if err := s.dispatch(mustReadFrame(t, c)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if r := readReply(t, c); r.Verb != proto.Rwalk {
		t.Fatalf("verb = %s, want Rwalk", proto.MessageName(r.Verb))
	}

	// fid 1 now names a file (dev/random); walking it further must fail
	// with E_NOT_DIR rather than falling through to "not found".
	sendFrame(t, c, proto.Twalk, 4, encodeTwalk(1, 2, []string{"anything"}))
	if err := s.dispatch(mustReadFrame(t, c)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	r := readReply(t, c)
	if r.Verb != proto.Rerror {
		t.Fatalf("verb = %s, want Rerror", proto.MessageName(r.Verb))
	}
	msg, _, _ := wire.GetString(r.Body)
	if msg != ENotDir {
		t.Fatalf("msg = %q, want %q", msg, ENotDir)
	}
}

func TestWalkOpenedSourceFidFails(t *testing.T) {
	s, c := newHarness()
	versionHandshake(t, s, c)
	attach(t, s, c, 0)

	sendFrame(t, c, proto.Topen, 3, proto.TopenMsg{Fid: 0, Mode: proto.OREAD}.Encode(nil))
	if err := s.dispatch(mustReadFrame(t, c)); err != nil {
		t.Fatalf("dispatch Topen: %v", err)
	}
	if r := readReply(t, c); r.Verb != proto.Ropen {
		t.Fatalf("verb = %s, want Ropen", proto.MessageName(r.Verb))
	}

	sendFrame(t, c, proto.Twalk, 4, encodeTwalk(0, 1, []string{"dev"}))
	if err := s.dispatch(mustReadFrame(t, c)); err != nil {
		t.Fatalf("dispatch Twalk: %v", err)
	}
	r := readReply(t, c)
	if r.Verb != proto.Rerror {
		t.Fatalf("verb = %s, want Rerror", proto.MessageName(r.Verb))
	}
	msg, _, _ := wire.GetString(r.Body)
	if msg != EAlreadyOpen {
		t.Fatalf("msg = %q, want %q", msg, EAlreadyOpen)
	}
}

func TestClunkThenFidInvalid(t *testing.T) {
	s, c := newHarness()
	versionHandshake(t, s, c)
	attach(t, s, c, 0)

	sendFrame(t, c, proto.Tclunk, 6, proto.TclunkMsg{Fid: 0}.Encode(nil))
	if err := s.dispatch(mustReadFrame(t, c)); err != nil {
		t.Fatalf("dispatch Tclunk: %v", err)
	}
	if r := readReply(t, c); r.Verb != proto.Rclunk {
		t.Fatalf("verb = %s, want Rclunk", proto.MessageName(r.Verb))
	}

	sendFrame(t, c, proto.Tstat, 7, proto.TstatMsg{Fid: 0}.Encode(nil))
	if err := s.dispatch(mustReadFrame(t, c)); err != nil {
		t.Fatalf("dispatch Tstat: %v", err)
	}
	r := readReply(t, c)
	if r.Verb != proto.Rerror {
		t.Fatalf("verb = %s, want Rerror", proto.MessageName(r.Verb))
	}
	msg, _, _ := wire.GetString(r.Body)
	if msg != EInvalidFid {
		t.Fatalf("msg = %q, want %q", msg, EInvalidFid)
	}
}

func TestFlushAlwaysOK(t *testing.T) {
	s, c := newHarness()
	sendFrame(t, c, proto.Tflush, 9, proto.TflushMsg{Oldtag: 123}.Encode(nil))
	if err := s.dispatch(mustReadFrame(t, c)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if r := readReply(t, c); r.Verb != proto.Rflush {
		t.Fatalf("verb = %s, want Rflush", proto.MessageName(r.Verb))
	}
}

func TestAuthAlwaysRejected(t *testing.T) {
	s, c := newHarness()
	sendFrame(t, c, proto.Tauth, 10, proto.TauthMsg{Afid: 9, Uname: "u", Aname: ""}.Encode(nil))
	if err := s.dispatch(mustReadFrame(t, c)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	r := readReply(t, c)
	if r.Verb != proto.Rerror {
		t.Fatalf("verb = %s, want Rerror", proto.MessageName(r.Verb))
	}
	msg, _, _ := wire.GetString(r.Body)
	if msg != ENoAuth {
		t.Fatalf("msg = %q, want %q", msg, ENoAuth)
	}
}

func encodeTwalk(fid, newfid uint32, names []string) []byte {
	buf := wire.PutUint32(nil, fid)
	buf = wire.PutUint32(buf, newfid)
	buf = wire.PutUint16(buf, uint16(len(names)))
	for _, n := range names {
		buf = wire.PutString(buf, n)
	}
	return buf
}
