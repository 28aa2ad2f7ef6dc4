package session

import (
	"github.com/NERVsystems/nine9p/internal/fsdriver"
	"github.com/NERVsystems/nine9p/internal/proto"
	"github.com/NERVsystems/nine9p/internal/wire"
)

// ENotSupported covers verbs (Tcreate, Tremove) this implementation
// recognizes but never serves; not part of the original's fixed error set,
// used only for verbs outside this implementation's scope.
const ENotSupported = "Operation not supported."

// dispatch decodes f.Body according to f.Verb and calls the matching
// handler. Verbs this session doesn't know about at all are a protocol
// violation serious enough to be fatal; verbs it knows but doesn't
// implement (Tcreate, Tremove) get a normal Rerror instead.
func (s *Session) dispatch(f proto.Frame) error {
	switch f.Verb {
	case proto.Tversion:
		return s.handleVersion(f)
	case proto.Tauth:
		return s.handleAuth(f)
	case proto.Tattach:
		return s.handleAttach(f)
	case proto.Tflush:
		return s.handleFlush(f)
	case proto.Twalk:
		return s.handleWalk(f)
	case proto.Topen:
		return s.handleOpen(f)
	case proto.Tread:
		return s.handleRead(f)
	case proto.Twrite:
		return s.handleWrite(f)
	case proto.Tclunk:
		return s.handleClunk(f)
	case proto.Tstat:
		return s.handleStat(f)
	case proto.Twstat:
		return s.handleWstat(f)
	case proto.Tcreate, proto.Tremove:
		s.replyError(f.Tag, ENotSupported)
		return nil
	default:
		return fatalf("unrecognized verb %d", f.Verb)
	}
}

// handleVersion implements Design Note #3's dual-reply behavior: a bad tag
// and a bad version are reported independently, so a single Tversion can
// draw one or two wire replies.
func (s *Session) handleVersion(f proto.Frame) error {
	s.fids.reset()
	s.driver.Reset()

	if f.Tag != proto.NoTag {
		s.replyError(f.Tag, ENeedNotag)
	}

	msg, err := proto.DecodeTversion(f.Body)
	if err != nil {
		return fatalf("malformed Tversion: %v", err)
	}

	if msg.Version != proto.Version {
		s.replyError(proto.NoTag, E9P2000Only)
		return fatalf("unsupported version %q, terminating session", msg.Version)
	}

	negotiated := msg.Msize
	if negotiated > s.msize {
		negotiated = s.msize
	}
	s.msize = negotiated
	s.reply(proto.NoTag, proto.Rversion, proto.RversionMsg{Msize: negotiated, Version: proto.Version}.Encode(nil))
	return nil
}

func (s *Session) handleAuth(f proto.Frame) error {
	if _, err := proto.DecodeTauth(f.Body); err != nil {
		return fatalf("malformed Tauth: %v", err)
	}
	s.replyError(f.Tag, ENoAuth)
	return nil
}

func (s *Session) handleAttach(f proto.Frame) error {
	msg, err := proto.DecodeTattach(f.Body)
	if err != nil {
		return fatalf("malformed Tattach: %v", err)
	}
	if msg.Afid != proto.NoFid {
		s.replyError(f.Tag, ENeedNofid)
		return nil
	}
	if msg.Aname != "" && msg.Aname != "/" {
		s.replyError(f.Tag, ENoAltRoot)
		return nil
	}
	if s.fids.exists(msg.Fid) {
		s.replyError(f.Tag, EDuplicateFid)
		return nil
	}
	root := s.driver.GetRoot()
	s.fids.add(msg.Fid, root)
	s.reply(f.Tag, proto.Rattach, proto.RattachMsg{Qid: root}.Encode(nil))
	return nil
}

func (s *Session) handleWalk(f proto.Frame) error {
	msg, err := proto.DecodeTwalk(f.Body)
	if err != nil {
		return fatalf("malformed Twalk: %v", err)
	}
	entry, ok := s.fids.get(msg.Fid)
	if !ok {
		s.replyError(f.Tag, EInvalidFid)
		return nil
	}
	if entry.opened {
		s.replyError(f.Tag, EAlreadyOpen)
		return nil
	}
	// Unconditional: newfid in use is an error even when newfid == fid.
	if s.fids.exists(msg.Newfid) {
		s.replyError(f.Tag, EDuplicateFid)
		return nil
	}
	if len(msg.Names) > 0 && entry.qid.Type&wire.QTDIR == 0 {
		s.replyError(f.Tag, ENotDir)
		return nil
	}

	cur := entry.qid
	wqid := make([]wire.Qid, 0, len(msg.Names))
	for _, name := range msg.Names {
		if cur.Type&wire.QTDIR == 0 {
			break
		}
		next, err := s.driver.GetQid(cur, name)
		if err != nil {
			break
		}
		wqid = append(wqid, next)
		cur = next
	}

	// A short walk (including zero resolved names) is not itself an
	// error: reply with whatever qids were resolved and leave newfid
	// unbound unless every requested name resolved.
	if len(wqid) == len(msg.Names) {
		s.fids.add(msg.Newfid, cur)
	}
	s.reply(f.Tag, proto.Rwalk, proto.RwalkMsg{Wqid: wqid}.Encode(nil))
	return nil
}

func (s *Session) handleOpen(f proto.Frame) error {
	msg, err := proto.DecodeTopen(f.Body)
	if err != nil {
		return fatalf("malformed Topen: %v", err)
	}
	entry, ok := s.fids.get(msg.Fid)
	if !ok {
		s.replyError(f.Tag, EInvalidFid)
		return nil
	}
	if entry.opened {
		s.replyError(f.Tag, EAlreadyOpen)
		return nil
	}
	state, err := s.driver.OpenFile(entry.qid, msg.Mode)
	if err != nil {
		s.replyError(f.Tag, mapDriverErr(err))
		return nil
	}
	entry.opened = true
	entry.mode = msg.Mode
	entry.state = state
	s.reply(f.Tag, proto.Ropen, proto.RopenMsg{Qid: entry.qid, IOUnit: s.driver.IOSize()}.Encode(nil))
	return nil
}

func (s *Session) handleRead(f proto.Frame) error {
	msg, err := proto.DecodeTread(f.Body)
	if err != nil {
		return fatalf("malformed Tread: %v", err)
	}
	entry, ok := s.fids.get(msg.Fid)
	if !ok {
		s.replyError(f.Tag, EInvalidFid)
		return nil
	}
	if !entry.opened {
		s.replyError(f.Tag, ENotOpen)
		return nil
	}
	count := msg.Count
	if io := s.driver.IOSize(); count > io {
		count = io
	}
	buf := make([]byte, count)
	n, err := s.driver.ReadFile(entry.qid, entry.state, int64(msg.Offset), buf)
	if err != nil {
		s.replyError(f.Tag, mapDriverErr(err))
		return nil
	}
	s.reply(f.Tag, proto.Rread, proto.RreadMsg{Data: buf[:n]}.Encode(nil))
	return nil
}

func (s *Session) handleWrite(f proto.Frame) error {
	msg, err := proto.DecodeTwrite(f.Body)
	if err != nil {
		return fatalf("malformed Twrite: %v", err)
	}
	entry, ok := s.fids.get(msg.Fid)
	if !ok {
		s.replyError(f.Tag, EInvalidFid)
		return nil
	}
	if !entry.opened {
		s.replyError(f.Tag, ENotOpen)
		return nil
	}
	n, err := s.driver.WriteFile(entry.qid, entry.state, int64(msg.Offset), msg.Data)
	if err != nil {
		s.replyError(f.Tag, mapDriverErr(err))
		return nil
	}
	s.reply(f.Tag, proto.Rwrite, proto.RwriteMsg{Count: uint32(n)}.Encode(nil))
	return nil
}

func (s *Session) handleClunk(f proto.Frame) error {
	msg, err := proto.DecodeTclunk(f.Body)
	if err != nil {
		return fatalf("malformed Tclunk: %v", err)
	}
	entry, ok := s.fids.get(msg.Fid)
	if !ok {
		s.replyError(f.Tag, EInvalidFid)
		return nil
	}
	if entry.opened {
		s.driver.CloseFile(entry.qid, entry.state)
	}
	s.fids.remove(msg.Fid)
	s.reply(f.Tag, proto.Rclunk, nil)
	return nil
}

func (s *Session) handleStat(f proto.Frame) error {
	msg, err := proto.DecodeTstat(f.Body)
	if err != nil {
		return fatalf("malformed Tstat: %v", err)
	}
	entry, ok := s.fids.get(msg.Fid)
	if !ok {
		s.replyError(f.Tag, EInvalidFid)
		return nil
	}
	st, err := s.driver.GetStat(entry.qid)
	if err != nil {
		s.replyError(f.Tag, mapDriverErr(err))
		return nil
	}
	s.reply(f.Tag, proto.Rstat, proto.RstatMsg{Stat: st}.Encode(nil))
	return nil
}

// handleWstat is a no-op acknowledgement: the request is validated for fid
// existence only, never applied to the driver.
func (s *Session) handleWstat(f proto.Frame) error {
	msg, err := proto.DecodeTwstat(f.Body)
	if err != nil {
		return fatalf("malformed Twstat: %v", err)
	}
	if !s.fids.exists(msg.Fid) {
		s.replyError(f.Tag, EInvalidFid)
		return nil
	}
	s.reply(f.Tag, proto.Rwstat, nil)
	return nil
}

func (s *Session) handleFlush(f proto.Frame) error {
	if _, err := proto.DecodeTflush(f.Body); err != nil {
		return fatalf("malformed Tflush: %v", err)
	}
	s.reply(f.Tag, proto.Rflush, nil)
	return nil
}

func mapDriverErr(err error) string {
	switch err {
	case fsdriver.ErrNotFound:
		return ENotFound
	case fsdriver.ErrNotDir:
		return ENotDir
	case fsdriver.ErrIsDir:
		return ENotDir
	case fsdriver.ErrPermission:
		return ENotOpen
	case fsdriver.ErrBadOffset:
		return ENotFound
	default:
		return ENotFound
	}
}
