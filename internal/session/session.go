// Package session implements the 9P2000 session engine: version
// negotiation, the FID table, and the per-verb handlers that turn decoded
// requests into driver calls and wire replies. It is transport-agnostic —
// callers supply an io.ReadWriter (or a framing.Conn wrapping one) and a
// fsdriver.Driver.
package session

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/NERVsystems/nine9p/internal/fsdriver"
	"github.com/NERVsystems/nine9p/internal/proto"
)

// Session runs the 9P2000 protocol engine for a single connection against
// a single driver. Matching the concurrency model this implementation
// targets, one Session serves at most one client connection and processes
// requests strictly one at a time — there is no per-request goroutine.
type Session struct {
	conn   io.ReadWriter
	driver fsdriver.Driver
	log    *slog.Logger

	msize uint32
	fids  *fidTable
}

// New creates a Session that will negotiate up to maxMsize and serve files
// through driver. A nil logger falls back to slog.Default().
func New(conn io.ReadWriter, driver fsdriver.Driver, maxMsize uint32, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	if maxMsize == 0 {
		maxMsize = proto.DefaultMsize
	}
	return &Session{
		conn:   conn,
		driver: driver,
		log:    log,
		msize:  maxMsize,
		fids:   newFidTable(),
	}
}

// Serve runs the request/reply loop until a fatal error (malformed frame,
// transport failure, verb parity violation) ends the connection. io.EOF is
// returned unwrapped so callers can distinguish a clean disconnect from a
// genuine protocol fault.
func (s *Session) Serve() error {
	for {
		f, err := proto.ReadFrame(s.conn, s.msize)
		if err != nil {
			if err == io.EOF {
				return io.EOF
			}
			if fe, ok := err.(*proto.FatalError); ok {
				s.log.Debug("fatal frame error, closing session", "err", fe.Error())
			}
			return err
		}
		s.log.Debug("received", "verb", proto.MessageName(f.Verb), "tag", f.Tag)
		if err := s.dispatch(f); err != nil {
			if fe, ok := err.(*proto.FatalError); ok {
				return fe
			}
			// Any other error here is a programmer error in a handler: log
			// and report it as a generic protocol error rather than
			// crashing the session.
			s.log.Error("handler error", "verb", proto.MessageName(f.Verb), "err", err)
			s.reply(f.Tag, proto.Rerror, proto.RerrorMsg{Ename: err.Error()}.Encode(nil))
		}
	}
}

// reply writes one frame; a write failure is logged but otherwise
// swallowed since the caller has no more useful recourse than letting the
// next read fail too.
func (s *Session) reply(tag uint16, verb uint8, body []byte) {
	if err := proto.WriteFrame(s.conn, verb, tag, body); err != nil {
		s.log.Debug("write failed", "err", err)
	}
}

func (s *Session) replyError(tag uint16, msg string) {
	s.reply(tag, proto.Rerror, proto.RerrorMsg{Ename: msg}.Encode(nil))
}

func fatalf(format string, args ...interface{}) error {
	return &proto.FatalError{Msg: fmt.Sprintf(format, args...)}
}
