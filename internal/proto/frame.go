package proto

import (
	"encoding/binary"
	"fmt"
	"io"
)

// headerSize is size[4] + verb[1] + tag[2].
const headerSize = 7

// FatalError marks a frame-level failure severe enough that the connection
// (not just the current request) must be torn down: a malformed frame, a
// message over msize, or a verb-parity violation (an R-verb or Terror
// arriving as if it were a client request).
type FatalError struct {
	Msg string
}

func (e *FatalError) Error() string { return e.Msg }

// Frame is one decoded 9P message: its verb, tag, and raw payload (the
// bytes after the 7-byte header, not including the outer size).
type Frame struct {
	Verb uint8
	Tag  uint16
	Body []byte
}

// ReadFrame reads one complete message from r, enforcing the msize ceiling
// and verb parity. Any error it returns should be treated as fatal by the
// caller: either the transport failed, or the peer sent something outside
// the protocol.
func ReadFrame(r io.Reader, msize uint32) (Frame, error) {
	var sizeBuf [4]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		if err == io.EOF {
			return Frame{}, io.EOF
		}
		return Frame{}, &FatalError{Msg: fmt.Sprintf("reading frame size: %v", err)}
	}
	size := binary.LittleEndian.Uint32(sizeBuf[:])
	if size < headerSize {
		return Frame{}, &FatalError{Msg: fmt.Sprintf("frame size %d smaller than header", size)}
	}
	if size > msize {
		return Frame{}, &FatalError{Msg: fmt.Sprintf("frame size %d exceeds msize %d", size, msize)}
	}
	rest := make([]byte, size-4)
	if _, err := io.ReadFull(r, rest); err != nil {
		return Frame{}, &FatalError{Msg: fmt.Sprintf("reading frame body: %v", err)}
	}
	verb := rest[0]
	tag := binary.LittleEndian.Uint16(rest[1:3])
	if !IsTverb(verb) {
		return Frame{}, &FatalError{Msg: fmt.Sprintf("received non-T verb %s(%d) from client", MessageName(verb), verb)}
	}
	if verb == Terror {
		return Frame{}, &FatalError{Msg: "received illegal Terror from client"}
	}
	return Frame{Verb: verb, Tag: tag, Body: rest[3:]}, nil
}

// WriteFrame writes one complete message (size + verb + tag + body) to w.
func WriteFrame(w io.Writer, verb uint8, tag uint16, body []byte) error {
	total := headerSize + len(body)
	buf := make([]byte, 4, total)
	binary.LittleEndian.PutUint32(buf, uint32(total))
	buf = append(buf, verb)
	var tagBuf [2]byte
	binary.LittleEndian.PutUint16(tagBuf[:], tag)
	buf = append(buf, tagBuf[:]...)
	buf = append(buf, body...)
	_, err := w.Write(buf)
	return err
}
