// Package framing implements the optional hex-encoded framing layer used
// over text-only transports (serial consoles, REPL-style links) that can't
// reliably carry arbitrary binary bytes. A conforming peer announces itself
// by writing a literal sentinel once at the start of the connection; after
// that, all traffic in both directions is hex-encoded.
package framing

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
)

// Sentinel is written once by a peer to announce that hex framing is in
// effect for the rest of the connection.
const Sentinel = "<HEXLIFY_FRAMING>"

// Conn wraps an underlying io.ReadWriter, hex-decoding reads once the
// peer's sentinel has been observed and hex-encoding every write. Write
// never sends the sentinel itself; only Announce does.
type Conn struct {
	rw       io.ReadWriter
	br       *bufio.Reader
	observed bool // the peer's sentinel has been scanned past on the read side
}

// NewConn wraps rw. Hex decoding of incoming bytes begins only after the
// peer's sentinel has been scanned off the front of the stream; writes are
// hex-encoded immediately.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{rw: rw, br: bufio.NewReader(rw)}
}

// Announce writes the sentinel, unencoded, to the underlying stream. It
// does not change how Write behaves: Write hex-encodes whether or not
// Announce has been called.
func (c *Conn) Announce() error {
	_, err := io.WriteString(c.rw, Sentinel)
	return err
}

// awaitSentinel scans the incoming stream byte by byte until the full
// Sentinel has been observed, matching spec prose rather than the
// original's shorter, non-conforming 4-byte scan.
func (c *Conn) awaitSentinel() error {
	want := []byte(Sentinel)
	matched := 0
	for matched < len(want) {
		b, err := c.br.ReadByte()
		if err != nil {
			return err
		}
		if b == want[matched] {
			matched++
			continue
		}
		// Restart the match; a byte that equals want[0] may itself begin a
		// fresh attempt.
		if b == want[0] {
			matched = 1
		} else {
			matched = 0
		}
	}
	c.observed = true
	return nil
}

// Read hex-decodes n bytes' worth of hex text from the underlying stream,
// scanning past the peer's sentinel first if it hasn't been seen yet.
func (c *Conn) Read(p []byte) (int, error) {
	if !c.observed {
		if err := c.awaitSentinel(); err != nil {
			return 0, err
		}
	}
	hexBuf := make([]byte, 2*len(p))
	n, err := io.ReadFull(c.br, hexBuf)
	if n%2 != 0 {
		n--
	}
	decoded, derr := hex.Decode(p, hexBuf[:n])
	if derr != nil {
		return 0, fmt.Errorf("framing: invalid hex from peer: %w", derr)
	}
	if err != nil && err != io.ErrUnexpectedEOF {
		return decoded, err
	}
	return decoded, nil
}

// Write hex-encodes data and writes it to the underlying stream.
func (c *Conn) Write(data []byte) (int, error) {
	encoded := make([]byte, hex.EncodedLen(len(data)))
	hex.Encode(encoded, data)
	if _, err := c.rw.Write(encoded); err != nil {
		return 0, err
	}
	return len(data), nil
}
