// Package wire implements the 9P2000 on-the-wire codec: the little-endian
// integer encodings, length-prefixed strings, and the Qid and Stat record
// formats shared by every T-message and R-message.
package wire

import (
	"encoding/binary"
	"errors"
)

// ErrShortBuffer is returned when a Decode call does not have enough bytes
// left in its input to parse a complete field.
var ErrShortBuffer = errors.New("wire: short buffer")

// QidSize is the on-the-wire size of a Qid: one type byte, four version
// bytes, one zero pad byte, then eight path bytes.
const QidSize = 14

// Qid type bits.
const (
	QTDIR    = 0x80
	QTAPPEND = 0x40
	QTEXCL   = 0x20
	QTMOUNT  = 0x10
	QTAUTH   = 0x08
	QTTMP    = 0x04
	QTFILE   = 0x00
)

// Qid is the server's compact per-file identity: type bits, a version
// counter that changes when the file's contents change, and a path that
// uniquely (and permanently) identifies the file within the tree.
type Qid struct {
	Type    uint8
	Version uint32
	Path    uint64
}

// Encode appends the wire form of q to buf and returns the result.
func (q Qid) Encode(buf []byte) []byte {
	var tmp [QidSize]byte
	tmp[0] = q.Type
	binary.LittleEndian.PutUint32(tmp[1:5], q.Version)
	// tmp[5] is the zero pad byte.
	binary.LittleEndian.PutUint64(tmp[6:14], q.Path)
	return append(buf, tmp[:]...)
}

// DecodeQid parses a Qid from the front of b and returns it along with the
// number of bytes consumed.
func DecodeQid(b []byte) (Qid, int, error) {
	if len(b) < QidSize {
		return Qid{}, 0, ErrShortBuffer
	}
	q := Qid{
		Type:    b[0],
		Version: binary.LittleEndian.Uint32(b[1:5]),
		Path:    binary.LittleEndian.Uint64(b[6:14]),
	}
	return q, QidSize, nil
}

// PutUint8 appends v to buf.
func PutUint8(buf []byte, v uint8) []byte { return append(buf, v) }

// PutUint16 appends the little-endian encoding of v to buf.
func PutUint16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

// PutUint32 appends the little-endian encoding of v to buf.
func PutUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// PutUint64 appends the little-endian encoding of v to buf.
func PutUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

// PutString appends a two-byte length prefix followed by the UTF-8 bytes of
// s. Callers are responsible for keeping s under 65535 bytes; spec-level
// message sizes (msize) make that a non-issue in practice.
func PutString(buf []byte, s string) []byte {
	buf = PutUint16(buf, uint16(len(s)))
	return append(buf, s...)
}

func GetUint8(b []byte) (uint8, int, error) {
	if len(b) < 1 {
		return 0, 0, ErrShortBuffer
	}
	return b[0], 1, nil
}

func GetUint16(b []byte) (uint16, int, error) {
	if len(b) < 2 {
		return 0, 0, ErrShortBuffer
	}
	return binary.LittleEndian.Uint16(b[:2]), 2, nil
}

func GetUint32(b []byte) (uint32, int, error) {
	if len(b) < 4 {
		return 0, 0, ErrShortBuffer
	}
	return binary.LittleEndian.Uint32(b[:4]), 4, nil
}

func GetUint64(b []byte) (uint64, int, error) {
	if len(b) < 8 {
		return 0, 0, ErrShortBuffer
	}
	return binary.LittleEndian.Uint64(b[:8]), 8, nil
}

// GetString parses a length-prefixed string from the front of b and returns
// it along with the number of bytes consumed.
func GetString(b []byte) (string, int, error) {
	n, nn, err := GetUint16(b)
	if err != nil {
		return "", 0, err
	}
	if len(b) < nn+int(n) {
		return "", 0, ErrShortBuffer
	}
	return string(b[nn : nn+int(n)]), nn + int(n), nil
}

// Stat mode bits (directory / permission-ish flags carried in Stat.Mode).
const (
	DMDIR    = 0x80000000
	DMAPPEND = 0x40000000
	DMEXCL   = 0x20000000
	DMTMP    = 0x04000000
	DMREAD   = 0x4
	DMWRITE  = 0x2
	DMEXEC   = 0x1
)

// Stat is the directory-entry metadata record used by Rstat, Twstat, and
// directory Read bodies.
type Stat struct {
	Type   uint16
	Dev    uint32
	Qid    Qid
	Mode   uint32
	Atime  uint32
	Mtime  uint32
	Length uint64
	Name   string
	Uid    string
	Gid    string
	Muid   string
}

// Encode appends the wire form of s, NOT including the outer size prefix
// that Rstat/directory entries wrap it in.
func (s Stat) Encode(buf []byte) []byte {
	buf = PutUint16(buf, s.Type)
	buf = PutUint32(buf, s.Dev)
	buf = s.Qid.Encode(buf)
	buf = PutUint32(buf, s.Mode)
	buf = PutUint32(buf, s.Atime)
	buf = PutUint32(buf, s.Mtime)
	buf = PutUint64(buf, s.Length)
	buf = PutString(buf, s.Name)
	buf = PutString(buf, s.Uid)
	buf = PutString(buf, s.Gid)
	buf = PutString(buf, s.Muid)
	return buf
}

// EncodedSize returns the number of bytes Encode would append, without
// actually encoding anything.
func (s Stat) EncodedSize() int {
	return 2 + 4 + QidSize + 4 + 4 + 4 + 8 +
		2 + len(s.Name) + 2 + len(s.Uid) + 2 + len(s.Gid) + 2 + len(s.Muid)
}

// RstatBody appends one directory-entry-style packed Stat (its own
// length-prefixed Stat record) to buf, matching the wire format a Tread
// against a directory Qid concatenates entries in.
func RstatBody(buf []byte, s Stat) []byte {
	inner := s.Encode(nil)
	buf = PutUint16(buf, uint16(len(inner)))
	return append(buf, inner...)
}

// DecodeStat parses a Stat body (not including its outer size prefix) from
// the front of b and returns it along with the number of bytes consumed.
func DecodeStat(b []byte) (Stat, int, error) {
	var s Stat
	var off int

	typ, n, err := GetUint16(b[off:])
	if err != nil {
		return Stat{}, 0, err
	}
	s.Type = typ
	off += n

	dev, n, err := GetUint32(b[off:])
	if err != nil {
		return Stat{}, 0, err
	}
	s.Dev = dev
	off += n

	qid, n, err := DecodeQid(b[off:])
	if err != nil {
		return Stat{}, 0, err
	}
	s.Qid = qid
	off += n

	mode, n, err := GetUint32(b[off:])
	if err != nil {
		return Stat{}, 0, err
	}
	s.Mode = mode
	off += n

	atime, n, err := GetUint32(b[off:])
	if err != nil {
		return Stat{}, 0, err
	}
	s.Atime = atime
	off += n

	mtime, n, err := GetUint32(b[off:])
	if err != nil {
		return Stat{}, 0, err
	}
	s.Mtime = mtime
	off += n

	length, n, err := GetUint64(b[off:])
	if err != nil {
		return Stat{}, 0, err
	}
	s.Length = length
	off += n

	name, n, err := GetString(b[off:])
	if err != nil {
		return Stat{}, 0, err
	}
	s.Name = name
	off += n

	uid, n, err := GetString(b[off:])
	if err != nil {
		return Stat{}, 0, err
	}
	s.Uid = uid
	off += n

	gid, n, err := GetString(b[off:])
	if err != nil {
		return Stat{}, 0, err
	}
	s.Gid = gid
	off += n

	muid, n, err := GetString(b[off:])
	if err != nil {
		return Stat{}, 0, err
	}
	s.Muid = muid
	off += n

	return s, off, nil
}
