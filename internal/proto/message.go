package proto

import "github.com/NERVsystems/nine9p/internal/wire"

// TversionMsg is the body of a Tversion message (Tag is carried in the
// frame header, not here).
type TversionMsg struct {
	Msize   uint32
	Version string
}

func (m TversionMsg) Encode(buf []byte) []byte {
	buf = wire.PutUint32(buf, m.Msize)
	buf = wire.PutString(buf, m.Version)
	return buf
}

func DecodeTversion(b []byte) (TversionMsg, error) {
	msize, n, err := wire.GetUint32(b)
	if err != nil {
		return TversionMsg{}, err
	}
	ver, _, err := wire.GetString(b[n:])
	if err != nil {
		return TversionMsg{}, err
	}
	return TversionMsg{Msize: msize, Version: ver}, nil
}

type RversionMsg struct {
	Msize   uint32
	Version string
}

func (m RversionMsg) Encode(buf []byte) []byte {
	buf = wire.PutUint32(buf, m.Msize)
	buf = wire.PutString(buf, m.Version)
	return buf
}

// TauthMsg requests an authentication fid; this implementation never
// requires authentication and always answers with Rerror(E_NO_AUTH).
type TauthMsg struct {
	Afid  uint32
	Uname string
	Aname string
}

func (m TauthMsg) Encode(buf []byte) []byte {
	buf = wire.PutUint32(buf, m.Afid)
	buf = wire.PutString(buf, m.Uname)
	buf = wire.PutString(buf, m.Aname)
	return buf
}

func DecodeTauth(b []byte) (TauthMsg, error) {
	afid, n, err := wire.GetUint32(b)
	if err != nil {
		return TauthMsg{}, err
	}
	off := n
	uname, n, err := wire.GetString(b[off:])
	if err != nil {
		return TauthMsg{}, err
	}
	off += n
	aname, _, err := wire.GetString(b[off:])
	if err != nil {
		return TauthMsg{}, err
	}
	return TauthMsg{Afid: afid, Uname: uname, Aname: aname}, nil
}

// TattachMsg attaches a new fid to the root of the served tree.
type TattachMsg struct {
	Fid   uint32
	Afid  uint32
	Uname string
	Aname string
}

func (m TattachMsg) Encode(buf []byte) []byte {
	buf = wire.PutUint32(buf, m.Fid)
	buf = wire.PutUint32(buf, m.Afid)
	buf = wire.PutString(buf, m.Uname)
	buf = wire.PutString(buf, m.Aname)
	return buf
}

func DecodeTattach(b []byte) (TattachMsg, error) {
	fid, n, err := wire.GetUint32(b)
	if err != nil {
		return TattachMsg{}, err
	}
	off := n
	afid, n, err := wire.GetUint32(b[off:])
	if err != nil {
		return TattachMsg{}, err
	}
	off += n
	uname, n, err := wire.GetString(b[off:])
	if err != nil {
		return TattachMsg{}, err
	}
	off += n
	aname, _, err := wire.GetString(b[off:])
	if err != nil {
		return TattachMsg{}, err
	}
	return TattachMsg{Fid: fid, Afid: afid, Uname: uname, Aname: aname}, nil
}

type RattachMsg struct {
	Qid wire.Qid
}

func (m RattachMsg) Encode(buf []byte) []byte { return m.Qid.Encode(buf) }

// TwalkMsg walks fid through Names, attaching the result to Newfid.
type TwalkMsg struct {
	Fid    uint32
	Newfid uint32
	Names  []string
}

func DecodeTwalk(b []byte) (TwalkMsg, error) {
	fid, n, err := wire.GetUint32(b)
	if err != nil {
		return TwalkMsg{}, err
	}
	off := n
	newfid, n, err := wire.GetUint32(b[off:])
	if err != nil {
		return TwalkMsg{}, err
	}
	off += n
	nwname, n, err := wire.GetUint16(b[off:])
	if err != nil {
		return TwalkMsg{}, err
	}
	off += n
	names := make([]string, 0, nwname)
	for i := 0; i < int(nwname); i++ {
		name, n, err := wire.GetString(b[off:])
		if err != nil {
			return TwalkMsg{}, err
		}
		off += n
		names = append(names, name)
	}
	return TwalkMsg{Fid: fid, Newfid: newfid, Names: names}, nil
}

type RwalkMsg struct {
	Wqid []wire.Qid
}

func (m RwalkMsg) Encode(buf []byte) []byte {
	buf = wire.PutUint16(buf, uint16(len(m.Wqid)))
	for _, q := range m.Wqid {
		buf = q.Encode(buf)
	}
	return buf
}

type TopenMsg struct {
	Fid  uint32
	Mode uint8
}

func (m TopenMsg) Encode(buf []byte) []byte {
	buf = wire.PutUint32(buf, m.Fid)
	return wire.PutUint8(buf, m.Mode)
}

func DecodeTopen(b []byte) (TopenMsg, error) {
	fid, n, err := wire.GetUint32(b)
	if err != nil {
		return TopenMsg{}, err
	}
	mode, _, err := wire.GetUint8(b[n:])
	if err != nil {
		return TopenMsg{}, err
	}
	return TopenMsg{Fid: fid, Mode: mode}, nil
}

type RopenMsg struct {
	Qid    wire.Qid
	IOUnit uint32
}

func (m RopenMsg) Encode(buf []byte) []byte {
	buf = m.Qid.Encode(buf)
	buf = wire.PutUint32(buf, m.IOUnit)
	return buf
}

type TreadMsg struct {
	Fid    uint32
	Offset uint64
	Count  uint32
}

func (m TreadMsg) Encode(buf []byte) []byte {
	buf = wire.PutUint32(buf, m.Fid)
	buf = wire.PutUint64(buf, m.Offset)
	return wire.PutUint32(buf, m.Count)
}

func DecodeTread(b []byte) (TreadMsg, error) {
	fid, n, err := wire.GetUint32(b)
	if err != nil {
		return TreadMsg{}, err
	}
	off := n
	offset, n, err := wire.GetUint64(b[off:])
	if err != nil {
		return TreadMsg{}, err
	}
	off += n
	count, _, err := wire.GetUint32(b[off:])
	if err != nil {
		return TreadMsg{}, err
	}
	return TreadMsg{Fid: fid, Offset: offset, Count: count}, nil
}

type RreadMsg struct {
	Data []byte
}

func (m RreadMsg) Encode(buf []byte) []byte {
	buf = wire.PutUint32(buf, uint32(len(m.Data)))
	return append(buf, m.Data...)
}

type TwriteMsg struct {
	Fid    uint32
	Offset uint64
	Data   []byte
}

func DecodeTwrite(b []byte) (TwriteMsg, error) {
	fid, n, err := wire.GetUint32(b)
	if err != nil {
		return TwriteMsg{}, err
	}
	off := n
	offset, n, err := wire.GetUint64(b[off:])
	if err != nil {
		return TwriteMsg{}, err
	}
	off += n
	count, n, err := wire.GetUint32(b[off:])
	if err != nil {
		return TwriteMsg{}, err
	}
	off += n
	if len(b) < off+int(count) {
		return TwriteMsg{}, wire.ErrShortBuffer
	}
	data := make([]byte, count)
	copy(data, b[off:off+int(count)])
	return TwriteMsg{Fid: fid, Offset: offset, Data: data}, nil
}

type RwriteMsg struct {
	Count uint32
}

func (m RwriteMsg) Encode(buf []byte) []byte { return wire.PutUint32(buf, m.Count) }

type TclunkMsg struct {
	Fid uint32
}

func (m TclunkMsg) Encode(buf []byte) []byte { return wire.PutUint32(buf, m.Fid) }

func DecodeTclunk(b []byte) (TclunkMsg, error) {
	fid, _, err := wire.GetUint32(b)
	if err != nil {
		return TclunkMsg{}, err
	}
	return TclunkMsg{Fid: fid}, nil
}

type TstatMsg struct {
	Fid uint32
}

func (m TstatMsg) Encode(buf []byte) []byte { return wire.PutUint32(buf, m.Fid) }

func DecodeTstat(b []byte) (TstatMsg, error) {
	fid, _, err := wire.GetUint32(b)
	if err != nil {
		return TstatMsg{}, err
	}
	return TstatMsg{Fid: fid}, nil
}

// RstatMsg wraps a Stat with the doubled size prefix the 9P2000 wire format
// uses for Rstat/directory entries: an outer uint16 giving the length of
// the whole Rstat body (which is itself just the inner, self-describing
// Stat record).
type RstatMsg struct {
	Stat wire.Stat
}

func (m RstatMsg) Encode(buf []byte) []byte {
	// wire.RstatBody already prefixes the Stat with its own self-describing
	// size; Rstat wraps that whole thing in a second, outer size.
	inner := wire.RstatBody(nil, m.Stat)
	buf = wire.PutUint16(buf, uint16(len(inner)))
	return append(buf, inner...)
}

type TwstatMsg struct {
	Fid  uint32
	Stat wire.Stat
}

func DecodeTwstat(b []byte) (TwstatMsg, error) {
	fid, n, err := wire.GetUint32(b)
	if err != nil {
		return TwstatMsg{}, err
	}
	off := n
	// Twstat carries the same doubled size prefix as Rstat: an outer size
	// around a self-describing (inner-sized) Stat record.
	_, n, err = wire.GetUint16(b[off:])
	if err != nil {
		return TwstatMsg{}, err
	}
	off += n
	_, n, err = wire.GetUint16(b[off:])
	if err != nil {
		return TwstatMsg{}, err
	}
	off += n
	st, _, err := wire.DecodeStat(b[off:])
	if err != nil {
		return TwstatMsg{}, err
	}
	return TwstatMsg{Fid: fid, Stat: st}, nil
}

type TflushMsg struct {
	Oldtag uint16
}

func (m TflushMsg) Encode(buf []byte) []byte { return wire.PutUint16(buf, m.Oldtag) }

func DecodeTflush(b []byte) (TflushMsg, error) {
	tag, _, err := wire.GetUint16(b)
	if err != nil {
		return TflushMsg{}, err
	}
	return TflushMsg{Oldtag: tag}, nil
}

// RerrorMsg carries one of the fixed error strings defined in package
// session.
type RerrorMsg struct {
	Ename string
}

func (m RerrorMsg) Encode(buf []byte) []byte { return wire.PutString(buf, m.Ename) }
