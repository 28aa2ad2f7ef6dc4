// Command 9pprobe is a minimal 9P2000 client: it dials a server, walks to
// a path, opens and reads it, and prints what it reads. It exists to give
// the wire codec a client-side exercise, since the codec itself is
// symmetric even though only server-side decoding is otherwise in scope.
package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/NERVsystems/nine9p/internal/proto"
	"github.com/NERVsystems/nine9p/internal/wire"
)

func main() {
	addr := flag.String("addr", "localhost:9999", "server address")
	path := flag.String("path", "", "slash-separated path to walk to and read, e.g. dev/random")
	count := flag.Uint("count", 64, "bytes to read")
	flag.Parse()

	if err := probe(*addr, *path, uint32(*count)); err != nil {
		fmt.Fprintf(os.Stderr, "9pprobe: %v\n", err)
		os.Exit(1)
	}
}

func probe(addr, path string, count uint32) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := roundTrip(conn, proto.Tversion, proto.NoTag,
		proto.TversionMsg{Msize: proto.DefaultMsize, Version: proto.Version}.Encode(nil),
		func(f proto.Frame) error {
			v, err := proto.DecodeTversion(f.Body)
			if err != nil {
				return err
			}
			report("version negotiated: msize=%d version=%s", v.Msize, v.Version)
			return nil
		}); err != nil {
		return err
	}

	const rootFid, walkFid = 0, 1
	if err := roundTrip(conn, proto.Tattach, 1,
		proto.TattachMsg{Fid: rootFid, Afid: proto.NoFid, Uname: "probe"}.Encode(nil),
		func(f proto.Frame) error { return expect(f, proto.Rattach) }); err != nil {
		return err
	}

	var names []string
	if path != "" {
		names = strings.Split(path, "/")
	}
	walkBody := wire.PutUint32(nil, rootFid)
	walkBody = wire.PutUint32(walkBody, walkFid)
	walkBody = wire.PutUint16(walkBody, uint16(len(names)))
	for _, n := range names {
		walkBody = wire.PutString(walkBody, n)
	}
	if err := roundTrip(conn, proto.Twalk, 2, walkBody, func(f proto.Frame) error {
		return expect(f, proto.Rwalk)
	}); err != nil {
		return err
	}

	if err := roundTrip(conn, proto.Topen, 3,
		proto.TopenMsg{Fid: walkFid, Mode: proto.OREAD}.Encode(nil),
		func(f proto.Frame) error { return expect(f, proto.Ropen) }); err != nil {
		return err
	}

	return roundTrip(conn, proto.Tread, 4,
		proto.TreadMsg{Fid: walkFid, Offset: 0, Count: count}.Encode(nil),
		func(f proto.Frame) error {
			r, err := decodeRread(f.Body)
			if err != nil {
				return err
			}
			if term.IsTerminal(int(os.Stdout.Fd())) {
				fmt.Printf("%q\n", r)
			} else {
				os.Stdout.Write(r)
			}
			return nil
		})
}

func roundTrip(conn net.Conn, verb uint8, tag uint16, body []byte, handle func(proto.Frame) error) error {
	if err := proto.WriteFrame(conn, verb, tag, body); err != nil {
		return err
	}
	// proto.ReadFrame accepts only client T-verbs, so the reply frame is
	// read here.
	var sizeBuf [4]byte
	if _, err := io.ReadFull(conn, sizeBuf[:]); err != nil {
		return err
	}
	size, _, _ := wire.GetUint32(sizeBuf[:])
	if size < 7 || size > proto.DefaultMsize {
		return fmt.Errorf("reply frame size %d out of range", size)
	}
	rest := make([]byte, size-4)
	if _, err := io.ReadFull(conn, rest); err != nil {
		return err
	}
	rtag, _, _ := wire.GetUint16(rest[1:3])
	f := proto.Frame{Verb: rest[0], Tag: rtag, Body: rest[3:]}
	if f.Verb == proto.Rerror {
		msg, _, _ := wire.GetString(f.Body)
		return fmt.Errorf("server error: %s", msg)
	}
	return handle(f)
}

func expect(f proto.Frame, verb uint8) error {
	if f.Verb != verb {
		return fmt.Errorf("expected %s, got %s", proto.MessageName(verb), proto.MessageName(f.Verb))
	}
	return nil
}

func decodeRread(b []byte) ([]byte, error) {
	n, nn, err := wire.GetUint32(b)
	if err != nil {
		return nil, err
	}
	if len(b) < nn+int(n) {
		return nil, wire.ErrShortBuffer
	}
	return b[nn : nn+int(n)], nil
}

func report(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
