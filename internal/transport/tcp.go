// Package transport provides the connection-level wrappers the server runs
// a session.Session over: TCP, stdio, and serial. Per spec.md's
// concurrency model (and original_source/ninepnetwork.py's own
// s.listen(1) single-client accept loop), the TCP listener drains one
// connection to completion before accepting the next rather than spawning
// a handler goroutine per connection.
package transport

import (
	"context"
	"log/slog"
	"net"
)

// ConnHandler processes one fully-connected client to completion.
type ConnHandler func(net.Conn) error

// ServeTCP accepts connections on ln, serving each to completion with
// handle before accepting the next. It returns when ctx is cancelled or
// Accept fails.
func ServeTCP(ctx context.Context, ln net.Listener, log *slog.Logger, handle ConnHandler) error {
	if log == nil {
		log = slog.Default()
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		log.Info("client connected", "remote", conn.RemoteAddr())
		if err := handle(conn); err != nil {
			log.Info("client disconnected", "remote", conn.RemoteAddr(), "err", err)
		}
		conn.Close()
	}
}
