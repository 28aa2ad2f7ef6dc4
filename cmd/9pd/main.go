// Command 9pd serves a 9P2000 file tree over TCP, stdio, or a serial line.
//
// Usage:
//
//	9pd -config server.yaml
//	9pd -transport tcp -addr :9999
//	9pd -transport stdio
//
// With no -tree configured, 9pd serves the bundled noddyfs demo tree.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/NERVsystems/nine9p/internal/config"
	"github.com/NERVsystems/nine9p/internal/fsdriver"
	"github.com/NERVsystems/nine9p/internal/framing"
	"github.com/NERVsystems/nine9p/internal/noddyfs"
	"github.com/NERVsystems/nine9p/internal/proto"
	"github.com/NERVsystems/nine9p/internal/session"
	"github.com/NERVsystems/nine9p/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML server config (overrides the flags below)")
	transportKind := flag.String("transport", "tcp", "transport: tcp, stdio, or serial")
	addr := flag.String("addr", ":9999", "listen address for -transport tcp")
	device := flag.String("device", "", "serial device path for -transport serial")
	treeFile := flag.String("tree", "", "JSON tree-config file (default: bundled noddyfs demo tree)")
	hexFraming := flag.Bool("hex-framing", false, "wrap the transport in hex-sentinel framing")
	verbose := flag.Bool("v", false, "debug logging")
	logFormat := flag.String("log-format", "text", "log output format: text or json")
	flag.Parse()

	cfg := &config.Config{
		Transport: config.TransportConfig{Kind: *transportKind, Addr: *addr, Device: *device},
		Logging:   config.LoggingConfig{Format: *logFormat},
	}
	if *treeFile != "" {
		cfg.Protocol.TreeFile = *treeFile
	}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "9pd: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	level := slog.LevelInfo
	if *verbose || cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, opts)))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
	}
	log := slog.Default()

	driver, err := buildDriver(cfg)
	if err != nil {
		log.Error("building driver", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		cancel()
	}()

	msize := uint32(proto.DefaultMsize)
	if cfg.Protocol.MaxMsize != nil {
		msize = uint32(*cfg.Protocol.MaxMsize)
	}
	hex := *hexFraming
	if cfg.Transport.HexFrame != nil {
		hex = *cfg.Transport.HexFrame
	}

	if err := run(ctx, cfg, driver, msize, hex, log); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func buildDriver(cfg *config.Config) (fsdriver.Driver, error) {
	if cfg.Protocol.TreeFile == "" {
		return noddyfs.New(), nil
	}
	ioSize := uint32(proto.DefaultIOSize)
	if cfg.Protocol.IOSize != nil {
		ioSize = uint32(*cfg.Protocol.IOSize)
	}
	return config.LoadTree(cfg.Protocol.TreeFile, ioSize)
}

func run(ctx context.Context, cfg *config.Config, driver fsdriver.Driver, msize uint32, hex bool, log *slog.Logger) error {
	serveOne := func(rw io.ReadWriter) error {
		var conn io.ReadWriter = rw
		if hex {
			conn = framing.NewConn(rw)
		}
		return session.New(conn, driver, msize, log).Serve()
	}

	switch cfg.Transport.Kind {
	case "tcp":
		ln, err := net.Listen("tcp", cfg.Transport.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Transport.Addr, err)
		}
		log.Info("listening", "addr", cfg.Transport.Addr)
		return transport.ServeTCP(ctx, ln, log, func(c net.Conn) error {
			return serveOne(c)
		})

	case "stdio":
		restore, err := transport.RawMode()
		if err != nil {
			return fmt.Errorf("raw mode: %w", err)
		}
		defer restore()
		return serveOne(transport.NewStdio())

	case "serial":
		port, err := transport.OpenSerial(cfg.Transport.Device)
		if err != nil {
			return err
		}
		defer port.Close()
		return serveOne(port)

	default:
		return fmt.Errorf("unknown transport kind %q", cfg.Transport.Kind)
	}
}
