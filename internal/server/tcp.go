package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
)

// Handler serves one client connection. logger already carries the
// connection id.
type Handler func(conn net.Conn, logger log.Logger)

// Starts the TCP Server
func Start(ctx context.Context, port int, logger log.Logger, handler Handler) error {
	var ln net.Listener
	var err error

	// Look for an open port, starting at the requested one
	for {
		addr := fmt.Sprintf(":%d", port)
		ln, err = net.Listen("tcp", addr)
		if err != nil {
			if errors.Is(err, syscall.EADDRINUSE) {
				port++
				continue
			}
			return err
		}
		break
	}

	level.Info(logger).Log("msg", "server listening", "addr", ln.Addr())
	return Serve(ctx, ln, logger, handler)
}

// Serve accepts connections on ln until ctx is cancelled. Each connection
// is handled on its own goroutine.
func Serve(ctx context.Context, ln net.Listener, logger log.Logger, handler Handler) error {
	// When ctx is cancelled, close listener
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	// Accept Loop
	for {
		conn, err := ln.Accept()
		if err != nil {
			// When ln.Close() is called, Accept() returns an error.
			// This is how we break out of the loop cleanly.
			select {
			case <-ctx.Done():
				return nil // graceful shutdown
			default:
				level.Warn(logger).Log("msg", "error accepting connection", "err", err)
				continue
			}
		}

		connLogger := log.With(logger, "conn", uuid.NewString(), "remote", conn.RemoteAddr())
		level.Debug(connLogger).Log("msg", "client connected")
		go handler(conn, connLogger)
	}
}
