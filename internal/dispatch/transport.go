// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Transport carries encoded documents to the CoT peer.
type Transport interface {
	// WaitWritable blocks until a write would not block.
	WaitWritable(ctx context.Context) error
	// Write sends the whole document.
	Write(ctx context.Context, doc []byte) error
	Close() error
}

// ErrNotConnected is returned by a TCP transport whose last write failed
// and whose redial also failed.
var ErrNotConnected = errors.New("dispatch: not connected")

// ErrPeerStalled is returned when the socket stays unwritable for the whole
// write timeout, i.e. the peer stopped reading.
var ErrPeerStalled = errors.New("dispatch: peer stopped reading")

// TCPOptions bounds the TCP transport's blocking calls.
type TCPOptions struct {
	DialTimeout time.Duration
	// WriteTimeout bounds both the writable wait and the write itself.
	WriteTimeout time.Duration
	// Reconnect redials on the next send after a failed write.
	Reconnect bool
}

// TCPTransport writes documents to a single TCP peer. Writes are
// serialized; a document is never interleaved with another.
type TCPTransport struct {
	addr string
	opts TCPOptions
	log  *slog.Logger

	mu   sync.Mutex
	conn net.Conn
}

// DialTCP connects to addr. A failure here is meant to be fatal to the
// caller; later failures are handled per write.
func DialTCP(ctx context.Context, addr string, opts TCPOptions, logger *slog.Logger) (*TCPTransport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t := &TCPTransport{addr: addr, opts: opts, log: logger}
	conn, err := t.dial(ctx)
	if err != nil {
		return nil, err
	}
	t.conn = conn
	logger.Info("dispatch: connected", "target", addr)
	return t, nil
}

func (t *TCPTransport) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: t.opts.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", t.addr, err)
	}
	return conn, nil
}

// Addr is the peer address.
func (t *TCPTransport) Addr() string { return t.addr }

// current returns the live connection, redialing if allowed.
func (t *TCPTransport) current(ctx context.Context) (net.Conn, error) {
	if t.conn != nil {
		return t.conn, nil
	}
	if !t.opts.Reconnect {
		return nil, ErrNotConnected
	}
	conn, err := t.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	t.log.Info("dispatch: reconnected", "target", t.addr)
	t.conn = conn
	return conn, nil
}

// WaitWritable polls the socket for POLLOUT until it is writable, ctx ends
// or WriteTimeout passes. A stalled or hung-up peer drops the connection.
func (t *TCPTransport) WaitWritable(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	conn, err := t.current(ctx)
	if err != nil {
		return err
	}

	waitCtx := ctx
	if t.opts.WriteTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, t.opts.WriteTimeout)
		defer cancel()
	}

	if err := waitWritable(waitCtx, conn); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("wait writable %s: %w", t.addr, err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrPeerStalled
		}
		t.log.Warn("dispatch: dropping connection", "target", t.addr, "err", err)
		conn.Close()
		t.conn = nil
		return fmt.Errorf("wait writable %s: %w", t.addr, err)
	}
	return nil
}

// Write sends doc under a write deadline. On failure the connection is
// dropped; the document is not retried.
func (t *TCPTransport) Write(ctx context.Context, doc []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	conn, err := t.current(ctx)
	if err != nil {
		return err
	}

	if t.opts.WriteTimeout > 0 {
		deadline := time.Now().Add(t.opts.WriteTimeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		_ = conn.SetWriteDeadline(deadline)
	}

	if _, err := conn.Write(doc); err != nil {
		conn.Close()
		t.conn = nil
		return fmt.Errorf("write %s: %w", t.addr, err)
	}
	return nil
}

// Close closes the connection.
func (t *TCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

// WriterTransport writes documents to an io.Writer, e.g. stdout for dry runs.
type WriterTransport struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterTransport wraps w.
func NewWriterTransport(w io.Writer) *WriterTransport {
	return &WriterTransport{w: w}
}

func (t *WriterTransport) WaitWritable(ctx context.Context) error { return ctx.Err() }

func (t *WriterTransport) Write(_ context.Context, doc []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.w.Write(doc)
	return err
}

func (t *WriterTransport) Close() error { return nil }
