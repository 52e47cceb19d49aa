// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

//go:build linux || darwin || freebsd || netbsd || openbsd

package dispatch

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentPeer accepts one client and never reads from it.
func silentPeer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	held := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			close(held)
			return
		}
		held <- conn
	}()
	t.Cleanup(func() {
		ln.Close()
		if conn, ok := <-held; ok {
			conn.Close()
		}
	})
	return ln.Addr().String()
}

// fillSendBuffer writes until the kernel stops taking bytes.
func fillSendBuffer(t *testing.T, conn net.Conn) {
	t.Helper()
	chunk := make([]byte, 64<<10)
	for i := 0; i < 4096; i++ {
		_ = conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if _, err := conn.Write(chunk); err != nil {
			var ne net.Error
			require.True(t, errors.As(err, &ne) && ne.Timeout(), "unexpected write error: %v", err)
			_ = conn.SetWriteDeadline(time.Time{})
			return
		}
	}
	t.Fatal("send buffer never filled")
}

func TestTCPTransport_StalledPeerBoundedByWriteTimeout(t *testing.T) {
	addr := silentPeer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const writeTimeout = 500 * time.Millisecond
	tr, err := DialTCP(ctx, addr, TCPOptions{DialTimeout: time.Second, WriteTimeout: writeTimeout}, quietLogger())
	require.NoError(t, err)
	defer tr.Close()

	fillSendBuffer(t, tr.conn)

	start := time.Now()
	err = tr.WaitWritable(ctx)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPeerStalled)
	assert.NoError(t, ctx.Err(), "the caller's context must not be what ended the wait")
	assert.GreaterOrEqual(t, elapsed, writeTimeout-50*time.Millisecond)
	assert.Less(t, elapsed, 3*writeTimeout)

	// The stalled connection is gone; without Reconnect the next send is
	// refused at once.
	assert.Nil(t, tr.conn)
	assert.ErrorIs(t, tr.WaitWritable(ctx), ErrNotConnected)
}

func TestTCPTransport_CallerCancelKeepsConnection(t *testing.T) {
	addr := silentPeer(t)

	tr, err := DialTCP(context.Background(), addr, TCPOptions{DialTimeout: time.Second, WriteTimeout: 5 * time.Second}, quietLogger())
	require.NoError(t, err)
	defer tr.Close()

	fillSendBuffer(t, tr.conn)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err = tr.WaitWritable(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotNil(t, tr.conn, "shutdown is not a peer failure")
}
