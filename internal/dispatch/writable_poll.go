// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

//go:build linux || darwin || freebsd || netbsd || openbsd

package dispatch

import (
	"context"
	"errors"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// pollSliceMs bounds each poll(2) so cancellation is noticed.
const pollSliceMs = 100

var errPeerGone = errors.New("dispatch: socket error or hangup")

// waitWritable blocks until the kernel reports the socket writable. The
// runtime poller only waits after EAGAIN, so this polls the fd directly.
func waitWritable(ctx context.Context, conn net.Conn) error {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var ready bool
		var pollErr error
		ctlErr := rc.Control(func(fd uintptr) {
			fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
			n, err := unix.Poll(fds, pollSliceMs)
			if err != nil {
				pollErr = err
				return
			}
			if n == 0 {
				return
			}
			if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
				pollErr = errPeerGone
				return
			}
			ready = fds[0].Revents&unix.POLLOUT != 0
		})
		if ctlErr != nil {
			return ctlErr
		}
		if errors.Is(pollErr, unix.EINTR) {
			continue
		}
		if pollErr != nil {
			return pollErr
		}
		if ready {
			return nil
		}
	}
}
