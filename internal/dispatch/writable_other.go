// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package dispatch

import (
	"context"
	"net"
)

// waitWritable has no poll(2) here; the write deadline bounds the write instead.
func waitWritable(ctx context.Context, _ net.Conn) error {
	return ctx.Err()
}
