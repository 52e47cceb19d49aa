// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cot

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Identity supplies the uid attribute of every event a bridge emits.
type Identity interface {
	UID() string
}

// StaticIdentity always returns the same uid.
type StaticIdentity string

func (s StaticIdentity) UID() string { return string(s) }

// NewUUIDIdentity picks a random uid once, so all events of one run
// describe the same track.
func NewUUIDIdentity() StaticIdentity {
	return StaticIdentity(uuid.NewString())
}

// ParseIdentity resolves a UID_MODE setting:
//
//	target      reuse the CoT target address (one track per target)
//	uuid        random uid per run
//	fixed:<id>  the given id
func ParseIdentity(mode, target string) (Identity, error) {
	switch {
	case mode == "" || mode == "target":
		if target == "" {
			return nil, fmt.Errorf("uid mode target: no target address")
		}
		return StaticIdentity(target), nil
	case mode == "uuid":
		return NewUUIDIdentity(), nil
	case strings.HasPrefix(mode, "fixed:"):
		id := strings.TrimPrefix(mode, "fixed:")
		if id == "" {
			return nil, fmt.Errorf("uid mode fixed: empty id")
		}
		return StaticIdentity(id), nil
	default:
		return nil, fmt.Errorf("unknown uid mode %q", mode)
	}
}
