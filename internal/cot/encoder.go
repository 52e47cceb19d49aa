// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cot

import (
	"time"

	"github.com/relabs-tech/cot_bridge/internal/gps"
)

// Encoder binds an event kind to an identity (and image, for attachments)
// so the dispatcher only has to supply sample and time.
type Encoder struct {
	Kind     Kind
	Identity Identity
	Image    string
	Stale    time.Duration
}

// Window returns the validity window for an event built at now.
func (e Encoder) Window(now time.Time) TimeWindow {
	return NewTimeWindow(now, e.Stale)
}

// Encode builds and serializes one event.
func (e Encoder) Encode(s gps.Sample, w TimeWindow) (*Event, []byte, error) {
	ev, err := Build(e.Kind, s, w, e.Identity.UID(), e.Image)
	if err != nil {
		return nil, nil, err
	}
	return ev, []byte(ev.String()), nil
}
