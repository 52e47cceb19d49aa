// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sample is one position fix handed to the CoT encoder.
// Heading and Speed are nil when the source does not know them.
type Sample struct {
	Latitude  float64   // decimal degrees
	Longitude float64   // decimal degrees
	Heading   *float64  // degrees, [0, 360)
	Speed     *float64  // source specific unit
	Timestamp time.Time // capture instant
}

// Source is anything that produces samples, one per call.
//
// Next returns an error wrapping ErrNoSample when there is nothing to send
// for this tick, and a *FatalError when the source cannot continue.
type Source interface {
	Next(ctx context.Context) (Sample, error)
}

// ErrNoSample marks a tick without a sample. It is never fatal.
var ErrNoSample = errors.New("no sample")

// FatalError is returned by a source that must stop feeding.
type FatalError struct {
	Reason string
	Err    error
}

func (e *FatalError) Error() string {
	if e.Err == nil {
		return "fatal: " + e.Reason
	}
	return fmt.Sprintf("fatal: %s: %v", e.Reason, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Fatal wraps err as a *FatalError.
func Fatal(reason string, err error) error {
	return &FatalError{Reason: reason, Err: err}
}

// IsFatal reports whether err carries a *FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// Skip builds a non-fatal "nothing this tick" error with a diagnostic.
func Skip(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNoSample, fmt.Sprintf(format, args...))
}

// Float returns a pointer to v, for the optional Sample fields.
func Float(v float64) *float64 { return &v }
