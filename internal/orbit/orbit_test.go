// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orbit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/cot_bridge/internal/geo"
)

var cfg = geo.OrbitConfig{RadiusKm: 2, CenterLat: 34.1, CenterLon: -119.25, SpeedDivisor: 60}

func fixedClock() func() time.Time {
	t0 := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

func TestSource_FirstSampleIsNorthPoint(t *testing.T) {
	src := NewSource(cfg, 0)
	src.now = fixedClock()

	s, err := src.Next(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 34.1+2/111.32, s.Latitude, 1e-12)
	assert.InDelta(t, -119.25, s.Longitude, 1e-12)
	require.NotNil(t, s.Heading)
	require.NotNil(t, s.Speed)
	// first leg heads clockwise from north, i.e. roughly east
	assert.InDelta(t, 90, *s.Heading, 5)
	assert.Greater(t, *s.Speed, 0.0)
	assert.Equal(t, 1, src.Step())
}

func TestSource_CycleClosure(t *testing.T) {
	src := NewSource(cfg, DefaultSteps)
	src.now = fixedClock()
	ctx := context.Background()

	first, err := src.Next(ctx)
	require.NoError(t, err)
	for i := 1; i < DefaultSteps; i++ {
		_, err := src.Next(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, src.Step())

	again, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestSource_SpeedConstantAroundLap(t *testing.T) {
	src := NewSource(cfg, 10)
	ctx := context.Background()

	var speeds []float64
	for i := 0; i < 10; i++ {
		s, err := src.Next(ctx)
		require.NoError(t, err)
		require.GreaterOrEqual(t, *s.Heading, 0.0)
		require.Less(t, *s.Heading, 360.0)
		speeds = append(speeds, *s.Speed)
	}
	// opposite legs of the lap are mirror images
	assert.InEpsilon(t, speeds[0], speeds[5], 1e-3)
}

func TestSource_StopsOnCancelledContext(t *testing.T) {
	src := NewSource(cfg, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, src.Step())
}
