// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/cot_bridge/internal/gps"
	"github.com/relabs-tech/cot_bridge/internal/logging"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

// pendingToken never completes, like a publish to an unresponsive broker.
type pendingToken struct{ done chan struct{} }

func (t pendingToken) Wait() bool {
	<-t.done
	return true
}

func (t pendingToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t pendingToken) Done() <-chan struct{} {
	return t.done
}

func (t pendingToken) Error() error {
	return nil
}

type stuckPublisher struct{ calls int }

func (p *stuckPublisher) Publish(string, byte, bool, interface{}) mqtt.Token {
	p.calls++
	return pendingToken{done: make(chan struct{})}
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakePublisher struct {
	sent []published
	err  error
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.sent = append(p.sent, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return doneToken{err: p.err}
}

func TestMirror_PublishesFix(t *testing.T) {
	pub := &fakePublisher{}
	m := NewMirror(pub, "cot/position", logging.Noop())

	rec := testRecord(37.234234)
	rec.Sample.Heading = gps.Float(90)
	rec.Fix = gps.FixFromSample(rec.Sample, "orbit", rec.UID)
	m.Observe(rec)

	require.Len(t, pub.sent, 1)
	assert.Equal(t, "cot/position", pub.sent[0].topic)
	assert.Equal(t, byte(0), pub.sent[0].qos)
	assert.True(t, pub.sent[0].retained)

	var f gps.Fix
	require.NoError(t, json.Unmarshal(pub.sent[0].payload, &f))
	assert.Equal(t, 37.234234, f.Latitude)
	assert.Equal(t, "orbit", f.Source)
	assert.Equal(t, "2026-10-19T09:30:00Z", f.Time)
	require.NotNil(t, f.Heading)
	assert.Equal(t, 90.0, *f.Heading)
	assert.Nil(t, f.Speed)
}

func TestMirror_SkipsFailedSends(t *testing.T) {
	pub := &fakePublisher{}
	m := NewMirror(pub, "cot/position", logging.Noop())

	rec := testRecord(1)
	rec.Error = "write: broken pipe"
	m.Observe(rec)

	assert.Empty(t, pub.sent)
}

func TestMirror_PublishErrorIsLoggedOnly(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	m := NewMirror(pub, "cot/position", logging.Noop())

	assert.NotPanics(t, func() { m.Observe(testRecord(1)) })
	assert.Len(t, pub.sent, 1)
}

func TestFormatFix(t *testing.T) {
	f := gps.Fix{Time: "2026-10-19T09:30:00Z", Latitude: 48.1173, Longitude: 11.516667, Speed: gps.Float(22.4), Source: "nmea", UID: "x"}
	assert.Equal(t,
		"[nmea ] time=2026-10-19T09:30:00Z lat=48.117300 lon=11.516667 heading=- speed=22.4 uid=x",
		formatFix(f))
}

func TestMirror_ObserveDoesNotWaitForBroker(t *testing.T) {
	pub := &stuckPublisher{}
	out := &lockedBuffer{}
	m := NewMirror(pub, "cot/position", logging.NewWriter(out, logging.Config{Level: "warn"}))

	start := time.Now()
	m.Observe(testRecord(1))
	m.Observe(testRecord(2))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, 2, pub.calls)

	require.Eventually(t, func() bool {
		return strings.Count(out.String(), "mirror: publish timed out") == 2
	}, 3*publishTimeout, 20*time.Millisecond)
}
