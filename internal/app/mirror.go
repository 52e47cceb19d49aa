// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/cot_bridge/internal/dispatch"
)

// publishTimeout bounds how long a publish is tracked before it is
// reported as timed out.
const publishTimeout = time.Second

// Publisher is the part of mqtt.Client the mirror needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// ConnectMQTT connects to broker, e.g. "tcp://localhost:1883".
func ConnectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return client, nil
}

// Mirror publishes every delivered position as a JSON gps.Fix.
type Mirror struct {
	client Publisher
	topic  string
	log    *slog.Logger
}

// NewMirror publishes on topic through client.
func NewMirror(client Publisher, topic string, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{client: client, topic: topic, log: logger}
}

// Observe publishes r's fix, retained at QoS 0. Failed sends are not
// mirrored. The broker's answer is checked off the scheduler goroutine.
func (m *Mirror) Observe(r dispatch.Record) {
	if r.Error != "" {
		return
	}

	payload, err := json.Marshal(r.Fix)
	if err != nil {
		m.log.Error("mirror: marshal fix", "err", err)
		return
	}

	token := m.client.Publish(m.topic, 0, true, payload)
	go m.track(token, r.Fix.Latitude, r.Fix.Longitude)
}

func (m *Mirror) track(token mqtt.Token, lat, lon float64) {
	select {
	case <-token.Done():
	case <-time.After(publishTimeout):
		m.log.Warn("mirror: publish timed out", "topic", m.topic)
		return
	}
	if err := token.Error(); err != nil {
		m.log.Warn("mirror: publish error", "topic", m.topic, "err", err)
		return
	}
	m.log.Debug("mirror: published fix", "topic", m.topic, "lat", lat, "lon", lon)
}
