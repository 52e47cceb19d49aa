// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/cot_bridge/internal/gps"
)

// RunConsoleMQTT prints the positions a bridge mirrors to MQTT.
func RunConsoleMQTT() error {
	cfg := currentConfig()
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is not set")
	}

	client, err := ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientID+"-console")
	if err != nil {
		return err
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.MQTTTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var f gps.Fix
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			log.Printf("console: fix unmarshal error: %v", err)
			return
		}
		fmt.Println(formatFix(f))
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", cfg.MQTTTopic)

	// Wait for Ctrl+C
	ctx, stop := signalContext()
	defer stop()
	<-ctx.Done()

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

func formatFix(f gps.Fix) string {
	return fmt.Sprintf(
		"[%-5s] time=%s lat=%.6f lon=%.6f heading=%s speed=%s uid=%s",
		f.Source, f.Time, f.Latitude, f.Longitude, optional(f.Heading), optional(f.Speed), f.UID,
	)
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
