// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultPath is where the binaries look for their configuration.
const DefaultPath = "./cot_bridge.conf"

// Config holds all application configuration values.
type Config struct {
	// CoT target (host:port); usually given on the command line.
	Target string

	// Live feed
	GPSDAddr          string
	GPSDProtoMajorMin int

	// Synthetic orbit
	OrbitRadiusKm     float64
	OrbitCenterLat    float64
	OrbitCenterLon    float64
	OrbitSpeedDivisor float64
	OrbitSteps        int

	// Cadence per simulator mode, milliseconds
	StatusInterval int
	DetectInterval int
	ImageInterval  int

	// Events
	StaleMinutes int
	UIDMode      string // "target", "uuid" or "fixed:<id>"
	ImagePath    string // empty: rendered placeholder
	ImageMaxDim  int

	// Transport
	DialTimeoutMs  int
	WriteTimeoutMs int
	Reconnect      bool
	LiveMaxRate    float64 // events per second, 0 = unlimited

	// NMEA serial receiver
	NMEASerialPort string
	NMEABaudRate   int

	// MQTT mirror; empty broker disables it
	MQTTBroker   string
	MQTTClientID string
	MQTTTopic    string

	// Web monitor; 0 disables it
	WebServerPort int

	// Logging
	LogLevel  string
	LogFormat string
}

// Package-level singleton, as the other binaries of this repo use it:
// InitGlobal sets it once, Get reads it under a read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the built-in configuration. A missing config file
// yields exactly this.
func Default() *Config {
	return &Config{
		GPSDAddr:          "127.0.0.1:2947",
		GPSDProtoMajorMin: 3,

		OrbitRadiusKm:     2,
		OrbitCenterLat:    34.1,
		OrbitCenterLon:    -119.25,
		OrbitSpeedDivisor: 60,
		OrbitSteps:        100,

		StatusInterval: 2000,
		DetectInterval: 1000,
		ImageInterval:  10000,

		StaleMinutes: 10,
		UIDMode:      "target",
		ImageMaxDim:  320,

		DialTimeoutMs:  5000,
		WriteTimeoutMs: 5000,
		Reconnect:      true,

		NMEASerialPort: "/dev/serial0",
		NMEABaudRate:   9600,

		MQTTClientID: "cot-bridge",
		MQTTTopic:    "cot/position",

		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads the configuration file on top of Default(). A missing file is
// not an error.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Override applies a command-line value for key and revalidates.
func (c *Config) Override(key, value string) error {
	if err := c.setValue(key, value); err != nil {
		return err
	}
	return c.validate()
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	case "TARGET":
		c.Target = value

	// Live feed
	case "GPSD_ADDR":
		c.GPSDAddr = value
	case "GPSD_PROTO_MAJOR_MIN":
		c.GPSDProtoMajorMin, err = parseInt(key, value)

	// Synthetic orbit
	case "ORBIT_RADIUS_KM":
		c.OrbitRadiusKm, err = parseFloat(key, value)
	case "ORBIT_CENTER_LAT":
		c.OrbitCenterLat, err = parseFloat(key, value)
	case "ORBIT_CENTER_LON":
		c.OrbitCenterLon, err = parseFloat(key, value)
	case "ORBIT_SPEED_DIVISOR":
		c.OrbitSpeedDivisor, err = parseFloat(key, value)
	case "ORBIT_STEPS":
		c.OrbitSteps, err = parseInt(key, value)

	// Cadence
	case "STATUS_INTERVAL":
		c.StatusInterval, err = parseInt(key, value)
	case "DETECT_INTERVAL":
		c.DetectInterval, err = parseInt(key, value)
	case "IMAGE_INTERVAL":
		c.ImageInterval, err = parseInt(key, value)

	// Events
	case "STALE_MINUTES":
		c.StaleMinutes, err = parseInt(key, value)
	case "UID_MODE":
		c.UIDMode = value
	case "IMAGE_PATH":
		c.ImagePath = value
	case "IMAGE_MAX_DIM":
		c.ImageMaxDim, err = parseInt(key, value)

	// Transport
	case "DIAL_TIMEOUT_MS":
		c.DialTimeoutMs, err = parseInt(key, value)
	case "WRITE_TIMEOUT_MS":
		c.WriteTimeoutMs, err = parseInt(key, value)
	case "RECONNECT":
		c.Reconnect, err = strconv.ParseBool(value)
		if err != nil {
			err = fmt.Errorf("invalid RECONNECT %q: %w", value, err)
		}
	case "LIVE_MAX_RATE":
		c.LiveMaxRate, err = parseFloat(key, value)

	// NMEA
	case "NMEA_SERIAL_PORT":
		c.NMEASerialPort = value
	case "NMEA_BAUD_RATE":
		c.NMEABaudRate, err = parseInt(key, value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "MQTT_TOPIC":
		c.MQTTTopic = value

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value)

	// Logging
	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)
	case "LOG_FORMAT":
		c.LogFormat = strings.ToLower(value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

func parseInt(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

// validate checks ranges. TARGET is not required here; each binary checks
// it after applying its command line.
func (c *Config) validate() error {
	if c.GPSDAddr == "" {
		return fmt.Errorf("GPSD_ADDR is required")
	}
	if c.GPSDProtoMajorMin < 0 {
		return fmt.Errorf("GPSD_PROTO_MAJOR_MIN must be >= 0, got %d", c.GPSDProtoMajorMin)
	}
	if c.OrbitRadiusKm <= 0 {
		return fmt.Errorf("ORBIT_RADIUS_KM must be > 0, got %g", c.OrbitRadiusKm)
	}
	if c.OrbitCenterLat <= -90 || c.OrbitCenterLat >= 90 {
		return fmt.Errorf("ORBIT_CENTER_LAT must be within (-90, 90), got %g", c.OrbitCenterLat)
	}
	if c.OrbitCenterLon < -180 || c.OrbitCenterLon > 180 {
		return fmt.Errorf("ORBIT_CENTER_LON must be within [-180, 180], got %g", c.OrbitCenterLon)
	}
	if c.OrbitSpeedDivisor <= 0 {
		return fmt.Errorf("ORBIT_SPEED_DIVISOR must be > 0, got %g", c.OrbitSpeedDivisor)
	}
	if c.OrbitSteps <= 0 {
		return fmt.Errorf("ORBIT_STEPS must be > 0, got %d", c.OrbitSteps)
	}
	if c.StatusInterval <= 0 || c.DetectInterval <= 0 || c.ImageInterval <= 0 {
		return fmt.Errorf("STATUS_INTERVAL, DETECT_INTERVAL and IMAGE_INTERVAL must be > 0")
	}
	if c.StaleMinutes <= 0 {
		return fmt.Errorf("STALE_MINUTES must be > 0, got %d", c.StaleMinutes)
	}
	if c.ImageMaxDim <= 0 {
		return fmt.Errorf("IMAGE_MAX_DIM must be > 0, got %d", c.ImageMaxDim)
	}
	if c.DialTimeoutMs < 0 || c.WriteTimeoutMs < 0 {
		return fmt.Errorf("DIAL_TIMEOUT_MS and WRITE_TIMEOUT_MS must be >= 0")
	}
	if c.LiveMaxRate < 0 {
		return fmt.Errorf("LIVE_MAX_RATE must be >= 0, got %g", c.LiveMaxRate)
	}
	if c.NMEABaudRate <= 0 {
		return fmt.Errorf("NMEA_BAUD_RATE must be > 0, got %d", c.NMEABaudRate)
	}
	if c.MQTTBroker != "" && c.MQTTTopic == "" {
		return fmt.Errorf("MQTT_TOPIC is required when MQTT_BROKER is set")
	}
	if c.WebServerPort < 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 0-65535, got %d", c.WebServerPort)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "off":
	default:
		return fmt.Errorf("LOG_LEVEL must be debug, info, warn, error or off, got %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Stale is the validity of every event.
func (c *Config) Stale() time.Duration {
	return time.Duration(c.StaleMinutes) * time.Minute
}

// DialTimeout bounds the initial connect and redials.
func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutMs) * time.Millisecond
}

// WriteTimeout is the per-document write deadline.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMs) * time.Millisecond
}

// Millis converts one of the *Interval fields.
func Millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
