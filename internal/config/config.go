// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Config holds all application configuration values.
type Config struct {
	// Sensor bus
	I2CBus         string // periph bus name, "" selects the first bus
	MPU6050I2CAddr uint16
	I2CSpeedKHz    int // 0 leaves the bus speed untouched
	BusTimeoutMS   int // 0 disables the timeout wrapper

	// Acquisition
	BatchedRead    bool // one locked 14-register pass instead of three independent reads
	SessionMaxOpen int  // staging buffers that may be held at the same time

	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicTelemetry     string
	TopicTelemetryText string

	// Timing
	SampleInterval int // milliseconds

	// Web Server
	WebServerPort     int
	RegisterDebugPort int

	// Display
	DisplayEnabled        bool
	DisplayUpdateInterval int // milliseconds

	// Logging
	LogLevel logrus.Level
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal/Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configErr: the result of that single load, returned on every call.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configErr    error
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a Config with every key set to its built-in value.
func Default() *Config {
	return &Config{
		MPU6050I2CAddr:        0x68,
		SessionMaxOpen:        1,
		MQTTBroker:            "tcp://localhost:1883",
		MQTTClientIDProducer:  "mpu6050-producer",
		MQTTClientIDConsole:   "mpu6050-console",
		MQTTClientIDWeb:       "mpu6050-web",
		MQTTClientIDDisplay:   "mpu6050-display",
		TopicTelemetry:        "mpu6050/telemetry",
		TopicTelemetryText:    "mpu6050/telemetry/text",
		SampleInterval:        500,
		WebServerPort:         8080,
		RegisterDebugPort:     8081,
		DisplayUpdateInterval: 500,
		LogLevel:              logrus.InfoLevel,
	}
}

// Load reads the configuration file and returns a Config struct.
// Keys missing from the file keep their Default() value.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
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

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Sensor bus
	case "I2C_BUS":
		c.I2CBus = value
	case "MPU6050_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid MPU6050_I2C_ADDR %q: %w", value, err)
		}
		if addr > 0x7F {
			return fmt.Errorf("MPU6050_I2C_ADDR must be a 7-bit address, got 0x%X", addr)
		}
		c.MPU6050I2CAddr = uint16(addr)
	case "I2C_SPEED_KHZ":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid I2C_SPEED_KHZ %q: %w", value, err)
		}
		if val < 0 {
			return fmt.Errorf("I2C_SPEED_KHZ must be >= 0, got %d", val)
		}
		c.I2CSpeedKHz = val
	case "BUS_TIMEOUT_MS":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid BUS_TIMEOUT_MS %q: %w", value, err)
		}
		if val < 0 {
			return fmt.Errorf("BUS_TIMEOUT_MS must be >= 0, got %d", val)
		}
		c.BusTimeoutMS = val

	// Acquisition
	case "BATCHED_READ":
		val, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid BATCHED_READ %q: %w", value, err)
		}
		c.BatchedRead = val
	case "SESSION_MAX_OPEN":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SESSION_MAX_OPEN %q: %w", value, err)
		}
		if val < 1 {
			return fmt.Errorf("SESSION_MAX_OPEN must be >= 1, got %d", val)
		}
		c.SessionMaxOpen = val

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_TELEMETRY":
		c.TopicTelemetry = value
	case "TOPIC_TELEMETRY_TEXT":
		c.TopicTelemetryText = value

	// Timing
	case "SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.SampleInterval = interval

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port
	case "REGISTER_DEBUG_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid REGISTER_DEBUG_PORT %q: %w", value, err)
		}
		c.RegisterDebugPort = port

	// Display
	case "DISPLAY_ENABLED":
		val, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = val
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	// Logging
	case "LOG_LEVEL":
		level, err := logrus.ParseLevel(value)
		if err != nil {
			return fmt.Errorf("invalid LOG_LEVEL %q: %w", value, err)
		}
		c.LogLevel = level

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicTelemetry == "" {
		return fmt.Errorf("TOPIC_TELEMETRY is required")
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("SAMPLE_INTERVAL must be > 0")
	}
	if c.DisplayEnabled && c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be > 0 when DISPLAY_ENABLED is set")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times;
// a failed load keeps failing with the same error.
func InitGlobal(configPath string) error {
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, configErr = Load(configPath)
	})

	configMu.RLock()
	defer configMu.RUnlock()
	return configErr
}

// Get returns the global configuration instance.
// Before InitGlobal succeeds this returns Default() values.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	if globalConfig == nil {
		return Default()
	}
	return globalConfig
}
