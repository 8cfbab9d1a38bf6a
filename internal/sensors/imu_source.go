// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/mpu6050_telemetry/internal/config"
)

// Sensor is an MPU6050 opened on an I2C bus: the bus handle it owns and the
// reader built on top of it.
type Sensor struct {
	Bus    i2c.BusCloser
	Reader *TelemetryReader

	// ID is the identification register value read at startup (0 if the probe failed).
	ID byte
}

// NewMPU6050FromConfig opens the configured bus and sensor.
func NewMPU6050FromConfig() (*Sensor, error) {
	cfg := config.Get()

	bus, err := OpenI2C(cfg.I2CBus, cfg.I2CSpeedKHz)
	if err != nil {
		return nil, fmt.Errorf("MPU6050: %w", err)
	}

	timeout := time.Duration(cfg.BusTimeoutMS) * time.Millisecond
	return NewMPU6050(bus, cfg.MPU6050I2CAddr, timeout), nil
}

// NewMPU6050 builds a Sensor on an already opened bus and reads the
// identification register once. A failed probe is logged, not returned:
// telemetry reads report their own bus errors.
func NewMPU6050(bus i2c.BusCloser, addr uint16, timeout time.Duration) *Sensor {
	rb := WithTimeout(NewI2CRegisterBus(bus, addr), timeout)
	s := &Sensor{
		Bus:    bus,
		Reader: NewTelemetryReader(rb),
	}

	log.Printf("MPU6050: using %s at 0x%02X", bus, addr)
	if timeout > 0 {
		log.Printf("MPU6050: register reads bounded to %s", timeout)
	}

	id, err := s.Reader.ReadIdentification()
	if err != nil {
		log.Printf("MPU6050: WARNING: failed to read ID register: %v", err)
		return s
	}
	s.ID = id
	log.Printf("MPU6050: ID: 0x%X", id)

	return s
}

// Close releases the bus.
func (s *Sensor) Close() error {
	return s.Bus.Close()
}
