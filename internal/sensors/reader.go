// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"sync"

	"github.com/relabs-tech/mpu6050_telemetry/internal/telemetry"
)

// Conversion constants for the power-on full-scale ranges (±2g, ±250°/s).
const (
	TempDivisor  = 340
	TempOffset   = 36
	AccelDivisor = 16384
	GyroDivisor  = 131
)

// Combine joins a high and a low register byte: high*256 + low.
func Combine(high, low byte) uint16 {
	return uint16(high)<<8 | uint16(low)
}

// ConvertTemperature applies raw/340 + 36 with truncating integer division.
func ConvertTemperature(raw int) int {
	return raw/TempDivisor + TempOffset
}

// ConvertAcceleration divides by 16384. Near rest this is mostly 0 or ±1.
func ConvertAcceleration(raw int) int {
	return raw / AccelDivisor
}

// ConvertAngularRate divides by 131.
func ConvertAngularRate(raw int) int {
	return raw / GyroDivisor
}

// TelemetryReader knows the MPU6050 register map and turns register bytes
// into converted values. It can be shared by several sessions: each
// multi-byte sequence runs under one lock so high/low pairs never interleave.
type TelemetryReader struct {
	mu  sync.Mutex
	bus RegisterBus
}

// NewTelemetryReader builds a reader on bus.
func NewTelemetryReader(bus RegisterBus) *TelemetryReader {
	return &TelemetryReader{bus: bus}
}

// readRaw reads high then low and returns the signed 16-bit value.
// Caller holds r.mu.
func (r *TelemetryReader) readRaw(high, low byte) (int, error) {
	h, err := r.bus.ReadByte(high)
	if err != nil {
		return 0, busError(high, err)
	}
	l, err := r.bus.ReadByte(low)
	if err != nil {
		return 0, busError(low, err)
	}
	return int(int16(Combine(h, l))), nil
}

// readTriplet reads x, y, z starting at the x high register. Caller holds r.mu.
func (r *TelemetryReader) readTriplet(xHigh byte, convert func(int) int) (telemetry.Vector, error) {
	var out [3]int
	for axis := range out {
		high := xHigh + byte(2*axis)
		raw, err := r.readRaw(high, high+1)
		if err != nil {
			return telemetry.Vector{}, err
		}
		out[axis] = convert(raw)
	}
	return telemetry.Vector{X: out[0], Y: out[1], Z: out[2]}, nil
}

func (r *TelemetryReader) readTemperature() (int, error) {
	raw, err := r.readRaw(RegTempOutH, RegTempOutL)
	if err != nil {
		return 0, err
	}
	return ConvertTemperature(raw), nil
}

// ReadTemperature reads 0x41/0x42 and converts to °C.
func (r *TelemetryReader) ReadTemperature() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readTemperature()
}

// ReadAcceleration reads 0x3B..0x40 and converts each axis.
func (r *TelemetryReader) ReadAcceleration() (telemetry.Vector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readTriplet(RegAccelXOutH, ConvertAcceleration)
}

// ReadGyroscope reads 0x43..0x48 and converts each axis.
func (r *TelemetryReader) ReadGyroscope() (telemetry.Vector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readTriplet(RegGyroXOutH, ConvertAngularRate)
}

// ReadAll is the batched form of the three reads above: all 14 register
// transactions in one locked pass, in the same order.
func (r *TelemetryReader) ReadAll() (telemetry.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	temp, err := r.readTemperature()
	if err != nil {
		return telemetry.Record{}, err
	}
	accel, err := r.readTriplet(RegAccelXOutH, ConvertAcceleration)
	if err != nil {
		return telemetry.Record{}, err
	}
	gyro, err := r.readTriplet(RegGyroXOutH, ConvertAngularRate)
	if err != nil {
		return telemetry.Record{}, err
	}
	return telemetry.Record{Temperature: temp, Acceleration: accel, Gyroscope: gyro}, nil
}

// ReadRegister reads any single register, serialized with the sequences above.
func (r *TelemetryReader) ReadRegister(reg byte) (byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, err := r.bus.ReadByte(reg)
	if err != nil {
		return 0, busError(reg, err)
	}
	return v, nil
}

// ReadIdentification reads the identification register.
func (r *TelemetryReader) ReadIdentification() (byte, error) {
	return r.ReadRegister(RegIdentification)
}
