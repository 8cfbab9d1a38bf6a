// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensorstest provides an in-memory register bus for tests.
package sensorstest

import (
	"errors"
	"sync"
)

// ErrInjected is returned by Bus on the transaction selected by FailAt.
var ErrInjected = errors.New("sensorstest: injected bus failure")

// Bus is a sensors.RegisterBus backed by a register map.
type Bus struct {
	mu sync.Mutex

	// Registers holds the byte returned for each address; unknown addresses read 0.
	Registers map[byte]byte
	// FailAt makes the FailAt-th transaction (1-based, counted since the
	// last Reset) fail with ErrInjected. Zero disables it.
	FailAt int

	reads []byte
}

// New returns a Bus serving regs.
func New(regs map[byte]byte) *Bus {
	return &Bus{Registers: regs}
}

// ReadByte implements sensors.RegisterBus.
func (b *Bus) ReadByte(reg byte) (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.reads = append(b.reads, reg)
	if b.FailAt > 0 && len(b.reads) == b.FailAt {
		return 0, ErrInjected
	}
	return b.Registers[reg], nil
}

// Reads returns the register addresses read so far, in order.
func (b *Bus) Reads() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.reads...)
}

// Reset clears the read log and the transaction counter.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reads = nil
}

// SampleRegisters is a full register image:
// temperature raw 300, accel raw 16384/-16384/16383, gyro raw 131/-131/32767.
func SampleRegisters() map[byte]byte {
	return map[byte]byte{
		0x41: 0x01, 0x42: 0x2C,
		0x3B: 0x40, 0x3C: 0x00,
		0x3D: 0xC0, 0x3E: 0x00,
		0x3F: 0x3F, 0x40: 0xFF,
		0x43: 0x00, 0x44: 0x83,
		0x45: 0xFF, 0x46: 0x7D,
		0x47: 0x7F, 0x48: 0xFF,
		0xD0: 0x68,
	}
}
