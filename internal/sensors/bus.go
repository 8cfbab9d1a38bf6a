// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// RegisterBus reads single byte registers of one device. Every call is a
// fresh bus transaction: no retry, no caching.
type RegisterBus interface {
	ReadByte(reg byte) (byte, error)
}

// ErrBusTimeout is wrapped in a BusError when a read exceeds the WithTimeout limit.
var ErrBusTimeout = errors.New("register read timed out")

// BusError reports a failed register read at the transport.
type BusError struct {
	Register byte
	Err      error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("mpu6050: read register 0x%02X: %v", e.Register, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }

// busError wraps err for reg unless it already is a BusError.
func busError(reg byte, err error) error {
	var be *BusError
	if errors.As(err, &be) {
		return err
	}
	return &BusError{Register: reg, Err: err}
}

// I2CRegisterBus is a RegisterBus on a periph I2C bus: write the register
// address, read one byte back, in a single Tx.
type I2CRegisterBus struct {
	dev i2c.Dev
}

// NewI2CRegisterBus addresses the device at addr on bus.
func NewI2CRegisterBus(bus i2c.Bus, addr uint16) *I2CRegisterBus {
	return &I2CRegisterBus{dev: i2c.Dev{Bus: bus, Addr: addr}}
}

// ReadByte implements RegisterBus.
func (b *I2CRegisterBus) ReadByte(reg byte) (byte, error) {
	var r [1]byte
	if err := b.dev.Tx([]byte{reg}, r[:]); err != nil {
		return 0, &BusError{Register: reg, Err: err}
	}
	return r[0], nil
}

func (b *I2CRegisterBus) String() string {
	return b.dev.String()
}

type timeoutBus struct {
	bus     RegisterBus
	timeout time.Duration

	mu        sync.Mutex
	abandoned int // timed-out reads whose inner ReadByte has not returned
}

// pendingRead is one inner ReadByte; guarded by timeoutBus.mu.
type pendingRead struct {
	done      bool
	abandoned bool
}

// WithTimeout bounds every ReadByte on bus to d. A zero or negative d
// returns bus unchanged. A read that times out keeps running in the
// background; until it returns, further reads fail at once with
// ErrBusTimeout instead of queueing behind it.
func WithTimeout(bus RegisterBus, d time.Duration) RegisterBus {
	if d <= 0 {
		return bus
	}
	return &timeoutBus{bus: bus, timeout: d}
}

func (b *timeoutBus) ReadByte(reg byte) (byte, error) {
	b.mu.Lock()
	if b.abandoned > 0 {
		b.mu.Unlock()
		return 0, &BusError{Register: reg, Err: ErrBusTimeout}
	}
	b.mu.Unlock()

	type result struct {
		v   byte
		err error
	}
	ch := make(chan result, 1)
	call := &pendingRead{}
	go func() {
		v, err := b.bus.ReadByte(reg)

		b.mu.Lock()
		call.done = true
		if call.abandoned {
			b.abandoned--
		}
		b.mu.Unlock()

		ch <- result{v, err}
	}()

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-timer.C:
		b.mu.Lock()
		if !call.done {
			call.abandoned = true
			b.abandoned++
		}
		b.mu.Unlock()
		return 0, &BusError{Register: reg, Err: ErrBusTimeout}
	}
}

// OpenI2C initializes periph and opens the named I2C bus ("" picks the
// first one). speedKHz > 0 also sets the bus clock.
func OpenI2C(name string, speedKHz int) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("i2c open %q: %w", name, err)
	}

	if speedKHz > 0 {
		if err := bus.SetSpeed(physic.Frequency(speedKHz) * physic.KiloHertz); err != nil {
			bus.Close()
			return nil, fmt.Errorf("i2c %s: set speed %dkHz: %w", bus, speedKHz, err)
		}
	}

	return bus, nil
}
