// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"go.viam.com/test"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/relabs-tech/mpu6050_telemetry/internal/sensors/sensorstest"
)

func TestI2CRegisterBus(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x68, W: []byte{0x41}, R: []byte{0x01}},
			{Addr: 0x68, W: []byte{0x42}, R: []byte{0x2C}},
		},
		DontPanic: true,
	}
	bus := NewI2CRegisterBus(pb, 0x68)

	h, err := bus.ReadByte(0x41)
	test.That(t, err, test.ShouldBeNil)
	l, err := bus.ReadByte(0x42)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, Combine(h, l), test.ShouldEqual, uint16(300))
	test.That(t, pb.Close(), test.ShouldBeNil)

	// Playback is exhausted: the next Tx fails.
	_, err = bus.ReadByte(0x43)
	var be *BusError
	test.That(t, errors.As(err, &be), test.ShouldBeTrue)
	test.That(t, be.Register, test.ShouldEqual, byte(0x43))
}

type blockingBus struct {
	release chan struct{}
}

func (b *blockingBus) ReadByte(reg byte) (byte, error) {
	<-b.release
	return 0x42, nil
}

func TestWithTimeout(t *testing.T) {
	inner := sensorstest.New(map[byte]byte{0x41: 7})
	test.That(t, WithTimeout(inner, 0), test.ShouldEqual, inner)

	v, err := WithTimeout(inner, time.Second).ReadByte(0x41)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, byte(7))

	slow := &blockingBus{release: make(chan struct{})}
	defer close(slow.release)

	_, err = WithTimeout(slow, 10*time.Millisecond).ReadByte(0x3B)
	test.That(t, errors.Is(err, ErrBusTimeout), test.ShouldBeTrue)
	var be *BusError
	test.That(t, errors.As(err, &be), test.ShouldBeTrue)
	test.That(t, be.Register, test.ShouldEqual, byte(0x3B))
}

func TestWithTimeoutHungBusDoesNotPileUp(t *testing.T) {
	hung := &blockingBus{release: make(chan struct{})}
	reader := NewTelemetryReader(WithTimeout(hung, time.Millisecond))

	before := runtime.NumGoroutine()
	for i := 0; i < 200; i++ {
		_, err := reader.ReadTemperature()
		test.That(t, errors.Is(err, ErrBusTimeout), test.ShouldBeTrue)
	}
	// Only the first timed-out read is still parked in the bus.
	test.That(t, runtime.NumGoroutine()-before, test.ShouldBeLessThanOrEqualTo, 1)

	// Once the stuck read returns, reads reach the bus again.
	close(hung.release)
	deadline := time.Now().Add(5 * time.Second)
	for {
		v, err := reader.ReadRegister(RegTempOutH)
		if err == nil {
			test.That(t, v, test.ShouldEqual, byte(0x42))
			break
		}
		test.That(t, time.Now().Before(deadline), test.ShouldBeTrue)
		time.Sleep(time.Millisecond)
	}
}

func TestNewMPU6050ProbesIdentification(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: 0x68, W: []byte{RegIdentification}, R: []byte{0x68}}},
		DontPanic: true,
	}
	s := NewMPU6050(pb, DefaultAddress, 0)
	test.That(t, s.ID, test.ShouldEqual, byte(0x68))
	test.That(t, s.Close(), test.ShouldBeNil)
}

func TestNewMPU6050ProbeFailureIsNotFatal(t *testing.T) {
	pb := &i2ctest.Playback{DontPanic: true}
	s := NewMPU6050(pb, DefaultAddress, 0)
	test.That(t, s, test.ShouldNotBeNil)
	test.That(t, s.ID, test.ShouldEqual, byte(0))
}
