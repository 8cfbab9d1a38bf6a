// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"errors"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"go.viam.com/test"

	"github.com/relabs-tech/mpu6050_telemetry/internal/device"
	"github.com/relabs-tech/mpu6050_telemetry/internal/sensors"
	"github.com/relabs-tech/mpu6050_telemetry/internal/sensors/sensorstest"
)

func newTestDevice(t *testing.T) (*device.Device, *sensorstest.Bus) {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	bus := sensorstest.New(sensorstest.SampleRegisters())
	return device.New(sensors.NewTelemetryReader(bus), device.Options{Logger: logger}), bus
}

func TestReadOnce(t *testing.T) {
	dev, _ := newTestDevice(t)

	var out bytes.Buffer
	test.That(t, readOnce(dev, &out), test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldEqual, sampleRecord.String())
	test.That(t, dev.Outstanding(), test.ShouldEqual, 0)

	// A second cycle reuses the released buffer.
	out.Reset()
	test.That(t, readOnce(dev, &out), test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldEqual, sampleRecord.String())
}

func TestReadOnceBusFailure(t *testing.T) {
	dev, bus := newTestDevice(t)
	bus.FailAt = 3

	var out bytes.Buffer
	err := readOnce(dev, &out)
	test.That(t, err, test.ShouldNotBeNil)

	var be *sensors.BusError
	test.That(t, errors.As(err, &be), test.ShouldBeTrue)
	test.That(t, errors.Is(err, sensorstest.ErrInjected), test.ShouldBeTrue)
	test.That(t, out.Len(), test.ShouldEqual, 0)
	test.That(t, dev.Outstanding(), test.ShouldEqual, 0)
}

func TestReadOnceAllocationFailure(t *testing.T) {
	dev, _ := newTestDevice(t)

	held, err := dev.Open()
	test.That(t, err, test.ShouldBeNil)

	var out bytes.Buffer
	err = readOnce(dev, &out)
	var ae *device.AllocationError
	test.That(t, errors.As(err, &ae), test.ShouldBeTrue)

	test.That(t, held.Close(), test.ShouldBeNil)
	test.That(t, readOnce(dev, &out), test.ShouldBeNil)
}
