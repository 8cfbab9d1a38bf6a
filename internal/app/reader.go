// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/relabs-tech/mpu6050_telemetry/internal/config"
	"github.com/relabs-tech/mpu6050_telemetry/internal/device"
	"github.com/relabs-tech/mpu6050_telemetry/internal/sensors"
)

// readOnce is one full consumer cycle: open a session, read the whole
// staging buffer, print the text up to the first NUL and close.
func readOnce(dev *device.Device, out io.Writer) (err error) {
	sess, err := dev.Open()
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(sess))

	buf := make([]byte, device.Capacity)
	n, err := sess.ReadRecord(buf)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	text := buf[:n]
	if i := bytes.IndexByte(text, 0); i >= 0 {
		text = text[:i]
	}
	_, err = out.Write(text)
	return err
}

// RunReader runs count consumer cycles against the sensor, interval apart.
// A failed cycle is logged and the next one still runs; the last error is returned.
func RunReader(count int, interval time.Duration, out io.Writer) (err error) {
	if count < 1 {
		return fmt.Errorf("count must be >= 1, got %d", count)
	}

	cfg := config.Get()

	sensor, err := sensors.NewMPU6050FromConfig()
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(sensor))

	dev := device.New(sensor.Reader, deviceOptions(cfg))

	var last error
	for i := 0; i < count; i++ {
		if i > 0 {
			time.Sleep(interval)
		}
		if err := readOnce(dev, out); err != nil {
			log.WithError(err).WithField("cycle", i+1).Error("reader: cycle failed")
			last = err
		}
	}
	return last
}
