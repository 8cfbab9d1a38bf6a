// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package device

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/mpu6050_telemetry/internal/telemetry"
)

// State of a Session.
type State int

const (
	Closed State = iota
	Open
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Source is what a session acquires telemetry from.
// *sensors.TelemetryReader implements it.
type Source interface {
	ReadTemperature() (int, error)
	ReadAcceleration() (telemetry.Vector, error)
	ReadGyroscope() (telemetry.Vector, error)
}

// BatchSource can also read the whole record in one pass.
type BatchSource interface {
	Source
	ReadAll() (telemetry.Record, error)
}

// Session is one open-to-close use of the device. It owns exactly one
// staging buffer while Open and none while Closed.
type Session struct {
	mu      sync.Mutex
	id      uint64
	src     Source
	batched bool
	pool    *BufferPool
	logger  logrus.FieldLogger

	state State
	buf   []byte
}

// ID identifies the session in logs.
func (s *Session) ID() uint64 { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open allocates the staging buffer. On failure the session stays Closed
// and holds nothing.
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Closed {
		return &InvalidStateError{Op: "open", State: s.state}
	}

	buf, err := s.pool.Get()
	if err != nil {
		s.logger.WithError(err).Warn("cannot allocate staging buffer")
		return err
	}
	s.buf = buf
	s.state = Open
	s.logger.Debug("open was called")
	return nil
}

// acquire reads one record from the source. Caller holds s.mu.
func (s *Session) acquire() (telemetry.Record, error) {
	if s.batched {
		if bs, ok := s.src.(BatchSource); ok {
			return bs.ReadAll()
		}
	}

	temp, err := s.src.ReadTemperature()
	if err != nil {
		return telemetry.Record{}, err
	}
	accel, err := s.src.ReadAcceleration()
	if err != nil {
		return telemetry.Record{}, err
	}
	gyro, err := s.src.ReadGyroscope()
	if err != nil {
		return telemetry.Record{}, err
	}
	return telemetry.Record{Temperature: temp, Acceleration: accel, Gyroscope: gyro}, nil
}

// stage writes the text form of rec and a NUL terminator at the start of
// the buffer. Bytes past the terminator are left as they were.
func (s *Session) stage(rec telemetry.Record) {
	var scratch [192]byte
	text := rec.AppendText(scratch[:0])
	n := copy(s.buf[:Capacity-1], text)
	s.buf[n] = 0
}

// Acquire reads a record and stages its text form without delivering it.
// Nothing is staged when the read fails.
func (s *Session) Acquire() (telemetry.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Open {
		return telemetry.Record{}, &InvalidStateError{Op: "read", State: s.state}
	}

	rec, err := s.acquire()
	if err != nil {
		s.logger.WithError(err).Warn("telemetry read failed")
		return telemetry.Record{}, err
	}
	s.stage(rec)
	return rec, nil
}

// ReadRecord is the device read: acquire a record, stage it and copy the
// whole staging buffer into dst. It returns Capacity on success whatever
// the text length; only the bytes before the first NUL are record text.
//
// If dst is shorter than Capacity the copy is partial, a *DeliveryError is
// returned alongside the count Capacity and the session stays Open.
func (s *Session) ReadRecord(dst []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Open {
		return 0, &InvalidStateError{Op: "read", State: s.state}
	}

	rec, err := s.acquire()
	if err != nil {
		s.logger.WithError(err).Warn("telemetry read failed")
		return 0, err
	}
	s.stage(rec)

	if n := copy(dst, s.buf); n < Capacity {
		derr := &DeliveryError{Copied: n, Want: Capacity}
		s.logger.WithError(derr).Error("data read: delivery failed")
		return Capacity, derr
	}
	s.logger.Debug("data read: done")
	return Capacity, nil
}

// Close releases the staging buffer exactly once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Open {
		return &InvalidStateError{Op: "close", State: s.state}
	}
	if err := s.pool.Put(s.buf); err != nil {
		return err
	}
	s.buf = nil
	s.state = Closed
	s.logger.Debug("close was called")
	return nil
}
