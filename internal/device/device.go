// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package device

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Options configures a Device.
type Options struct {
	// Batched makes sessions use BatchSource.ReadAll when the source has it.
	Batched bool
	// MaxOpen is how many sessions may hold a buffer at once (default 1).
	MaxOpen int
	// Logger defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// Device is the node sessions are opened against. It owns the buffer pool
// and shares one Source between its sessions.
type Device struct {
	src     Source
	pool    *BufferPool
	batched bool
	logger  logrus.FieldLogger
	nextID  atomic.Uint64
}

// New returns a Device reading from src.
func New(src Source, opts Options) *Device {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Device{
		src:     src,
		pool:    NewBufferPool(opts.MaxOpen),
		batched: opts.Batched,
		logger:  logger.WithField("device", "mpu6050"),
	}
}

// NewSession returns a Closed session.
func (d *Device) NewSession() *Session {
	id := d.nextID.Add(1)
	return &Session{
		id:      id,
		src:     d.src,
		batched: d.batched,
		pool:    d.pool,
		logger:  d.logger.WithField("session", id),
	}
}

// Open returns a new session that is already Open.
func (d *Device) Open() (*Session, error) {
	s := d.NewSession()
	if err := s.Open(); err != nil {
		return nil, err
	}
	return s, nil
}

// Outstanding returns the number of staging buffers currently held.
func (d *Device) Outstanding() int {
	return d.pool.Outstanding()
}
