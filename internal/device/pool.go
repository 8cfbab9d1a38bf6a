// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package device

import (
	"fmt"
	"sync"
)

// Capacity is the fixed size of a staging buffer.
const Capacity = 1024

// BufferPool hands out fixed-size staging buffers and tracks which ones are
// held. A buffer is never handed out again before it has been released, and
// a released buffer keeps its old bytes.
type BufferPool struct {
	mu    sync.Mutex
	limit int
	held  map[*byte]struct{}
	free  [][]byte
}

// NewBufferPool allows at most limit buffers to be held at once (minimum 1).
func NewBufferPool(limit int) *BufferPool {
	if limit < 1 {
		limit = 1
	}
	return &BufferPool{
		limit: limit,
		held:  make(map[*byte]struct{}, limit),
	}
}

// Get returns a Capacity-byte buffer or an *AllocationError when the limit is reached.
func (p *BufferPool) Get() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.held) >= p.limit {
		return nil, &AllocationError{Outstanding: len(p.held), Limit: p.limit}
	}

	var buf []byte
	if n := len(p.free); n > 0 {
		buf = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		buf = make([]byte, Capacity)
	}
	p.held[&buf[0]] = struct{}{}
	return buf, nil
}

// Put releases buf. Releasing a buffer that is not held is an error and
// changes nothing.
func (p *BufferPool) Put(buf []byte) error {
	if len(buf) != Capacity {
		return fmt.Errorf("device: release of foreign buffer (len %d)", len(buf))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := &buf[0]
	if _, ok := p.held[key]; !ok {
		return fmt.Errorf("device: release of buffer that is not held")
	}
	delete(p.held, key)
	p.free = append(p.free, buf)
	return nil
}

// Outstanding returns how many buffers are currently held.
func (p *BufferPool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.held)
}

// Limit returns the maximum number of buffers that may be held.
func (p *BufferPool) Limit() int {
	return p.limit
}
