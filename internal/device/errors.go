// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package device

import "fmt"

// AllocationError reports that a staging buffer could not be obtained.
type AllocationError struct {
	Outstanding int // buffers held when the request failed
	Limit       int
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("device: cannot allocate staging buffer (%d of %d held)", e.Outstanding, e.Limit)
}

// InvalidStateError reports an operation attempted in the wrong session state.
type InvalidStateError struct {
	Op    string
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("device: %s on %s session", e.Op, e.State)
}

// DeliveryError reports that the record could not be copied to the caller in full.
type DeliveryError struct {
	Copied int
	Want   int
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("device: delivered %d of %d bytes", e.Copied, e.Want)
}
