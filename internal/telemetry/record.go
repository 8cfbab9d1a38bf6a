// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"fmt"
	"strconv"
	"strings"
)

// Vector is one converted triplet (acceleration or angular rate).
type Vector struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Record is one decoded MPU6050 reading: always all seven values, never a subset.
type Record struct {
	Temperature  int    `json:"temperature"`  // °C, datasheet linear approximation
	Acceleration Vector `json:"acceleration"` // g, integer division by 16384
	Gyroscope    Vector `json:"gyroscope"`    // °/s, integer division by 131
}

// Field labels of the text form, in record order.
var FieldNames = [7]string{
	"Temperature",
	"Acceleration_x",
	"Acceleration_y",
	"Acceleration_z",
	"Gyroscope_x",
	"Gyroscope_y",
	"Gyroscope_z",
}

// Values returns the seven values in text-form order.
func (r Record) Values() [7]int {
	return [7]int{
		r.Temperature,
		r.Acceleration.X, r.Acceleration.Y, r.Acceleration.Z,
		r.Gyroscope.X, r.Gyroscope.Y, r.Gyroscope.Z,
	}
}

// AppendText appends the newline separated "Label:value" form of r to b.
func (r Record) AppendText(b []byte) []byte {
	for i, v := range r.Values() {
		b = append(b, FieldNames[i]...)
		b = append(b, ':')
		b = strconv.AppendInt(b, int64(v), 10)
		b = append(b, '\n')
	}
	return b
}

// String returns the text form.
func (r Record) String() string {
	return string(r.AppendText(nil))
}

// ParseText decodes the text form back into a Record. Anything after the
// first NUL byte is ignored, so a full staging buffer can be passed as is.
func ParseText(b []byte) (Record, error) {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) != len(FieldNames) {
		return Record{}, fmt.Errorf("telemetry: expected %d fields, got %d", len(FieldNames), len(lines))
	}

	var vals [7]int
	for i, line := range lines {
		label, value, ok := strings.Cut(line, ":")
		if !ok || label != FieldNames[i] {
			return Record{}, fmt.Errorf("telemetry: field %d: want %s, got %q", i, FieldNames[i], line)
		}
		v, err := strconv.Atoi(value)
		if err != nil {
			return Record{}, fmt.Errorf("telemetry: %s: %w", label, err)
		}
		vals[i] = v
	}

	return Record{
		Temperature:  vals[0],
		Acceleration: Vector{X: vals[1], Y: vals[2], Z: vals[3]},
		Gyroscope:    Vector{X: vals[4], Y: vals[5], Z: vals[6]},
	}, nil
}
