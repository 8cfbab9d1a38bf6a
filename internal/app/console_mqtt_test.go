// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"go.viam.com/test"
)

func TestPrintRecord(t *testing.T) {
	payload, err := json.Marshal(sampleRecord)
	test.That(t, err, test.ShouldBeNil)

	var out bytes.Buffer
	test.That(t, printRecord(&out, payload), test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldEqual,
		"[MPU6050] T= 36°C  ax=  1 ay= -1 az=  0  gx=    1 gy=   -1 gz=  250\n")

	out.Reset()
	test.That(t, printRecord(&out, []byte("not json")), test.ShouldNotBeNil)
	test.That(t, out.Len(), test.ShouldEqual, 0)
}
