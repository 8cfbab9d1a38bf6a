// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"image"
	"testing"

	"go.viam.com/test"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/mpu6050_telemetry/internal/telemetry"
)

type fakeScreen struct {
	frames []image.Image
	rects  []image.Rectangle
	halted int
}

func (s *fakeScreen) Halt() error {
	s.halted++
	return nil
}

func (s *fakeScreen) Bounds() image.Rectangle {
	return image.Rect(0, 0, displayWidth, displayHeight)
}

func (s *fakeScreen) Draw(r image.Rectangle, src image.Image, _ image.Point) error {
	s.rects = append(s.rects, r)
	s.frames = append(s.frames, src)
	return nil
}

func litPixels(img *image1bit.VerticalLSB) int {
	n := 0
	for _, b := range img.Pix {
		for ; b != 0; b &= b - 1 {
			n++
		}
	}
	return n
}

func TestRenderRecord(t *testing.T) {
	waiting := renderRecord(telemetry.Record{}, false)
	withData := renderRecord(sampleRecord, true)

	test.That(t, waiting.Bounds(), test.ShouldResemble, image.Rect(0, 0, displayWidth, displayHeight))
	test.That(t, litPixels(waiting), test.ShouldBeGreaterThan, 0)
	test.That(t, litPixels(withData), test.ShouldBeGreaterThan, 0)
	test.That(t, waiting.Pix, test.ShouldNotResemble, withData.Pix)

	other := sampleRecord
	other.Gyroscope.Z = -250
	test.That(t, renderRecord(other, true).Pix, test.ShouldNotResemble, withData.Pix)
}

func TestDrawRecordAndSplash(t *testing.T) {
	dev := &fakeScreen{}

	test.That(t, showSplash(dev), test.ShouldBeNil)
	test.That(t, drawRecord(dev, sampleRecord, true), test.ShouldBeNil)

	test.That(t, len(dev.frames), test.ShouldEqual, 2)
	for _, r := range dev.rects {
		test.That(t, r, test.ShouldResemble, dev.Bounds())
	}
}

func TestLocalDisplayHaltsOnClose(t *testing.T) {
	dev := &fakeScreen{}

	oled := newLocalDisplay(dev)
	test.That(t, len(dev.frames), test.ShouldEqual, 1)

	oled.show(sampleRecord)
	test.That(t, len(dev.frames), test.ShouldEqual, 2)
	test.That(t, dev.halted, test.ShouldEqual, 0)

	test.That(t, oled.Close(), test.ShouldBeNil)
	test.That(t, dev.halted, test.ShouldEqual, 1)
}

func TestLatestRecord(t *testing.T) {
	var data latestRecord
	_, have := data.get()
	test.That(t, have, test.ShouldBeFalse)

	data.handleMessage(nil, &fakeMessage{payload: []byte("garbage")})
	_, have = data.get()
	test.That(t, have, test.ShouldBeFalse)

	payload, err := json.Marshal(sampleRecord)
	test.That(t, err, test.ShouldBeNil)
	data.handleMessage(nil, &fakeMessage{payload: payload})

	rec, have := data.get()
	test.That(t, have, test.ShouldBeTrue)
	test.That(t, rec, test.ShouldResemble, sampleRecord)
}
