// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/mpu6050_telemetry/internal/config"
	"github.com/relabs-tech/mpu6050_telemetry/internal/sensors"
	"github.com/relabs-tech/mpu6050_telemetry/internal/telemetry"
)

const (
	displayWidth  = 128
	displayHeight = 64
)

// screen is the part of *ssd1306.Dev the renderers use.
type screen interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Halt() error
}

// openDisplay initializes a 128x64 SSD1306 at its default address on bus.
func openDisplay(bus i2c.Bus) (*ssd1306.Dev, error) {
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized on %s", bus)
	return dev, nil
}

// newFrame returns a blank frame and a drawer writing lit pixels on it.
func newFrame() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

// renderRecord lays the record out on four 13px lines:
// temperature, then acceleration, then the two gyroscope lines.
func renderRecord(rec telemetry.Record, haveData bool) *image1bit.VerticalLSB {
	img, drawer := newFrame()

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawString("MPU6050")
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawString("Waiting...")
		return img
	}

	drawer.Dot = fixed.P(0, 13)
	drawer.DrawString(fmt.Sprintf("T: %d C", rec.Temperature))

	drawer.Dot = fixed.P(0, 26)
	drawer.DrawString(fmt.Sprintf("A:%4d%4d%4d", rec.Acceleration.X, rec.Acceleration.Y, rec.Acceleration.Z))

	drawer.Dot = fixed.P(0, 39)
	drawer.DrawString(fmt.Sprintf("G:%5d %5d", rec.Gyroscope.X, rec.Gyroscope.Y))

	drawer.Dot = fixed.P(0, 52)
	drawer.DrawString(fmt.Sprintf("  %5d", rec.Gyroscope.Z))

	return img
}

func drawRecord(dev screen, rec telemetry.Record, haveData bool) error {
	return dev.Draw(dev.Bounds(), renderRecord(rec, haveData), image.Point{})
}

func showSplash(dev screen) error {
	img, drawer := newFrame()

	drawer.Dot = fixed.P(35, 26)
	drawer.DrawString("MPU6050")

	drawer.Dot = fixed.P(30, 43)
	drawer.DrawString("Telemetry")

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

// localDisplay is the producer's own display: it draws each record as it
// is acquired and blanks the panel on Close.
type localDisplay struct {
	dev screen
}

func newLocalDisplay(dev screen) *localDisplay {
	if err := showSplash(dev); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}
	return &localDisplay{dev: dev}
}

func (l *localDisplay) show(rec telemetry.Record) {
	if err := drawRecord(l.dev, rec, true); err != nil {
		log.Printf("display: error updating display: %v", err)
	}
}

// Close halts the panel.
func (l *localDisplay) Close() error {
	return l.dev.Halt()
}

// latestRecord holds the newest record received over MQTT.
type latestRecord struct {
	mu   sync.RWMutex
	rec  telemetry.Record
	have bool
}

func (l *latestRecord) set(rec telemetry.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rec = rec
	l.have = true
}

func (l *latestRecord) get() (telemetry.Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rec, l.have
}

// handleMessage is the MQTT callback for the telemetry topic.
func (l *latestRecord) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var rec telemetry.Record
	if err := json.Unmarshal(msg.Payload(), &rec); err != nil {
		log.Printf("display: telemetry unmarshal error: %v", err)
		return
	}
	l.set(rec)
}

// refresh redraws dev from data every interval until ctx is done.
func refresh(ctx context.Context, dev screen, data *latestRecord, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		rec, have := data.get()
		if err := drawRecord(dev, rec, have); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}
}

// RunDisplay shows the latest telemetry record from MQTT on an SSD1306.
func RunDisplay() error {
	cfg := config.Get()
	if cfg.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be > 0, got %d", cfg.DisplayUpdateInterval)
	}

	bus, err := sensors.OpenI2C(cfg.I2CBus, cfg.I2CSpeedKHz)
	if err != nil {
		return err
	}
	defer bus.Close()

	dev, err := openDisplay(bus)
	if err != nil {
		return err
	}

	if err := showSplash(dev); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &latestRecord{}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicTelemetry, 0, data.handleMessage)
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicTelemetry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("display: starting update loop")
	refresh(ctx, dev, data, time.Duration(cfg.DisplayUpdateInterval)*time.Millisecond)

	log.Println("display: shutting down")
	return dev.Halt()
}
