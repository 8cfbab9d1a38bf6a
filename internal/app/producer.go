// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/relabs-tech/mpu6050_telemetry/internal/config"
	"github.com/relabs-tech/mpu6050_telemetry/internal/device"
	"github.com/relabs-tech/mpu6050_telemetry/internal/sensors"
	"github.com/relabs-tech/mpu6050_telemetry/internal/telemetry"
)

// recordSource is an open session: *device.Session.
type recordSource interface {
	Acquire() (telemetry.Record, error)
}

// deviceOptions maps the acquisition keys of cfg onto device.Options.
func deviceOptions(cfg *config.Config) device.Options {
	return device.Options{
		Batched: cfg.BatchedRead,
		MaxOpen: cfg.SessionMaxOpen,
	}
}

// telemetryPublisher publishes each record twice: JSON on topic and the
// device text form on textTopic (skipped when textTopic is empty).
type telemetryPublisher struct {
	client    mqtt.Client
	topic     string
	textTopic string
}

func (p *telemetryPublisher) publish(rec telemetry.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("json marshal error (telemetry): %w", err)
	}

	var errs error
	if token := p.client.Publish(p.topic, 0, true, payload); token.Wait() && token.Error() != nil {
		errs = multierr.Append(errs, fmt.Errorf("MQTT publish error (%s): %w", p.topic, token.Error()))
	}
	if p.textTopic != "" {
		if token := p.client.Publish(p.textTopic, 0, true, rec.String()); token.Wait() && token.Error() != nil {
			errs = multierr.Append(errs, fmt.Errorf("MQTT publish error (%s): %w", p.textTopic, token.Error()))
		}
	}
	return errs
}

// produce acquires a record every interval and hands it to sink until ctx
// is done. Failed reads are logged and skipped; the next tick retries.
func produce(ctx context.Context, src recordSource, interval time.Duration, sink func(telemetry.Record)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		rec, err := src.Acquire()
		if err != nil {
			log.WithError(err).Warn("producer: telemetry read failed")
			continue
		}
		sink(rec)
	}
}

// RunProducer opens one session on the sensor and publishes its records to
// MQTT until SIGINT or SIGTERM.
func RunProducer() (err error) {
	log.Println("starting mpu6050 telemetry producer")

	cfg := config.Get()

	sensor, err := sensors.NewMPU6050FromConfig()
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(sensor))

	dev := device.New(sensor.Reader, deviceOptions(cfg))
	sess, err := dev.Open()
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(sess))

	var oled *localDisplay
	if cfg.DisplayEnabled {
		d, derr := openDisplay(sensor.Bus)
		if derr != nil {
			log.Printf("display: WARNING: %v, continuing without display", derr)
		} else {
			oled = newLocalDisplay(d)
			defer multierr.AppendInvoke(&err, multierr.Close(oled))
		}
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	defer client.Disconnect(250)

	log.Println("connected to MQTT, starting publish loop")

	pub := &telemetryPublisher{
		client:    client,
		topic:     cfg.TopicTelemetry,
		textTopic: cfg.TopicTelemetryText,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	produce(ctx, sess, time.Duration(cfg.SampleInterval)*time.Millisecond, func(rec telemetry.Record) {
		if err := pub.publish(rec); err != nil {
			log.Print(err)
		}
		log.WithField("session", sess.ID()).Debugf("published telemetry: %+v", rec)

		if oled != nil {
			oled.show(rec)
		}
	})

	log.Println("producer: shutting down")
	return nil
}
