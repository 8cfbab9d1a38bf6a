// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/mpu6050_telemetry/internal/config"
	"github.com/relabs-tech/mpu6050_telemetry/internal/telemetry"
)

// printRecord decodes one telemetry payload and prints it as a single line.
func printRecord(w io.Writer, payload []byte) error {
	var rec telemetry.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return fmt.Errorf("console: telemetry unmarshal error: %w", err)
	}

	_, err := fmt.Fprintf(w,
		"[MPU6050] T=%3d°C  ax=%3d ay=%3d az=%3d  gx=%5d gy=%5d gz=%5d\n",
		rec.Temperature,
		rec.Acceleration.X, rec.Acceleration.Y, rec.Acceleration.Z,
		rec.Gyroscope.X, rec.Gyroscope.Y, rec.Gyroscope.Z,
	)
	return err
}

// RunConsoleMQTT prints every record published on the telemetry topic.
func RunConsoleMQTT() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicTelemetry, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := printRecord(os.Stdout, msg.Payload()); err != nil {
			log.Print(err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicTelemetry)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
