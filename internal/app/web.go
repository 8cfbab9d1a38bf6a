// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/mpu6050_telemetry/internal/config"
	"github.com/relabs-tech/mpu6050_telemetry/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// telemetryServer keeps the latest record seen on MQTT and fans it out to
// WebSocket clients.
type telemetryServer struct {
	mu      sync.RWMutex
	last    telemetry.Record
	have    bool
	clients map[*websocket.Conn]chan telemetry.Record
}

func newTelemetryServer() *telemetryServer {
	return &telemetryServer{clients: make(map[*websocket.Conn]chan telemetry.Record)}
}

// update stores rec and queues it for every client. A client that is not
// keeping up misses records rather than blocking the MQTT callback.
func (s *telemetryServer) update(rec telemetry.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = rec
	s.have = true
	for _, ch := range s.clients {
		select {
		case ch <- rec:
		default:
		}
	}
}

func (s *telemetryServer) latest() (telemetry.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.have
}

// handleMessage is the MQTT callback for the telemetry topic.
func (s *telemetryServer) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var rec telemetry.Record
	if err := json.Unmarshal(msg.Payload(), &rec); err != nil {
		log.Printf("MQTT payload unmarshal error: %v", err)
		return
	}
	s.update(rec)
}

// handleLatest serves GET /api/telemetry.
func (s *telemetryServer) handleLatest(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.latest()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rec); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// handleStream serves /ws/telemetry: the latest record on connect, then every update.
func (s *telemetryServer) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("telemetry ws: upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := make(chan telemetry.Record, 8)
	s.mu.Lock()
	s.clients[conn] = ch
	if s.have {
		ch <- s.last
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	// Reader goroutine only to notice the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case rec := <-ch:
			if err := conn.WriteJSON(rec); err != nil {
				log.Printf("telemetry ws: write error: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}

func (s *telemetryServer) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/telemetry", s.handleLatest)
	mux.HandleFunc("/ws/telemetry", s.handleStream)
	mux.Handle("/", http.FileServer(http.Dir("web")))
	return mux
}

// RunWeb subscribes to the telemetry topic and serves the latest record
// over HTTP and WebSocket.
func RunWeb() error {
	cfg := config.Get()
	srv := newTelemetryServer()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicTelemetry, 0, srv.handleMessage)
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("subscribed to MQTT topic %s", cfg.TopicTelemetry)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, srv.routes())
}
