// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.viam.com/test"

	"github.com/relabs-tech/mpu6050_telemetry/internal/telemetry"
)

func dialWS(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() { conn.Close() })
	test.That(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)), test.ShouldBeNil)
	return conn
}

func TestTelemetryServerLatest(t *testing.T) {
	ts := newTelemetryServer()
	srv := httptest.NewServer(ts.routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/telemetry")
	test.That(t, err, test.ShouldBeNil)
	resp.Body.Close()
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusServiceUnavailable)

	// Bad payloads are dropped.
	ts.handleMessage(nil, &fakeMessage{topic: "mpu6050/telemetry", payload: []byte("{")})
	_, ok := ts.latest()
	test.That(t, ok, test.ShouldBeFalse)

	payload, err := json.Marshal(sampleRecord)
	test.That(t, err, test.ShouldBeNil)
	ts.handleMessage(nil, &fakeMessage{topic: "mpu6050/telemetry", payload: payload})

	resp, err = http.Get(srv.URL + "/api/telemetry")
	test.That(t, err, test.ShouldBeNil)
	defer resp.Body.Close()
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusOK)
	test.That(t, resp.Header.Get("Content-Type"), test.ShouldEqual, "application/json")

	var rec telemetry.Record
	test.That(t, json.NewDecoder(resp.Body).Decode(&rec), test.ShouldBeNil)
	test.That(t, rec, test.ShouldResemble, sampleRecord)
}

func TestTelemetryServerStream(t *testing.T) {
	ts := newTelemetryServer()
	ts.update(sampleRecord)

	srv := httptest.NewServer(ts.routes())
	defer srv.Close()

	conn := dialWS(t, srv, "/ws/telemetry")

	var rec telemetry.Record
	test.That(t, conn.ReadJSON(&rec), test.ShouldBeNil)
	test.That(t, rec, test.ShouldResemble, sampleRecord)

	next := sampleRecord
	next.Temperature = 40
	ts.update(next)

	test.That(t, conn.ReadJSON(&rec), test.ShouldBeNil)
	test.That(t, rec, test.ShouldResemble, next)
}
