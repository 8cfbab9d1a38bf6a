// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/mpu6050_telemetry/internal/config"
	"github.com/relabs-tech/mpu6050_telemetry/internal/sensors"
)

// registerReader is the part of *sensors.TelemetryReader the inspector needs.
type registerReader interface {
	ReadRegister(reg byte) (byte, error)
}

// RegisterCmd is a request from the inspector page.
type RegisterCmd struct {
	Action  string `json:"action"` // "get_map", "read", "read_all"
	Address string `json:"addr,omitempty"`
}

// RegisterResponse is sent back for every command.
type RegisterResponse struct {
	Type        string            `json:"type"` // "register_data", "register_map", "error"
	Address     string            `json:"addr,omitempty"`
	Name        string            `json:"name,omitempty"`
	Value       string            `json:"value,omitempty"`
	Registers   map[string]string `json:"registers,omitempty"` // for bulk read
	Timestamp   string            `json:"timestamp,omitempty"`
	Message     string            `json:"message,omitempty"`
	RegisterMap []RegisterInfo    `json:"register_map,omitempty"`
}

// RegisterInfo is the JSON form of sensors.RegisterInfo.
type RegisterInfo struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Access      string `json:"access"`
}

func hexByte(b byte) string {
	return fmt.Sprintf("0x%02X", b)
}

// parseHexByte accepts exactly "0x" or "0X" followed by one or two hex digits.
func parseHexByte(s string) (byte, error) {
	if len(s) < 3 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return 0, fmt.Errorf("missing 0x prefix: %q", s)
	}
	v, err := strconv.ParseUint(s[2:], 16, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}

// registerInspector serves the read-only register WebSocket.
type registerInspector struct {
	reader registerReader
}

// HandleWS handles one inspector connection: the register map first, then
// one response per command until the client goes away.
func (ri *registerInspector) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("register_debug: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(registerMapResponse()); err != nil {
		log.Printf("register_debug: error sending register map: %v", err)
		return
	}

	for {
		var cmd RegisterCmd
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("register_debug: websocket error: %v", err)
			}
			return
		}

		if err := conn.WriteJSON(ri.handle(cmd)); err != nil {
			log.Printf("register_debug: write error: %v", err)
			return
		}
	}
}

func (ri *registerInspector) handle(cmd RegisterCmd) RegisterResponse {
	switch cmd.Action {
	case "get_map":
		return registerMapResponse()
	case "read":
		return ri.read(cmd.Address)
	case "read_all":
		return ri.readAll()
	case "":
		return errorResponse("missing or invalid action field")
	default:
		return errorResponse(fmt.Sprintf("unknown action: %s", cmd.Action))
	}
}

func (ri *registerInspector) read(addr string) RegisterResponse {
	if addr == "" {
		return errorResponse("missing addr field")
	}

	reg, err := parseHexByte(addr)
	if err != nil {
		return errorResponse(fmt.Sprintf("invalid address format: %s", addr))
	}

	value, err := ri.reader.ReadRegister(reg)
	if err != nil {
		return errorResponse(fmt.Sprintf("read error: %v", err))
	}

	resp := RegisterResponse{
		Type:      "register_data",
		Address:   hexByte(reg),
		Value:     hexByte(value),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if info, ok := sensors.LookupRegister(reg); ok {
		resp.Name = info.Name
	}
	return resp
}

// readAll reads every mapped register. The first failure aborts the whole
// response so a partial dump is never shown as current.
func (ri *registerInspector) readAll() RegisterResponse {
	regs := make(map[string]string)
	for _, info := range sensors.RegisterMap() {
		value, err := ri.reader.ReadRegister(info.Address)
		if err != nil {
			return errorResponse(fmt.Sprintf("read all error: %v", err))
		}
		regs[hexByte(info.Address)] = hexByte(value)
	}

	return RegisterResponse{
		Type:      "register_data",
		Registers: regs,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func registerMapResponse() RegisterResponse {
	regMap := sensors.RegisterMap()
	mapped := make([]RegisterInfo, len(regMap))
	for i, r := range regMap {
		mapped[i] = RegisterInfo{
			Address:     hexByte(r.Address),
			Name:        r.Name,
			Description: r.Description,
			Access:      r.Access,
		}
	}
	return RegisterResponse{Type: "register_map", RegisterMap: mapped}
}

func errorResponse(message string) RegisterResponse {
	return RegisterResponse{Type: "error", Message: message}
}

func registerRoutes(ri *registerInspector) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", ri.HandleWS)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "web/register_debug.html")
	})
	return mux
}

// RunRegisterDebug opens the sensor and serves the register inspector.
func RunRegisterDebug() error {
	cfg := config.Get()

	sensor, err := sensors.NewMPU6050FromConfig()
	if err != nil {
		return err
	}
	defer sensor.Close()

	addr := fmt.Sprintf(":%d", cfg.RegisterDebugPort)
	log.Printf("register debug tool listening on %s", addr)
	log.Printf("open http://localhost%s in your browser", addr)
	return http.ListenAndServe(addr, registerRoutes(&registerInspector{reader: sensor.Reader}))
}
