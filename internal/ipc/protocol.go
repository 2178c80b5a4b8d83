package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/monitors/internal/monitor"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandGetMonitors CommandType = "GET_MONITORS"
	CommandSetMode     CommandType = "SET_MODE"
	CommandRedetect    CommandType = "REDETECT"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Backend       string `json:"backend"`
	MonitorCount  int    `json:"monitor_count"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	DaemonRunning bool   `json:"daemon_running"`
	Watching      bool   `json:"watching"`
	Detections    int    `json:"detections"`
}

// MonitorsData represents the data returned by GET_MONITORS and REDETECT
type MonitorsData struct {
	Monitors []monitor.Info `json:"monitors"`
}

// SetModePayload selects a monitor by name or index and the mode to apply.
// A zero refresh matches any refresh rate.
type SetModePayload struct {
	Monitor string `json:"monitor"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Refresh int    `json:"refresh,omitempty"`
}

// SetModeData is returned by SET_MODE.
type SetModeData struct {
	Monitor monitor.Info `json:"monitor"`
	Changed bool         `json:"changed"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
