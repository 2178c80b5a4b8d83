package mcp

import "github.com/1broseidon/monitors/internal/monitor"

// ListMonitorsInput is the input for the list_monitors tool.
type ListMonitorsInput struct {
	Redetect bool `json:"redetect,omitempty" jsonschema:"Enumerate monitors again instead of returning the last detection (default: false)"`
}

// ListMonitorsOutput is the output for the list_monitors tool.
type ListMonitorsOutput struct {
	Backend  string         `json:"backend"`
	Monitors []monitor.Info `json:"monitors"`
}

// SetModeInput is the input for the set_mode tool.
type SetModeInput struct {
	Monitor string `json:"monitor" jsonschema:"required,Monitor name (e.g. DP-1) or index from list_monitors"`
	Mode    string `json:"mode" jsonschema:"required,Requested mode as WxH or WxH@Hz (e.g. 1920x1080@60). Without @Hz the first listed refresh rate is used."`
}

// SetModeOutput is the output for the set_mode tool.
type SetModeOutput struct {
	Monitor monitor.Info `json:"monitor"`
	Changed bool         `json:"changed"`
}
