package ipc

import "github.com/1broseidon/monitors/internal/monitor"

// RemoteEngine serves Engine calls from a running daemon.
type RemoteEngine struct {
	client *Client
}

var _ Engine = (*RemoteEngine)(nil)

func NewRemoteEngine(client *Client) *RemoteEngine {
	return &RemoteEngine{client: client}
}

// Status reports DaemonRunning false when the daemon cannot be reached.
func (e *RemoteEngine) Status() StatusData {
	status, err := e.client.GetStatus()
	if err != nil {
		return StatusData{Backend: "daemon"}
	}
	return *status
}

// Monitors returns nil when the daemon cannot be reached.
func (e *RemoteEngine) Monitors() []monitor.Info {
	data, err := e.client.GetMonitors()
	if err != nil {
		return nil
	}
	return data.Monitors
}

func (e *RemoteEngine) SetMode(req SetModePayload) (SetModeData, error) {
	data, err := e.client.SetMode(req)
	if err != nil {
		return SetModeData{}, err
	}
	return *data, nil
}

func (e *RemoteEngine) Redetect() ([]monitor.Info, error) {
	data, err := e.client.Redetect()
	if err != nil {
		return nil, err
	}
	return data.Monitors, nil
}
