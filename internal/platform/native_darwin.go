//go:build darwin

package platform

import (
	"github.com/1broseidon/monitors/internal/monitor"
	"github.com/1broseidon/monitors/internal/quartz"
)

func newNativeBackend(opts Options) Backend {
	api, err := quartz.NativeAPI()
	if err != nil {
		return unavailableBackend{name: "quartz", err: err}
	}
	return quartz.NewAdapter(api, opts.Logger)
}

// unavailableBackend fails Init when the system frameworks cannot be loaded.
type unavailableBackend struct {
	name string
	err  error
}

func (b unavailableBackend) Name() string { return b.name }
func (b unavailableBackend) Init() error  { return b.err }
func (b unavailableBackend) Deinit()      {}

func (b unavailableBackend) Detect() ([]*monitor.Monitor, error) {
	return nil, monitor.ErrNotInitialized
}

func (b unavailableBackend) MakeModeCurrent(*monitor.Mode) error {
	return monitor.ErrNotInitialized
}
