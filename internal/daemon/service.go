package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/monitors/internal/ipc"
	"github.com/1broseidon/monitors/internal/monitor"
	"github.com/1broseidon/monitors/internal/platform"
)

// Service owns one Discovery and the last detected monitor tree. Every call
// into the Discovery happens under mu.
type Service struct {
	mu         sync.Mutex
	disc       *platform.Discovery
	logger     *slog.Logger
	monitors   []*monitor.Monitor
	started    time.Time
	detections int
	watching   bool
}

var _ ipc.Engine = (*Service)(nil)

// NewService wraps disc. Start must be called before serving requests.
func NewService(disc *platform.Discovery, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{disc: disc, logger: logger}
}

// Start opens the display session and runs the first detection.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.disc.Init(); err != nil {
		return err
	}
	s.started = time.Now()
	_, err := s.redetectLocked()
	return err
}

// Close releases the monitor tree and the display session.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disc.ReleaseMonitors(s.monitors)
	s.monitors = nil
	s.disc.Deinit()
}

// Changes subscribes to display change notifications from the backend.
func (s *Service) Changes(ctx context.Context) (<-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disc.Changes(ctx)
}

func (s *Service) setWatching(v bool) {
	s.mu.Lock()
	s.watching = v
	s.mu.Unlock()
}

func (s *Service) Status() ipc.StatusData {
	s.mu.Lock()
	defer s.mu.Unlock()

	var uptime int64
	if !s.started.IsZero() {
		uptime = int64(time.Since(s.started).Seconds())
	}
	return ipc.StatusData{
		Backend:       s.disc.Backend(),
		MonitorCount:  len(s.monitors),
		UptimeSeconds: uptime,
		DaemonRunning: true,
		Watching:      s.watching,
		Detections:    s.detections,
	}
}

func (s *Service) Monitors() []monitor.Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return monitor.Describe(s.monitors)
}

func (s *Service) Redetect() ([]monitor.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redetectLocked()
}

func (s *Service) redetectLocked() ([]monitor.Info, error) {
	fresh, err := s.disc.Detect()
	if err != nil {
		return nil, err
	}
	s.disc.ReleaseMonitors(s.monitors)
	s.monitors = fresh
	s.detections++
	return monitor.Describe(fresh), nil
}

// SetMode switches the named monitor to the first accepted mode matching the
// request.
func (s *Service) SetMode(req ipc.SetModePayload) (ipc.SetModeData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mon, index := monitor.Lookup(s.monitors, req.Monitor)
	if mon == nil {
		return ipc.SetModeData{}, fmt.Errorf("no monitor %q", req.Monitor)
	}
	spec := monitor.ModeSpec{Width: req.Width, Height: req.Height, Refresh: req.Refresh}
	mode := mon.FindMode(spec.Width, spec.Height, spec.Refresh)
	if mode == nil {
		return ipc.SetModeData{}, fmt.Errorf("%w: %s has no mode %s", platform.ErrModeNotFound, mon.Name, spec)
	}

	changed := mon.CurrentMode() != mode
	if err := s.disc.MakeModeCurrent(mode); err != nil {
		return ipc.SetModeData{}, err
	}
	return ipc.SetModeData{
		Monitor: monitor.Describe(s.monitors)[index],
		Changed: changed,
	}, nil
}
