package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/monitors/internal/monitor"
)

// Observer receives discovery outcomes, typically for metrics.
type Observer interface {
	ObserveDetect(backend string, monitors int, elapsed time.Duration)
	ObserveModeSwitch(backend string, err error)
}

// Discovery is the entry point for monitor detection and mode switching. It
// owns the native session of a single Backend.
//
// Discovery is not safe for concurrent use; callers serialize access.
type Discovery struct {
	backend     Backend
	logger      *slog.Logger
	observer    Observer
	initialized bool
}

// Option configures a Discovery.
type Option func(*Discovery)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Discovery) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithObserver registers an observer for detect and switch outcomes.
func WithObserver(o Observer) Option {
	return func(d *Discovery) { d.observer = o }
}

// New returns a Discovery over the backend compiled in for this target.
func New(opts Options, options ...Option) *Discovery {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	options = append([]Option{WithLogger(opts.Logger)}, options...)
	return NewWithBackend(newNativeBackend(opts), options...)
}

// NewWithBackend returns a Discovery over an explicit backend.
func NewWithBackend(backend Backend, options ...Option) *Discovery {
	d := &Discovery{backend: backend, logger: slog.Default()}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// Backend returns the name of the active backend.
func (d *Discovery) Backend() string {
	return d.backend.Name()
}

// Initialized reports whether a native session is open.
func (d *Discovery) Initialized() bool {
	return d.initialized
}

// Init opens the native session. Calling Init on an open session is a no-op.
func (d *Discovery) Init() error {
	if d.initialized {
		return nil
	}
	if err := d.backend.Init(); err != nil {
		return fmt.Errorf("%s: init: %w", d.backend.Name(), err)
	}
	d.initialized = true
	d.logger.Debug("display session opened", "backend", d.backend.Name())
	return nil
}

// Deinit closes the native session. Monitors detected earlier stay readable
// but can no longer switch modes until Init is called again.
func (d *Discovery) Deinit() {
	if !d.initialized {
		return
	}
	d.backend.Deinit()
	d.initialized = false
	d.logger.Debug("display session closed", "backend", d.backend.Name())
}

// Detect enumerates the attached monitors. Native failures are logged and
// produce an empty list. The only error is ErrNotInitialized.
func (d *Discovery) Detect() ([]*monitor.Monitor, error) {
	if !d.initialized {
		return nil, ErrNotInitialized
	}

	start := time.Now()
	monitors, err := d.backend.Detect()
	if err != nil {
		if errors.Is(err, ErrNotInitialized) {
			return nil, err
		}
		d.logger.Warn("monitor detection failed", "backend", d.backend.Name(), "error", err)
		monitor.ReleaseAll(monitors)
		monitors = nil
	}
	if monitors == nil {
		monitors = []*monitor.Monitor{}
	}

	if d.observer != nil {
		d.observer.ObserveDetect(d.backend.Name(), len(monitors), time.Since(start))
	}
	d.logger.Debug("monitors detected", "backend", d.backend.Name(), "count", len(monitors))
	return monitors, nil
}

// MakeModeCurrent switches mode's monitor to mode. Switching to the mode that
// is already current succeeds without touching the display subsystem. On
// failure the monitor's current mode is unchanged.
func (d *Discovery) MakeModeCurrent(mode *monitor.Mode) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if mode == nil {
		return fmt.Errorf("%w: nil mode", ErrModeRejected)
	}

	mon := mode.Monitor()
	if mon == nil || mon.Released() {
		return ErrReleased
	}
	if !mon.Owns(mode) {
		return ErrForeignMode
	}
	if mon.CurrentMode() == mode {
		return nil
	}

	err := d.backend.MakeModeCurrent(mode)
	if err != nil && !errors.Is(err, ErrModeRejected) {
		err = fmt.Errorf("%w: %w", ErrModeRejected, err)
	}
	if d.observer != nil {
		d.observer.ObserveModeSwitch(d.backend.Name(), err)
	}
	if err != nil {
		d.logger.Warn("mode switch failed",
			"backend", d.backend.Name(),
			"monitor", mon.Name,
			"width", mode.Width,
			"height", mode.Height,
			"refresh", mode.Refresh,
			"error", err,
		)
		return err
	}

	mon.SetCurrent(mode)
	d.logger.Info("mode switched",
		"backend", d.backend.Name(),
		"monitor", mon.Name,
		"width", mode.Width,
		"height", mode.Height,
		"refresh", mode.Refresh,
	)
	return nil
}

// ReleaseMonitor frees one detected monitor and every mode it owns.
func (d *Discovery) ReleaseMonitor(m *monitor.Monitor) {
	m.Release()
}

// ReleaseMonitors frees a detected list.
func (d *Discovery) ReleaseMonitors(monitors []*monitor.Monitor) {
	monitor.ReleaseAll(monitors)
}

// Changes reports display configuration changes when the backend supports
// them.
func (d *Discovery) Changes(ctx context.Context) (<-chan struct{}, error) {
	if !d.initialized {
		return nil, ErrNotInitialized
	}
	w, ok := d.backend.(Watcher)
	if !ok {
		return nil, ErrWatchUnsupported
	}
	return w.Changes(ctx)
}
