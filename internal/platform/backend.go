package platform

import (
	"context"
	"errors"
	"log/slog"

	"github.com/1broseidon/monitors/internal/monitor"
)

var (
	ErrNotInitialized = monitor.ErrNotInitialized
	ErrModeRejected   = monitor.ErrModeRejected
	ErrModeNotFound   = monitor.ErrModeNotFound

	// ErrForeignMode is returned for a mode that is not an element of its
	// monitor's mode list.
	ErrForeignMode = errors.New("mode does not belong to a detected monitor")

	// ErrReleased is returned for a mode whose monitor has been released.
	ErrReleased = errors.New("monitor has been released")

	// ErrWatchUnsupported is returned by Changes on backends without change
	// notifications.
	ErrWatchUnsupported = errors.New("display change notifications not supported by this backend")
)

// Backend abstracts one native display subsystem. Exactly one implementation
// is compiled in per target; see newNativeBackend.
//
// Backends never mutate a detected monitor after Detect returns. The current
// mode is updated by Discovery once MakeModeCurrent succeeds.
type Backend interface {
	Name() string
	Init() error
	Deinit()
	// Detect returns ErrNotInitialized when no session is open. Any other
	// native failure yields an empty result.
	Detect() ([]*monitor.Monitor, error)
	// MakeModeCurrent applies mode on its monitor. It is only called when
	// mode differs from the monitor's current mode.
	MakeModeCurrent(mode *monitor.Mode) error
}

// Watcher is implemented by backends that can report display configuration
// changes. Each receive on the channel means "detect again".
type Watcher interface {
	Changes(ctx context.Context) (<-chan struct{}, error)
}

// Options configures the native backend.
type Options struct {
	// Display overrides the X11 display name ($DISPLAY).
	Display string
	Logger  *slog.Logger
}
