package daemon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/1broseidon/monitors/internal/platform"
)

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	// Interval between periodic re-detections; defaults to 10s.
	Interval time.Duration
	// Settle is how long change notifications are coalesced before
	// re-detecting; defaults to 250ms.
	Settle time.Duration
	Logger *slog.Logger
}

// Reconciler keeps the service's monitor tree in step with the display
// configuration: on every change notification, and periodically as a
// fallback for backends that cannot notify.
type Reconciler struct {
	interval time.Duration
	settle   time.Duration
	service  *Service
	logger   *slog.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, service *Service) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	settle := cfg.Settle
	if settle <= 0 {
		settle = 250 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		interval: interval,
		settle:   settle,
		service:  service,
		logger:   logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	changes, err := r.service.Changes(ctx)
	switch {
	case err == nil:
		r.service.setWatching(true)
		defer r.service.setWatching(false)
	case errors.Is(err, platform.ErrWatchUnsupported):
		r.logger.Debug("display change notifications unavailable, polling only")
	default:
		r.logger.Warn("failed to subscribe to display changes", "error", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval, "watching", changes != nil)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case _, ok := <-changes:
			if !ok {
				changes = nil
				r.service.setWatching(false)
				r.logger.Warn("display change notifications stopped, polling only")
				continue
			}
			r.drain(ctx, changes)
			r.reconcile("change")
		case <-ticker.C:
			r.reconcile("interval")
		}
	}
}

// drain coalesces a burst of notifications. A mode switch produces one
// event per CRTC and output.
func (r *Reconciler) drain(ctx context.Context, changes <-chan struct{}) {
	timer := time.NewTimer(r.settle)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
		}
	}
}

// reconcile performs a single re-detection pass.
func (r *Reconciler) reconcile(reason string) {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	before := len(r.service.Monitors())
	infos, err := r.service.Redetect()
	if err != nil {
		r.logger.Error("reconciler: detection failed", "reason", reason, "error", err)
		return
	}
	if len(infos) != before {
		r.logger.Info("monitor layout changed", "reason", reason, "before", before, "after", len(infos))
	} else {
		r.logger.Debug("reconciled", "reason", reason, "monitors", len(infos))
	}
}

// ReconcileNow triggers an immediate reconciliation.
func (r *Reconciler) ReconcileNow() {
	r.reconcile("manual")
}
