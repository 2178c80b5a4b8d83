// Package daemon serves monitor discovery to other processes over the IPC
// socket and keeps the detected tree current.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/monitors/internal/ipc"
	"github.com/1broseidon/monitors/internal/metrics"
)

// Config configures Run.
type Config struct {
	Socket      string
	MetricsAddr string
	Reconciler  ReconcilerConfig
	Recorder    *metrics.Recorder
	Logger      *slog.Logger
}

// Run starts the service, the IPC server, the reconciler and the optional
// metrics endpoint, and blocks until ctx is cancelled.
func Run(ctx context.Context, service *Service, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := service.Start(); err != nil {
		return fmt.Errorf("failed to start display session: %w", err)
	}
	defer service.Close()

	server, err := ipc.NewServer(cfg.Socket, service, logger)
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}
	defer server.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if cfg.MetricsAddr != "" && cfg.Recorder != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := cfg.Recorder.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error("metrics server failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
	}

	rcfg := cfg.Reconciler
	if rcfg.Logger == nil {
		rcfg.Logger = logger
	}
	reconciler := NewReconciler(rcfg, service)
	wg.Add(1)
	go func() {
		defer wg.Done()
		reconciler.Run(ctx)
	}()

	status := service.Status()
	logger.Info("daemon started",
		"backend", status.Backend,
		"monitors", status.MonitorCount,
		"socket", server.SocketPath(),
	)

	<-ctx.Done()
	wg.Wait()
	logger.Info("daemon stopped")
	return nil
}
