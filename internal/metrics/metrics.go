// Package metrics exports discovery activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements platform.Observer on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	detections   *prometheus.CounterVec
	detectTime   *prometheus.HistogramVec
	monitors     *prometheus.GaugeVec
	modeSwitches *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "monitors",
			Name:      "detections_total",
			Help:      "Monitor detection passes.",
		}, []string{"backend"}),
		detectTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "monitors",
			Name:      "detect_duration_seconds",
			Help:      "Time spent enumerating monitors and modes.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"backend"}),
		monitors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "monitors",
			Name:      "connected",
			Help:      "Monitors found by the last detection.",
		}, []string{"backend"}),
		modeSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "monitors",
			Name:      "mode_switches_total",
			Help:      "Mode switch attempts by result.",
		}, []string{"backend", "result"}),
	}
	r.registry.MustRegister(r.detections, r.detectTime, r.monitors, r.modeSwitches)
	return r
}

func (r *Recorder) ObserveDetect(backend string, monitors int, elapsed time.Duration) {
	r.detections.WithLabelValues(backend).Inc()
	r.detectTime.WithLabelValues(backend).Observe(elapsed.Seconds())
	r.monitors.WithLabelValues(backend).Set(float64(monitors))
}

func (r *Recorder) ObserveModeSwitch(backend string, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	r.modeSwitches.WithLabelValues(backend, result).Inc()
}

// Handler serves the recorder's registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
