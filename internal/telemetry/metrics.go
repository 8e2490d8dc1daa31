package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"chain-dashboard/internal/chain"
)

const refreshSubsystem = "refresh"

var panelStates = []chain.PanelState{chain.StateLoading, chain.StateReady, chain.StateEmpty, chain.StateFailed}

// Recorder mirrors dashboard snapshots into Prometheus collectors.
type Recorder struct {
	registry *prometheus.Registry

	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	headBlock       prometheus.Gauge
	windowBlocks    prometheus.Gauge
	latestValue     *prometheus.GaugeVec
	panelState      *prometheus.GaugeVec
	decodeAnomalies prometheus.Counter
}

// NewRecorder registers the dashboard collectors on a private registry.
func NewRecorder(namespace string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: refreshSubsystem,
			Name:      "total",
			Help:      "Total number of dashboard refreshes grouped by outcome.",
		}, []string{"outcome"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: refreshSubsystem,
			Name:      "duration_seconds",
			Help:      "Wall time spent fetching and deriving one window.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		headBlock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "head_block",
			Help:      "Newest block number in the last fetched window.",
		}),
		windowBlocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "window_blocks",
			Help:      "Number of blocks in the last fetched window.",
		}),
		latestValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "series_latest_value",
			Help:      "Value of the newest point of each derived series.",
		}, []string{"series"}),
		panelState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "panel_state",
			Help:      "Set to 1 for the current state of each dashboard panel.",
		}, []string{"series", "state"}),
		decodeAnomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_decode_anomalies_total",
			Help:      "Transfer logs whose payload failed to decode.",
		}),
	}

	r.registry.MustRegister(
		r.refreshes,
		r.refreshDuration,
		r.headBlock,
		r.windowBlocks,
		r.latestValue,
		r.panelState,
		r.decodeAnomalies,
	)
	for _, outcome := range []string{"success", "partial", "failure"} {
		r.refreshes.WithLabelValues(outcome).Add(0)
	}
	return r
}

// Publish records a finished refresh.
func (r *Recorder) Publish(ctx context.Context, snap chain.Snapshot) error {
	r.refreshes.WithLabelValues(outcome(snap)).Inc()
	r.refreshDuration.Observe(snap.Duration.Seconds())

	if snap.Err == nil {
		r.headBlock.Set(float64(snap.Head()))
		r.windowBlocks.Set(float64(len(snap.Blocks)))
	}

	for _, series := range chain.AllSeries {
		panel := snap.Panel(series)
		for _, state := range panelStates {
			value := 0.0
			if panel.State == state {
				value = 1
			}
			r.panelState.WithLabelValues(string(series), string(state)).Set(value)
		}
		if panel.HasData() {
			r.latestValue.WithLabelValues(string(series)).Set(panel.Points[len(panel.Points)-1].Value)
		}
	}
	return nil
}

// ObserveAnomaly counts a transfer log that failed to decode.
func (r *Recorder) ObserveAnomaly(chain.LogDecodeAnomaly) {
	r.decodeAnomalies.Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("serving prometheus metrics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func outcome(snap chain.Snapshot) string {
	switch {
	case snap.Err != nil:
		return "failure"
	case snap.Failed():
		return "partial"
	default:
		return "success"
	}
}
