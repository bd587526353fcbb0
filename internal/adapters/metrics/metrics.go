package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics counts dispatched commands.
//
// Labels: outcome (not_found|succeeded|failed), plugin (empty when no plugin was resolved). Messages that are not
// commands are never counted.
type Metrics struct {
	Dispatches *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wabot",
			Name:      "dispatches_total",
			Help:      "Commands dispatched, by outcome and plugin.",
		}, []string{"outcome", "plugin"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wabot",
			Name:      "plugin_duration_seconds",
			Help:      "Time from command resolution to plugin completion.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"plugin"}),
	}
}

func (m *Metrics) RecordDispatch(outcome string, plugin string, elapsed time.Duration) {
	m.Dispatches.WithLabelValues(outcome, plugin).Inc()

	if plugin != "" {
		m.Duration.WithLabelValues(plugin).Observe(elapsed.Seconds())
	}
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("failed to stop metrics server")
		}
	}()

	log.Info().Str("addr", addr).Msg("serving metrics")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
