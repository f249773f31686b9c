package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"romaantica/internal/metrics"
)

// HealthHandler serves /healthz and /readyz. Readiness pings redis and the
// booking API when they are configured.
func (a *App) HealthHandler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if a.redis != nil {
			if err := a.redis.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		if a.client != nil {
			if err := a.client.Ping(ctxPing); err != nil {
				http.Error(w, "booking api not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	return mux
}

// StartServers runs the health server and, when enabled, the metrics server
// until ctx is done.
func (a *App) StartServers(ctx context.Context) {
	go a.serve(ctx, "health", a.cfg.Monitoring.HealthCheckPort, a.HealthHandler(ctx))

	if a.cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go a.serve(ctx, "metrics", a.cfg.Monitoring.PrometheusPort, mux)
	}
}

func (a *App) serve(ctx context.Context, name string, port int, handler http.Handler) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		a.logger.Error().Err(err).Str("server", name).Msg("server error")
	}
}
