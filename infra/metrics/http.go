package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heatplan/heatplan/infra/logger"
)

// StartOpsServer serves Prometheus metrics and, when the handlers are
// given, the read-only room status API and the dispatch history on the same
// address. The server runs until the provided context is canceled. A
// dedicated ServeMux is used to avoid interfering with other handlers.
func StartOpsServer(ctx context.Context, addr string, rooms, dispatchLogs http.Handler) error {
	log := logger.New("ops-server")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if rooms != nil {
		mux.Handle("/api/rooms", rooms)
	}
	if dispatchLogs != nil {
		mux.Handle("/api/dispatch/logs", dispatchLogs)
	}
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("ops server shutdown: %v", err)
		}
		cancel()
	}()
	log.Infof("ops server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
