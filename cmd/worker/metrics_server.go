package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alerthub/internal/usecase/dispatch"
)

// healthResponse is the liveness probe body.
type healthResponse struct {
	Status string `json:"status"`
}

// deliveryStatsResponse summarizes delivery outcomes since process start.
type deliveryStatsResponse struct {
	Sent        int64                            `json:"sent"`
	Failed      int64                            `json:"failed"`
	Total       int64                            `json:"total"`
	SuccessRate float64                          `json:"success_rate"`
	ByChannel   map[string]dispatch.ChannelStats `json:"by_channel"`
}

// startMetricsServer exposes Prometheus metrics and the worker health
// endpoints on addr. The server shuts down when ctx is canceled.
func startMetricsServer(ctx context.Context, logger *slog.Logger, addr string, tracker *dispatch.Tracker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/health/deliveries", deliveryStatsHandler(tracker))

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
		} else {
			logger.Info("metrics server stopped")
		}
	}()

	return server
}

// healthHandler is the liveness probe. Always 200.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(healthResponse{Status: "healthy"})
}

// deliveryStatsHandler reports cumulative delivery outcomes from the
// tracker, split per channel.
func deliveryStatsHandler(tracker *dispatch.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := tracker.Stats()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(deliveryStatsResponse{
			Sent:        stats.Sent,
			Failed:      stats.Failed,
			Total:       stats.Total,
			SuccessRate: stats.SuccessRate(),
			ByChannel:   stats.ByChannel,
		})
	}
}
