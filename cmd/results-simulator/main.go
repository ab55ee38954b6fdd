package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/radieske/agent-bet-arena/internal/results-simulator/sim"
	"github.com/radieske/agent-bet-arena/internal/shared/config"
	"github.com/radieske/agent-bet-arena/internal/shared/logger"
	"github.com/radieske/agent-bet-arena/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	metrics.Register(metrics.ResultsSimRequests)

	s := sim.NewServer(log, cfg.SimulatorToken)
	s.OnRequest = func(status int) { metrics.ResultsSimRequests.WithLabelValues(strconv.Itoa(status)).Inc() }

	// ==== MUX DE MÉTRICAS (/healthz, /metrics)
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsMux.Handle("/metrics", promhttp.Handler())

	go func() {
		metricsAddr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("results simulator (metrics) running",
			zap.String("addr", metricsAddr),
			zap.String("paths", "/healthz,/metrics"),
		)
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			log.Fatal("metrics server error", zap.Error(err))
		}
	}()

	// Servidor público (GET/PUT /matches/{id})
	public := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info("results simulator (public) running",
		zap.String("addr", public.Addr),
		zap.String("paths", "/matches/{id}"),
	)
	if err := public.ListenAndServe(); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}
