package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"

	"github.com/radieske/agent-bet-arena/internal/shared/config"
	"github.com/radieske/agent-bet-arena/internal/shared/logger"
)

func rp(log *zap.Logger, to string) *httputil.ReverseProxy {
	u, err := url.Parse(to)
	if err != nil {
		log.Fatal("invalid proxy target", zap.String("target", to), zap.Error(err))
	}
	p := httputil.NewSingleHostReverseProxy(u)
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream unavailable", zap.String("target", to), zap.String("path", r.URL.Path), zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)
	}
	return p
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	bet := rp(log, cfg.BetServiceURL)
	settle := rp(log, cfg.SettlementServiceURL)

	mux := http.NewServeMux()

	// bets, saldo, partidas e odds (ex.: /api/bets/v1/bets -> bet-service /v1/bets)
	mux.Handle("/api/bets/", http.StripPrefix("/api/bets", bet))

	// liquidação (ex.: /api/settlement/v1/settlement/window -> settlement-worker)
	mux.Handle("/api/settlement/", http.StripPrefix("/api/settlement", settle))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr),
		zap.String("bet", cfg.BetServiceURL), zap.String("settlement", cfg.SettlementServiceURL))
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Agent-Secret")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
