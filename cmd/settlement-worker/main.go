package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/agent-bet-arena/internal/lifecycle"
	"github.com/radieske/agent-bet-arena/internal/producer"
	"github.com/radieske/agent-bet-arena/internal/results"
	"github.com/radieske/agent-bet-arena/internal/settlement"
	shttp "github.com/radieske/agent-bet-arena/internal/settlement-worker/http"
	sharedcache "github.com/radieske/agent-bet-arena/internal/shared/cache"
	"github.com/radieske/agent-bet-arena/internal/shared/clock"
	"github.com/radieske/agent-bet-arena/internal/shared/config"
	"github.com/radieske/agent-bet-arena/internal/shared/db"
	"github.com/radieske/agent-bet-arena/internal/shared/logger"
	"github.com/radieske/agent-bet-arena/internal/shared/metrics"
	"github.com/radieske/agent-bet-arena/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Token ausente é erro de configuração: não sobe
	fetcher, err := results.NewClient(cfg.ResultsBaseURL, cfg.ResultsToken, cfg.ResultsTimeout)
	if err != nil {
		log.Fatal("results client", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.ApplySchema(ctx, pg); err != nil {
		log.Fatal("schema", zap.Error(err))
	}

	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka producer: wager_settled e match_settled
	publ := producer.NewKafkaPublisher(cfg.KafkaBrokers, "", cfg.TopicWagerSettled, cfg.TopicMatchSettled)
	defer publ.Close()

	metrics.Register(metrics.SettlementRuns, metrics.SettlementRunSeconds, metrics.SettlementMatches,
		metrics.WagersResolved, metrics.OpenedMatches)

	store := postgres.New(pg)
	clk := clock.System{}

	lc := lifecycle.NewManager(store, clk, log)
	lc.OnOpened = func(n int) { metrics.OpenedMatches.Add(float64(n)) }

	engine := settlement.NewEngine(store, fetcher, clk, settlement.NewPacer(cfg.ResultsPacer, cfg.ResultsDelay), log)
	engine.Lock = settlement.NewRedisRunLock(rdb, cfg.SettlementLock)
	engine.Lifecycle = lc
	engine.Pub = publ
	engine.Hooks = settlement.Hooks{
		OnRun:   metrics.ObserveRun,
		OnMatch: func(outcome string) { metrics.SettlementMatches.WithLabelValues(outcome).Inc() },
		OnWager: func(status string) { metrics.WagersResolved.WithLabelValues(status).Inc() },
	}

	// Servidor HTTP para métricas e healthcheck
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		return rdb.Ping(ctx).Err()
	})
	defer msrv.Close()

	// Gatilho manual e consulta da janela
	api := shttp.NewServer(log, engine, clk, cfg.IsProd(), cfg.SettlementHour)
	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("settlement api listening", zap.String("addr", apiSrv.Addr), zap.Bool("manualTrigger", !cfg.IsProd()))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("settlement api", zap.Error(err))
		}
	}()

	// Abre partidas da semana e fecha as que passaram do prazo
	go settlement.Every(ctx, cfg.OpenMatchesTick, func(ctx context.Context) {
		if _, err := lc.OpenCurrentWeek(ctx); err != nil {
			log.Warn("open matches failed", zap.Error(err))
		}
		if _, err := lc.CloseExpired(ctx); err != nil {
			log.Warn("close expired matches failed", zap.Error(err))
		}
	})

	sched := &settlement.Scheduler{
		Runner:  engine,
		Clock:   clk,
		Weekday: time.Monday,
		Hour:    cfg.SettlementHour,
		Log:     log,
	}

	log.Info("settlement-worker started",
		zap.String("provider", cfg.ResultsBaseURL),
		zap.String("pacer", cfg.ResultsPacer),
		zap.Duration("fetchDelay", cfg.ResultsDelay),
		zap.Int("hourUTC", cfg.SettlementHour),
	)
	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("scheduler stopped", zap.Error(err))
	}

	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	_ = apiSrv.Shutdown(sctx)
	log.Info("settlement-worker stopped")
}
