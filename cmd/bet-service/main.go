package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	bhttp "github.com/radieske/agent-bet-arena/internal/bet-service/http"
	"github.com/radieske/agent-bet-arena/internal/ledger"
	"github.com/radieske/agent-bet-arena/internal/odds"
	"github.com/radieske/agent-bet-arena/internal/producer"
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()
	if err := db.ApplySchema(ctx, pg); err != nil {
		log.Fatal("schema", zap.Error(err))
	}

	// Redis (cache de cotações)
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka (wager_placed)
	publ := producer.NewKafkaPublisher(cfg.KafkaBrokers, cfg.TopicWagerPlaced, "", "")
	defer publ.Close()

	initial, err := decimal.NewFromString(cfg.InitialBalance)
	if err != nil {
		log.Fatal("INITIAL_BALANCE", zap.Error(err))
	}

	metrics.Register(metrics.BetsPlaced, metrics.BetsRejected)

	// deps
	store := postgres.New(pg)
	quotes := odds.NewRedisCache(rdb, cfg.OddsCacheTTL)
	svc := ledger.NewService(store, clock.System{}, publ, quotes, log)
	svc.InitialBalance = initial
	svc.OnPlaced = func(prediction string) { metrics.BetsPlaced.WithLabelValues(prediction).Inc() }
	svc.OnRejected = func(reason string) { metrics.BetsRejected.WithLabelValues(reason).Inc() }

	// HTTP público
	api := bhttp.NewServer(log, svc, store, quotes)
	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// metrics/health
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})
	defer msrv.Close()

	go func() {
		<-ctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer scancel()
		_ = apiSrv.Shutdown(sctx)
	}()

	log.Info("bet-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("api", zap.Error(err))
	}
	log.Info("bet-service stopped")
}
