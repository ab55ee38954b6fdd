package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/radieske/agent-bet-arena/internal/odds"
	"github.com/radieske/agent-bet-arena/internal/odds-history/consumer"
	sharedcache "github.com/radieske/agent-bet-arena/internal/shared/cache"
	"github.com/radieske/agent-bet-arena/internal/shared/config"
	"github.com/radieske/agent-bet-arena/internal/shared/db"
	"github.com/radieske/agent-bet-arena/internal/shared/kafka"
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

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.ApplySchema(ctx, pg); err != nil {
		log.Fatal("schema", zap.Error(err))
	}

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Consumer Kafka (consumer group odds-history)
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicWagerPlaced, "odds-history")
	defer reader.Close()

	metrics.Register(metrics.OddsSnapshots)

	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Store:      postgres.New(pg),
		Cache:      odds.NewRedisCache(redisClient, cfg.OddsCacheTTL),
		OnConsumed: func() { metrics.OddsSnapshots.WithLabelValues("consumed").Inc() },
		OnPersist:  func() { metrics.OddsSnapshots.WithLabelValues("persisted").Inc() },
		OnError:    func(stage string) { metrics.OddsSnapshots.WithLabelValues("error_" + stage).Inc() },
	}

	// Servidor HTTP para métricas e health check
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		return redisClient.Ping(ctx).Err()
	})
	defer msrv.Close()

	log.Info("odds-history-worker started", zap.String("consume", cfg.TopicWagerPlaced))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("odds-history-worker stopped")
}
