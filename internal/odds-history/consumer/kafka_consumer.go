package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/agent-bet-arena/internal/domain"
	"github.com/radieske/agent-bet-arena/internal/odds"
	"github.com/radieske/agent-bet-arena/internal/ports"
	"github.com/radieske/agent-bet-arena/pkg/contracts/events"
)

// MessageReader é o lado de leitura do kafka.Reader
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Store é o que o histórico precisa da persistência
type Store interface {
	InsertOddsSnapshot(ctx context.Context, s ports.OddsSnapshot) error
	MatchByID(ctx context.Context, id int64) (domain.Match, error)
}

type QuoteCache interface {
	SetQuote(ctx context.Context, q odds.CachedQuote) error
}

var errDecode = errors.New("invalid wager_placed payload")

// Processor consome wager_placed, grava uma linha em odds_history por aposta
// e atualiza o cache com a cotação corrente lida do banco.
// A gravação é idempotente por wagerId, então reentregas não duplicam histórico.
type Processor struct {
	Log    *zap.Logger
	Reader MessageReader
	Store  Store
	Cache  QuoteCache // opcional

	OnConsumed func()       // métricas
	OnPersist  func()       // métricas
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo até ctx ser cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}
		if err := p.Handle(ctx, m.Value); err != nil {
			p.Log.Warn("wager_placed not processed", zap.ByteString("key", m.Key), zap.Error(err))
		}
	}
}

// Handle processa uma mensagem; erro de cache não impede o histórico
func (p *Processor) Handle(ctx context.Context, value []byte) error {
	var ev events.WagerPlaced
	if err := json.Unmarshal(value, &ev); err != nil {
		p.fail("decode")
		return fmt.Errorf("%w: %v", errDecode, err)
	}
	if ev.WagerID <= 0 || ev.MatchID <= 0 {
		p.fail("decode")
		return errDecode
	}

	snap := ports.OddsSnapshot{
		MatchID:    ev.MatchID,
		WagerID:    ev.WagerID,
		Prediction: domain.Outcome(ev.Prediction),
		OddsHome:   ev.OddsHome,
		OddsDraw:   ev.OddsDraw,
		OddsAway:   ev.OddsAway,
		PlacedAt:   ev.PlacedAt,
	}
	if err := p.Store.InsertOddsSnapshot(ctx, snap); err != nil {
		p.fail("db_history")
		return fmt.Errorf("insert odds snapshot: %w", err)
	}
	if p.OnPersist != nil {
		p.OnPersist()
	}

	if p.Cache == nil {
		return nil
	}
	m, err := p.Store.MatchByID(ctx, ev.MatchID)
	if err != nil {
		p.Log.Warn("load match for cache refresh failed", zap.Int64("matchId", ev.MatchID), zap.Error(err))
		p.fail("db_read")
		return nil
	}
	q := odds.CachedQuote{MatchID: m.ID, Pools: odds.PoolsOf(m), Odds: odds.OddsOf(m), UpdatedAt: ev.PlacedAt}
	if err := p.Cache.SetQuote(ctx, q); err != nil {
		p.Log.Warn("redis set failed", zap.Int64("matchId", ev.MatchID), zap.Error(err))
		p.fail("cache")
	}
	return nil
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
