package lifecycle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/agent-bet-arena/internal/domain"
	"github.com/radieske/agent-bet-arena/internal/ports"
	"github.com/radieske/agent-bet-arena/internal/shared/clock"
)

// Manager executa as transições em lote: abertura semanal e fechamento por prazo.
type Manager struct {
	Store ports.Store
	Clock clock.Clock
	Log   *zap.Logger

	OnOpened func(n int) // métricas
	OnClosed func(n int) // métricas
}

func NewManager(s ports.Store, c clock.Clock, log *zap.Logger) *Manager {
	return &Manager{Store: s, Clock: c, Log: log}
}

// OpenCurrentWeek abre as partidas UPCOMING com kickoff na semana UTC corrente
// cujo prazo de apostas ainda não passou.
func (m *Manager) OpenCurrentWeek(ctx context.Context) (int, error) {
	now := m.Clock.Now()
	matches, err := m.Store.MatchesByKickoff(ctx, clock.StartOfWeek(now), clock.EndOfWeek(now))
	if err != nil {
		return 0, fmt.Errorf("lifecycle: list week matches: %w", err)
	}

	opened := 0
	for _, match := range matches {
		if match.Status != domain.MatchUpcoming || DeadlinePassed(now, match.Kickoff) {
			continue
		}
		ok, err := m.advance(ctx, match.ID, domain.MatchUpcoming, domain.MatchBettingOpen)
		if err != nil {
			m.Log.Warn("open match failed", zap.Int64("matchId", match.ID), zap.Error(err))
			continue
		}
		if ok {
			opened++
		}
	}
	if opened > 0 {
		m.Log.Info("matches opened for betting", zap.Int("count", opened))
		if m.OnOpened != nil {
			m.OnOpened(opened)
		}
	}
	return opened, nil
}

// CloseExpired fecha as partidas abertas cujo prazo já passou
func (m *Manager) CloseExpired(ctx context.Context) (int, error) {
	now := m.Clock.Now()
	open, err := m.Store.MatchesByStatus(ctx, domain.MatchBettingOpen)
	if err != nil {
		return 0, fmt.Errorf("lifecycle: list open matches: %w", err)
	}

	closed := 0
	for _, match := range open {
		if !DeadlinePassed(now, match.Kickoff) {
			continue
		}
		ok, err := m.advance(ctx, match.ID, domain.MatchBettingOpen, domain.MatchBettingClosed)
		if err != nil {
			m.Log.Warn("close match failed", zap.Int64("matchId", match.ID), zap.Error(err))
			continue
		}
		if ok {
			closed++
		}
	}
	if closed > 0 {
		m.Log.Info("expired matches closed", zap.Int("count", closed))
		if m.OnClosed != nil {
			m.OnClosed(closed)
		}
	}
	return closed, nil
}

// advance revalida o status sob lock; outra transação pode ter mudado a partida
func (m *Manager) advance(ctx context.Context, id int64, from, to domain.MatchStatus) (bool, error) {
	changed := false
	err := m.Store.InTx(ctx, func(tx ports.Tx) error {
		cur, err := tx.MatchForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if cur.Status != from {
			return nil
		}
		if err := Transition(cur.Status, to); err != nil {
			return err
		}
		if err := tx.UpdateMatchStatus(ctx, id, to); err != nil {
			return err
		}
		changed = true
		return nil
	})
	return changed, err
}
