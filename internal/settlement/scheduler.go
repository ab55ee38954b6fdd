package settlement

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/agent-bet-arena/internal/shared/clock"
)

// Runner é o que o agendador dispara (Engine em produção)
type Runner interface {
	RunWeeklySettlement(ctx context.Context) (Report, error)
}

// NextWeekly devolve o próximo instante estritamente após now no dia da semana/hora UTC dados
func NextWeekly(now time.Time, day time.Weekday, hour int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	for next.Weekday() != day || !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Scheduler dispara a liquidação semanal (segunda 04:00 UTC por padrão)
type Scheduler struct {
	Runner  Runner
	Clock   clock.Clock
	Weekday time.Weekday
	Hour    int
	Log     *zap.Logger
}

// Run bloqueia até ctx ser cancelado
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		now := s.Clock.Now()
		next := NextWeekly(now, s.Weekday, s.Hour)
		s.Log.Info("next settlement scheduled", zap.Time("at", next))

		t := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}

		rep, err := s.Runner.RunWeeklySettlement(ctx)
		switch {
		case errors.Is(err, ErrRunInProgress):
			s.Log.Warn("scheduled settlement skipped: run in progress")
		case err != nil:
			s.Log.Error("scheduled settlement failed", zap.String("runId", rep.RunID), zap.Error(err))
		default:
			s.Log.Info("scheduled settlement done", zap.String("runId", rep.RunID), zap.Int("settled", rep.Settled))
		}
	}
}

// Every executa fn imediatamente e depois a cada interval, até ctx ser cancelado
func Every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	fn(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}
