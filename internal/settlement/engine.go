// Package settlement liquida semanalmente as apostas pendentes contra os
// resultados oficiais e atualiza as estatísticas dos agentes.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/agent-bet-arena/internal/domain"
	"github.com/radieske/agent-bet-arena/internal/lifecycle"
	"github.com/radieske/agent-bet-arena/internal/ports"
	"github.com/radieske/agent-bet-arena/internal/results"
	"github.com/radieske/agent-bet-arena/internal/shared/clock"
	"github.com/radieske/agent-bet-arena/pkg/contracts/events"
)

var errAlreadySettled = errors.New("match already settled")

// Report resume uma execução
type Report struct {
	RunID         string        `json:"runId"`
	Window        Window        `json:"window"`
	Considered    int           `json:"considered"`
	Settled       int           `json:"settled"`
	Deferred      int           `json:"deferred"` // sem resultado final ou falha na consulta
	Failed        int           `json:"failed"`   // erro na transação de liquidação
	Skipped       int           `json:"skipped"`  // já liquidadas
	WagersWon     int           `json:"wagersWon"`
	WagersLost    int           `json:"wagersLost"`
	AgentsUpdated int           `json:"agentsUpdated"`
	StatsFailed   int           `json:"statsFailed"`
	Duration      time.Duration `json:"duration"`
}

// Hooks recebem os eventos de métrica da execução
type Hooks struct {
	OnRun   func(result string, elapsed time.Duration)
	OnMatch func(outcome string) // settled | deferred | fetch_failed | failed | skipped
	OnWager func(status string)
}

type Engine struct {
	Store     ports.Store
	Fetcher   ports.ResultFetcher
	Clock     clock.Clock
	Pacer     Pacer
	Lock      RunLock            // opcional; nil = só a trava em processo
	Lifecycle *lifecycle.Manager // opcional; fecha partidas vencidas antes da execução
	Pub       ports.Publisher
	Log       *zap.Logger
	Hooks     Hooks

	running atomic.Bool
}

func NewEngine(store ports.Store, fetcher ports.ResultFetcher, clk clock.Clock, pacer Pacer, log *zap.Logger) *Engine {
	return &Engine{
		Store:   store,
		Fetcher: fetcher,
		Clock:   clk,
		Pacer:   pacer,
		Pub:     ports.NopPublisher{},
		Log:     log,
	}
}

// RunWeeklySettlement liquida a semana UTC anterior à semana corrente.
// Pode ser chamada várias vezes: só partidas não liquidadas e apostas PENDING são tocadas.
func (e *Engine) RunWeeklySettlement(ctx context.Context) (Report, error) {
	return e.RunWindow(ctx, PreviousWeek(e.Clock.Now()))
}

func (e *Engine) RunWindow(ctx context.Context, w Window) (rep Report, err error) {
	if !e.running.CompareAndSwap(false, true) {
		return Report{}, ErrRunInProgress
	}
	defer e.running.Store(false)

	var lease Lease
	if e.Lock != nil {
		l, ok, lerr := e.Lock.Acquire(ctx)
		if lerr != nil {
			return Report{}, fmt.Errorf("settlement: acquire run lock: %w", lerr)
		}
		if !ok {
			return Report{}, ErrRunInProgress
		}
		lease = l
		defer func() {
			if rerr := lease.Release(context.WithoutCancel(ctx)); rerr != nil {
				e.Log.Warn("settlement run lock release failed", zap.Error(rerr))
			}
		}()
	}

	started := time.Now()
	rep = Report{RunID: uuid.NewString(), Window: w}
	log := e.Log.With(
		zap.String("runId", rep.RunID),
		zap.Time("from", w.From),
		zap.Time("to", w.To),
	)
	defer func() {
		rep.Duration = time.Since(started)
		result := "ok"
		if err != nil {
			result = "error"
		}
		if e.Hooks.OnRun != nil {
			e.Hooks.OnRun(result, rep.Duration)
		}
	}()

	log.Info("settlement run started")

	if e.Lifecycle != nil {
		if _, cerr := e.Lifecycle.CloseExpired(ctx); cerr != nil {
			log.Warn("close expired matches failed", zap.Error(cerr))
		}
	}

	matches, err := e.Store.MatchesByKickoff(ctx, w.From, w.To)
	if err != nil {
		log.Error("list matches failed", zap.Error(err))
		return rep, fmt.Errorf("settlement: list matches: %w", err)
	}
	rep.Considered = len(matches)

	acc := Accumulator{}
	for _, m := range matches {
		mlog := log.With(zap.Int64("matchId", m.ID), zap.Int64("apiId", m.APIID))

		if m.Status == domain.MatchSettled {
			rep.Skipped++
			e.match("skipped")
			continue
		}

		if err := e.Pacer.Wait(ctx); err != nil {
			log.Warn("settlement run interrupted", zap.Error(err))
			e.flushStats(ctx, log, acc, &rep)
			return rep, err
		}
		if lease != nil {
			if lerr := lease.Extend(ctx); lerr != nil {
				log.Warn("settlement run lock refresh failed", zap.Error(lerr))
			}
		}

		res, err := e.Fetcher.FetchResult(ctx, m.APIID)
		if err != nil {
			if errors.Is(err, results.ErrUnauthorized) || errors.Is(err, results.ErrMissingToken) {
				mlog.Error("result provider rejected credentials; aborting run", zap.Error(err))
				e.flushStats(ctx, log, acc, &rep)
				return rep, err
			}
			mlog.Warn("result fetch failed; match deferred", zap.Error(err))
			rep.Deferred++
			e.match("fetch_failed")
			continue
		}
		if !res.Final() {
			mlog.Info("match result not final; deferred", zap.String("externalStatus", res.Status))
			rep.Deferred++
			e.match("deferred")
			continue
		}

		out, err := e.settleMatch(ctx, m, res)
		if errors.Is(err, errAlreadySettled) {
			rep.Skipped++
			e.match("skipped")
			continue
		}
		if err != nil {
			mlog.Error("settlement transaction failed; match left untouched", zap.Error(err))
			rep.Failed++
			e.match("failed")
			continue
		}

		acc.Merge(out.deltas)
		rep.Settled++
		rep.WagersWon += out.won
		rep.WagersLost += out.lost
		e.match("settled")
		mlog.Info("match settled",
			zap.String("winner", string(*res.Winner)),
			zap.Int("won", out.won),
			zap.Int("lost", out.lost),
		)
		e.publish(ctx, mlog, rep.RunID, m, res, out)
	}

	e.flushStats(ctx, log, acc, &rep)

	log.Info("settlement run finished",
		zap.Int("considered", rep.Considered),
		zap.Int("settled", rep.Settled),
		zap.Int("deferred", rep.Deferred),
		zap.Int("failed", rep.Failed),
		zap.Int("skipped", rep.Skipped),
		zap.Int("agentsUpdated", rep.AgentsUpdated),
	)
	return rep, nil
}

// Running indica se há uma execução em andamento neste processo
func (e *Engine) Running() bool { return e.running.Load() }

type matchOutcome struct {
	deltas   Accumulator
	resolved []events.WagerSettled
	won      int
	lost     int
}

// settleMatch resolve as apostas PENDING e fecha a partida numa única transação.
// Deltas só são devolvidos se o commit acontecer.
func (e *Engine) settleMatch(ctx context.Context, m domain.Match, res domain.FixtureResult) (matchOutcome, error) {
	var out matchOutcome
	err := e.Store.InTx(ctx, func(tx ports.Tx) error {
		out = matchOutcome{deltas: Accumulator{}}

		cur, err := tx.MatchForUpdate(ctx, m.ID)
		if err != nil {
			return fmt.Errorf("lock match: %w", err)
		}
		if cur.Status == domain.MatchSettled {
			return errAlreadySettled
		}
		if err := lifecycle.Transition(cur.Status, domain.MatchSettled); err != nil {
			return err
		}

		wagers, err := tx.PendingWagersForUpdate(ctx, m.ID)
		if err != nil {
			return fmt.Errorf("load pending wagers: %w", err)
		}

		now := e.Clock.Now()
		for _, w := range wagers {
			won := w.Prediction == *res.Winner
			status, payout := domain.WagerFail, decimal.Zero
			if won {
				status, payout = domain.WagerSuccess, Winnings(w)
			}
			if err := tx.ResolveWager(ctx, w.ID, status, payout, now); err != nil {
				return fmt.Errorf("resolve wager %d: %w", w.ID, err)
			}
			if won {
				a, err := tx.AgentForUpdate(ctx, w.AgentID)
				if err != nil {
					return fmt.Errorf("lock agent %d: %w", w.AgentID, err)
				}
				if err := tx.UpdateAgentBalance(ctx, a.ID, a.Balance.Add(payout)); err != nil {
					return fmt.Errorf("credit agent %d: %w", a.ID, err)
				}
				out.won++
			} else {
				out.lost++
			}
			out.deltas.Record(w.AgentID, w.BetAmount, payout, won)
			out.resolved = append(out.resolved, events.WagerSettled{
				WagerID:   w.ID,
				AgentID:   w.AgentID,
				MatchID:   m.ID,
				Status:    string(status),
				BetAmount: w.BetAmount,
				Payout:    payout,
				SettledAt: now,
			})
		}

		return tx.SettleMatch(ctx, m.ID, res, now)
	})
	return out, err
}

// Winnings = stake x odd congelada, com precisão de moeda
func Winnings(w domain.Wager) decimal.Decimal {
	return w.BetAmount.Mul(w.BetOdd).Round(2)
}

// flushStats grava os deltas das partidas já commitadas; roda também quando a execução aborta
func (e *Engine) flushStats(ctx context.Context, log *zap.Logger, acc Accumulator, rep *Report) {
	ctx = context.WithoutCancel(ctx)
	for _, agentID := range acc.AgentIDs() {
		d := *acc[agentID]
		if err := e.applyStats(ctx, agentID, d); err != nil {
			log.Error("agent stats update failed",
				zap.Int64("agentId", agentID),
				zap.Int("resolved", d.Resolved),
				zap.Int("won", d.Won),
				zap.String("staked", d.Staked.StringFixed(2)),
				zap.String("winnings", d.Winnings.StringFixed(2)),
				zap.Error(err),
			)
			rep.StatsFailed++
			continue
		}
		rep.AgentsUpdated++
	}
}

func (e *Engine) applyStats(ctx context.Context, agentID int64, d Delta) error {
	return e.Store.InTx(ctx, func(tx ports.Tx) error {
		a, err := tx.AgentForUpdate(ctx, agentID)
		if err != nil {
			return err
		}
		return tx.UpdateAgentStats(ctx, ApplyDelta(a, d))
	})
}

func (e *Engine) publish(ctx context.Context, log *zap.Logger, runID string, m domain.Match, res domain.FixtureResult, out matchOutcome) {
	for _, ws := range out.resolved {
		if e.Hooks.OnWager != nil {
			e.Hooks.OnWager(ws.Status)
		}
		if err := e.Pub.PublishWagerSettled(ctx, ws); err != nil {
			log.Warn("publish wager_settled failed", zap.Int64("wagerId", ws.WagerID), zap.Error(err))
		}
	}
	ev := events.MatchSettled{
		MatchID:   m.ID,
		APIID:     m.APIID,
		Winner:    string(*res.Winner),
		ScoreHome: res.ScoreHome,
		ScoreAway: res.ScoreAway,
		Resolved:  len(out.resolved),
		RunID:     runID,
		SettledAt: e.Clock.Now(),
	}
	if err := e.Pub.PublishMatchSettled(ctx, ev); err != nil {
		log.Warn("publish match_settled failed", zap.Error(err))
	}
}

func (e *Engine) match(outcome string) {
	if e.Hooks.OnMatch != nil {
		e.Hooks.OnMatch(outcome)
	}
}
