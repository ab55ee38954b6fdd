package settlement_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/radieske/agent-bet-arena/internal/domain"
	"github.com/radieske/agent-bet-arena/internal/lifecycle"
	"github.com/radieske/agent-bet-arena/internal/ports"
	"github.com/radieske/agent-bet-arena/internal/results"
	"github.com/radieske/agent-bet-arena/internal/settlement"
	"github.com/radieske/agent-bet-arena/internal/shared/clock"
	"github.com/radieske/agent-bet-arena/internal/store/memstore"
	"github.com/radieske/agent-bet-arena/pkg/contracts/events"
)

// segunda-feira 04:00 UTC; janela = 12/10 00:00 até 18/10 23:59:59.999
var runAt = time.Date(2026, 10, 19, 4, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeFetcher struct {
	mu      sync.Mutex
	results map[int64]domain.FixtureResult
	errs    map[int64]error
	calls   []int64
}

func newFetcher() *fakeFetcher {
	return &fakeFetcher{results: map[int64]domain.FixtureResult{}, errs: map[int64]error{}}
}

func (f *fakeFetcher) finished(apiID int64, winner domain.Outcome, home, away int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[apiID] = domain.FixtureResult{APIID: apiID, Status: domain.FixtureFinished, Winner: &winner, ScoreHome: &home, ScoreAway: &away}
}

func (f *fakeFetcher) FetchResult(_ context.Context, apiID int64) (domain.FixtureResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, apiID)
	if err, ok := f.errs[apiID]; ok {
		return domain.FixtureResult{}, err
	}
	if r, ok := f.results[apiID]; ok {
		return r, nil
	}
	return domain.FixtureResult{APIID: apiID, Status: domain.FixtureScheduled}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type countingPacer struct{ waits int }

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits++
	return ctx.Err()
}

type recordingPublisher struct {
	ports.NopPublisher
	mu      sync.Mutex
	wagers  []events.WagerSettled
	matches []events.MatchSettled
}

func (p *recordingPublisher) PublishWagerSettled(_ context.Context, e events.WagerSettled) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.wagers = append(p.wagers, e)
	return nil
}

func (p *recordingPublisher) PublishMatchSettled(_ context.Context, e events.MatchSettled) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.matches = append(p.matches, e)
	return nil
}

type env struct {
	store   *memstore.Store
	fetcher *fakeFetcher
	pacer   *countingPacer
	pub     *recordingPublisher
	engine  *settlement.Engine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{store: memstore.New(), fetcher: newFetcher(), pacer: &countingPacer{}, pub: &recordingPublisher{}}
	e.engine = settlement.NewEngine(e.store, e.fetcher, clock.NewFixed(runAt), e.pacer, zap.NewNop())
	e.engine.Pub = e.pub
	return e
}

func (e *env) agent(t *testing.T, id, balance string) domain.Agent {
	t.Helper()
	a, err := e.store.CreateAgent(context.Background(), domain.Agent{AgentID: id, Name: id, SecretKey: "k", Balance: dec(balance)})
	require.NoError(t, err)
	return a
}

func (e *env) match(t *testing.T, apiID int64, kickoff time.Time, status domain.MatchStatus) domain.Match {
	t.Helper()
	m, err := e.store.CreateMatch(context.Background(), domain.Match{APIID: apiID, HomeTeam: "H", AwayTeam: "A", Kickoff: kickoff, Status: status})
	require.NoError(t, err)
	return m
}

func (e *env) wager(t *testing.T, a domain.Agent, m domain.Match, o domain.Outcome, stake, odd string) domain.Wager {
	t.Helper()
	var w domain.Wager
	err := e.store.InTx(context.Background(), func(tx ports.Tx) error {
		var err error
		w, err = tx.CreateWager(context.Background(), domain.Wager{
			AgentID: a.ID, MatchID: m.ID, Prediction: o,
			BetAmount: dec(stake), BetOdd: dec(odd), Status: domain.WagerPending,
		})
		return err
	})
	require.NoError(t, err)
	return w
}

func wagerByID(s *memstore.Store, id int64) domain.Wager {
	for _, w := range s.Wagers() {
		if w.ID == id {
			return w
		}
	}
	return domain.Wager{}
}

func TestPreviousWeekWindow(t *testing.T) {
	w := settlement.PreviousWeek(runAt)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), w.From)
	assert.Equal(t, time.Date(2026, 10, 18, 23, 59, 59, int(999*time.Millisecond), time.UTC), w.To)

	// domingo à noite ainda pertence à semana corrente; a janela é a anterior
	w = settlement.PreviousWeek(time.Date(2026, 10, 25, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), w.From)
	assert.True(t, w.Contains(time.Date(2026, 10, 18, 23, 59, 59, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)))
}

func TestSettlementScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.agent(t, "alice", "1000")
	bob := e.agent(t, "bob", "1000")
	m := e.match(t, 9001, time.Date(2026, 10, 15, 19, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	w1 := e.wager(t, alice, m, domain.OutcomeHome, "100", "2.0")
	w2 := e.wager(t, bob, m, domain.OutcomeAway, "50", "4.0")
	e.fetcher.finished(9001, domain.OutcomeHome, 2, 0)

	rep, err := e.engine.RunWeeklySettlement(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Considered)
	assert.Equal(t, 1, rep.Settled)
	assert.Equal(t, 1, rep.WagersWon)
	assert.Equal(t, 1, rep.WagersLost)
	assert.Equal(t, 2, rep.AgentsUpdated)

	first := wagerByID(e.store, w1.ID)
	assert.Equal(t, domain.WagerSuccess, first.Status)
	assert.Equal(t, "200.00", first.Payout.StringFixed(2))
	second := wagerByID(e.store, w2.ID)
	assert.Equal(t, domain.WagerFail, second.Status)
	assert.True(t, second.Payout.IsZero())

	a := e.store.Agent(alice.ID)
	assert.Equal(t, "1200.00", a.Balance.StringFixed(2))
	assert.Equal(t, 1, a.TotalBets)
	assert.Equal(t, 1, a.WonBets)
	assert.Equal(t, "1.0000", a.WinRate.StringFixed(4))
	assert.Equal(t, "1.0000", a.ROI.StringFixed(4))

	b := e.store.Agent(bob.ID)
	assert.Equal(t, "1000.00", b.Balance.StringFixed(2))
	assert.Equal(t, 1, b.TotalBets)
	assert.Equal(t, 0, b.WonBets)
	assert.True(t, b.WinRate.IsZero())
	assert.Equal(t, "-1.0000", b.ROI.StringFixed(4))

	sm := e.store.Match(m.ID)
	assert.Equal(t, domain.MatchSettled, sm.Status)
	require.NotNil(t, sm.Winner)
	assert.Equal(t, domain.OutcomeHome, *sm.Winner)
	assert.Equal(t, 2, *sm.ScoreHome)
	assert.NotNil(t, sm.SettledAt)

	assert.Len(t, e.pub.wagers, 2)
	require.Len(t, e.pub.matches, 1)
	assert.Equal(t, rep.RunID, e.pub.matches[0].RunID)
}

func TestSettlementIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.agent(t, "alice", "1000")
	m := e.match(t, 1, time.Date(2026, 10, 13, 12, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	e.wager(t, alice, m, domain.OutcomeDraw, "150", "3.15")
	e.fetcher.finished(1, domain.OutcomeDraw, 1, 1)

	_, err := e.engine.RunWeeklySettlement(ctx)
	require.NoError(t, err)
	afterFirst := e.store.Agent(alice.ID)
	assert.Equal(t, "1472.50", afterFirst.Balance.StringFixed(2))

	rep, err := e.engine.RunWeeklySettlement(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Settled)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, 0, rep.AgentsUpdated)
	assert.Equal(t, 1, e.fetcher.callCount(), "settled matches are not fetched again")

	afterSecond := e.store.Agent(alice.ID)
	assert.True(t, afterFirst.Balance.Equal(afterSecond.Balance))
	assert.Equal(t, afterFirst.TotalBets, afterSecond.TotalBets)
}

func TestSettlementDefersUnfinishedMatches(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.agent(t, "alice", "1000")
	m := e.match(t, 5, time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	w := e.wager(t, alice, m, domain.OutcomeHome, "100", "1.98")

	rep, err := e.engine.RunWeeklySettlement(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Deferred)
	assert.Equal(t, domain.MatchBettingClosed, e.store.Match(m.ID).Status)
	assert.Equal(t, domain.WagerPending, wagerByID(e.store, w.ID).Status)
	assert.Zero(t, e.store.Agent(alice.ID).TotalBets)

	// resultado saiu; a próxima execução liquida
	e.fetcher.finished(5, domain.OutcomeHome, 3, 2)
	rep, err = e.engine.RunWeeklySettlement(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Settled)
	assert.Equal(t, "1198.00", e.store.Agent(alice.ID).Balance.StringFixed(2))
}

func TestSettlementIgnoresMatchesOutsideWindow(t *testing.T) {
	e := newEnv(t)
	e.match(t, 1, time.Date(2026, 10, 11, 23, 59, 0, 0, time.UTC), domain.MatchBettingClosed)
	e.match(t, 2, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	in := e.match(t, 3, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), domain.MatchUpcoming)
	e.fetcher.finished(3, domain.OutcomeAway, 0, 1)

	rep, err := e.engine.RunWeeklySettlement(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Considered)
	assert.Equal(t, []int64{3}, e.fetcher.calls)
	// partida nunca aberta também é liquidada quando o resultado é final
	assert.Equal(t, domain.MatchSettled, e.store.Match(in.ID).Status)
}

func TestSettlementFetchFailureIsIsolated(t *testing.T) {
	e := newEnv(t)
	alice := e.agent(t, "alice", "1000")
	broken := e.match(t, 10, time.Date(2026, 10, 14, 18, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	ok := e.match(t, 11, time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	e.wager(t, alice, broken, domain.OutcomeHome, "100", "2.00")
	e.wager(t, alice, ok, domain.OutcomeHome, "100", "2.50")
	e.fetcher.errs[10] = domain.NewExternal("fetch match 10", errors.New("timeout"))
	e.fetcher.finished(11, domain.OutcomeHome, 1, 0)

	var outcomes []string
	e.engine.Hooks.OnMatch = func(o string) { outcomes = append(outcomes, o) }

	rep, err := e.engine.RunWeeklySettlement(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Deferred)
	assert.Equal(t, 1, rep.Settled)
	assert.Equal(t, []string{"fetch_failed", "settled"}, outcomes)
	assert.Equal(t, domain.MatchBettingClosed, e.store.Match(broken.ID).Status)
	assert.Equal(t, "1250.00", e.store.Agent(alice.ID).Balance.StringFixed(2))
	assert.Equal(t, 2, e.pacer.waits)
}

func TestSettlementTransactionFailureIsIsolated(t *testing.T) {
	e := newEnv(t)
	alice := e.agent(t, "alice", "1000")
	bad := e.match(t, 20, time.Date(2026, 10, 14, 18, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	good := e.match(t, 21, time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	wBad := e.wager(t, alice, bad, domain.OutcomeAway, "200", "3.00")
	e.wager(t, alice, good, domain.OutcomeAway, "100", "3.00")
	e.fetcher.finished(20, domain.OutcomeAway, 0, 2)
	e.fetcher.finished(21, domain.OutcomeAway, 0, 1)

	e.store.Fault = func(op string, id int64) error {
		if op == "SettleMatch" && id == bad.ID {
			return fmt.Errorf("deadlock detected")
		}
		return nil
	}

	rep, err := e.engine.RunWeeklySettlement(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, 1, rep.Settled)

	// nenhuma resolução parcial da partida que falhou
	assert.Equal(t, domain.WagerPending, wagerByID(e.store, wBad.ID).Status)
	assert.Equal(t, domain.MatchBettingClosed, e.store.Match(bad.ID).Status)

	a := e.store.Agent(alice.ID)
	assert.Equal(t, "1300.00", a.Balance.StringFixed(2))
	assert.Equal(t, 1, a.TotalBets, "deltas of a rolled back match are discarded")

	// próxima execução recupera
	e.store.Fault = nil
	rep, err = e.engine.RunWeeklySettlement(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Settled)
	assert.Equal(t, "1900.00", e.store.Agent(alice.ID).Balance.StringFixed(2))
	assert.Equal(t, 2, e.store.Agent(alice.ID).TotalBets)
}

func TestSettlementAggregatesStatsAcrossMatches(t *testing.T) {
	e := newEnv(t)
	alice := e.agent(t, "alice", "1000")
	m1 := e.match(t, 30, time.Date(2026, 10, 12, 15, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	m2 := e.match(t, 31, time.Date(2026, 10, 13, 15, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	m3 := e.match(t, 32, time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	e.wager(t, alice, m1, domain.OutcomeHome, "100", "2.00")
	e.wager(t, alice, m2, domain.OutcomeHome, "100", "2.00")
	e.wager(t, alice, m3, domain.OutcomeDraw, "200", "3.00")
	e.fetcher.finished(30, domain.OutcomeHome, 1, 0)
	e.fetcher.finished(31, domain.OutcomeAway, 0, 1)
	e.fetcher.finished(32, domain.OutcomeHome, 2, 1)

	rep, err := e.engine.RunWeeklySettlement(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Settled)
	assert.Equal(t, 1, rep.AgentsUpdated)

	a := e.store.Agent(alice.ID)
	assert.Equal(t, 3, a.TotalBets)
	assert.Equal(t, 1, a.WonBets)
	assert.Equal(t, "400.00", a.TotalBetAmount.StringFixed(2))
	assert.Equal(t, "200.00", a.TotalWinnings.StringFixed(2))
	assert.Equal(t, "0.3333", a.WinRate.StringFixed(4))
	assert.Equal(t, "-0.5000", a.ROI.StringFixed(4))
	assert.Equal(t, "1200.00", a.Balance.StringFixed(2))
}

func TestSettlementAbortsOnRejectedCredentials(t *testing.T) {
	e := newEnv(t)
	alice := e.agent(t, "alice", "1000")
	first := e.match(t, 40, time.Date(2026, 10, 12, 15, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	e.match(t, 41, time.Date(2026, 10, 13, 15, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	e.match(t, 42, time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	e.wager(t, alice, first, domain.OutcomeHome, "100", "2.00")
	e.fetcher.finished(40, domain.OutcomeHome, 1, 0)
	e.fetcher.errs[41] = fmt.Errorf("%w (http 403)", results.ErrUnauthorized)

	var runResult string
	e.engine.Hooks.OnRun = func(r string, _ time.Duration) { runResult = r }

	rep, err := e.engine.RunWeeklySettlement(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, results.ErrUnauthorized))
	assert.Equal(t, []int64{40, 41}, e.fetcher.calls)
	assert.Equal(t, "error", runResult)
	assert.Equal(t, 1, rep.Settled)
	assert.Equal(t, 1, rep.AgentsUpdated)

	// a partida liquidada antes do abort leva as estatísticas junto
	a := e.store.Agent(alice.ID)
	assert.Equal(t, domain.MatchSettled, e.store.Match(first.ID).Status)
	assert.Equal(t, "1200.00", a.Balance.StringFixed(2))
	assert.Equal(t, 1, a.TotalBets)
	assert.Equal(t, 1, a.WonBets)
	assert.Equal(t, "100.00", a.TotalBetAmount.StringFixed(2))
	assert.Equal(t, "200.00", a.TotalWinnings.StringFixed(2))

	// execução seguinte não conta de novo
	delete(e.fetcher.errs, 41)
	_, err = e.engine.RunWeeklySettlement(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, e.store.Agent(alice.ID).TotalBets)
}

// cancelingPacer cancela o contexto na n-ésima espera, como um SIGTERM no meio da execução
type cancelingPacer struct {
	n      int
	waits  int
	cancel context.CancelFunc
}

func (p *cancelingPacer) Wait(ctx context.Context) error {
	p.waits++
	if p.waits == p.n {
		p.cancel()
	}
	return ctx.Err()
}

func TestSettlementInterruptedRunKeepsStats(t *testing.T) {
	e := newEnv(t)
	alice := e.agent(t, "alice", "1000")
	m1 := e.match(t, 80, time.Date(2026, 10, 12, 15, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	m2 := e.match(t, 81, time.Date(2026, 10, 13, 15, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	e.wager(t, alice, m1, domain.OutcomeHome, "100", "2.00")
	w2 := e.wager(t, alice, m2, domain.OutcomeAway, "100", "3.00")
	e.fetcher.finished(80, domain.OutcomeHome, 2, 0)
	e.fetcher.finished(81, domain.OutcomeAway, 0, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.engine.Pacer = &cancelingPacer{n: 2, cancel: cancel}

	rep, err := e.engine.RunWeeklySettlement(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, rep.Settled)
	assert.Equal(t, 1, rep.AgentsUpdated)
	assert.Equal(t, domain.WagerPending, wagerByID(e.store, w2.ID).Status)

	a := e.store.Agent(alice.ID)
	assert.Equal(t, 1, a.TotalBets)
	assert.Equal(t, "1200.00", a.Balance.StringFixed(2))

	e.engine.Pacer = &countingPacer{}
	_, err = e.engine.RunWeeklySettlement(context.Background())
	require.NoError(t, err)
	a = e.store.Agent(alice.ID)
	assert.Equal(t, 2, a.TotalBets)
	assert.Equal(t, 2, a.WonBets)
	assert.Equal(t, "1500.00", a.Balance.StringFixed(2))
}

func TestSettlementLogsDeltaWhenStatsFail(t *testing.T) {
	e := newEnv(t)
	core, logs := observer.New(zap.ErrorLevel)
	e.engine.Log = zap.New(core)
	alice := e.agent(t, "alice", "1000")
	m := e.match(t, 90, time.Date(2026, 10, 15, 15, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	e.wager(t, alice, m, domain.OutcomeDraw, "150", "3.00")
	e.fetcher.finished(90, domain.OutcomeDraw, 1, 1)

	e.store.Fault = func(op string, id int64) error {
		if op == "UpdateAgentStats" {
			return fmt.Errorf("connection reset")
		}
		return nil
	}

	rep, err := e.engine.RunWeeklySettlement(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Settled)
	assert.Equal(t, 1, rep.StatsFailed)

	entries := logs.FilterMessage("agent stats update failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, alice.ID, fields["agentId"])
	assert.EqualValues(t, 1, fields["resolved"])
	assert.EqualValues(t, 1, fields["won"])
	assert.Equal(t, "150.00", fields["staked"])
	assert.Equal(t, "450.00", fields["winnings"])
}

type blockingPacer struct {
	entered chan struct{}
	release chan struct{}
}

func (p *blockingPacer) Wait(ctx context.Context) error {
	close(p.entered)
	select {
	case <-p.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestSettlementRejectsConcurrentRun(t *testing.T) {
	e := newEnv(t)
	e.match(t, 50, time.Date(2026, 10, 12, 15, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	bp := &blockingPacer{entered: make(chan struct{}), release: make(chan struct{})}
	e.engine.Pacer = bp

	done := make(chan error, 1)
	go func() {
		_, err := e.engine.RunWeeklySettlement(context.Background())
		done <- err
	}()
	<-bp.entered
	assert.True(t, e.engine.Running())

	_, err := e.engine.RunWeeklySettlement(context.Background())
	assert.ErrorIs(t, err, settlement.ErrRunInProgress)

	close(bp.release)
	require.NoError(t, <-done)
	assert.False(t, e.engine.Running())
}

type heldLock struct{ acquired int }

func (l *heldLock) Acquire(context.Context) (settlement.Lease, bool, error) {
	l.acquired++
	return nil, false, nil
}

func TestSettlementRespectsDistributedLock(t *testing.T) {
	e := newEnv(t)
	e.match(t, 60, time.Date(2026, 10, 12, 15, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	lock := &heldLock{}
	e.engine.Lock = lock

	_, err := e.engine.RunWeeklySettlement(context.Background())
	assert.ErrorIs(t, err, settlement.ErrRunInProgress)
	assert.Equal(t, 1, lock.acquired)
	assert.Zero(t, e.fetcher.callCount())
}

type recordingLease struct {
	extends    int
	releases   int
	releaseErr error
}

func (l *recordingLease) Extend(context.Context) error { l.extends++; return nil }

func (l *recordingLease) Release(context.Context) error {
	l.releases++
	return l.releaseErr
}

type grantedLock struct{ lease *recordingLease }

func (l grantedLock) Acquire(context.Context) (settlement.Lease, bool, error) {
	return l.lease, true, nil
}

func TestSettlementRefreshesAndReleasesLock(t *testing.T) {
	e := newEnv(t)
	core, logs := observer.New(zap.WarnLevel)
	e.engine.Log = zap.New(core)
	e.match(t, 61, time.Date(2026, 10, 12, 15, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	e.match(t, 62, time.Date(2026, 10, 13, 15, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	e.match(t, 63, time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC), domain.MatchBettingClosed)
	lease := &recordingLease{releaseErr: settlement.ErrLockLost}
	e.engine.Lock = grantedLock{lease: lease}

	_, err := e.engine.RunWeeklySettlement(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, lease.extends, "one refresh per fetched match")
	assert.Equal(t, 1, lease.releases)
	assert.Equal(t, 1, logs.FilterMessage("settlement run lock release failed").Len())
}

func TestSettlementClosesExpiredMatchesFirst(t *testing.T) {
	e := newEnv(t)
	e.engine.Lifecycle = lifecycle.NewManager(e.store, clock.NewFixed(runAt), zap.NewNop())
	stale := e.match(t, 70, time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC), domain.MatchBettingOpen)

	rep, err := e.engine.RunWeeklySettlement(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Deferred)
	assert.Equal(t, domain.MatchBettingClosed, e.store.Match(stale.ID).Status)
}
