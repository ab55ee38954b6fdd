// Package memstore é uma implementação em memória de ports.Store.
// Transações são serializadas por um mutex e trabalham numa cópia do estado,
// descartada em caso de erro.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/agent-bet-arena/internal/domain"
	"github.com/radieske/agent-bet-arena/internal/odds"
	"github.com/radieske/agent-bet-arena/internal/ports"
)

type state struct {
	agents    map[int64]domain.Agent
	matches   map[int64]domain.Match
	wagers    map[int64]domain.Wager
	snapshots []ports.OddsSnapshot

	nextAgent, nextMatch, nextWager int64
}

func (s *state) clone() *state {
	c := &state{
		agents:    make(map[int64]domain.Agent, len(s.agents)),
		matches:   make(map[int64]domain.Match, len(s.matches)),
		wagers:    make(map[int64]domain.Wager, len(s.wagers)),
		snapshots: append([]ports.OddsSnapshot(nil), s.snapshots...),
		nextAgent: s.nextAgent,
		nextMatch: s.nextMatch,
		nextWager: s.nextWager,
	}
	for k, v := range s.agents {
		c.agents[k] = v
	}
	for k, v := range s.matches {
		c.matches[k] = v
	}
	for k, v := range s.wagers {
		c.wagers[k] = v
	}
	return c
}

type Store struct {
	mu sync.Mutex
	st *state

	// Fault, quando definido, é consultado em cada escrita da transação
	// (op = nome do método, id = linha afetada). Um erro devolvido aborta a tx.
	Fault func(op string, id int64) error
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: &state{
		agents:  map[int64]domain.Agent{},
		matches: map[int64]domain.Match{},
		wagers:  map[int64]domain.Wager{},
	}}
}

func (s *Store) InTx(ctx context.Context, fn func(tx ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&tx{st: work, fault: s.Fault}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) AgentByAgentID(_ context.Context, agentID string) (domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.agentByAgentID(agentID)
}

func (s *Store) CreateAgent(_ context.Context, a domain.Agent) (domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.st.agentByAgentID(a.AgentID); err == nil {
		return domain.Agent{}, fmt.Errorf("memstore: agent %q: %w", a.AgentID, ports.ErrDuplicate)
	}
	s.st.nextAgent++
	a.ID = s.st.nextAgent
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	s.st.agents[a.ID] = a
	return a, nil
}

func (s *Store) TopAgents(_ context.Context, limit int) ([]domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Agent, 0, len(s.st.agents))
	for _, a := range s.st.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Balance.Equal(out[j].Balance) {
			return out[i].Balance.GreaterThan(out[j].Balance)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MatchByID(_ context.Context, id int64) (domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.match(id)
}

func (s *Store) CreateMatch(_ context.Context, m domain.Match) (domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.APIID != 0 {
		for id, cur := range s.st.matches {
			if cur.APIID == m.APIID {
				cur.HomeTeam, cur.AwayTeam, cur.Kickoff = m.HomeTeam, m.AwayTeam, m.Kickoff.UTC()
				s.st.matches[id] = cur
				return cur, nil
			}
		}
	}
	s.st.nextMatch++
	m.ID = s.st.nextMatch
	if m.Status == "" {
		m.Status = domain.MatchUpcoming
	}
	if m.OddsHome.IsZero() && m.OddsDraw.IsZero() && m.OddsAway.IsZero() {
		odds.Apply(&m, odds.PoolsOf(m), odds.Quote(odds.PoolsOf(m)))
	}
	m.Kickoff = m.Kickoff.UTC()
	s.st.matches[m.ID] = m
	return m, nil
}

func (s *Store) MatchesByKickoff(_ context.Context, from, to time.Time) ([]domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Match
	for _, m := range s.st.matches {
		if !m.Kickoff.Before(from) && !m.Kickoff.After(to) {
			out = append(out, m)
		}
	}
	sortMatches(out)
	return out, nil
}

func (s *Store) MatchesByStatus(_ context.Context, status domain.MatchStatus) ([]domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Match
	for _, m := range s.st.matches {
		if m.Status == status {
			out = append(out, m)
		}
	}
	sortMatches(out)
	return out, nil
}

func (s *Store) WagersByMatch(_ context.Context, matchID int64) ([]domain.Wager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.wagersOf(matchID, ""), nil
}

func (s *Store) InsertOddsSnapshot(_ context.Context, snap ports.OddsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.st.snapshots {
		if cur.WagerID == snap.WagerID {
			return nil
		}
	}
	s.st.snapshots = append(s.st.snapshots, snap)
	return nil
}

// Helpers de inspeção para testes

func (s *Store) Agent(id int64) domain.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.agents[id]
}

func (s *Store) Match(id int64) domain.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.matches[id]
}

func (s *Store) Wagers() []domain.Wager {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Wager, 0, len(s.st.wagers))
	for _, w := range s.st.wagers {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Snapshots() []ports.OddsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.OddsSnapshot(nil), s.st.snapshots...)
}

func (st *state) agentByAgentID(agentID string) (domain.Agent, error) {
	for _, a := range st.agents {
		if a.AgentID == agentID {
			return a, nil
		}
	}
	return domain.Agent{}, fmt.Errorf("agent %q: %w", agentID, ports.ErrNotFound)
}

func (st *state) agent(id int64) (domain.Agent, error) {
	a, ok := st.agents[id]
	if !ok {
		return domain.Agent{}, fmt.Errorf("agent %d: %w", id, ports.ErrNotFound)
	}
	return a, nil
}

func (st *state) match(id int64) (domain.Match, error) {
	m, ok := st.matches[id]
	if !ok {
		return domain.Match{}, fmt.Errorf("match %d: %w", id, ports.ErrNotFound)
	}
	return m, nil
}

func (st *state) wagersOf(matchID int64, status domain.WagerStatus) []domain.Wager {
	var out []domain.Wager
	for _, w := range st.wagers {
		if w.MatchID == matchID && (status == "" || w.Status == status) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortMatches(ms []domain.Match) {
	sort.Slice(ms, func(i, j int) bool {
		if !ms[i].Kickoff.Equal(ms[j].Kickoff) {
			return ms[i].Kickoff.Before(ms[j].Kickoff)
		}
		return ms[i].ID < ms[j].ID
	})
}

type tx struct {
	st    *state
	fault func(op string, id int64) error
}

func (t *tx) check(op string, id int64) error {
	if t.fault == nil {
		return nil
	}
	return t.fault(op, id)
}

func (t *tx) AgentByAgentID(_ context.Context, agentID string) (domain.Agent, error) {
	return t.st.agentByAgentID(agentID)
}

func (t *tx) AgentForUpdate(_ context.Context, id int64) (domain.Agent, error) {
	return t.st.agent(id)
}

func (t *tx) MatchForUpdate(_ context.Context, id int64) (domain.Match, error) {
	return t.st.match(id)
}

func (t *tx) UpdateAgentBalance(_ context.Context, id int64, balance decimal.Decimal) error {
	if err := t.check("UpdateAgentBalance", id); err != nil {
		return err
	}
	a, err := t.st.agent(id)
	if err != nil {
		return err
	}
	if balance.IsNegative() {
		return fmt.Errorf("memstore: agent %d balance would be negative (%s)", id, balance)
	}
	a.Balance = balance
	a.UpdatedAt = time.Now().UTC()
	t.st.agents[id] = a
	return nil
}

func (t *tx) UpdateAgentStats(_ context.Context, in domain.Agent) error {
	if err := t.check("UpdateAgentStats", in.ID); err != nil {
		return err
	}
	a, err := t.st.agent(in.ID)
	if err != nil {
		return err
	}
	a.TotalBets = in.TotalBets
	a.WonBets = in.WonBets
	a.TotalBetAmount = in.TotalBetAmount
	a.TotalWinnings = in.TotalWinnings
	a.WinRate = in.WinRate
	a.ROI = in.ROI
	a.UpdatedAt = time.Now().UTC()
	t.st.agents[in.ID] = a
	return nil
}

func (t *tx) UpdateMatchStatus(_ context.Context, id int64, status domain.MatchStatus) error {
	if err := t.check("UpdateMatchStatus", id); err != nil {
		return err
	}
	m, err := t.st.match(id)
	if err != nil {
		return err
	}
	m.Status = status
	t.st.matches[id] = m
	return nil
}

func (t *tx) UpdateMatchMarket(_ context.Context, in domain.Match) error {
	if err := t.check("UpdateMatchMarket", in.ID); err != nil {
		return err
	}
	m, err := t.st.match(in.ID)
	if err != nil {
		return err
	}
	m.PoolHome, m.PoolDraw, m.PoolAway = in.PoolHome, in.PoolDraw, in.PoolAway
	m.OddsHome, m.OddsDraw, m.OddsAway = in.OddsHome, in.OddsDraw, in.OddsAway
	t.st.matches[in.ID] = m
	return nil
}

func (t *tx) SettleMatch(_ context.Context, id int64, r domain.FixtureResult, at time.Time) error {
	if err := t.check("SettleMatch", id); err != nil {
		return err
	}
	m, err := t.st.match(id)
	if err != nil {
		return err
	}
	at = at.UTC()
	m.Status = domain.MatchSettled
	m.Winner = r.Winner
	m.ScoreHome = r.ScoreHome
	m.ScoreAway = r.ScoreAway
	m.SettledAt = &at
	t.st.matches[id] = m
	return nil
}

func (t *tx) CreateWager(_ context.Context, w domain.Wager) (domain.Wager, error) {
	if err := t.check("CreateWager", w.MatchID); err != nil {
		return domain.Wager{}, err
	}
	t.st.nextWager++
	w.ID = t.st.nextWager
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	t.st.wagers[w.ID] = w
	return w, nil
}

func (t *tx) PendingWagersForUpdate(_ context.Context, matchID int64) ([]domain.Wager, error) {
	return t.st.wagersOf(matchID, domain.WagerPending), nil
}

func (t *tx) ResolveWager(_ context.Context, id int64, status domain.WagerStatus, payout decimal.Decimal, at time.Time) error {
	if err := t.check("ResolveWager", id); err != nil {
		return err
	}
	w, ok := t.st.wagers[id]
	if !ok {
		return fmt.Errorf("wager %d: %w", id, ports.ErrNotFound)
	}
	if w.Status != domain.WagerPending {
		return fmt.Errorf("memstore: wager %d already %s", id, w.Status)
	}
	at = at.UTC()
	w.Status = status
	w.Payout = payout
	w.SettledAt = &at
	t.st.wagers[id] = w
	return nil
}
