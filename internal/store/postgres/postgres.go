package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/radieske/agent-bet-arena/internal/domain"
	"github.com/radieske/agent-bet-arena/internal/ports"
)

// Store implementa ports.Store sobre Postgres (database/sql + lib/pq).
// Os novos valores (saldo, pools, odds) são calculados em Go e gravados
// como absolutos sob o lock da linha.
type Store struct{ db *sql.DB }

var _ ports.Store = (*Store)(nil)

func New(db *sql.DB) *Store { return &Store{db: db} }

// InTx abre a transação (READ COMMITTED) e faz rollback se fn falhar
func (s *Store) InTx(ctx context.Context, fn func(tx ports.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// queryer é o que *sql.DB e *sql.Tx têm em comum
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const agentCols = `id, agent_id, name, secret_key, balance, total_bets, won_bets,
	total_bet_amount, total_winnings, win_rate, roi, created_at, updated_at`

const matchCols = `id, api_id, home_team, away_team, utc_date, status,
	pool_home, pool_draw, pool_away, odds_home, odds_draw, odds_away,
	winner, score_home, score_away, settled_at`

const wagerCols = `id, agent_id, match_id, prediction, bet_amount, bet_odd, confidence,
	summary, content, key_points, analysis_stats, status, payout, created_at, settled_at`

type scanner interface{ Scan(dest ...any) error }

func scanAgent(r scanner) (domain.Agent, error) {
	var a domain.Agent
	err := r.Scan(&a.ID, &a.AgentID, &a.Name, &a.SecretKey, &a.Balance, &a.TotalBets, &a.WonBets,
		&a.TotalBetAmount, &a.TotalWinnings, &a.WinRate, &a.ROI, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func scanMatch(r scanner) (domain.Match, error) {
	var (
		m          domain.Match
		status     string
		winner     sql.NullString
		home, away sql.NullInt64
		settledAt  sql.NullTime
	)
	err := r.Scan(&m.ID, &m.APIID, &m.HomeTeam, &m.AwayTeam, &m.Kickoff, &status,
		&m.PoolHome, &m.PoolDraw, &m.PoolAway, &m.OddsHome, &m.OddsDraw, &m.OddsAway,
		&winner, &home, &away, &settledAt)
	if err != nil {
		return m, err
	}
	m.Status = domain.MatchStatus(status)
	m.Kickoff = m.Kickoff.UTC()
	if winner.Valid {
		o := domain.Outcome(winner.String)
		m.Winner = &o
	}
	if home.Valid {
		v := int(home.Int64)
		m.ScoreHome = &v
	}
	if away.Valid {
		v := int(away.Int64)
		m.ScoreAway = &v
	}
	if settledAt.Valid {
		t := settledAt.Time.UTC()
		m.SettledAt = &t
	}
	return m, nil
}

func scanWager(r scanner) (domain.Wager, error) {
	var (
		w                  domain.Wager
		prediction, status string
		keyPoints          pq.StringArray
		stats              []byte
		settledAt          sql.NullTime
	)
	err := r.Scan(&w.ID, &w.AgentID, &w.MatchID, &prediction, &w.BetAmount, &w.BetOdd, &w.Confidence,
		&w.Summary, &w.Content, &keyPoints, &stats, &status, &w.Payout, &w.CreatedAt, &settledAt)
	if err != nil {
		return w, err
	}
	w.Prediction = domain.Outcome(prediction)
	w.Status = domain.WagerStatus(status)
	w.KeyPoints = []string(keyPoints)
	w.AnalysisStats = stats
	if settledAt.Valid {
		t := settledAt.Time.UTC()
		w.SettledAt = &t
	}
	return w, nil
}

func notFound(err error, what string, key any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, key, ports.ErrNotFound)
	}
	return err
}

func getAgentByAgentID(ctx context.Context, q queryer, agentID string, lock bool) (domain.Agent, error) {
	query := `SELECT ` + agentCols + ` FROM agents WHERE agent_id=$1`
	if lock {
		query += ` FOR UPDATE`
	}
	a, err := scanAgent(q.QueryRowContext(ctx, query, agentID))
	return a, notFound(err, "agent", agentID)
}

func getMatch(ctx context.Context, q queryer, id int64, lock bool) (domain.Match, error) {
	query := `SELECT ` + matchCols + ` FROM matches WHERE id=$1`
	if lock {
		query += ` FOR UPDATE`
	}
	m, err := scanMatch(q.QueryRowContext(ctx, query, id))
	return m, notFound(err, "match", id)
}

func listMatches(ctx context.Context, q queryer, query string, args ...any) ([]domain.Match, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func listWagers(ctx context.Context, q queryer, query string, args ...any) ([]domain.Wager, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ---- leituras sem lock

func (s *Store) AgentByAgentID(ctx context.Context, agentID string) (domain.Agent, error) {
	return getAgentByAgentID(ctx, s.db, agentID, false)
}

func (s *Store) CreateAgent(ctx context.Context, a domain.Agent) (domain.Agent, error) {
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO agents (agent_id, name, secret_key, balance, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$5)
		RETURNING `+agentCols,
		a.AgentID, a.Name, a.SecretKey, a.Balance, created)
	out, err := scanAgent(row)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return domain.Agent{}, fmt.Errorf("agent %q: %w", a.AgentID, ports.ErrDuplicate)
	}
	return out, err
}

func (s *Store) TopAgents(ctx context.Context, limit int) ([]domain.Agent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+agentCols+` FROM agents ORDER BY balance DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) MatchByID(ctx context.Context, id int64) (domain.Match, error) {
	return getMatch(ctx, s.db, id, false)
}

func (s *Store) CreateMatch(ctx context.Context, m domain.Match) (domain.Match, error) {
	status := m.Status
	if status == "" {
		status = domain.MatchUpcoming
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO matches (api_id, home_team, away_team, utc_date, status)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (api_id) DO UPDATE SET home_team=EXCLUDED.home_team, away_team=EXCLUDED.away_team, utc_date=EXCLUDED.utc_date
		RETURNING `+matchCols,
		m.APIID, m.HomeTeam, m.AwayTeam, m.Kickoff.UTC(), string(status))
	return scanMatch(row)
}

func (s *Store) MatchesByKickoff(ctx context.Context, from, to time.Time) ([]domain.Match, error) {
	return listMatches(ctx, s.db,
		`SELECT `+matchCols+` FROM matches WHERE utc_date >= $1 AND utc_date <= $2 ORDER BY utc_date, id`,
		from.UTC(), to.UTC())
}

func (s *Store) MatchesByStatus(ctx context.Context, status domain.MatchStatus) ([]domain.Match, error) {
	return listMatches(ctx, s.db,
		`SELECT `+matchCols+` FROM matches WHERE status=$1 ORDER BY utc_date, id`, string(status))
}

func (s *Store) WagersByMatch(ctx context.Context, matchID int64) ([]domain.Wager, error) {
	return listWagers(ctx, s.db, `SELECT `+wagerCols+` FROM predictions WHERE match_id=$1 ORDER BY id`, matchID)
}

// InsertOddsSnapshot é idempotente por wager_id (reentrega do Kafka)
func (s *Store) InsertOddsSnapshot(ctx context.Context, snap ports.OddsSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO odds_history (match_id, wager_id, prediction, odds_home, odds_draw, odds_away, placed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (wager_id) DO NOTHING`,
		snap.MatchID, snap.WagerID, string(snap.Prediction),
		snap.OddsHome, snap.OddsDraw, snap.OddsAway, snap.PlacedAt.UTC())
	return err
}

// ---- transação

type pgTx struct{ tx *sql.Tx }

func (t *pgTx) AgentByAgentID(ctx context.Context, agentID string) (domain.Agent, error) {
	return getAgentByAgentID(ctx, t.tx, agentID, false)
}

func (t *pgTx) AgentForUpdate(ctx context.Context, id int64) (domain.Agent, error) {
	a, err := scanAgent(t.tx.QueryRowContext(ctx, `SELECT `+agentCols+` FROM agents WHERE id=$1 FOR UPDATE`, id))
	return a, notFound(err, "agent", id)
}

func (t *pgTx) MatchForUpdate(ctx context.Context, id int64) (domain.Match, error) {
	return getMatch(ctx, t.tx, id, true)
}

func (t *pgTx) UpdateAgentBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	return execOne(ctx, t.tx, `UPDATE agents SET balance=$1, updated_at=NOW() WHERE id=$2`, balance, id)
}

func (t *pgTx) UpdateAgentStats(ctx context.Context, a domain.Agent) error {
	return execOne(ctx, t.tx, `
		UPDATE agents SET
		  total_bets=$1, won_bets=$2, total_bet_amount=$3, total_winnings=$4,
		  win_rate=$5, roi=$6, updated_at=NOW()
		WHERE id=$7`,
		a.TotalBets, a.WonBets, a.TotalBetAmount, a.TotalWinnings, a.WinRate, a.ROI, a.ID)
}

func (t *pgTx) UpdateMatchStatus(ctx context.Context, id int64, status domain.MatchStatus) error {
	return execOne(ctx, t.tx, `UPDATE matches SET status=$1 WHERE id=$2`, string(status), id)
}

func (t *pgTx) UpdateMatchMarket(ctx context.Context, m domain.Match) error {
	return execOne(ctx, t.tx, `
		UPDATE matches SET
		  pool_home=$1, pool_draw=$2, pool_away=$3,
		  odds_home=$4, odds_draw=$5, odds_away=$6
		WHERE id=$7`,
		m.PoolHome, m.PoolDraw, m.PoolAway, m.OddsHome, m.OddsDraw, m.OddsAway, m.ID)
}

func (t *pgTx) SettleMatch(ctx context.Context, id int64, r domain.FixtureResult, at time.Time) error {
	var winner sql.NullString
	if r.Winner != nil {
		winner = sql.NullString{String: string(*r.Winner), Valid: true}
	}
	return execOne(ctx, t.tx, `
		UPDATE matches SET status=$1, winner=$2, score_home=$3, score_away=$4, settled_at=$5
		WHERE id=$6`,
		string(domain.MatchSettled), winner, nullInt(r.ScoreHome), nullInt(r.ScoreAway), at.UTC(), id)
}

func (t *pgTx) CreateWager(ctx context.Context, w domain.Wager) (domain.Wager, error) {
	created := w.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	stats := w.AnalysisStats
	if len(stats) == 0 {
		stats = []byte("{}")
	}
	row := t.tx.QueryRowContext(ctx, `
		INSERT INTO predictions
		  (agent_id, match_id, prediction, bet_amount, bet_odd, confidence, summary, content, key_points, analysis_stats, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING `+wagerCols,
		w.AgentID, w.MatchID, string(w.Prediction), w.BetAmount, w.BetOdd, w.Confidence,
		w.Summary, w.Content, pq.Array(w.KeyPoints), stats, string(domain.WagerPending), created.UTC())
	return scanWager(row)
}

func (t *pgTx) PendingWagersForUpdate(ctx context.Context, matchID int64) ([]domain.Wager, error) {
	return listWagers(ctx, t.tx,
		`SELECT `+wagerCols+` FROM predictions WHERE match_id=$1 AND status=$2 ORDER BY id FOR UPDATE`,
		matchID, string(domain.WagerPending))
}

// ResolveWager só altera apostas PENDING; 0 linhas afetadas é erro
func (t *pgTx) ResolveWager(ctx context.Context, id int64, status domain.WagerStatus, payout decimal.Decimal, at time.Time) error {
	return execOne(ctx, t.tx, `
		UPDATE predictions SET status=$1, payout=$2, settled_at=$3
		WHERE id=$4 AND status='PENDING'`,
		string(status), payout, at.UTC(), id)
}

func execOne(ctx context.Context, q queryer, query string, args ...any) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("expected 1 row affected, got %d: %w", n, ports.ErrNotFound)
	}
	return nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
