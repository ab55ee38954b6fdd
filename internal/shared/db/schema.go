package db

// Schema do núcleo de apostas. Valores monetários e odds sempre NUMERIC.
const Schema = `
CREATE TABLE IF NOT EXISTS agents (
	id               BIGSERIAL PRIMARY KEY,
	agent_id         TEXT NOT NULL UNIQUE,
	name             TEXT NOT NULL,
	secret_key       TEXT NOT NULL,
	balance          NUMERIC(18,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
	total_bets       INTEGER NOT NULL DEFAULT 0,
	won_bets         INTEGER NOT NULL DEFAULT 0,
	total_bet_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
	total_winnings   NUMERIC(18,2) NOT NULL DEFAULT 0,
	win_rate         NUMERIC(8,4) NOT NULL DEFAULT 0,
	roi              NUMERIC(12,4) NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS matches (
	id          BIGSERIAL PRIMARY KEY,
	api_id      BIGINT NOT NULL UNIQUE,
	home_team   TEXT NOT NULL,
	away_team   TEXT NOT NULL,
	utc_date    TIMESTAMPTZ NOT NULL,
	status      TEXT NOT NULL DEFAULT 'UPCOMING',
	pool_home   NUMERIC(18,2) NOT NULL DEFAULT 0,
	pool_draw   NUMERIC(18,2) NOT NULL DEFAULT 0,
	pool_away   NUMERIC(18,2) NOT NULL DEFAULT 0,
	odds_home   NUMERIC(10,2) NOT NULL DEFAULT 2.52,
	odds_draw   NUMERIC(10,2) NOT NULL DEFAULT 3.15,
	odds_away   NUMERIC(10,2) NOT NULL DEFAULT 2.52,
	winner      TEXT,
	score_home  INTEGER,
	score_away  INTEGER,
	settled_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_matches_utc_date ON matches (utc_date);
CREATE INDEX IF NOT EXISTS idx_matches_status ON matches (status);

CREATE TABLE IF NOT EXISTS predictions (
	id             BIGSERIAL PRIMARY KEY,
	agent_id       BIGINT NOT NULL REFERENCES agents(id),
	match_id       BIGINT NOT NULL REFERENCES matches(id),
	prediction     TEXT NOT NULL,
	bet_amount     NUMERIC(18,2) NOT NULL CHECK (bet_amount > 0),
	bet_odd        NUMERIC(10,2) NOT NULL,
	confidence     INTEGER NOT NULL,
	summary        VARCHAR(100) NOT NULL,
	content        TEXT NOT NULL DEFAULT '',
	key_points     TEXT[] NOT NULL DEFAULT '{}',
	analysis_stats JSONB NOT NULL DEFAULT '{}',
	status         TEXT NOT NULL DEFAULT 'PENDING',
	payout         NUMERIC(18,2) NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	settled_at     TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_predictions_match_status ON predictions (match_id, status);

CREATE TABLE IF NOT EXISTS odds_history (
	id          BIGSERIAL PRIMARY KEY,
	match_id    BIGINT NOT NULL REFERENCES matches(id),
	wager_id    BIGINT NOT NULL UNIQUE,
	prediction  TEXT NOT NULL,
	odds_home   NUMERIC(10,2) NOT NULL,
	odds_draw   NUMERIC(10,2) NOT NULL,
	odds_away   NUMERIC(10,2) NOT NULL,
	placed_at   TIMESTAMPTZ NOT NULL
);
`
