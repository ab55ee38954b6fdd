package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type MatchStatus string

const (
	MatchUpcoming      MatchStatus = "UPCOMING"
	MatchBettingOpen   MatchStatus = "BETTING_OPEN"
	MatchBettingClosed MatchStatus = "BETTING_CLOSED"
	MatchSettled       MatchStatus = "SETTLED"
)

// Match é a partida persistida, com os pools reais e as odds cotadas vigentes.
type Match struct {
	ID       int64
	APIID    int64 // id da partida no provedor externo (football-data)
	HomeTeam string
	AwayTeam string
	Kickoff  time.Time
	Status   MatchStatus

	PoolHome decimal.Decimal
	PoolDraw decimal.Decimal
	PoolAway decimal.Decimal

	OddsHome decimal.Decimal
	OddsDraw decimal.Decimal
	OddsAway decimal.Decimal

	Winner    *Outcome
	ScoreHome *int
	ScoreAway *int
	SettledAt *time.Time
}
