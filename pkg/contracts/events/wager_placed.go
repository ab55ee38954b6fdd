package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Evento emitido pelo bet-service após o commit de uma aposta.
// Odds* é a cotação da partida já com o stake desta aposta.
type WagerPlaced struct {
	WagerID    int64           `json:"wagerId"`
	AgentID    string          `json:"agentId"`
	MatchID    int64           `json:"matchId"`
	Prediction string          `json:"prediction"` // HOME_TEAM | AWAY_TEAM | DRAW
	BetAmount  decimal.Decimal `json:"betAmount"`
	BetOdd     decimal.Decimal `json:"betOdd"`
	OddsHome   decimal.Decimal `json:"oddsHome"`
	OddsDraw   decimal.Decimal `json:"oddsDraw"`
	OddsAway   decimal.Decimal `json:"oddsAway"`
	PlacedAt   time.Time       `json:"placedAt"`
}
