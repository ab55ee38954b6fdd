package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Evento emitido pelo settlement-worker para cada aposta resolvida
type WagerSettled struct {
	WagerID   int64           `json:"wagerId"`
	AgentID   int64           `json:"agentId"`
	MatchID   int64           `json:"matchId"`
	Status    string          `json:"status"` // "SUCCESS" | "FAIL"
	BetAmount decimal.Decimal `json:"betAmount"`
	Payout    decimal.Decimal `json:"payout"`
	SettledAt time.Time       `json:"settledAt"`
}
