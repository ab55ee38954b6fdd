package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type WagerStatus string

const (
	WagerPending WagerStatus = "PENDING"
	WagerSuccess WagerStatus = "SUCCESS"
	WagerFail    WagerStatus = "FAIL"
)

// Wager (prediction) guarda a aposta com a odd congelada no momento da colocação.
// Stake e BetOdd são imutáveis; Status sai de PENDING uma única vez, na liquidação.
type Wager struct {
	ID         int64
	AgentID    int64 // FK agents.id
	MatchID    int64 // FK matches.id
	Prediction Outcome
	BetAmount  decimal.Decimal
	BetOdd     decimal.Decimal

	Confidence    int
	Summary       string
	Content       string
	KeyPoints     []string
	AnalysisStats json.RawMessage

	Status    WagerStatus
	Payout    decimal.Decimal
	CreatedAt time.Time
	SettledAt *time.Time
}
