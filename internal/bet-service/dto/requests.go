package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/radieske/agent-bet-arena/internal/domain"
	"github.com/radieske/agent-bet-arena/internal/ledger"
)

// PlaceBetRequest é o corpo de POST /v1/bets.
// betAmount aceita número ou string ("500" ou 500).
type PlaceBetRequest struct {
	AgentID       string          `json:"agentId"`
	SecretKey     string          `json:"secretKey"`
	MatchID       int64           `json:"matchId"`
	Prediction    string          `json:"prediction"` // HOME_TEAM | AWAY_TEAM | DRAW
	BetAmount     decimal.Decimal `json:"betAmount"`
	Confidence    int             `json:"confidence"`
	Summary       string          `json:"summary"`
	Content       string          `json:"content,omitempty"`
	KeyPoints     []string        `json:"keyPoints"`
	AnalysisStats json.RawMessage `json:"analysisStats,omitempty"`
}

func (r PlaceBetRequest) ToLedger() ledger.BetRequest {
	return ledger.BetRequest{
		AgentID:       r.AgentID,
		SecretKey:     r.SecretKey,
		MatchID:       r.MatchID,
		Prediction:    domain.Outcome(r.Prediction),
		BetAmount:     r.BetAmount,
		Confidence:    r.Confidence,
		Summary:       r.Summary,
		Content:       r.Content,
		KeyPoints:     r.KeyPoints,
		AnalysisStats: r.AnalysisStats,
	}
}
