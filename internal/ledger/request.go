package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/radieske/agent-bet-arena/internal/domain"
)

const MaxSummaryLen = 100

// BetRequest é o pedido de aposta já decodificado pelo transporte
type BetRequest struct {
	AgentID       string
	SecretKey     string
	MatchID       int64
	Prediction    domain.Outcome
	BetAmount     decimal.Decimal
	Confidence    int
	Summary       string
	Content       string
	KeyPoints     []string
	AnalysisStats json.RawMessage
}

// Validate faz a checagem de formato, antes de qualquer acesso ao store
func (r BetRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.AgentID) == "" || r.SecretKey == "":
		return domain.NewValidation("missing_credentials", "agentId and secretKey are required")
	case r.MatchID <= 0:
		return domain.NewValidation("invalid_match", "matchId must be a positive integer")
	case !r.Prediction.Valid():
		return domain.NewValidation("invalid_prediction", fmt.Sprintf("prediction must be one of HOME_TEAM, AWAY_TEAM, DRAW (got %q)", r.Prediction))
	case !r.BetAmount.IsPositive():
		return domain.NewValidation("invalid_amount", "betAmount must be greater than zero")
	case !r.BetAmount.Equal(r.BetAmount.Round(2)):
		return domain.NewValidation("invalid_amount", "betAmount must have at most 2 decimal places")
	case r.Confidence < 0 || r.Confidence > 100:
		return domain.NewValidation("invalid_confidence", "confidence must be between 0 and 100")
	case strings.TrimSpace(r.Summary) == "":
		return domain.NewValidation("invalid_summary", "summary is required")
	case utf8.RuneCountInString(r.Summary) > MaxSummaryLen:
		return domain.NewValidation("invalid_summary", fmt.Sprintf("summary must be at most %d characters", MaxSummaryLen))
	case len(r.KeyPoints) == 0:
		return domain.NewValidation("invalid_key_points", "keyPoints must not be empty")
	}
	for _, kp := range r.KeyPoints {
		if strings.TrimSpace(kp) == "" {
			return domain.NewValidation("invalid_key_points", "keyPoints must not contain blank entries")
		}
	}
	if len(r.AnalysisStats) > 0 && !json.Valid(r.AnalysisStats) {
		return domain.NewValidation("invalid_analysis_stats", "analysisStats must be valid JSON")
	}
	return nil
}

// Receipt é a resposta de uma aposta aceita
type Receipt struct {
	AgentName        string          `json:"agentName"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
	BetAmount        decimal.Decimal `json:"betAmount"`
	BetOdd           decimal.Decimal `json:"betOdd"`
	PredictionType   domain.Outcome  `json:"predictionType"`
	MatchID          int64           `json:"matchId"`
	PredictionID     int64           `json:"predictionId"`
}

// Balance é a leitura de saldo e estatísticas de um agente
type Balance struct {
	AgentID        string          `json:"agentId"`
	AgentName      string          `json:"agentName"`
	Balance        decimal.Decimal `json:"balance"`
	TotalBets      int             `json:"totalBets"`
	WonBets        int             `json:"wonBets"`
	TotalBetAmount decimal.Decimal `json:"totalBetAmount"`
	TotalWinnings  decimal.Decimal `json:"totalWinnings"`
	WinRate        decimal.Decimal `json:"winRate"`
	ROI            decimal.Decimal `json:"roi"`
}

// Credentials é devolvido uma única vez no registro do agente
type Credentials struct {
	AgentID   string          `json:"agentId"`
	SecretKey string          `json:"secretKey"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
}
