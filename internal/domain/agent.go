package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Agent é o apostador autônomo. Balance nunca fica negativo e os contadores
// (TotalBets ... ROI) são sempre gravados juntos.
type Agent struct {
	ID        int64
	AgentID   string // identificador público usado nas credenciais
	Name      string
	SecretKey string
	Balance   decimal.Decimal

	TotalBets      int
	WonBets        int
	TotalBetAmount decimal.Decimal
	TotalWinnings  decimal.Decimal
	WinRate        decimal.Decimal
	ROI            decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}
