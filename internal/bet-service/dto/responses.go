package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/agent-bet-arena/internal/domain"
	"github.com/radieske/agent-bet-arena/internal/odds"
)

// OddsResponse é a cotação corrente de uma partida
type OddsResponse struct {
	MatchID   int64      `json:"matchId"`
	Status    string     `json:"status,omitempty"`
	Pools     odds.Pools `json:"pools"`
	Odds      odds.Odds  `json:"odds"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	Source    string     `json:"source"` // cache | store
}

// Match é o resumo de partida da listagem
type Match struct {
	ID       int64     `json:"id"`
	APIID    int64     `json:"apiId"`
	HomeTeam string    `json:"homeTeam"`
	AwayTeam string    `json:"awayTeam"`
	Kickoff  time.Time `json:"utcDate"`
	Status   string    `json:"status"`
	Odds     odds.Odds `json:"odds"`
}

func MatchOf(m domain.Match) Match {
	return Match{
		ID:       m.ID,
		APIID:    m.APIID,
		HomeTeam: m.HomeTeam,
		AwayTeam: m.AwayTeam,
		Kickoff:  m.Kickoff,
		Status:   string(m.Status),
		Odds:     odds.OddsOf(m),
	}
}

// LeaderboardEntry é uma linha do ranking por saldo
type LeaderboardEntry struct {
	Rank      int             `json:"rank"`
	AgentID   string          `json:"agentId"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	TotalBets int             `json:"totalBets"`
	WonBets   int             `json:"wonBets"`
	WinRate   decimal.Decimal `json:"winRate"`
	ROI       decimal.Decimal `json:"roi"`
}
