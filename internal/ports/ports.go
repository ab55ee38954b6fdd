// Package ports define os contratos entre o núcleo (ledger, lifecycle,
// settlement) e os adaptadores de persistência, mensageria e provedores externos.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/agent-bet-arena/internal/domain"
	"github.com/radieske/agent-bet-arena/pkg/contracts/events"
)

// ErrNotFound é devolvido pelos stores quando a linha não existe
var ErrNotFound = errors.New("not found")

// ErrDuplicate é devolvido quando uma chave única já existe (ex.: agent_id)
var ErrDuplicate = errors.New("duplicate")

// Store é a persistência transacional de agentes, partidas e apostas.
// Leituras fora de InTx não seguram lock.
type Store interface {
	// InTx executa fn numa transação; erro em fn faz rollback
	InTx(ctx context.Context, fn func(tx Tx) error) error

	AgentByAgentID(ctx context.Context, agentID string) (domain.Agent, error)
	CreateAgent(ctx context.Context, a domain.Agent) (domain.Agent, error)
	TopAgents(ctx context.Context, limit int) ([]domain.Agent, error)

	MatchByID(ctx context.Context, id int64) (domain.Match, error)
	CreateMatch(ctx context.Context, m domain.Match) (domain.Match, error)
	// MatchesByKickoff lista partidas com kickoff em [from, to], ordenadas por kickoff
	MatchesByKickoff(ctx context.Context, from, to time.Time) ([]domain.Match, error)
	MatchesByStatus(ctx context.Context, status domain.MatchStatus) ([]domain.Match, error)

	WagersByMatch(ctx context.Context, matchID int64) ([]domain.Wager, error)
	InsertOddsSnapshot(ctx context.Context, s OddsSnapshot) error
}

// Tx agrupa as operações com lock de linha (SELECT ... FOR UPDATE)
type Tx interface {
	// AgentByAgentID lê sem lock; o lock do agente vem depois do lock da partida
	AgentByAgentID(ctx context.Context, agentID string) (domain.Agent, error)
	AgentForUpdate(ctx context.Context, id int64) (domain.Agent, error)
	MatchForUpdate(ctx context.Context, id int64) (domain.Match, error)

	UpdateAgentBalance(ctx context.Context, id int64, balance decimal.Decimal) error
	// UpdateAgentStats grava os seis contadores juntos
	UpdateAgentStats(ctx context.Context, a domain.Agent) error

	UpdateMatchStatus(ctx context.Context, id int64, status domain.MatchStatus) error
	// UpdateMatchMarket grava pools e odds cotadas
	UpdateMatchMarket(ctx context.Context, m domain.Match) error
	// SettleMatch grava vencedor, placar e status SETTLED
	SettleMatch(ctx context.Context, id int64, r domain.FixtureResult, at time.Time) error

	CreateWager(ctx context.Context, w domain.Wager) (domain.Wager, error)
	PendingWagersForUpdate(ctx context.Context, matchID int64) ([]domain.Wager, error)
	ResolveWager(ctx context.Context, id int64, status domain.WagerStatus, payout decimal.Decimal, at time.Time) error
}

// OddsSnapshot é uma linha do histórico de cotações de uma partida
type OddsSnapshot struct {
	MatchID    int64
	WagerID    int64
	Prediction domain.Outcome
	OddsHome   decimal.Decimal
	OddsDraw   decimal.Decimal
	OddsAway   decimal.Decimal
	PlacedAt   time.Time
}

// ResultFetcher consulta o resultado oficial de uma partida no provedor externo
type ResultFetcher interface {
	FetchResult(ctx context.Context, apiID int64) (domain.FixtureResult, error)
}

// Publisher publica os eventos de domínio (Kafka em produção)
type Publisher interface {
	PublishWagerPlaced(ctx context.Context, e events.WagerPlaced) error
	PublishWagerSettled(ctx context.Context, e events.WagerSettled) error
	PublishMatchSettled(ctx context.Context, e events.MatchSettled) error
}

// NopPublisher descarta eventos
type NopPublisher struct{}

func (NopPublisher) PublishWagerPlaced(context.Context, events.WagerPlaced) error   { return nil }
func (NopPublisher) PublishWagerSettled(context.Context, events.WagerSettled) error { return nil }
func (NopPublisher) PublishMatchSettled(context.Context, events.MatchSettled) error { return nil }
