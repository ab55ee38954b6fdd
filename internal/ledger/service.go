// Package ledger valida e grava apostas de forma atômica: débito do saldo,
// incremento do pool, recotação e criação da aposta com odd congelada.
package ledger

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/agent-bet-arena/internal/domain"
	"github.com/radieske/agent-bet-arena/internal/lifecycle"
	"github.com/radieske/agent-bet-arena/internal/odds"
	"github.com/radieske/agent-bet-arena/internal/ports"
	"github.com/radieske/agent-bet-arena/internal/shared/clock"
	"github.com/radieske/agent-bet-arena/pkg/contracts/events"
)

var (
	DefaultMinBet         = decimal.NewFromInt(100)
	DefaultCeilingRatio   = decimal.RequireFromString("0.20")
	DefaultInitialBalance = decimal.NewFromInt(10000)
)

// QuoteCache recebe a cotação após o commit (Redis em produção)
type QuoteCache interface {
	SetQuote(ctx context.Context, q odds.CachedQuote) error
}

type Service struct {
	store ports.Store
	clock clock.Clock
	pub   ports.Publisher
	cache QuoteCache
	log   *zap.Logger

	MinBet         decimal.Decimal
	CeilingRatio   decimal.Decimal // fração do saldo atual (antes do débito)
	InitialBalance decimal.Decimal

	OnPlaced   func(prediction string) // métricas
	OnRejected func(reason string)     // métricas
}

// NewService monta o ledger; pub e cache podem ser nil
func NewService(store ports.Store, clk clock.Clock, pub ports.Publisher, cache QuoteCache, log *zap.Logger) *Service {
	if pub == nil {
		pub = ports.NopPublisher{}
	}
	return &Service{
		store:          store,
		clock:          clk,
		pub:            pub,
		cache:          cache,
		log:            log,
		MinBet:         DefaultMinBet,
		CeilingRatio:   DefaultCeilingRatio,
		InitialBalance: DefaultInitialBalance,
	}
}

// PlaceBet valida e grava uma aposta numa única transação.
// A odd congelada é cotada depois de somar o próprio stake ao pool.
func (s *Service) PlaceBet(ctx context.Context, req BetRequest) (Receipt, error) {
	if err := req.Validate(); err != nil {
		s.rejected(err)
		return Receipt{}, err
	}

	var (
		receipt  Receipt
		placed   events.WagerPlaced
		quote    odds.CachedQuote
		closeErr error
	)

	err := s.store.InTx(ctx, func(tx ports.Tx) error {
		// 1) credenciais
		agent, err := tx.AgentByAgentID(ctx, req.AgentID)
		if errors.Is(err, ports.ErrNotFound) {
			return domain.Unauthorized()
		}
		if err != nil {
			return fmt.Errorf("ledger: load agent: %w", err)
		}
		if !secretMatches(agent.SecretKey, req.SecretKey) {
			return domain.Unauthorized()
		}

		// 2) partida (lock antes do agente, mesma ordem da liquidação)
		match, err := tx.MatchForUpdate(ctx, req.MatchID)
		if errors.Is(err, ports.ErrNotFound) {
			return domain.NewNotFound("match_not_found", fmt.Sprintf("match %d not found", req.MatchID))
		}
		if err != nil {
			return fmt.Errorf("ledger: lock match: %w", err)
		}

		// 3) e 4) status e prazo; fechamento preguiçoso é gravado mesmo rejeitando
		now := s.clock.Now()
		closeNow, err := lifecycle.CheckBettable(match, now)
		if closeNow {
			if terr := lifecycle.Transition(match.Status, domain.MatchBettingClosed); terr != nil {
				return terr
			}
			if uerr := tx.UpdateMatchStatus(ctx, match.ID, domain.MatchBettingClosed); uerr != nil {
				return fmt.Errorf("ledger: close match: %w", uerr)
			}
			closeErr = err
			return nil
		}
		if err != nil {
			return err
		}

		agent, err = tx.AgentForUpdate(ctx, agent.ID)
		if err != nil {
			return fmt.Errorf("ledger: lock agent: %w", err)
		}

		// 5) e 6) limites do stake sobre o saldo antes do débito
		stake := req.BetAmount
		if stake.LessThan(s.MinBet) {
			floor := s.MinBet
			return &domain.Error{
				Kind: domain.KindValidation, Code: "below_minimum",
				Message: fmt.Sprintf("minimum bet amount is %s points", floor.StringFixed(2)),
				Limit:   &floor,
			}
		}
		ceiling := agent.Balance.Mul(s.CeilingRatio).Truncate(2)
		if stake.GreaterThan(ceiling) {
			return &domain.Error{
				Kind: domain.KindValidation, Code: "above_ceiling",
				Message: fmt.Sprintf("cannot bet more than %s%% of current balance (%s points)", s.CeilingRatio.Shift(2).String(), ceiling.StringFixed(2)),
				Limit:   &ceiling,
			}
		}
		if agent.Balance.LessThan(stake) {
			return domain.NewValidation("insufficient_balance", "insufficient balance")
		}

		// commit: débito, pool, recotação, aposta
		pools, err := odds.PoolsOf(match).Add(req.Prediction, stake)
		if err != nil {
			return err
		}
		q := odds.Quote(pools)
		frozen, err := q.For(req.Prediction)
		if err != nil {
			return err
		}

		remaining := agent.Balance.Sub(stake)
		if err := tx.UpdateAgentBalance(ctx, agent.ID, remaining); err != nil {
			return fmt.Errorf("ledger: debit agent: %w", err)
		}
		odds.Apply(&match, pools, q)
		if err := tx.UpdateMatchMarket(ctx, match); err != nil {
			return fmt.Errorf("ledger: update market: %w", err)
		}

		stats := req.AnalysisStats
		if len(stats) == 0 {
			stats = []byte("{}")
		}
		w, err := tx.CreateWager(ctx, domain.Wager{
			AgentID:       agent.ID,
			MatchID:       match.ID,
			Prediction:    req.Prediction,
			BetAmount:     stake,
			BetOdd:        frozen,
			Confidence:    req.Confidence,
			Summary:       req.Summary,
			Content:       req.Content,
			KeyPoints:     req.KeyPoints,
			AnalysisStats: stats,
			Status:        domain.WagerPending,
			CreatedAt:     now,
		})
		if err != nil {
			return fmt.Errorf("ledger: create wager: %w", err)
		}

		receipt = Receipt{
			AgentName:        agent.Name,
			RemainingBalance: remaining,
			BetAmount:        stake,
			BetOdd:           frozen,
			PredictionType:   req.Prediction,
			MatchID:          match.ID,
			PredictionID:     w.ID,
		}
		placed = events.WagerPlaced{
			WagerID:    w.ID,
			AgentID:    agent.AgentID,
			MatchID:    match.ID,
			Prediction: string(req.Prediction),
			BetAmount:  stake,
			BetOdd:     frozen,
			OddsHome:   q.Home,
			OddsDraw:   q.Draw,
			OddsAway:   q.Away,
			PlacedAt:   now,
		}
		quote = odds.CachedQuote{MatchID: match.ID, Pools: pools, Odds: q, UpdatedAt: now}
		return nil
	})
	if err == nil && closeErr != nil {
		s.log.Info("match closed lazily on bet attempt",
			zap.Int64("matchId", req.MatchID), zap.String("agentId", req.AgentID))
		err = closeErr
	}
	if err != nil {
		s.rejected(err)
		return Receipt{}, err
	}

	if s.OnPlaced != nil {
		s.OnPlaced(string(req.Prediction))
	}
	s.log.Info("bet placed",
		zap.String("agentId", req.AgentID),
		zap.Int64("matchId", receipt.MatchID),
		zap.Int64("predictionId", receipt.PredictionID),
		zap.String("prediction", string(req.Prediction)),
		zap.String("amount", receipt.BetAmount.StringFixed(2)),
		zap.String("odd", receipt.BetOdd.StringFixed(2)),
	)

	// pós-commit: falhas aqui não desfazem a aposta
	if err := s.pub.PublishWagerPlaced(ctx, placed); err != nil {
		s.log.Warn("publish wager_placed failed", zap.Int64("predictionId", receipt.PredictionID), zap.Error(err))
	}
	if s.cache != nil {
		if err := s.cache.SetQuote(ctx, quote); err != nil {
			s.log.Warn("odds cache set failed", zap.Int64("matchId", receipt.MatchID), zap.Error(err))
		}
	}
	return receipt, nil
}

// GetBalance faz a mesma checagem de credenciais do PlaceBet, sem escrita
func (s *Service) GetBalance(ctx context.Context, agentID, secretKey string) (Balance, error) {
	if strings.TrimSpace(agentID) == "" || secretKey == "" {
		return Balance{}, domain.Unauthorized()
	}
	a, err := s.store.AgentByAgentID(ctx, agentID)
	if errors.Is(err, ports.ErrNotFound) {
		return Balance{}, domain.Unauthorized()
	}
	if err != nil {
		return Balance{}, fmt.Errorf("ledger: load agent: %w", err)
	}
	if !secretMatches(a.SecretKey, secretKey) {
		return Balance{}, domain.Unauthorized()
	}
	return Balance{
		AgentID:        a.AgentID,
		AgentName:      a.Name,
		Balance:        a.Balance,
		TotalBets:      a.TotalBets,
		WonBets:        a.WonBets,
		TotalBetAmount: a.TotalBetAmount,
		TotalWinnings:  a.TotalWinnings,
		WinRate:        a.WinRate,
		ROI:            a.ROI,
	}, nil
}

// RegisterAgent cria o agente com credenciais geradas e saldo inicial
func (s *Service) RegisterAgent(ctx context.Context, name string) (Credentials, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Credentials{}, domain.NewValidation("invalid_name", "agent name is required")
	}
	a, err := s.store.CreateAgent(ctx, domain.Agent{
		AgentID:   "agent_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Name:      name,
		SecretKey: uuid.NewString(),
		Balance:   s.InitialBalance,
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("ledger: register agent: %w", err)
	}
	s.log.Info("agent registered", zap.String("agentId", a.AgentID), zap.String("name", a.Name))
	return Credentials{AgentID: a.AgentID, SecretKey: a.SecretKey, Name: a.Name, Balance: a.Balance}, nil
}

func (s *Service) rejected(err error) {
	if s.OnRejected == nil {
		return
	}
	reason := "internal"
	var de *domain.Error
	if errors.As(err, &de) {
		reason = de.Kind.String()
		if de.Code != "" {
			reason = de.Code
		}
	}
	s.OnRejected(reason)
}

func secretMatches(stored, given string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
