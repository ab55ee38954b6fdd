package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/agent-bet-arena/internal/bet-service/dto"
	"github.com/radieske/agent-bet-arena/internal/domain"
	"github.com/radieske/agent-bet-arena/internal/ledger"
	"github.com/radieske/agent-bet-arena/internal/odds"
	"github.com/radieske/agent-bet-arena/internal/ports"
	"github.com/radieske/agent-bet-arena/internal/shared/httpx"
)

// SecretHeader carrega o secretKey nas leituras autenticadas
const SecretHeader = "X-Agent-Secret"

// QuoteCache é o cache de cotações (Redis em produção); pode ser nil
type QuoteCache interface {
	GetQuote(ctx context.Context, matchID int64) (odds.CachedQuote, bool, error)
	SetQuote(ctx context.Context, q odds.CachedQuote) error
}

// Server expõe a API REST dos agentes: apostas, saldo, partidas e odds
type Server struct {
	log    *zap.Logger
	ledger *ledger.Service
	store  ports.Store
	cache  QuoteCache
}

func NewServer(log *zap.Logger, l *ledger.Service, store ports.Store, cache QuoteCache) *Server {
	return &Server{log: log, ledger: l, store: store, cache: cache}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/bets", s.placeBet)
	r.Get("/v1/agents/{agentId}/balance", s.getBalance)
	r.Get("/v1/matches", s.listMatches)       // ?status=BETTING_OPEN
	r.Get("/v1/matches/{id}/odds", s.getOdds) // cache primeiro
	r.Get("/v1/leaderboard", s.leaderboard)   // ?limit=20
	return r
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, s.log, domain.NewValidation("bad_json", "request body must be valid JSON"))
		return
	}

	receipt, err := s.ledger.PlaceBet(r.Context(), req.ToLedger())
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, receipt)
}

func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	bal, err := s.ledger.GetBalance(r.Context(), chi.URLParam(r, "agentId"), r.Header.Get(SecretHeader))
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, bal)
}

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	status := domain.MatchStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.MatchBettingOpen
	}
	ms, err := s.store.MatchesByStatus(r.Context(), status)
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	out := make([]dto.Match, 0, len(ms))
	for _, m := range ms {
		out = append(out, dto.MatchOf(m))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) getOdds(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(w, s.log, domain.NewValidation("invalid_match", "match id must be a positive integer"))
		return
	}

	if s.cache != nil {
		q, ok, cerr := s.cache.GetQuote(r.Context(), id)
		if cerr != nil {
			s.log.Warn("odds cache get failed", zap.Int64("matchId", id), zap.Error(cerr))
		}
		if ok {
			httpx.WriteJSON(w, http.StatusOK, dto.OddsResponse{
				MatchID: id, Pools: q.Pools, Odds: q.Odds, UpdatedAt: &q.UpdatedAt, Source: "cache",
			})
			return
		}
	}

	m, err := s.store.MatchByID(r.Context(), id)
	if errors.Is(err, ports.ErrNotFound) {
		httpx.WriteError(w, s.log, domain.NewNotFound("match_not_found", "match not found"))
		return
	}
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}

	resp := dto.OddsResponse{
		MatchID: m.ID,
		Status:  string(m.Status),
		Pools:   odds.PoolsOf(m),
		Odds:    odds.OddsOf(m),
		Source:  "store",
	}
	// o cache só recebe cotações gravadas após uma aposta
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	agents, err := s.store.TopAgents(r.Context(), limit)
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	out := make([]dto.LeaderboardEntry, 0, len(agents))
	for i, a := range agents {
		out = append(out, dto.LeaderboardEntry{
			Rank:      i + 1,
			AgentID:   a.AgentID,
			Name:      a.Name,
			Balance:   a.Balance,
			TotalBets: a.TotalBets,
			WonBets:   a.WonBets,
			WinRate:   a.WinRate,
			ROI:       a.ROI,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
