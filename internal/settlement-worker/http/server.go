package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/agent-bet-arena/internal/results"
	"github.com/radieske/agent-bet-arena/internal/settlement"
	"github.com/radieske/agent-bet-arena/internal/settlement-worker/dto"
	"github.com/radieske/agent-bet-arena/internal/shared/clock"
	"github.com/radieske/agent-bet-arena/internal/shared/httpx"
)

// Engine é o subconjunto do settlement.Engine usado pelo servidor
type Engine interface {
	RunWindow(ctx context.Context, w settlement.Window) (settlement.Report, error)
	Running() bool
}

// Server expõe o gatilho manual e a consulta da janela.
// O gatilho manual fica desligado em produção.
type Server struct {
	log     *zap.Logger
	engine  Engine
	clock   clock.Clock
	prod    bool
	weekday time.Weekday
	hour    int
}

func NewServer(log *zap.Logger, e Engine, clk clock.Clock, prod bool, hour int) *Server {
	return &Server{log: log, engine: e, clock: clk, prod: prod, weekday: time.Monday, hour: hour}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/settlement/run", s.run) // ?week=2026-10-12 (qualquer dia da semana)
	r.Get("/v1/settlement/window", s.window)
	return r
}

func (s *Server) run(w http.ResponseWriter, r *http.Request) {
	if s.prod {
		httpx.WriteJSON(w, http.StatusForbidden, httpx.ErrorBody{Error: "forbidden", Message: "manual settlement is disabled in production"})
		return
	}

	win := settlement.PreviousWeek(s.clock.Now())
	if week := r.URL.Query().Get("week"); week != "" {
		day, err := time.Parse(time.DateOnly, week)
		if err != nil {
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorBody{Error: "validation", Code: "invalid_week", Message: "week must be YYYY-MM-DD"})
			return
		}
		win = settlement.WeekOf(day)
	}

	// a execução continua mesmo se o cliente desconectar
	rep, err := s.engine.RunWindow(context.WithoutCancel(r.Context()), win)
	switch {
	case errors.Is(err, settlement.ErrRunInProgress):
		httpx.WriteJSON(w, http.StatusConflict, httpx.ErrorBody{Error: "state", Code: "run_in_progress", Message: err.Error()})
		return
	case errors.Is(err, results.ErrUnauthorized), errors.Is(err, results.ErrMissingToken):
		s.log.Error("manual settlement aborted", zap.Error(err))
		httpx.WriteJSON(w, http.StatusBadGateway, httpx.ErrorBody{Error: "external_service", Code: "provider_unauthorized", Message: "result provider rejected credentials"})
		return
	case err != nil:
		httpx.WriteError(w, s.log, err)
		return
	}

	s.log.Info("manual settlement done", zap.String("runId", rep.RunID), zap.Int("settled", rep.Settled))
	httpx.WriteJSON(w, http.StatusOK, dto.RunResponse{Report: rep, DurationMs: rep.Duration.Milliseconds()})
}

func (s *Server) window(w http.ResponseWriter, _ *http.Request) {
	now := s.clock.Now()
	next := settlement.NextWeekly(now, s.weekday, s.hour)
	httpx.WriteJSON(w, http.StatusOK, dto.WindowResponse{
		Window:  settlement.PreviousWeek(next),
		NextRun: next,
		Running: s.engine.Running(),
	})
}
