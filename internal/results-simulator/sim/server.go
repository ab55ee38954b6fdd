// Package sim é um provedor de resultados determinístico para rodar a liquidação localmente.
package sim

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/radieske/agent-bet-arena/internal/domain"
	"github.com/radieske/agent-bet-arena/internal/results"
	"github.com/radieske/agent-bet-arena/internal/results-simulator/dto"
)

var teams = []string{"Arsenal", "Chelsea", "Liverpool", "Everton", "Brighton", "Fulham", "Brentford", "Wolves"}

// Server responde GET /matches/{id} exigindo X-Auth-Token.
// Sem override, o resultado depende só do id: múltiplos de 5 ainda não terminaram.
type Server struct {
	log   *zap.Logger
	token string

	mu        sync.RWMutex
	overrides map[int64]dto.Override

	OnRequest func(status int) // métricas
}

func NewServer(log *zap.Logger, token string) *Server {
	return &Server{log: log, token: token, overrides: map[int64]dto.Override{}}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /matches/{id}", s.getMatch)
	mux.HandleFunc("PUT /matches/{id}", s.setOverride)
	return mux
}

func (s *Server) getMatch(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get(results.AuthHeader) != s.token {
		s.reply(w, http.StatusForbidden, dto.ErrorResp{Message: "The resource you are looking for is restricted.", ErrorCode: 403})
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.reply(w, http.StatusBadRequest, dto.ErrorResp{Message: "invalid match id", ErrorCode: 400})
		return
	}
	s.reply(w, http.StatusOK, s.Match(id))
}

func (s *Server) setOverride(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get(results.AuthHeader) != s.token {
		s.reply(w, http.StatusForbidden, dto.ErrorResp{Message: "forbidden", ErrorCode: 403})
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.reply(w, http.StatusBadRequest, dto.ErrorResp{Message: "invalid match id", ErrorCode: 400})
		return
	}
	var o dto.Override
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil || o.Status == "" {
		s.reply(w, http.StatusBadRequest, dto.ErrorResp{Message: "bad override", ErrorCode: 400})
		return
	}
	s.mu.Lock()
	s.overrides[id] = o
	s.mu.Unlock()
	s.log.Info("result override set", zap.Int64("apiId", id), zap.String("status", o.Status))
	s.reply(w, http.StatusOK, s.Match(id))
}

// Match devolve o resultado simulado de uma partida
func (s *Server) Match(id int64) dto.Match {
	m := dto.Match{
		ID:       id,
		HomeTeam: dto.Team{Name: teams[id%int64(len(teams))]},
		AwayTeam: dto.Team{Name: teams[(id+3)%int64(len(teams))]},
	}

	s.mu.RLock()
	o, ok := s.overrides[id]
	s.mu.RUnlock()

	if !ok {
		if id%5 == 0 {
			m.Status = domain.FixtureTimed
			return m
		}
		home, away := int(id%4), int((id/4)%3)
		o = dto.Override{Status: domain.FixtureFinished, ScoreHome: &home, ScoreAway: &away}
	}

	m.Status = o.Status
	m.Score.FullTime = dto.FullTime{Home: o.ScoreHome, Away: o.ScoreAway}
	if o.Status == domain.FixtureFinished && o.ScoreHome != nil && o.ScoreAway != nil {
		winner := string(domain.OutcomeDraw)
		switch {
		case *o.ScoreHome > *o.ScoreAway:
			winner = string(domain.OutcomeHome)
		case *o.ScoreHome < *o.ScoreAway:
			winner = string(domain.OutcomeAway)
		}
		m.Score.Winner = &winner
	}
	return m
}

func (s *Server) reply(w http.ResponseWriter, status int, v any) {
	if s.OnRequest != nil {
		s.OnRequest(status)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
