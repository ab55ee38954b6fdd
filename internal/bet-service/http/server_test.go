package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	bethttp "github.com/radieske/agent-bet-arena/internal/bet-service/http"
	"github.com/radieske/agent-bet-arena/internal/domain"
	"github.com/radieske/agent-bet-arena/internal/ledger"
	"github.com/radieske/agent-bet-arena/internal/odds"
	"github.com/radieske/agent-bet-arena/internal/shared/clock"
	"github.com/radieske/agent-bet-arena/internal/store/memstore"
)

var now = time.Date(2026, 10, 21, 18, 0, 0, 0, time.UTC)

type memCache struct{ quotes map[int64]odds.CachedQuote }

func (c *memCache) GetQuote(_ context.Context, id int64) (odds.CachedQuote, bool, error) {
	q, ok := c.quotes[id]
	return q, ok, nil
}

func (c *memCache) SetQuote(_ context.Context, q odds.CachedQuote) error {
	c.quotes[q.MatchID] = q
	return nil
}

type env struct {
	srv   *httptest.Server
	store *memstore.Store
	match domain.Match
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	_, err := st.CreateAgent(ctx, domain.Agent{AgentID: "agent_001", Name: "Oracle", SecretKey: "s3cret", Balance: decimal.NewFromInt(10000)})
	require.NoError(t, err)
	m, err := st.CreateMatch(ctx, domain.Match{APIID: 99, HomeTeam: "Arsenal", AwayTeam: "Chelsea", Kickoff: now.Add(2 * time.Hour), Status: domain.MatchBettingOpen})
	require.NoError(t, err)

	cache := &memCache{quotes: map[int64]odds.CachedQuote{}}
	svc := ledger.NewService(st, clock.NewFixed(now), nil, cache, zap.NewNop())
	srv := httptest.NewServer(bethttp.NewServer(zap.NewNop(), svc, st, cache).Router())
	t.Cleanup(srv.Close)
	return &env{srv: srv, store: st, match: m}
}

func (e *env) postBet(t *testing.T, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(e.srv.URL+"/v1/bets", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func betBody(matchID int64, secret, amount string) string {
	return `{"agentId":"agent_001","secretKey":"` + secret + `","matchId":` + decimal.NewFromInt(matchID).String() +
		`,"prediction":"HOME_TEAM","betAmount":` + amount +
		`,"confidence":70,"summary":"home form","keyPoints":["form"]}`
}

func TestPlaceBetCreated(t *testing.T) {
	e := newEnv(t)

	resp, out := e.postBet(t, betBody(e.match.ID, "s3cret", "500"))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "1.98", out["betOdd"])
	assert.Equal(t, "9500", out["remainingBalance"])
	assert.Equal(t, "HOME_TEAM", out["predictionType"])
}

func TestPlaceBetAcceptsStringAmount(t *testing.T) {
	e := newEnv(t)

	resp, _ := e.postBet(t, betBody(e.match.ID, "s3cret", `"250.50"`))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestPlaceBetErrorStatuses(t *testing.T) {
	e := newEnv(t)

	cases := []struct {
		name string
		body string
		code int
		kind string
	}{
		{"bad secret", betBody(e.match.ID, "nope", "500"), http.StatusUnauthorized, "authentication"},
		{"below minimum", betBody(e.match.ID, "s3cret", "50"), http.StatusBadRequest, "validation"},
		{"unknown match", betBody(404, "s3cret", "500"), http.StatusNotFound, "not_found"},
		{"bad json", `{"agentId":`, http.StatusBadRequest, "validation"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp, out := e.postBet(t, c.body)
			assert.Equal(t, c.code, resp.StatusCode)
			assert.Equal(t, c.kind, out["error"])
		})
	}
}

func TestPlaceBetAboveCeilingEchoesLimit(t *testing.T) {
	e := newEnv(t)

	resp, out := e.postBet(t, betBody(e.match.ID, "s3cret", "2500"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "above_ceiling", out["code"])
	assert.Equal(t, "2000", out["limit"])
}

func TestPlaceBetClosedMatchIsConflict(t *testing.T) {
	e := newEnv(t)
	m, err := e.store.CreateMatch(context.Background(), domain.Match{APIID: 100, Kickoff: now.Add(time.Hour), Status: domain.MatchBettingClosed})
	require.NoError(t, err)

	resp, out := e.postBet(t, betBody(m.ID, "s3cret", "500"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "BETTING_CLOSED", out["matchStatus"])
}

func TestGetBalance(t *testing.T) {
	e := newEnv(t)

	req, _ := http.NewRequest(http.MethodGet, e.srv.URL+"/v1/agents/agent_001/balance", nil)
	req.Header.Set(bethttp.SecretHeader, "s3cret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req.Header.Set(bethttp.SecretHeader, "wrong")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestGetOddsFallsBackToStoreThenCache(t *testing.T) {
	e := newEnv(t)
	get := func() map[string]any {
		resp, err := http.Get(e.srv.URL + "/v1/matches/" + decimal.NewFromInt(e.match.ID).String() + "/odds")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	first := get()
	assert.Equal(t, "store", first["source"])
	assert.Equal(t, "2.52", first["odds"].(map[string]any)["home"])

	resp, _ := e.postBet(t, betBody(e.match.ID, "s3cret", "500"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	second := get()
	assert.Equal(t, "cache", second["source"])
	assert.Equal(t, "1.98", second["odds"].(map[string]any)["home"])
}

func TestGetOddsUnknownMatch(t *testing.T) {
	e := newEnv(t)
	resp, err := http.Get(e.srv.URL + "/v1/matches/777/odds")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListMatchesAndLeaderboard(t *testing.T) {
	e := newEnv(t)

	resp, err := http.Get(e.srv.URL + "/v1/matches")
	require.NoError(t, err)
	var ms []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ms))
	resp.Body.Close()
	require.Len(t, ms, 1)
	assert.Equal(t, "Arsenal", ms[0]["homeTeam"])

	resp, err = http.Get(e.srv.URL + "/v1/leaderboard")
	require.NoError(t, err)
	var lb []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lb))
	resp.Body.Close()
	require.Len(t, lb, 1)
	assert.Equal(t, "agent_001", lb[0]["agentId"])
	assert.NotContains(t, lb[0], "secretKey")
}
