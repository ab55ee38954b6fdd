// Package results consulta o resultado oficial das partidas na API football-data.org v4.
package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/radieske/agent-bet-arena/internal/domain"
)

const (
	DefaultBaseURL = "https://api.football-data.org/v4"
	DefaultTimeout = 10 * time.Second
	AuthHeader     = "X-Auth-Token"
)

var (
	// ErrMissingToken é erro fatal de configuração, detectado na subida do serviço
	ErrMissingToken = errors.New("results: FOOTBALL_DATA_API_TOKEN is required")
	// ErrUnauthorized indica token recusado pelo provedor; aborta a liquidação
	ErrUnauthorized = errors.New("results: provider rejected credentials")
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// matchResponse é o subconjunto usado de GET /matches/{id}
type matchResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Score  struct {
		Winner   *string `json:"winner"`
		FullTime struct {
			Home *int `json:"home"`
			Away *int `json:"away"`
		} `json:"fullTime"`
	} `json:"score"`
}

// FetchResult busca status e vencedor de uma partida. Falhas de rede, timeout
// e respostas não-2xx viram ExternalServiceError; 401/403 viram ErrUnauthorized.
func (c *Client) FetchResult(ctx context.Context, apiID int64) (domain.FixtureResult, error) {
	url := c.baseURL + "/matches/" + strconv.FormatInt(apiID, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.FixtureResult{}, fmt.Errorf("results: build request: %w", err)
	}
	req.Header.Set(AuthHeader, c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.FixtureResult{}, domain.NewExternal(fmt.Sprintf("fetch match %d", apiID), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.FixtureResult{}, fmt.Errorf("%w (http %d)", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.FixtureResult{}, domain.NewExternal(
			fmt.Sprintf("fetch match %d", apiID),
			fmt.Errorf("http %s: %s", resp.Status, strings.TrimSpace(string(body))),
		)
	}

	var out matchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.FixtureResult{}, domain.NewExternal(fmt.Sprintf("decode match %d", apiID), err)
	}

	res := domain.FixtureResult{
		APIID:     apiID,
		Status:    out.Status,
		ScoreHome: out.Score.FullTime.Home,
		ScoreAway: out.Score.FullTime.Away,
	}
	if out.Score.Winner != nil {
		w := domain.Outcome(*out.Score.Winner)
		if w.Valid() {
			res.Winner = &w
		}
	}
	return res, nil
}
