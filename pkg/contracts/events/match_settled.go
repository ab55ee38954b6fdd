package events

import "time"

type MatchSettled struct {
	MatchID   int64     `json:"matchId"`
	APIID     int64     `json:"apiId"`
	Winner    string    `json:"winner"`
	ScoreHome *int      `json:"scoreHome,omitempty"`
	ScoreAway *int      `json:"scoreAway,omitempty"`
	Resolved  int       `json:"resolved"` // apostas resolvidas nesta liquidação
	RunID     string    `json:"runId"`
	SettledAt time.Time `json:"settledAt"`
}
