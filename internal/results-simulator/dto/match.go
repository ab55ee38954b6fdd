package dto

// Match imita o subconjunto de GET /v4/matches/{id} do football-data.org
type Match struct {
	ID       int64  `json:"id"`
	UTCDate  string `json:"utcDate,omitempty"`
	Status   string `json:"status"` // SCHEDULED | TIMED | IN_PLAY | PAUSED | FINISHED | POSTPONED
	HomeTeam Team   `json:"homeTeam"`
	AwayTeam Team   `json:"awayTeam"`
	Score    Score  `json:"score"`
}

type Team struct {
	Name string `json:"name"`
}

type Score struct {
	Winner   *string  `json:"winner"` // HOME_TEAM | AWAY_TEAM | DRAW | null
	FullTime FullTime `json:"fullTime"`
}

type FullTime struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// Override fixa o resultado de uma partida no simulador
type Override struct {
	Status    string `json:"status"`
	ScoreHome *int   `json:"scoreHome"`
	ScoreAway *int   `json:"scoreAway"`
}

type ErrorResp struct {
	Message   string `json:"message"`
	ErrorCode int    `json:"errorCode"`
}
