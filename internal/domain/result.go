package domain

// Status de partida reportados pelo provedor de resultados
const (
	FixtureScheduled = "SCHEDULED"
	FixtureTimed     = "TIMED"
	FixtureLive      = "LIVE"
	FixtureInPlay    = "IN_PLAY"
	FixturePaused    = "PAUSED"
	FixtureFinished  = "FINISHED"
	FixturePostponed = "POSTPONED"
	FixtureSuspended = "SUSPENDED"
	FixtureCancelled = "CANCELLED"
)

// FixtureResult é o resultado externo de uma partida
type FixtureResult struct {
	APIID     int64
	Status    string
	Winner    *Outcome
	ScoreHome *int
	ScoreAway *int
}

// Final indica se o resultado é definitivo e pode ser liquidado
func (r FixtureResult) Final() bool {
	return r.Status == FixtureFinished && r.Winner != nil && r.Winner.Valid()
}
