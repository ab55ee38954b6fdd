package topics

const (
	// Apostas
	WagerPlaced  = "wager_placed"
	WagerSettled = "wager_settled"

	// Partidas
	MatchSettled = "match_settled"
)
