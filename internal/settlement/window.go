package settlement

import (
	"time"

	"github.com/radieske/agent-bet-arena/internal/shared/clock"
)

// Window é o intervalo de kickoff liquidado numa execução (limites inclusivos)
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// PreviousWeek devolve a semana UTC completa anterior à semana de now:
// segunda 00:00:00.000 até domingo 23:59:59.999.
func PreviousWeek(now time.Time) Window {
	from := clock.StartOfWeek(now).AddDate(0, 0, -7)
	return Window{From: from, To: from.AddDate(0, 0, 7).Add(-time.Millisecond)}
}

// WeekOf devolve a semana UTC (segunda a domingo) que contém t
func WeekOf(t time.Time) Window {
	from := clock.StartOfWeek(t)
	return Window{From: from, To: from.AddDate(0, 0, 7).Add(-time.Millisecond)}
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}
