// Package lifecycle controla a máquina de estados da partida:
// UPCOMING -> BETTING_OPEN -> BETTING_CLOSED -> SETTLED, sem retrocesso.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/radieske/agent-bet-arena/internal/domain"
)

// BettingLockout fecha as apostas 10 minutos antes do kickoff
const BettingLockout = 10 * time.Minute

func rank(s domain.MatchStatus) int {
	switch s {
	case domain.MatchUpcoming:
		return 1
	case domain.MatchBettingOpen:
		return 2
	case domain.MatchBettingClosed:
		return 3
	case domain.MatchSettled:
		return 4
	}
	return 0
}

// CanTransition aceita apenas UPCOMING->BETTING_OPEN, BETTING_OPEN->BETTING_CLOSED
// e qualquer estado não terminal -> SETTLED.
func CanTransition(from, to domain.MatchStatus) bool {
	if rank(from) == 0 || rank(to) == 0 || from == domain.MatchSettled {
		return false
	}
	if to == domain.MatchSettled {
		return true
	}
	return rank(to) == rank(from)+1
}

// Transition valida a mudança e devolve StateError com o status atual quando inválida
func Transition(from, to domain.MatchStatus) error {
	if !CanTransition(from, to) {
		return domain.NewState("invalid_transition", fmt.Sprintf("cannot move match from %s to %s", from, to), from)
	}
	return nil
}

func BettingDeadline(kickoff time.Time) time.Time {
	return kickoff.Add(-BettingLockout)
}

// DeadlinePassed é verdadeiro a partir de kickoff-10m (inclusive)
func DeadlinePassed(now, kickoff time.Time) bool {
	return !now.Before(BettingDeadline(kickoff))
}

// CheckBettable aplica os gates de estado e de prazo na ordem do ledger.
// closeNow indica que a partida deve ser fechada (transição preguiçosa) mesmo
// com a aposta rejeitada.
func CheckBettable(m domain.Match, now time.Time) (closeNow bool, err error) {
	if m.Status != domain.MatchBettingOpen {
		return false, domain.NewState("match_not_open", fmt.Sprintf("match %d is not open for betting (status %s)", m.ID, m.Status), m.Status)
	}
	if DeadlinePassed(now, m.Kickoff) {
		return true, domain.NewState("betting_closed", fmt.Sprintf("betting for match %d closed at %s", m.ID, BettingDeadline(m.Kickoff).Format(time.RFC3339)), domain.MatchBettingClosed)
	}
	return false, nil
}
