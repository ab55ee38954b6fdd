package domain

import "fmt"

// Outcome é o resultado 1x2 escolhido por um agente (ou o vencedor oficial da partida)
type Outcome string

const (
	OutcomeHome Outcome = "HOME_TEAM"
	OutcomeAway Outcome = "AWAY_TEAM"
	OutcomeDraw Outcome = "DRAW"
)

// Valid indica se o valor pertence ao enum conhecido
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeHome, OutcomeAway, OutcomeDraw:
		return true
	}
	return false
}

// ParseOutcome converte a string recebida no transporte para Outcome
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(s)
	if !o.Valid() {
		return "", NewValidation("invalid_prediction", fmt.Sprintf("prediction must be one of HOME_TEAM, AWAY_TEAM, DRAW (got %q)", s))
	}
	return o, nil
}
