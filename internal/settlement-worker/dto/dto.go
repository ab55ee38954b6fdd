package dto

import (
	"time"

	"github.com/radieske/agent-bet-arena/internal/settlement"
)

// WindowResponse descreve a próxima execução agendada e a semana que ela liquida
type WindowResponse struct {
	Window  settlement.Window `json:"window"`
	NextRun time.Time         `json:"nextRun"`
	Running bool              `json:"running"`
}

// RunResponse é o relatório de uma execução manual
type RunResponse struct {
	settlement.Report
	DurationMs int64 `json:"durationMs"`
}
