package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	)

// Coletores da arena. Cada main registra os que usa com Register.
var (
	BetsPlaced = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_bets_placed_total",
		Help: "Apostas aceitas por palpite",
	}, []string{"prediction"})

	BetsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_bets_rejected_total",
		Help: "Apostas rejeitadas por motivo",
	}, []string{"reason"})

	SettlementRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_settlement_runs_total",
		Help: "Execuções da liquidação por resultado",
	}, []string{"result"})

	SettlementMatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_settlement_matches_total",
		Help: "Partidas processadas na liquidação por desfecho",
	}, []string{"outcome"})

	WagersResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_wagers_resolved_total",
		Help: "Apostas liquidadas por status",
	}, []string{"status"})

	SettlementRunSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_settlement_run_seconds",
		Help:    "Duração de uma execução da liquidação",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	})

	OpenedMatches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arena_opened_matches_total",
		Help: "Partidas movidas para BETTING_OPEN",
	})

	OddsSnapshots = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_odds_snapshots_total",
		Help: "Eventos wager_placed consumidos pelo histórico de odds",
	}, []string{"result"})

	ResultsSimRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "results_sim_requests_total",
		Help: "Requisições recebidas pelo simulador de resultados",
	}, []string{"status"})
)

// Register registra os coletores no registry padrão (exposto em /metrics)
func Register(cs ...prometheus.Collector) {
	prometheus.MustRegister(cs...)
}

// ObserveRun alimenta o contador e o histograma de uma execução
func ObserveRun(result string, elapsed time.Duration) {
	SettlementRuns.WithLabelValues(result).Inc()
	SettlementRunSeconds.Observe(elapsed.Seconds())
}
