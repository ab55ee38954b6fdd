package settlement

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/radieske/agent-bet-arena/internal/domain"
)

// RatioPlaces é a precisão de winRate e roi
const RatioPlaces int32 = 4

// Delta acumula o efeito da execução sobre um agente
type Delta struct {
	Resolved int
	Won      int
	Staked   decimal.Decimal
	Winnings decimal.Decimal
}

// Accumulator agrega deltas por agente (agents.id) ao longo da execução
type Accumulator map[int64]*Delta

func (acc Accumulator) Record(agentID int64, stake, payout decimal.Decimal, won bool) {
	d, ok := acc[agentID]
	if !ok {
		d = &Delta{}
		acc[agentID] = d
	}
	d.Resolved++
	d.Staked = d.Staked.Add(stake)
	if won {
		d.Won++
		d.Winnings = d.Winnings.Add(payout)
	}
}

func (acc Accumulator) Merge(other Accumulator) {
	for id, o := range other {
		d, ok := acc[id]
		if !ok {
			d = &Delta{}
			acc[id] = d
		}
		d.Resolved += o.Resolved
		d.Won += o.Won
		d.Staked = d.Staked.Add(o.Staked)
		d.Winnings = d.Winnings.Add(o.Winnings)
	}
}

// AgentIDs devolve as chaves ordenadas
func (acc Accumulator) AgentIDs() []int64 {
	ids := make([]int64, 0, len(acc))
	for id := range acc {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ApplyDelta soma o delta aos totais e recalcula winRate e roi
func ApplyDelta(a domain.Agent, d Delta) domain.Agent {
	a.TotalBets += d.Resolved
	a.WonBets += d.Won
	a.TotalBetAmount = a.TotalBetAmount.Add(d.Staked)
	a.TotalWinnings = a.TotalWinnings.Add(d.Winnings)

	a.WinRate = decimal.Zero
	if a.TotalBets > 0 {
		a.WinRate = decimal.NewFromInt(int64(a.WonBets)).DivRound(decimal.NewFromInt(int64(a.TotalBets)), RatioPlaces)
	}
	a.ROI = decimal.Zero
	if a.TotalBetAmount.IsPositive() {
		a.ROI = a.TotalWinnings.Sub(a.TotalBetAmount).DivRound(a.TotalBetAmount, RatioPlaces)
	}
	return a
}
