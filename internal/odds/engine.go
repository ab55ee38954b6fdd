// Package odds cota as odds pari-mutuel a partir dos pools de uma partida.
package odds

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/radieske/agent-bet-arena/internal/domain"
)

// Sementes virtuais somadas aos pools reais antes da razão. Entram só na
// cotação, nunca no pagamento.
var (
	SeedHome = decimal.NewFromInt(1000)
	SeedDraw = decimal.NewFromInt(800)
	SeedAway = decimal.NewFromInt(1000)

	// HouseFactor aplica a comissão de 10% da casa
	HouseFactor = decimal.RequireFromString("0.90")
)

// OddsPlaces é a precisão das odds (arredondamento half-up)
const OddsPlaces int32 = 2

type Pools struct {
	Home decimal.Decimal `json:"home"`
	Draw decimal.Decimal `json:"draw"`
	Away decimal.Decimal `json:"away"`
}

type Odds struct {
	Home decimal.Decimal `json:"home"`
	Draw decimal.Decimal `json:"draw"`
	Away decimal.Decimal `json:"away"`
}

// Quote calcula odds_x = round_half_up(total*0.90/efetivo_x, 2) com efetivo_x = pool_x + semente_x.
func Quote(p Pools) Odds {
	home := p.Home.Add(SeedHome)
	draw := p.Draw.Add(SeedDraw)
	away := p.Away.Add(SeedAway)
	net := home.Add(draw).Add(away).Mul(HouseFactor)

	return Odds{
		Home: net.DivRound(home, OddsPlaces),
		Draw: net.DivRound(draw, OddsPlaces),
		Away: net.DivRound(away, OddsPlaces),
	}
}

// Add devolve novos pools com o stake somado ao lado escolhido
func (p Pools) Add(o domain.Outcome, stake decimal.Decimal) (Pools, error) {
	switch o {
	case domain.OutcomeHome:
		p.Home = p.Home.Add(stake)
	case domain.OutcomeDraw:
		p.Draw = p.Draw.Add(stake)
	case domain.OutcomeAway:
		p.Away = p.Away.Add(stake)
	default:
		return p, domain.NewInvariant(fmt.Sprintf("unknown outcome %q in pool update", o))
	}
	return p, nil
}

// For devolve a odd de um único resultado
func (q Odds) For(o domain.Outcome) (decimal.Decimal, error) {
	switch o {
	case domain.OutcomeHome:
		return q.Home, nil
	case domain.OutcomeDraw:
		return q.Draw, nil
	case domain.OutcomeAway:
		return q.Away, nil
	}
	return decimal.Zero, domain.NewInvariant(fmt.Sprintf("unknown outcome %q in odds resolution", o))
}

func PoolsOf(m domain.Match) Pools {
	return Pools{Home: m.PoolHome, Draw: m.PoolDraw, Away: m.PoolAway}
}

func OddsOf(m domain.Match) Odds {
	return Odds{Home: m.OddsHome, Draw: m.OddsDraw, Away: m.OddsAway}
}

// Apply grava pools e odds na partida
func Apply(m *domain.Match, p Pools, q Odds) {
	m.PoolHome, m.PoolDraw, m.PoolAway = p.Home, p.Draw, p.Away
	m.OddsHome, m.OddsDraw, m.OddsAway = q.Home, q.Draw, q.Away
}
