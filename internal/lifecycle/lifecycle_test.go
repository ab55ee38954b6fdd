package lifecycle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/agent-bet-arena/internal/domain"
	"github.com/radieske/agent-bet-arena/internal/lifecycle"
	"github.com/radieske/agent-bet-arena/internal/shared/clock"
	"github.com/radieske/agent-bet-arena/internal/store/memstore"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]domain.MatchStatus{
		{domain.MatchUpcoming, domain.MatchBettingOpen},
		{domain.MatchBettingOpen, domain.MatchBettingClosed},
		{domain.MatchUpcoming, domain.MatchSettled},
		{domain.MatchBettingOpen, domain.MatchSettled},
		{domain.MatchBettingClosed, domain.MatchSettled},
	}
	for _, tr := range allowed {
		assert.True(t, lifecycle.CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]domain.MatchStatus{
		{domain.MatchBettingOpen, domain.MatchUpcoming},
		{domain.MatchBettingClosed, domain.MatchBettingOpen},
		{domain.MatchSettled, domain.MatchBettingClosed},
		{domain.MatchSettled, domain.MatchSettled},
		{domain.MatchUpcoming, domain.MatchBettingClosed},
		{domain.MatchBettingOpen, domain.MatchBettingOpen},
		{"BOGUS", domain.MatchSettled},
	}
	for _, tr := range denied {
		assert.False(t, lifecycle.CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	err := lifecycle.Transition(domain.MatchSettled, domain.MatchBettingOpen)
	require.Error(t, err)
	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindState, de.Kind)
	assert.Equal(t, domain.MatchSettled, de.Status)
}

func TestCheckBettable(t *testing.T) {
	kickoff := time.Date(2026, 10, 21, 20, 0, 0, 0, time.UTC)
	open := domain.Match{ID: 7, Status: domain.MatchBettingOpen, Kickoff: kickoff}

	closeNow, err := lifecycle.CheckBettable(open, kickoff.Add(-11*time.Minute))
	assert.NoError(t, err)
	assert.False(t, closeNow)

	// exatamente no prazo já fecha
	closeNow, err = lifecycle.CheckBettable(open, kickoff.Add(-10*time.Minute))
	assert.True(t, closeNow)
	assert.True(t, errors.Is(err, domain.ErrBettingClosed))

	closeNow, err = lifecycle.CheckBettable(open, kickoff.Add(-5*time.Minute))
	assert.True(t, closeNow)
	assert.True(t, errors.Is(err, domain.ErrBettingClosed))

	for _, st := range []domain.MatchStatus{domain.MatchUpcoming, domain.MatchBettingClosed, domain.MatchSettled} {
		m := open
		m.Status = st
		closeNow, err := lifecycle.CheckBettable(m, kickoff.Add(-time.Hour))
		assert.False(t, closeNow)
		var de *domain.Error
		require.True(t, errors.As(err, &de))
		assert.Equal(t, st, de.Status)
		assert.True(t, errors.Is(err, domain.ErrMatchNotOpen))
	}
}

func TestOpenCurrentWeekAndCloseExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 21, 12, 0, 0, 0, time.UTC) // quarta-feira
	clk := clock.NewFixed(now)
	st := memstore.New()

	thisWeek, _ := st.CreateMatch(ctx, domain.Match{APIID: 1, Kickoff: now.Add(48 * time.Hour)})
	tooSoon, _ := st.CreateMatch(ctx, domain.Match{APIID: 2, Kickoff: now.Add(5 * time.Minute)})
	nextWeek, _ := st.CreateMatch(ctx, domain.Match{APIID: 3, Kickoff: now.AddDate(0, 0, 6)})
	lastWeek, _ := st.CreateMatch(ctx, domain.Match{APIID: 4, Kickoff: now.AddDate(0, 0, -7)})
	alreadyOpen, _ := st.CreateMatch(ctx, domain.Match{APIID: 5, Kickoff: now.Add(time.Hour), Status: domain.MatchBettingOpen})

	m := lifecycle.NewManager(st, clk, zap.NewNop())
	var openedMetric int
	m.OnOpened = func(n int) { openedMetric += n }

	n, err := m.OpenCurrentWeek(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, openedMetric)
	assert.Equal(t, domain.MatchBettingOpen, st.Match(thisWeek.ID).Status)
	assert.Equal(t, domain.MatchUpcoming, st.Match(tooSoon.ID).Status)
	assert.Equal(t, domain.MatchUpcoming, st.Match(nextWeek.ID).Status)
	assert.Equal(t, domain.MatchUpcoming, st.Match(lastWeek.ID).Status)

	// segunda execução não reabre nada
	n, err = m.OpenCurrentWeek(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	clk.Advance(55 * time.Minute) // alreadyOpen a 5 minutos do kickoff
	n, err = m.CloseExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.MatchBettingClosed, st.Match(alreadyOpen.ID).Status)
	assert.Equal(t, domain.MatchBettingOpen, st.Match(thisWeek.ID).Status)
}
