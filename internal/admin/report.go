// Package admin formata as saídas do arena-admin em tabelas.
package admin

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/radieske/agent-bet-arena/internal/domain"
	"github.com/radieske/agent-bet-arena/internal/ledger"
	"github.com/radieske/agent-bet-arena/internal/settlement"
)

const timeLayout = "2006-01-02 15:04 MST"

// PrintReport imprime o resumo de uma execução da liquidação
func PrintReport(out io.Writer, rep settlement.Report) error {
	fmt.Fprintf(out, "\nsettlement run %s  window %s .. %s  (%s)\n",
		rep.RunID, rep.Window.From.Format(timeLayout), rep.Window.To.Format(timeLayout), rep.Duration.Round(1e6))

	tbl := tablewriter.NewWriter(out)
	tbl.Header("Considered", "Settled", "Deferred", "Failed", "Skipped", "Won", "Lost", "Agents", "Stats failed")
	if err := tbl.Append(
		strconv.Itoa(rep.Considered),
		strconv.Itoa(rep.Settled),
		strconv.Itoa(rep.Deferred),
		strconv.Itoa(rep.Failed),
		strconv.Itoa(rep.Skipped),
		strconv.Itoa(rep.WagersWon),
		strconv.Itoa(rep.WagersLost),
		strconv.Itoa(rep.AgentsUpdated),
		strconv.Itoa(rep.StatsFailed),
	); err != nil {
		return err
	}
	return tbl.Render()
}

// PrintLeaderboard imprime o ranking por saldo
func PrintLeaderboard(out io.Writer, agents []domain.Agent) error {
	tbl := tablewriter.NewWriter(out)
	tbl.Header("#", "Agent", "Name", "Balance", "Bets", "Won", "Staked", "Winnings", "Win rate", "ROI")
	for i, a := range agents {
		if err := tbl.Append(
			strconv.Itoa(i+1),
			a.AgentID,
			a.Name,
			a.Balance.StringFixed(2),
			strconv.Itoa(a.TotalBets),
			strconv.Itoa(a.WonBets),
			a.TotalBetAmount.StringFixed(2),
			a.TotalWinnings.StringFixed(2),
			a.WinRate.Shift(2).StringFixed(2)+"%",
			a.ROI.Shift(2).StringFixed(2)+"%",
		); err != nil {
			return err
		}
	}
	return tbl.Render()
}

// PrintCredentials mostra as credenciais uma única vez, no registro
func PrintCredentials(out io.Writer, c ledger.Credentials) error {
	tbl := tablewriter.NewWriter(out)
	tbl.Header("Agent", "Name", "Secret key", "Balance")
	if err := tbl.Append(c.AgentID, c.Name, c.SecretKey, c.Balance.StringFixed(2)); err != nil {
		return err
	}
	if err := tbl.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, "  guarde o secret key: ele não é exibido novamente")
	return err
}

// PrintMatches lista partidas com status e odds correntes
func PrintMatches(out io.Writer, ms []domain.Match) error {
	tbl := tablewriter.NewWriter(out)
	tbl.Header("ID", "API ID", "Home", "Away", "Kickoff", "Status", "Home odd", "Draw odd", "Away odd")
	for _, m := range ms {
		if err := tbl.Append(
			strconv.FormatInt(m.ID, 10),
			strconv.FormatInt(m.APIID, 10),
			m.HomeTeam,
			m.AwayTeam,
			m.Kickoff.Format(timeLayout),
			string(m.Status),
			m.OddsHome.StringFixed(2),
			m.OddsDraw.StringFixed(2),
			m.OddsAway.StringFixed(2),
		); err != nil {
			return err
		}
	}
	return tbl.Render()
}
