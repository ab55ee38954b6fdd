package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/agent-bet-arena/internal/admin"
	"github.com/radieske/agent-bet-arena/internal/domain"
	"github.com/radieske/agent-bet-arena/internal/ledger"
	"github.com/radieske/agent-bet-arena/internal/lifecycle"
	"github.com/radieske/agent-bet-arena/internal/results"
	"github.com/radieske/agent-bet-arena/internal/settlement"
	sharedcache "github.com/radieske/agent-bet-arena/internal/shared/cache"
	"github.com/radieske/agent-bet-arena/internal/shared/clock"
	"github.com/radieske/agent-bet-arena/internal/shared/config"
	"github.com/radieske/agent-bet-arena/internal/shared/db"
	"github.com/radieske/agent-bet-arena/internal/shared/logger"
	"github.com/radieske/agent-bet-arena/internal/store/postgres"
)

const usage = `arena-admin <command> [flags]

commands:
  register     -name NAME                 cria um agente e imprime as credenciais
  add-match    -api-id N -home H -away A -kickoff RFC3339
  open                                    abre partidas da semana e fecha as vencidas
  matches      -status STATUS             lista partidas
  settle       [-week YYYY-MM-DD]         executa a liquidação (semana anterior por padrão)
  leaderboard  [-limit N]                 ranking por saldo
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "arena-admin"
	}
	level := cfg.LogLevel
	if level == "" {
		level = "warn"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.ApplySchema(ctx, pg); err != nil {
		log.Fatal("schema", zap.Error(err))
	}

	store := postgres.New(pg)
	clk := clock.System{}
	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "register":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("name", "", "nome do agente")
		_ = fs.Parse(args)

		initial, err := decimal.NewFromString(cfg.InitialBalance)
		if err != nil {
			log.Fatal("INITIAL_BALANCE", zap.Error(err))
		}
		svc := ledger.NewService(store, clk, nil, nil, log)
		svc.InitialBalance = initial
		creds, err := svc.RegisterAgent(ctx, *name)
		exitOn(err)
		exitOn(admin.PrintCredentials(os.Stdout, creds))

	case "add-match":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		apiID := fs.Int64("api-id", 0, "id da partida no provedor de resultados")
		home := fs.String("home", "", "time da casa")
		away := fs.String("away", "", "time visitante")
		kickoff := fs.String("kickoff", "", "horário de início (RFC3339)")
		_ = fs.Parse(args)

		ko, err := time.Parse(time.RFC3339, *kickoff)
		if err != nil || *apiID <= 0 || *home == "" || *away == "" {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		m, err := store.CreateMatch(ctx, domain.Match{APIID: *apiID, HomeTeam: *home, AwayTeam: *away, Kickoff: ko})
		exitOn(err)
		exitOn(admin.PrintMatches(os.Stdout, []domain.Match{m}))

	case "open":
		lc := lifecycle.NewManager(store, clk, log)
		opened, err := lc.OpenCurrentWeek(ctx)
		exitOn(err)
		closed, err := lc.CloseExpired(ctx)
		exitOn(err)
		fmt.Printf("opened %d, closed %d\n", opened, closed)

	case "matches":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		status := fs.String("status", string(domain.MatchBettingOpen), "UPCOMING | BETTING_OPEN | BETTING_CLOSED | SETTLED")
		_ = fs.Parse(args)

		ms, err := store.MatchesByStatus(ctx, domain.MatchStatus(*status))
		exitOn(err)
		exitOn(admin.PrintMatches(os.Stdout, ms))

	case "settle":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		week := fs.String("week", "", "qualquer dia da semana a liquidar (YYYY-MM-DD)")
		_ = fs.Parse(args)

		fetcher, err := results.NewClient(cfg.ResultsBaseURL, cfg.ResultsToken, cfg.ResultsTimeout)
		exitOn(err)

		engine := settlement.NewEngine(store, fetcher, clk, settlement.NewPacer(cfg.ResultsPacer, cfg.ResultsDelay), log)
		engine.Lifecycle = lifecycle.NewManager(store, clk, log)
		// mesma trava do settlement-worker; sem Redis roda só com a trava local
		if rdb, rerr := sharedcache.ConnectRedis(cfg.RedisAddr); rerr == nil {
			defer rdb.Close()
			engine.Lock = settlement.NewRedisRunLock(rdb, cfg.SettlementLock)
		} else {
			log.Warn("redis unavailable; running without distributed lock", zap.Error(rerr))
		}

		win := settlement.PreviousWeek(clk.Now())
		if *week != "" {
			day, err := time.Parse(time.DateOnly, *week)
			exitOn(err)
			win = settlement.WeekOf(day)
		}
		rep, err := engine.RunWindow(ctx, win)
		if errors.Is(err, settlement.ErrRunInProgress) {
			fmt.Fprintln(os.Stderr, "another settlement run is in progress")
			os.Exit(1)
		}
		exitOn(err)
		exitOn(admin.PrintReport(os.Stdout, rep))

	case "leaderboard":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "quantidade de agentes")
		_ = fs.Parse(args)

		agents, err := store.TopAgents(ctx, *limit)
		exitOn(err)
		exitOn(admin.PrintLeaderboard(os.Stdout, agents))

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func exitOn(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
