package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fishnet-edu/fishnet/internal/app"
	"github.com/fishnet-edu/fishnet/internal/attendance"
	"github.com/fishnet-edu/fishnet/internal/backup"
	"github.com/fishnet-edu/fishnet/internal/config"
	"github.com/fishnet-edu/fishnet/internal/db"
	"github.com/fishnet-edu/fishnet/internal/jobs"
	"github.com/fishnet-edu/fishnet/internal/logging"
	"github.com/fishnet-edu/fishnet/internal/notify"
	"github.com/fishnet-edu/fishnet/internal/observability"
	"github.com/fishnet-edu/fishnet/internal/planner"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer lg.Closer()

	flushSentry, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, version)
	if err != nil {
		lg.Sugar.Warnw("sentry init failed", "err", err)
	}
	defer flushSentry()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		lg.Sugar.Fatalw("db open", "err", err)
	}
	defer func() { _ = database.Close() }()

	if err := db.Migrate(database); err != nil {
		lg.Sugar.Fatalw("db migrate", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if strings.ToLower(cfg.Env) == "dev" {
		if err := db.SeedDev(ctx, database, cfg.Location); err != nil {
			lg.Sugar.Warnw("dev seed", "err", err)
		}
	}

	var gen planner.Generator
	if cfg.OracleURL != "" {
		gen = planner.NewLLMGenerator(cfg.OracleURL, cfg.OracleAPIKey, cfg.OracleTimeout)
		lg.Base.Info("plan generator: oracle", zap.String("url", cfg.OracleURL))
	} else {
		gen = planner.HeuristicGenerator{}
		lg.Base.Info("plan generator: built-in heuristic (ORACLE_URL not set)")
	}

	sink := &notify.LogSink{Log: lg.Base}
	machine := attendance.NewMachine(database, lg.Base)
	api := &app.API{
		DB: database,
		Scheduler: &app.Scheduler{
			DB:            database,
			Generator:     gen,
			Log:           lg.Base,
			CooldownDays:  cfg.CooldownDays,
			OracleRetries: cfg.OracleRetries,
		},
		Workflow: &backup.Workflow{
			DB:         database,
			Attendance: machine,
			Sink:       sink,
			Log:        lg.Base,
		},
		Machine:  machine,
		Log:      lg.Base,
		Location: cfg.Location,
	}

	runner := jobs.New(ctx)
	runner.Every(6*time.Hour, "unfilled_sweep", jobs.UnfilledSweep(database, sink, lg.Base, cfg.Location))

	app.StartHTTP(ctx, cfg.HTTPAddr, database, api)
	lg.Base.Info("fishnet started", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))

	<-ctx.Done()
	lg.Base.Info("shutting down")
	flushSentry()
	_ = os.Stdout.Sync()
}
