package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/mansi-tandel/expirydate-tracker/internal/config/sweeper"
	"github.com/mansi-tandel/expirydate-tracker/internal/obs"
	pg "github.com/mansi-tandel/expirydate-tracker/internal/repository/postgres"
	"github.com/mansi-tandel/expirydate-tracker/internal/services/notify"
	"github.com/mansi-tandel/expirydate-tracker/internal/services/sweep"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func main() {
	// init
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}
	l.Info("starting sweeper",
		zap.String("fire_time", cfg.Sweep.FireTime),
		zap.Bool("run_on_start", cfg.Sweep.RunOnStart),
		zap.String("timezone", loc.String()),
		zap.String("metrics_addr", cfg.Sweep.MetricsAddr),
	)

	// otel
	otelCloser, err := obs.SetupOTel(rootCtx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db
	db, err := pg.NewDB(rootCtx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// metrics
	ms := obs.BootstrapMetricsServer(cfg.Sweep.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	// wiring
	reminders := pg.NewReminderRepo(db)
	users := pg.NewUserRepo(db)
	dispatcher := notify.NewDispatcher(notify.NewMailer(cfg.SMTP.AsMailerConfig()).WithLogger(l))

	uc := sweep.NewUsecase(l, reminders, users, dispatcher, systemClock{}, loc)
	runner := sweep.NewRunner(l, uc, &cfg.Sweep, loc)

	// run
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(rootCtx) }()

	l.Info("sweeper started")

	// loop
	select {
	case <-rootCtx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runner error", zap.Error(err))
		}
	}

	// graceful shutdown
	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
