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

	config "github.com/mansi-tandel/expirydate-tracker/internal/config/scheduler"
	"github.com/mansi-tandel/expirydate-tracker/internal/obs"
	kafkaRepo "github.com/mansi-tandel/expirydate-tracker/internal/repository/kafka"
	pg "github.com/mansi-tandel/expirydate-tracker/internal/repository/postgres"
	"github.com/mansi-tandel/expirydate-tracker/internal/services/notify"
	"github.com/mansi-tandel/expirydate-tracker/internal/services/scheduler"
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
	l.Info("starting scheduler",
		zap.Any("kafka_in", cfg.In),
		zap.String("metrics_addr", cfg.Jobs.MetricsAddr),
		zap.String("timezone", loc.String()),
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
	ms := obs.BootstrapMetricsServer(cfg.Jobs.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	// kafka
	cons := kafkaRepo.BootstrapConsumer(rootCtx, cfg.In.AsConsumerConfig(), l).WithLogger(l)
	defer func() { _ = cons.Close() }()

	// wiring
	reminders := pg.NewReminderRepo(db)
	users := pg.NewUserRepo(db)
	jobs := pg.NewJobQueue(db)
	dispatcher := notify.NewDispatcher(notify.NewMailer(cfg.SMTP.AsMailerConfig()).WithLogger(l))

	uc := scheduler.NewUsecase(l, reminders, jobs, pg.NewTransactor(db, l), systemClock{}, loc)
	ctrl := &scheduler.Controller{Log: l, Sub: cons, UC: uc}
	runner := scheduler.NewRunner(l, jobs, &scheduler.Executor{
		Log:       l,
		Reminders: reminders,
		Users:     users,
		Dispatch:  dispatcher,
		Clock:     systemClock{},
		Loc:       loc,
	}, &cfg.Jobs)

	// run
	errCh := make(chan error, 2)
	go func() { errCh <- ctrl.Run(rootCtx) }()
	go func() { errCh <- runner.Run(rootCtx) }()

	l.Info("scheduler started")

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
