package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medcore/hospital-scheduling/internal/appointment"
	"github.com/medcore/hospital-scheduling/internal/config"
	"github.com/medcore/hospital-scheduling/internal/db"
	"github.com/medcore/hospital-scheduling/internal/notify"
	redisclient "github.com/medcore/hospital-scheduling/internal/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		startupLog := zerolog.New(os.Stderr)
		startupLog.Fatal().Err(err).Msg("config load error")
	}

	log := zerolog.New(os.Stdout).With().Timestamp().Str("component", "reminder-worker").Logger()
	log.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.WorkerInterval).
		Dur("window", cfg.ReminderWindow).
		Msg("reminder-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()

	var sender notify.Sender
	if cfg.SMTPHost != "" {
		sender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	} else {
		sender = notify.NewLogSender(log)
	}

	dispatcher := notify.NewDispatcher(sender, cfg.PublicBaseURL, cfg.NotifyBuffer, log)
	dispatcher.Start(rootCtx)

	repo := appointment.NewPgRepository(pgPool)
	locker := redisclient.NewBookingLocker(rdb, cfg.LockTTL)
	svc := appointment.NewService(repo, locker, dispatcher, log)

	// Run once at startup
	runOnce(rootCtx, svc, cfg.ReminderWindow, log)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping reminder worker")
			dispatcher.Wait()
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg.ReminderWindow, log)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, window time.Duration, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	sent, err := svc.SendReminders(runCtx, start, start.Add(window))
	if err != nil {
		log.Error().Err(err).Msg("reminder run error")
		return
	}
	log.Info().Int("sent", sent).Dur("elapsed", time.Since(start)).Msg("reminder run complete")
}
