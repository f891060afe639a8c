package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shinyyama/cakemarket-backend/internal/config"
	"github.com/shinyyama/cakemarket-backend/internal/db"
	"github.com/shinyyama/cakemarket-backend/internal/logger"
	"github.com/shinyyama/cakemarket-backend/internal/notify"
	"github.com/shinyyama/cakemarket-backend/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load error", "err", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{Service: "cakemarket-notifier", Env: cfg.AppEnv, Level: cfg.LogLevel})

	if err := run(cfg, log); err != nil {
		log.Error("notifier stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	if cfg.Notify.AMQPURL == "" {
		return errors.New("AMQP_URL is not set, nothing to consume")
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(cfg)
	if err != nil {
		return err
	}

	var sender notify.SMSSender
	if cfg.Twilio.Enabled() {
		sender = notify.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
	} else {
		log.Warn("twilio credentials missing, SMS messages are only logged")
		sender = notify.NewLogSender(log)
	}
	d := notify.NewDeliverer(sender, repository.NewNotificationRepository(conn), nil, log, cfg.Notify.CountryCode)

	amqpConn, ch, err := notify.OpenQueue(cfg.Notify.AMQPURL, cfg.Notify.Queue)
	if err != nil {
		return err
	}
	defer amqpConn.Close()
	defer ch.Close()

	log.Info("consuming notifications", "queue", cfg.Notify.Queue)
	return notify.Consume(ctx, ch, cfg.Notify.Queue, d, log)
}
