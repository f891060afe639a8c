package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shinyyama/cakemarket-backend/internal/ai"
	"github.com/shinyyama/cakemarket-backend/internal/auth"
	"github.com/shinyyama/cakemarket-backend/internal/config"
	"github.com/shinyyama/cakemarket-backend/internal/db"
	"github.com/shinyyama/cakemarket-backend/internal/logger"
	"github.com/shinyyama/cakemarket-backend/internal/mail"
	"github.com/shinyyama/cakemarket-backend/internal/metrics"
	"github.com/shinyyama/cakemarket-backend/internal/notify"
	"github.com/shinyyama/cakemarket-backend/internal/repository"
	"github.com/shinyyama/cakemarket-backend/internal/server"
	"github.com/shinyyama/cakemarket-backend/internal/storage"
)

var (
	gitSHA    = "dev"
	buildTime = "unknown"
)

type closer interface {
	Close(ctx context.Context) error
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load error", "err", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{Service: "cakemarket-api", Env: cfg.AppEnv, Level: cfg.LogLevel})

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(conn); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	deps := server.Deps{Config: cfg, Logger: log, Metrics: m}

	var notifier closer
	d := notify.NewDeliverer(smsSender(cfg, log), repository.NewNotificationRepository(conn), m, log, cfg.Notify.CountryCode)
	if cfg.Notify.AMQPURL != "" {
		// d only records messages the broker refused; cmd/notifier sends the rest.
		q, err := notify.DialQueue(cfg.Notify.AMQPURL, cfg.Notify.Queue, d, log)
		if err != nil {
			return err
		}
		log.Info("notifications go through the broker", "queue", cfg.Notify.Queue)
		deps.Notifier, notifier = q, q
	} else {
		a := notify.NewAsyncDispatcher(d, cfg.Notify.Workers, cfg.Notify.Buffer, log)
		deps.Notifier, notifier = a, a
	}

	if cfg.SMTP.Enabled() {
		deps.Mailer = mail.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.FrontendURL)
	} else {
		log.Warn("SMTP credentials missing, verification links are only logged")
		deps.Mailer = mail.NewLogMailer(log, cfg.FrontendURL)
	}

	if cfg.FirebaseProjectID != "" {
		v, err := auth.NewGoogleVerifier(ctx, cfg.FirebaseProjectID, cfg.GoogleCredentialsFile)
		if err != nil {
			log.Warn("google sign-in disabled", "err", err)
		} else {
			deps.Identity = v
		}
	}

	if cfg.StorageBucket != "" {
		images, err := storage.NewImageStore(ctx, cfg.StorageBucket, cfg.GoogleCredentialsFile)
		if err != nil {
			log.Warn("image uploads disabled", "err", err)
		} else {
			defer images.Close()
			deps.Images = images
		}
	}

	if cfg.GeminiAPIKey != "" {
		w, err := ai.NewDescriptionWriter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
		if err != nil {
			log.Warn("description suggestions disabled", "err", err)
		} else {
			deps.Writer = w
		}
	}

	srv := server.New(conn, deps, gitSHA, buildTime)
	return serve(ctx, srv, notifier, ":"+cfg.Port, log)
}

type httpServer interface {
	Start(addr string) error
	Shutdown(ctx context.Context) error
}

// serve runs srv until it fails or ctx is cancelled. The notifier is drained on
// both paths so queued SMS are not lost when the listener never comes up.
func serve(ctx context.Context, srv httpServer, notifier closer, addr string, log *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(addr)
	}()

	var runErr error
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if runErr == nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown", "err", err)
		}
	}
	if err := notifier.Close(shutdownCtx); err != nil {
		log.Error("notifier shutdown", "err", err)
	}
	return runErr
}

func smsSender(cfg *config.Config, log *slog.Logger) notify.SMSSender {
	if cfg.Twilio.Enabled() {
		return notify.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
	}
	log.Warn("twilio credentials missing, SMS messages are only logged")
	return notify.NewLogSender(log)
}
