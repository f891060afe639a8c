package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shinyyama/cakemarket-backend/internal/reqctx"
)

type Options struct {
	Service string
	Env     string
	Level   string
	Output  io.Writer
}

// New builds the JSON logger used across the API and worker binaries and installs it as the slog default.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	h := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:     ParseLevel(opts.Level),
		AddSource: strings.EqualFold(opts.Env, "dev"),
	})
	base := slog.New(contextHandler{h}).With(
		"service", opts.Service,
		"env", opts.Env,
	)
	slog.SetDefault(base)
	return base
}

func ParseLevel(lvl string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// contextHandler copies request scoped ids from ctx onto every record logged with a *Context method.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid := reqctx.RequestID(ctx); rid != "" {
		r.AddAttrs(slog.String("request_id", rid))
	}
	if id := reqctx.AccountID(ctx); id != 0 {
		r.AddAttrs(slog.Uint64("account_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
