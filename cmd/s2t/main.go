package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	audioimpl "github.com/foxseedlab/s2t/external/audio"
	configloader "github.com/foxseedlab/s2t/external/config"
	transcriberimpl "github.com/foxseedlab/s2t/external/transcriber"
	webhookimpl "github.com/foxseedlab/s2t/external/webhook"
	"github.com/foxseedlab/s2t/internal/config"
	"github.com/foxseedlab/s2t/internal/session"
	"github.com/samber/do/v2"
	"golang.org/x/term"
)

const (
	exitOK              = 0
	exitFailure         = 1
	exitCanceledWithErr = 2
)

func main() {
	envCfg, err := configloader.LoadEnv()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(exitFailure)
	}
	initLogger(envCfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = newRootCommand().ExecuteContext(ctx)
	stop()

	code := exitCode(err)
	switch code {
	case exitOK:
	case exitCanceledWithErr:
		slog.Warn("recognition ended with an error", "error", err)
	default:
		slog.Error("s2t failed", "error", err)
	}
	os.Exit(code)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, session.ErrCanceledWithError):
		return exitCanceledWithErr
	default:
		return exitFailure
	}
}

// initLogger sends logs to stderr; stdout carries the transcript.
func initLogger(cfg *config.Config) {
	if cfg.IsDevelopment() {
		handler := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
			Level:           charmlog.DebugLevel,
			ReportTimestamp: true,
			ReportCaller:    true,
		})
		slog.SetDefault(slog.New(handler))
		return
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, newConsole(cfg))
	audioimpl.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	session.RegisterDI(injector)

	return injector
}

// newConsole writes to stdout. Interim text is only redrawn on a terminal.
func newConsole(cfg *config.Config) *session.Console {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return session.NewConsole(os.Stdout, false, 0)
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		slog.Debug("failed to read terminal size", "error", err)
		width = 0
	}
	return session.NewConsole(os.Stdout, cfg.ShowInterim, width)
}
