// SPDX-License-Identifier: MIT

// Command lyricburnd serves the lyric burn-in HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/feldrik/lyricburn/internal/api"
	"github.com/feldrik/lyricburn/internal/config"
	"github.com/feldrik/lyricburn/internal/fonts"
	"github.com/feldrik/lyricburn/internal/log"
	"github.com/feldrik/lyricburn/internal/media"
	"github.com/feldrik/lyricburn/internal/render"
	"github.com/feldrik/lyricburn/internal/store"
	"github.com/feldrik/lyricburn/internal/telemetry"
	"github.com/feldrik/lyricburn/internal/transcribe"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("lyricburnd %s (commit: %s, built: %s)\n", version, commit, buildDate)
		return
	}

	if err := run(); err != nil {
		logger := log.WithComponent("daemon")
		logger.Fatal().Err(err).Msg("daemon failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log.Configure(log.Config{Level: cfg.LogLevel, Service: "lyricburn"})
	logger := log.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    "lyricburn",
		ServiceVersion: version,
		Environment:    cfg.Tracing.Environment,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	if err := fonts.Verify(cfg.FontsDir); err != nil {
		return err
	}

	db, err := store.OpenSQLite(cfg.DatabaseURL, store.DefaultSQLiteConfig())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := store.Migrate(db); err != nil {
		return err
	}

	var engine transcribe.Engine
	if cfg.WhisperBin == "" {
		return errors.New("WHISPER_BIN must point at a transcriber binary")
	}
	engine = transcribe.NewCommandEngine(cfg.WhisperBin)

	burner := render.New(render.Config{
		EncoderBin:  cfg.EncoderBin,
		FontsDir:    cfg.FontsDir,
		ScratchRoot: cfg.ScratchRoot(),
		Timeout:     cfg.BurnTimeout,
		Concurrency: cfg.BurnConcurrency,
	}, media.NewProber(cfg.ProbeBin))

	server := api.New(cfg, store.New(db), engine, burner)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// Burns stream back through the handler; write timeout must
		// exceed the burn limit.
		WriteTimeout: cfg.BurnTimeout + 30*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
