package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/salesdesk/internal/config"
	"github.com/JonMunkholm/salesdesk/internal/core"
	"github.com/JonMunkholm/salesdesk/internal/logging"
	"github.com/JonMunkholm/salesdesk/internal/web"
)

func main() {
	// Load .env file if it exists; real environment variables win
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded", "config", cfg.String())

	synonyms := core.DefaultSynonyms()
	if cfg.Locale.SynonymsFile != "" {
		synonyms, err = core.LoadSynonyms(cfg.Locale.SynonymsFile)
		if err != nil {
			slog.Error("failed to load header synonyms", "file", cfg.Locale.SynonymsFile, "error", err)
			os.Exit(1)
		}
		slog.Info("header synonyms loaded", "file", cfg.Locale.SynonymsFile)
	}

	service := core.NewService(core.Options{
		MaxFileSize:       cfg.Upload.MaxFileSize,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		Decode: core.DecodeOptions{
			Encoding: cfg.Upload.Encoding,
			Fallback: cfg.Upload.FallbackEncoding,
		},
		Suggest: core.SuggestConfig{
			WindowDays:    cfg.Suggest.WindowDays,
			CoverageDays:  cfg.Suggest.CoverageDays,
			MinQuantity:   cfg.Suggest.MinQuantity,
			MaxFastMovers: cfg.Suggest.MaxFastMovers,
			MaxIssues:     cfg.Suggest.MaxIssues,
		},
		Locale:   cfg.Locale.Collation,
		Synonyms: synonyms,
	})

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let a running load finish so the dataset swap is not cut short
		if service.GateStatus().Busy {
			slog.Info("waiting for load to complete")
			if err := service.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("load did not complete in time", "error", err)
			} else {
				slog.Info("load completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
