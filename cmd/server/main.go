package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/gunslinger-backend/internal/archive"
	"github.com/DoyleJ11/gunslinger-backend/internal/config"
	"github.com/DoyleJ11/gunslinger-backend/internal/engine"
	"github.com/DoyleJ11/gunslinger-backend/internal/httpapi"
	"github.com/DoyleJ11/gunslinger-backend/internal/hub"
	"github.com/DoyleJ11/gunslinger-backend/internal/logging"
	"github.com/DoyleJ11/gunslinger-backend/internal/rules"
	"github.com/DoyleJ11/gunslinger-backend/internal/ws"
)

const (
	shutdownTimeout = 10 * time.Second
	archiveQueue    = 256
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	hubCfg := hub.Config{
		MaxClients:  cfg.MaxClients,
		AutoResolve: cfg.AutoResolve,
		Rules:       engine.Rules{MinPlayers: cfg.MinPlayers, Resolver: rules.NewBasic()},
		Logger:      logger,
	}
	apiOpts := httpapi.Options{
		Logger: logger,
		WS: ws.Options{
			OutboxSize:     cfg.OutboxSize,
			Logger:         logger,
			OriginPatterns: cfg.OriginPatterns,
		},
	}

	if cfg.DatabaseURL != "" {
		store, err := archive.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()

		writer := archive.NewWriter(store, archiveQueue, logger.Named("archive"))
		g.Go(func() error { return writer.Run(ctx) })
		hubCfg.Archive = writer
		apiOpts.Store = store
		logger.Info("turn archive enabled")
	}

	h := hub.NewHub(ctx, hubCfg)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.SetupRoutes(h, apiOpts),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		// The hub and its rooms stop with ctx.
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
