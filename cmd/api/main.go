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

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/z-reception/backend/internal/config"
	"github.com/zhouzirui/z-reception/backend/internal/handler"
	"github.com/zhouzirui/z-reception/backend/internal/logging"
	"github.com/zhouzirui/z-reception/backend/internal/metrics"
	"github.com/zhouzirui/z-reception/backend/internal/model/ward"
	"github.com/zhouzirui/z-reception/backend/internal/service/chat"
	"github.com/zhouzirui/z-reception/backend/internal/service/intake"
	"github.com/zhouzirui/z-reception/backend/internal/service/notify"
	"github.com/zhouzirui/z-reception/backend/internal/service/record"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "z-reception: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Debug("no .env file loaded, using process environment", zap.Error(envErr))
	}

	wards := ward.Seed()
	if cfg.WardCatalogFile != "" {
		wards, err = ward.LoadFile(cfg.WardCatalogFile)
		if err != nil {
			return fmt.Errorf("load ward catalog: %w", err)
		}
		logger.Info("ward catalog loaded", zap.String("path", cfg.WardCatalogFile))
	}
	wardStore := ward.NewMemoryStore(wards)

	sink, err := record.Open(ctx, cfg.Sink, logger)
	if err != nil {
		return err
	}
	defer sink.Close()

	notifier, err := notify.New(cfg.Notifier)
	if err != nil {
		return fmt.Errorf("init notifier: %w", err)
	}
	if !cfg.Notifier.Enabled() {
		logger.Info("WEBHOOK_URL not set, completion notifications disabled")
	}

	opts := []intake.Option{
		intake.WithLogger(logger),
		intake.WithNotifyTimeout(cfg.Notifier.Timeout),
	}
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		reg := metrics.NewRegistry()
		opts = append(opts, intake.WithMetrics(metrics.New(reg)))
		metricsHandler = metrics.Handler(reg)
	}

	engine, err := intake.NewEngine(ctx, wardStore, sink, notifier, opts...)
	if err != nil {
		return fmt.Errorf("build intake engine: %w", err)
	}

	router := handler.NewRouter(handler.Deps{
		Wards:          wardStore,
		Intake:         intake.NewService(chat.NewMemoryStore(), engine),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        metricsHandler,
		Logger:         logger,
	})

	return startServer(ctx, logger, cfg.Server, router)
}

func startServer(ctx context.Context, logger *zap.Logger, serverCfg config.ServerConfig, router http.Handler) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("z-reception backend listening", zap.String("addr", serverCfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
