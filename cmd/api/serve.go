package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpadp "loan-origination-api/internal/adapter/http"
	"loan-origination-api/internal/adapter/middleware"
	"loan-origination-api/internal/adapter/repository/sqlstore"
	"loan-origination-api/internal/config"
	"loan-origination-api/internal/infrastructure/cache"
	"loan-origination-api/internal/infrastructure/db"
	"loan-origination-api/internal/infrastructure/logger"
	"loan-origination-api/internal/usecase/loan"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate the schema and serve the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DBDSN, cfg.LogLevel == "debug")
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(gdb) }()
	if err := db.Migrate(gdb); err != nil {
		return err
	}
	log.Info("database ready", zap.String("driver", cfg.DBDriver))

	rc := httpadp.RouterConfig{
		Handler:           httpadp.NewHandler(),
		Loans:             httpadp.NewLoanHandler(loan.NewUsecase(sqlstore.NewLoanRepository(gdb), log)),
		Log:               log,
		ExposeErrorDetail: cfg.ExposeErrorDetail,
	}
	if cfg.IdempotencyEnabled() {
		rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		rc.Idempotency = middleware.Idempotency(rdb, cfg.IdempTTL(), httpadp.PartnerSecret, log)
		log.Info("idempotent submission enabled", zap.String("redis_addr", cfg.RedisAddr))
	}
	e := httpadp.NewRouter(rc)

	addr := ":" + cfg.AppPort
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
