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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tableside-pos/api/internal/config"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/events"
	"github.com/tableside-pos/api/internal/jobs"
	"github.com/tableside-pos/api/internal/logger"
	"github.com/tableside-pos/api/internal/router"
	"github.com/tableside-pos/api/internal/service"
	"github.com/tableside-pos/api/internal/ws"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg.LogMode, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := database.Migrate(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			return err
		}
		zap.S().Infow("migrations applied", "dir", cfg.MigrationsDir)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	hub := ws.NewHub()
	go hub.Run(ctx)

	publishers := events.Multi{hub}
	if cfg.RabbitMQURL != "" {
		rabbit, err := events.DialRabbit(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}
		defer rabbit.Close()
		publishers = append(publishers, rabbit)
		zap.S().Infow("publishing order events", "exchange", events.Exchange)
	}

	queries := database.New(pool)

	catalog := service.NewCatalogService(pool, queries, func(db database.DBTX) service.CatalogStore {
		return database.New(db)
	})
	orders := service.NewOrderService(pool, queries, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}, service.OrderConfig{
		TaxRate:  cfg.TaxRate,
		Location: cfg.Location,
		Events:   publishers,
	})
	reports := service.NewReportService(pool, queries, func(db database.DBTX) service.ReportStore {
		return database.New(db)
	}, cfg.Location)

	sched := jobs.NewScheduler(reports, cfg.Location)
	if err := sched.ScheduleDailyReport(cfg.ReportCron); err != nil {
		return err
	}
	sched.Start()

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.New(cfg, router.Services{
			Catalog: catalog,
			Orders:  orders,
			Reports: reports,
		}, hub),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.S().Infow("starting server",
			"port", cfg.Port,
			"tax_rate", cfg.TaxRate.String(),
			"timezone", cfg.Location.String(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		zap.S().Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sched.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
