package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/austral-pos/austral-pos/internal/app"
	"github.com/austral-pos/austral-pos/internal/auth"
	"github.com/austral-pos/austral-pos/internal/inventory"
	"github.com/austral-pos/austral-pos/internal/masterdata/branches"
	"github.com/austral-pos/austral-pos/internal/masterdata/categories"
	"github.com/austral-pos/austral-pos/internal/masterdata/clients"
	"github.com/austral-pos/austral-pos/internal/masterdata/products"
	"github.com/austral-pos/austral-pos/internal/observability"
	"github.com/austral-pos/austral-pos/internal/platform/cache"
	"github.com/austral-pos/austral-pos/internal/platform/db"
	"github.com/austral-pos/austral-pos/internal/sales"
	"github.com/austral-pos/austral-pos/internal/servicedesk"
	"github.com/austral-pos/austral-pos/internal/shared"
	"github.com/austral-pos/austral-pos/internal/users"
	"github.com/austral-pos/austral-pos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := db.Migrate(cfg.PGDSN); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, stock cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	stockCache := cache.NewCache(redisClient, cfg.StockCacheTTL)

	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, cfg.JWTSecret, cfg.JWTTTL)
	authHandler := auth.NewHandler(logger, authService)

	branchHandler := branches.NewHandler(logger, branches.NewService(branches.NewRepository(pool)))
	categoryHandler := categories.NewHandler(logger, categories.NewService(categories.NewRepository(pool)))
	clientHandler := clients.NewHandler(logger, clients.NewService(clients.NewRepository(pool)))
	productHandler := products.NewHandler(logger, products.NewService(products.NewRepository(pool)))
	userHandler := users.NewHandler(logger, users.NewService(users.NewRepository(pool)))
	ticketHandler := servicedesk.NewHandler(logger, servicedesk.NewService(servicedesk.NewRepository(pool)))

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger, stockCache)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	salesRepo := sales.NewRepository(pool)
	salesService := sales.NewService(salesRepo, auditLogger, metrics, inventoryService)
	salesHandler := sales.NewHandler(logger, salesService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterConfig{
		Logger:      logger,
		Config:      cfg,
		Metrics:     metrics,
		AuthService: authService,
		Auth:        authHandler,
		Branches:    branchHandler,
		Categories:  categoryHandler,
		Clients:     clientHandler,
		Products:    productHandler,
		Users:       userHandler,
		ServiceDesk: ticketHandler,
		Inventory:   inventoryHandler,
		Sales:       salesHandler,
		Jobs:        jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
