package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tokobatu/pos-ledger/internal/app"
	"github.com/tokobatu/pos-ledger/internal/cashbook"
	"github.com/tokobatu/pos-ledger/internal/catalog"
	"github.com/tokobatu/pos-ledger/internal/partners"
	"github.com/tokobatu/pos-ledger/internal/platform/cache"
	"github.com/tokobatu/pos-ledger/internal/platform/db"
	"github.com/tokobatu/pos-ledger/internal/purchasing"
	"github.com/tokobatu/pos-ledger/internal/reports"
	"github.com/tokobatu/pos-ledger/internal/sales"
	"github.com/tokobatu/pos-ledger/internal/shared"
	"github.com/tokobatu/pos-ledger/internal/stock"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Redis is optional: without it views are simply not cached.
	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Warn("redis unavailable, view cache disabled", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	views := shared.NewViewInvalidator(redisClient, logger)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo, views)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	partnersRepo := partners.NewRepository(pool)
	partnersService := partners.NewService(partnersRepo, views)
	partnersHandler := partners.NewHandler(logger, partnersService)

	salesRepo := sales.NewRepository(pool)
	salesService := sales.NewService(salesRepo, views)
	salesHandler := sales.NewHandler(logger, salesService)

	purchasingRepo := purchasing.NewRepository(pool)
	purchasingService := purchasing.NewService(purchasingRepo, views)
	purchasingHandler := purchasing.NewHandler(logger, purchasingService)

	cashbookRepo := cashbook.NewRepository(pool)
	cashbookService := cashbook.NewService(cashbookRepo, views)
	cashbookHandler := cashbook.NewHandler(logger, cashbookService)

	stockRepo := stock.NewRepository(pool)
	stockService := stock.NewService(stockRepo, views)
	stockHandler := stock.NewHandler(logger, stockService)

	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo, redisClient, logger)
	reportsHandler := reports.NewHandler(logger, reportsService)

	if err := partnersService.Bootstrap(ctx); err != nil {
		logger.Error("bootstrap walk-in customer", slog.Any("error", err))
		os.Exit(1)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		CatalogHandler:    catalogHandler,
		PartnersHandler:   partnersHandler,
		SalesHandler:      salesHandler,
		PurchasingHandler: purchasingHandler,
		CashbookHandler:   cashbookHandler,
		StockHandler:      stockHandler,
		ReportsHandler:    reportsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
