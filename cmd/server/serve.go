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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"stockledger/internal/config"
	"stockledger/internal/domain/auth"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/documents/invoice"
	pr "stockledger/internal/domain/documents/purchase_request"
	sr "stockledger/internal/domain/documents/scheduling_request"
	"stockledger/internal/domain/registers/inventory"
	"stockledger/internal/domain/registers/ledger"
	"stockledger/internal/domain/registers/stock"
	v1 "stockledger/internal/infrastructure/http/v1"
	"stockledger/internal/infrastructure/http/v1/dto"
	"stockledger/internal/infrastructure/lock"
	"stockledger/internal/infrastructure/numerator"
	"stockledger/internal/infrastructure/storage/migrations"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/auth_repo"
	"stockledger/internal/infrastructure/storage/postgres/catalog_repo"
	"stockledger/internal/infrastructure/storage/postgres/document_repo"
	"stockledger/internal/infrastructure/storage/postgres/register_repo"
	"stockledger/pkg/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	log.Infow("starting stock ledger server", "env", cfg.AppEnv)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.AutoMigrate {
		if err := migrations.Up(cfg.DatabaseURL, log.Desugar(), false); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
	}

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txm := postgres.NewTxManager(pool)

	categories, err := inventory.NewCategories(cfg.WarehouseCategories...)
	if err != nil {
		return fmt.Errorf("warehouse categories: %w", err)
	}
	if err := dto.RegisterValidators(categories); err != nil {
		return fmt.Errorf("register validators: %w", err)
	}

	// --- Repositories ---
	inventoryRepo := register_repo.NewInventoryRepo(txm)
	ledgerRepo := register_repo.NewLedgerRepo(txm)
	productRepo := catalog_repo.NewProductRepo(txm)
	purchaseRepo := document_repo.NewPurchaseRequestRepo(txm)
	invoiceRepo := document_repo.NewInvoiceRepo(txm)
	schedulingRepo := document_repo.NewSchedulingRequestRepo(txm)
	profileRepo := auth_repo.NewProfileRepo(txm)

	// Numbers are allocated on the pool so a counter bump commits even when
	// the document insert that consumed it is retried.
	numbers := numerator.New(pool.Pool)

	// --- Stock locks ---
	var stockOpts []stock.Option
	if cfg.RedisAddress != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		defer func() { _ = client.Close() }()

		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}

		lockCfg := lock.DefaultConfig()
		lockCfg.TTL = cfg.LockTTL
		stockOpts = append(stockOpts, stock.WithLocker(lock.NewRedisLocker(client, lockCfg)))
		log.Infow("redis stock locks enabled", "address", cfg.RedisAddress, "ttl", cfg.LockTTL)
	}

	// --- Services ---
	stockService := stock.NewService(inventoryRepo, ledger.NewService(ledgerRepo), productRepo, txm, categories, stockOpts...)
	productService := product.NewService(productRepo, inventoryRepo)
	purchaseService := pr.NewService(purchaseRepo, productRepo, stockService, numbers, txm, categories, cfg.NumberRetryAttempts)
	invoiceService := invoice.NewService(invoiceRepo, productRepo, numbers, txm, cfg.NumberRetryAttempts)
	schedulingService := sr.NewService(schedulingRepo, numbers, txm, cfg.NumberRetryAttempts)

	// --- Auth ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.Issuer = cfg.JWTIssuer
	jwtService := auth.NewJWTService(jwtConfig)

	// --- Router ---
	routerCfg := v1.RouterConfig{
		Logger:             log,
		JWTValidator:       jwtService,
		Roles:              auth.NewRoleChecker(profileRepo),
		Health:             pool,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Stock:              stockService,
		Products:           productService,
		PurchaseRequests:   purchaseService,
		Invoices:           invoiceService,
		SchedulingRequest:  schedulingService,
	}
	if cfg.IdempotencyEnabled {
		routerCfg.Idempotency = postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL)
	}
	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
