// Package main provides a CLI tool for seeding the database with a profile,
// demo products and their opening stock.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/config"
	"stockledger/internal/core/apperror"
	corenumerator "stockledger/internal/core/numerator"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/auth"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/registers/inventory"
	"stockledger/internal/domain/registers/ledger"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/infrastructure/numerator"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/auth_repo"
	"stockledger/internal/infrastructure/storage/postgres/catalog_repo"
	"stockledger/internal/infrastructure/storage/postgres/register_repo"
	"stockledger/pkg/logger"
)

type productSeed struct {
	code      string
	name      string
	unit      string
	buyPrice  string
	sellPrice string
	safeStock int64
	opening   int64
}

// numberedColumns lists every stored number backed by a sequence counter.
var numberedColumns = []struct {
	prefix string
	table  string
	column string
}{
	{corenumerator.PrefixInvoice, "invoices", "number"},
	{corenumerator.PrefixDeliveryOrder, "scheduling_requests", "delivery_order_number"},
	{corenumerator.PrefixPurchaseRequest, "purchase_requests", "code"},
}

var demoProducts = []productSeed{
	{"SKU-001", "Kaos Polos Hitam", "pcs", "35000", "55000", 10, 40},
	{"SKU-002", "Kemeja Flanel", "pcs", "90000", "145000", 5, 12},
	{"SKU-003", "Topi Baseball", "pcs", "25000", "45000", 8, 3},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	userID := os.Getenv("SEED_USER_ID")
	if userID == "" {
		log.Fatal("SEED_USER_ID environment variable is required")
	}
	role := auth.Role(getEnv("SEED_USER_ROLE", string(auth.RoleAdmin)))
	switch role {
	case auth.RoleAdmin, auth.RoleWarehouse, auth.RoleStaff:
	default:
		log.Fatalw("unknown role", "role", role)
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txm := postgres.NewTxManager(pool)

	if err := auth_repo.NewProfileRepo(txm).Upsert(ctx, &auth.Profile{ID: userID, Role: role}); err != nil {
		log.Fatalw("failed to seed profile", "error", err)
	}
	log.Infow("profile seeded", "user_id", userID, "role", role)

	// Imported rows keep their numbers; counters are raised past them.
	if os.Getenv("SEED_SYNC_COUNTERS") == "true" {
		if err := syncCounters(ctx, pool, log); err != nil {
			log.Fatalw("failed to sync counters", "error", err)
		}
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, txm, cfg, log, userID); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	// A token is printed so the seeded user can call the API straight away.
	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.Issuer = cfg.JWTIssuer
	token, expiresAt, err := auth.NewJWTService(jwtConfig).GenerateAccessToken(userID, "", string(role))
	if err != nil {
		log.Fatalw("failed to sign token", "error", err)
	}
	log.Infow("development token issued", "expires_at", expiresAt)
	fmt.Println(token)

	log.Info("seeding completed successfully")
}

func seedDemoData(ctx context.Context, txm *postgres.TxManager, cfg config.Config, log *logger.Logger, ownerID string) error {
	log.Info("seeding demo data...")

	categories, err := inventory.NewCategories(cfg.WarehouseCategories...)
	if err != nil {
		return err
	}

	productRepo := catalog_repo.NewProductRepo(txm)
	inventoryRepo := register_repo.NewInventoryRepo(txm)
	stockService := stock.NewService(
		inventoryRepo,
		ledger.NewService(register_repo.NewLedgerRepo(txm)),
		productRepo,
		txm,
		categories,
	)
	products := product.NewService(productRepo, inventoryRepo)

	for _, seed := range demoProducts {
		p := product.NewProduct(ownerID, seed.code, seed.name, seed.unit)
		p.BuyPrice = types.MustMoney(seed.buyPrice)
		p.SellPrice = types.MustMoney(seed.sellPrice)
		p.SafeStock = seed.safeStock

		if err := products.Create(ctx, p); err != nil {
			if apperror.IsDuplicate(err) {
				log.Infow("product already exists", "code", seed.code)
				continue
			}
			return fmt.Errorf("create product %s: %w", seed.code, err)
		}

		res, err := stockService.ApplyTransaction(ctx, stock.TransactionInput{
			OwnerID:   ownerID,
			ProductID: p.ID,
			EventType: ledger.EventInitial,
			Quantity:  seed.opening,
			Category:  inventory.CategoryReadyToSell,
			Notes:     "opening stock",
		})
		if err != nil {
			return fmt.Errorf("opening stock %s: %w", seed.code, err)
		}
		log.Infow("product seeded", "code", seed.code, "stock", res.NewStock)
	}

	return nil
}

func syncCounters(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	gen := numerator.New(pool.Pool)

	for _, nc := range numberedColumns {
		var issued []corenumerator.IssuedNumber
		query := fmt.Sprintf(`SELECT user_id AS owner_id, %[1]s AS number FROM %[2]s WHERE %[1]s IS NOT NULL`, nc.column, nc.table)
		if err := pgxscan.Select(ctx, pool.Pool, &issued, query); err != nil {
			return fmt.Errorf("read %s.%s: %w", nc.table, nc.column, err)
		}

		touched, err := corenumerator.SeedFrom(ctx, gen, corenumerator.DefaultConfig(nc.prefix), issued)
		if err != nil {
			return err
		}
		log.Infow("counters synced", "prefix", nc.prefix, "rows", len(issued), "counters", touched)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
