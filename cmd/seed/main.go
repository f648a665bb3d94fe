// seed carga el catálogo de demostración en PostgreSQL (sucursal, bodegas, productos y
// saldos de apertura). Es idempotente: si la sucursal demo existe no hace nada.
//
// Uso: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/events"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/seed"
	"github.com/jhoicas/pos-ledger/pkg/config"
	"github.com/jhoicas/pos-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: cfg.App.Name}).Component("seed")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	products := postgres.NewProductRepository(pool)
	warehouses := postgres.NewWarehouseRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	// Sin caché: el proceso termina al cargar y la API invalida por TTL.
	ledger := inventory.NewLedgerStore(ledgerRepo, cache.NoopSnapshotCache{}, log)
	stock := inventory.NewStockService(
		postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout),
		ledger, products, warehouses, events.NewLogEmitter(log), log, nil,
	)

	repos := seed.Repos{
		Branches:   postgres.NewBranchRepository(pool),
		Warehouses: warehouses,
		Products:   products,
	}
	if err := seed.Demo(ctx, repos, stock, log); err != nil {
		log.Error().Err(err).Msg("carga de catálogo demo")
		pool.Close()
		os.Exit(1)
	}
}
