package main

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/application/pos"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/events"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-ledger/pkg/config"
	"github.com/jhoicas/pos-ledger/pkg/logger"
)

// backend agrupa los puertos de persistencia del driver elegido.
type backend struct {
	tx         inventory.TxRunner
	ledger     repository.LedgerRepository
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	branches   repository.BranchRepository
	sales      repository.SaleRepository
	taxes      pos.TaxResolver
	currency   pos.CurrencyConverter
	reconciler pos.PaymentReconciler
	costs      inventory.PurchaseCostResolver
	ping       func(ctx context.Context) error
	close      func()
}

func newBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	if cfg.Store.Driver == "memory" {
		log.Warn().Msg("STORE_DRIVER=memory: los datos se pierden al reiniciar")
		store := memory.New(memory.WithLockTimeout(cfg.Ledger.LockTimeout))
		return &backend{
			tx:         store,
			ledger:     store.Ledger(),
			products:   store.Products(),
			warehouses: store.Warehouses(),
			branches:   store.Branches(),
			sales:      store.Sales(),
			taxes:      store,
			currency:   store,
			reconciler: store,
			costs:      store,
			ping:       func(context.Context) error { return nil },
			close:      func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		return nil, err
	}
	lookups := postgres.NewCatalogLookups(pool)
	return &backend{
		tx:         postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout),
		ledger:     postgres.NewLedgerRepository(pool),
		products:   postgres.NewProductRepository(pool),
		warehouses: postgres.NewWarehouseRepository(pool),
		branches:   postgres.NewBranchRepository(pool),
		sales:      postgres.NewSaleRepository(pool),
		taxes:      lookups,
		currency:   lookups,
		reconciler: lookups,
		costs:      lookups,
		ping:       pool.Ping,
		close:      pool.Close,
	}, nil
}

// newSnapshotCache usa Redis si está configurado; si no, una caché local al proceso.
func newSnapshotCache(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (inventory.SnapshotCache, func(), error) {
	if !cfg.Enabled() {
		return cache.NewMemorySnapshotCache(cfg.SnapshotTTL), func() {}, nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.URL, cfg.Address, cfg.Password, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Dur("ttl", cfg.SnapshotTTL).Msg("caché de snapshots en Redis")
	return cache.NewRedisSnapshotCache(client, cfg.SnapshotTTL), func() {
		if err := client.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar cliente Redis")
		}
	}, nil
}

// newAuditEmitter publica en Kafka si hay brokers; si no, los eventos solo se registran en log.
func newAuditEmitter(cfg config.KafkaConfig, log *logger.Logger) (ports.AuditEmitter, func()) {
	if len(cfg.Brokers) == 0 {
		return events.NewLogEmitter(log), func() {}
	}
	emitter := events.NewKafkaEmitter(events.NewKafkaWriter(cfg.Brokers, cfg.Topic), 0)
	log.Info().Strs("brokers", cfg.Brokers).Str("topic", cfg.Topic).Msg("eventos de dominio hacia Kafka")
	return emitter, func() {
		if err := emitter.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar writer Kafka")
		}
	}
}
