package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/events"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/pos-ledger/pkg/logger"
)

const (
	branchID  = "branch-1"
	otherID   = "branch-2"
	userID    = "user-1"
	productX  = "product-x"
	whA       = "wh-a"
	whB       = "wh-b"
	whForeign = "wh-foreign"
)

type fixture struct {
	store     *memory.Store
	cache     *cache.MemorySnapshotCache
	ledger    *inventory.LedgerStore
	projector *inventory.QuantityProjector
	stock     *inventory.StockService
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// newFixture arma el núcleo de inventario sobre el store en memoria con una sucursal,
// dos bodegas, una bodega de otra sucursal y el producto X sin stock.
func newFixture(t *testing.T, opts ...memory.Option) *fixture {
	t.Helper()
	store := memory.New(opts...)
	store.SeedBranch(branchID, "Centro", "COP")
	store.SeedBranch(otherID, "Norte", "COP")
	store.SeedWarehouse(whA, branchID, "Principal")
	store.SeedWarehouse(whB, branchID, "Trastienda")
	store.SeedWarehouse(whForeign, otherID, "Norte")
	store.SeedProduct(productX, branchID, "SKU-X", dec("10"), dec("19"))

	log := logger.Nop()
	snapshots := cache.NewMemorySnapshotCache(time.Minute)
	ledger := inventory.NewLedgerStore(store.Ledger(), snapshots, log)
	return &fixture{
		store:     store,
		cache:     snapshots,
		ledger:    ledger,
		projector: inventory.NewQuantityProjector(store.Ledger(), store.Products(), store.Warehouses(), snapshots, log),
		stock:     inventory.NewStockService(store, ledger, store.Products(), store.Warehouses(), events.NoopEmitter{}, log, nil),
	}
}
