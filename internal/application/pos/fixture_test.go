package pos_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/pos"
	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/pos-ledger/pkg/logger"
)

const (
	branchID = "branch-1"
	otherID  = "branch-2"
	userID   = "cashier-1"
	whA      = "wh-a"
	whB      = "wh-b"
	productX = "product-x" // precio 10, IVA 19%
	productR = "product-r" // precio 19.995, sin impuesto
	foreignP = "product-foreign"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type recordingEmitter struct {
	mu     sync.Mutex
	events []ports.AuditEvent
	fail   bool
}

func (r *recordingEmitter) EmitAuditEvent(_ context.Context, ev ports.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if r.fail {
		return errors.New("bus no disponible")
	}
	return nil
}

func (r *recordingEmitter) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Action)
	}
	return out
}

type fixture struct {
	store     *memory.Store
	projector *inventory.QuantityProjector
	stock     *inventory.StockService
	engine    *pos.Engine
	sync      *pos.SyncAdapter
	audit     *recordingEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New(memory.WithLockTimeout(2 * time.Second))
	store.SeedBranch(branchID, "Centro", "COP")
	store.SeedBranch(otherID, "Norte", "COP")
	store.SeedWarehouse(whA, branchID, "Principal")
	store.SeedWarehouse(whB, branchID, "Trastienda")
	store.SeedWarehouse("wh-norte", otherID, "Norte")
	store.SeedProduct(productX, branchID, "SKU-X", dec("10"), dec("19"))
	store.SeedProduct(productR, branchID, "SKU-R", dec("19.995"), dec("0"))
	store.SeedProduct(foreignP, otherID, "SKU-F", dec("1"), dec("0"))
	store.SeedTax("iva-5", dec("5"))
	store.SeedRate("USD", "COP", dec("4000"))

	log := logger.Nop()
	snapshots := cache.NewMemorySnapshotCache(time.Minute)
	ledger := inventory.NewLedgerStore(store.Ledger(), snapshots, log)
	audit := &recordingEmitter{}
	stock := inventory.NewStockService(store, ledger, store.Products(), store.Warehouses(), audit, log, nil)
	engine := pos.NewEngine(pos.EngineDeps{
		Tx:         store,
		Stock:      stock,
		Products:   store.Products(),
		Warehouses: store.Warehouses(),
		Branches:   store.Branches(),
		Sales:      store.Sales(),
		Taxes:      store,
		Currency:   store,
		Reconciler: store,
		Audit:      audit,
		Log:        log,
	})
	return &fixture{
		store:     store,
		projector: inventory.NewQuantityProjector(store.Ledger(), store.Products(), store.Warehouses(), snapshots, log),
		stock:     stock,
		engine:    engine,
		sync:      pos.NewSyncAdapter(engine, store.Sales(), log, nil),
		audit:     audit,
	}
}

func (f *fixture) receive(t *testing.T, productID, wh, qty string) {
	t.Helper()
	_, err := f.stock.Adjust(context.Background(), inventory.AdjustInput{
		BranchID: branchID, UserID: "admin", ProductID: productID, WarehouseID: wh, Delta: dec(qty),
	})
	require.NoError(t, err)
}

func (f *fixture) qty(t *testing.T, productID, wh string) string {
	t.Helper()
	q, err := f.projector.CurrentQty(context.Background(), branchID, productID, wh)
	require.NoError(t, err)
	return q.String()
}

func cart(lines ...pos.CartLine) pos.CheckoutInput {
	return pos.CheckoutInput{BranchID: branchID, UserID: userID, WarehouseID: whA, Items: lines}
}

func line(productID, qty string) pos.CartLine {
	return pos.CartLine{ProductID: productID, Quantity: dec(qty)}
}
