package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/pkg/logger"
)

func receive(t *testing.T, f *fixture, delta string, cost *string, ref *entity.Reference) {
	t.Helper()
	in := inventory.AdjustInput{
		BranchID: branchID, UserID: userID, ProductID: productX, WarehouseID: whA,
		Delta: dec(delta), Reference: ref,
	}
	if cost != nil {
		c := dec(*cost)
		in.UnitCost = &c
	}
	_, err := f.stock.Adjust(context.Background(), in)
	require.NoError(t, err)
}

func strp(s string) *string { return &s }

func productCost(t *testing.T, f *fixture) string {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), productX)
	require.NoError(t, err)
	return p.Cost.StringFixed(2)
}

func TestCostEstimator_PromedioPonderado(t *testing.T) {
	f := newFixture(t)
	receive(t, f, "10", strp("5"), nil)
	receive(t, f, "20", strp("8"), nil)
	receive(t, f, "-5", nil, nil)
	receive(t, f, "5", nil, nil)

	est := inventory.NewCostEstimator(f.store.Ledger(), f.store.Products(), nil, 0, logger.Nop(), nil)
	res, err := est.Recompute(context.Background(), productX)
	require.NoError(t, err)

	assert.True(t, res.Updated)
	assert.Equal(t, 3, res.Samples, "solo cuentan las entradas")
	assert.Equal(t, "7.00", res.Cost.StringFixed(2))
	assert.Equal(t, "7.00", productCost(t, f))
}

func TestCostEstimator_ResuelveCostoDeCompra(t *testing.T) {
	f := newFixture(t)
	f.store.SeedPurchaseCost("po-1", productX, dec("12"))
	receive(t, f, "4", nil, &entity.Reference{Type: entity.ReferencePurchase, ID: "po-1"})
	receive(t, f, "4", nil, &entity.Reference{Type: entity.ReferencePurchase, ID: "po-perdida"})

	est := inventory.NewCostEstimator(f.store.Ledger(), f.store.Products(), f.store, 0, logger.Nop(), nil)
	res, err := est.Recompute(context.Background(), productX)
	require.NoError(t, err)
	assert.True(t, res.Updated)
	assert.Equal(t, "12.00", res.Cost.StringFixed(2), "la compra sin línea disponible vale 0 y no arrastra el promedio")
}

func TestCostEstimator_SinCostosNoActualiza(t *testing.T) {
	f := newFixture(t)
	receive(t, f, "10", nil, nil)

	est := inventory.NewCostEstimator(f.store.Ledger(), f.store.Products(), nil, 0, logger.Nop(), nil)
	res, err := est.Recompute(context.Background(), productX)
	require.NoError(t, err)
	assert.False(t, res.Updated)
	assert.Equal(t, "0.00", productCost(t, f))
}

func TestCostEstimator_VentanaDeEntradasRecientes(t *testing.T) {
	f := newFixture(t)
	receive(t, f, "10", strp("100"), nil)
	receive(t, f, "10", strp("4"), nil)
	receive(t, f, "10", strp("6"), nil)

	est := inventory.NewCostEstimator(f.store.Ledger(), f.store.Products(), nil, 2, logger.Nop(), nil)
	res, err := est.Recompute(context.Background(), productX)
	require.NoError(t, err)
	assert.Equal(t, "5.00", res.Cost.StringFixed(2), "la entrada más antigua queda fuera de la ventana")
}

func TestCostEstimator_RecomputeAllYAlcance(t *testing.T) {
	f := newFixture(t)
	f.store.SeedProduct("product-y", branchID, "SKU-Y", dec("1"), dec("0"))
	receive(t, f, "2", strp("3"), nil)

	est := inventory.NewCostEstimator(f.store.Ledger(), f.store.Products(), nil, 0, logger.Nop(), nil)
	updated, err := est.RecomputeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, "3.00", productCost(t, f))

	_, err = est.RecomputeInBranch(context.Background(), otherID, productX)
	assert.ErrorIs(t, err, domain.ErrBranchMismatch)
	_, err = est.RecomputeInBranch(context.Background(), branchID, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCostEstimator_RecomputeBranchSoloSucursal(t *testing.T) {
	f := newFixture(t)
	f.store.SeedProduct("product-norte", otherID, "SKU-N", dec("1"), dec("0"))
	eight := dec("8")
	f.store.SeedStock(otherID, "product-norte", whForeign, dec("4"), &eight)
	receive(t, f, "2", strp("3"), nil)

	est := inventory.NewCostEstimator(f.store.Ledger(), f.store.Products(), nil, 0, logger.Nop(), nil)
	updated, err := est.RecomputeBranch(context.Background(), branchID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	norte, err := f.store.Products().GetByID(context.Background(), "product-norte")
	require.NoError(t, err)
	assert.True(t, norte.Cost.IsZero(), "la otra sucursal no se toca")

	_, err = est.RecomputeBranch(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
