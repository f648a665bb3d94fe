package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/pkg/logger"
)

func TestReplenishment_OrdenaPorDeficitRelativo(t *testing.T) {
	f := newFixture(t)
	f.store.SeedProduct("product-y", branchID, "SKU-Y", dec("5"), dec("0"))
	f.store.SeedProduct("product-z", branchID, "SKU-Z", dec("5"), dec("0"))
	f.store.SeedProduct("product-w", branchID, "SKU-W", dec("5"), dec("0"))
	f.store.SeedMinimumStock(productX, dec("10"))
	f.store.SeedMinimumStock("product-y", dec("4"))
	f.store.SeedMinimumStock("product-w", dec("5"))
	f.store.SeedStock(branchID, productX, whA, dec("2"), nil)
	f.store.SeedStock(branchID, "product-y", whA, dec("3"), nil)
	f.store.SeedStock(branchID, "product-w", whB, dec("5"), nil)

	uc := inventory.NewReplenishmentUseCase(f.store.Products(), f.projector, logger.Nop())
	list, err := uc.GenerateReplenishmentList(context.Background(), branchID, "")
	require.NoError(t, err)

	// Caso 1: Z no tiene mínimo y W está justo en el mínimo → quedan X e Y.
	require.Len(t, list, 2)
	assert.Equal(t, productX, list[0].ProductID, "X tiene 80% de déficit")
	assert.Equal(t, 1, list[0].Priority)
	assert.Equal(t, "15", list[0].IdealStock.String())
	assert.Equal(t, "13", list[0].SuggestedOrderQty.String())
	assert.Equal(t, "product-y", list[1].ProductID)
	assert.Equal(t, 2, list[1].Priority)
	assert.Equal(t, "3", list[1].SuggestedOrderQty.String())
}

func TestReplenishment_FiltraPorBodega(t *testing.T) {
	f := newFixture(t)
	f.store.SeedMinimumStock(productX, dec("4"))
	f.store.SeedStock(branchID, productX, whA, dec("10"), nil)

	uc := inventory.NewReplenishmentUseCase(f.store.Products(), f.projector, logger.Nop())

	all, err := uc.GenerateReplenishmentList(context.Background(), branchID, "")
	require.NoError(t, err)
	assert.Empty(t, all, "en total hay 10 unidades")

	onlyB, err := uc.GenerateReplenishmentList(context.Background(), branchID, whB)
	require.NoError(t, err)
	require.Len(t, onlyB, 1, "la trastienda está vacía")
	assert.Equal(t, "6", onlyB[0].SuggestedOrderQty.String())
}

func TestReplenishment_BodegaDeOtraSucursal(t *testing.T) {
	f := newFixture(t)
	f.store.SeedMinimumStock(productX, dec("4"))
	uc := inventory.NewReplenishmentUseCase(f.store.Products(), f.projector, logger.Nop())

	_, err := uc.GenerateReplenishmentList(context.Background(), branchID, whForeign)
	assert.ErrorIs(t, err, domain.ErrBranchMismatch)

	_, err = uc.GenerateReplenishmentList(context.Background(), "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
