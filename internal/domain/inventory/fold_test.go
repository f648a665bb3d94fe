package inventory_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/inventory"
)

func entry(wh, dir, qty string) entity.LedgerEntry {
	return entity.LedgerEntry{
		ProductID:   "p-1",
		WarehouseID: wh,
		BranchID:    "b-1",
		Direction:   dir,
		Quantity:    decimal.RequireFromString(qty),
		Reference:   entity.Reference{Type: entity.ReferenceAdjustment, ID: "r-1"},
	}
}

func TestFold_EntradasMenosSalidas(t *testing.T) {
	entries := []entity.LedgerEntry{
		entry("w-a", entity.DirectionIn, "100"),
		entry("w-a", entity.DirectionOut, "30"),
		entry("w-b", entity.DirectionIn, "5.5"),
		entry("w-b", entity.DirectionOut, "0.5"),
	}

	assert.Equal(t, "75", inventory.Fold(entries).String())

	byWh := inventory.FoldByWarehouse(entries)
	assert.Equal(t, "70", byWh["w-a"].String())
	assert.Equal(t, "5", byWh["w-b"].String())
	assert.True(t, inventory.Sum(byWh).Equal(inventory.Fold(entries)))
}

func TestFold_SinMovimientos(t *testing.T) {
	assert.True(t, inventory.Fold(nil).IsZero())
	assert.Empty(t, inventory.FoldByWarehouse(nil))
}

func TestValidateEntry(t *testing.T) {
	product := &entity.Product{ID: "p-1", BranchID: "b-1"}
	warehouse := &entity.Warehouse{ID: "w-a", BranchID: "b-1"}

	ok := entry("w-a", entity.DirectionIn, "1")
	require.NoError(t, inventory.ValidateEntry(&ok, product, warehouse))

	var verr *domain.ValidationError

	zero := entry("w-a", entity.DirectionIn, "0")
	assert.ErrorIs(t, inventory.ValidateEntry(&zero, product, warehouse), domain.ErrInvalidInput)

	neg := entry("w-a", entity.DirectionOut, "-2")
	assert.ErrorIs(t, inventory.ValidateEntry(&neg, product, warehouse), domain.ErrInvalidInput)

	fine := entry("w-a", entity.DirectionIn, "0.00001")
	require.True(t, errors.As(inventory.ValidateEntry(&fine, product, warehouse), &verr))
	assert.Equal(t, "quantity", verr.Field)

	badDir := entry("w-a", "sideways", "1")
	assert.ErrorIs(t, inventory.ValidateEntry(&badDir, product, warehouse), domain.ErrInvalidInput)

	noRef := entry("w-a", entity.DirectionIn, "1")
	noRef.Reference = entity.Reference{}
	require.True(t, errors.As(inventory.ValidateEntry(&noRef, product, warehouse), &verr))
	assert.Equal(t, "reference", verr.Field)

	other := &entity.Warehouse{ID: "w-x", BranchID: "b-2"}
	cross := entry("w-x", entity.DirectionIn, "1")
	assert.ErrorIs(t, inventory.ValidateEntry(&cross, product, other), domain.ErrBranchMismatch)

	assert.ErrorIs(t, inventory.ValidateEntry(&ok, nil, warehouse), domain.ErrInvalidInput)
}
