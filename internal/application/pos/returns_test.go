package pos_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/application/pos"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

func sellR(t *testing.T, f *fixture) *entity.Sale {
	t.Helper()
	f.receive(t, productR, whA, "10")
	l := line(productR, "3")
	l.Discount = dec("10")
	sale, err := f.engine.Checkout(context.Background(), cart(l))
	require.NoError(t, err)
	return sale
}

func TestReturn_ParcialYLuegoElResto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := sellR(t, f)
	assert.Equal(t, "7", f.qty(t, productR, whA))

	first, err := f.engine.Return(ctx, pos.ReturnInput{
		BranchID: branchID, UserID: userID, SaleID: sale.ID,
		Lines: []pos.ReturnLine{{Line: 0, Quantity: dec("1")}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.SaleKindReturn, first.Kind)
	assert.Equal(t, sale.ID, first.ParentSaleID)
	assert.Equal(t, entity.SaleStatusReturned, first.Status)
	assert.Equal(t, "18.00", first.GrandTotal.StringFixed(2))
	assert.Equal(t, "8", f.qty(t, productR, whA))

	rest, err := f.engine.Return(ctx, pos.ReturnInput{BranchID: branchID, UserID: userID, SaleID: sale.ID})
	require.NoError(t, err)
	assert.Equal(t, "2", rest.Items[0].Quantity.String())
	assert.Equal(t, "35.99", rest.GrandTotal.StringFixed(2))
	assert.True(t, first.GrandTotal.Add(rest.GrandTotal).Equal(sale.GrandTotal),
		"la suma de devoluciones coincide con la venta al centavo")
	assert.Equal(t, "10", f.qty(t, productR, whA))

	entries, err := f.store.Ledger().ListByReference(ctx, entity.Reference{Type: entity.ReferenceSaleReturn, ID: rest.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.DirectionIn, entries[0].Direction)

	_, err = f.engine.Return(ctx, pos.ReturnInput{BranchID: branchID, SaleID: sale.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidState, "no queda nada por devolver")

	original, err := f.store.Sales().GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCompleted, original.Status, "la venta original no se modifica")
	assert.Equal(t, sale.GrandTotal, original.GrandTotal)

	detail, err := f.engine.GetSale(ctx, branchID, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusReturned, detail.Status)
	assert.Len(t, detail.Documents, 2)
}

func TestReturn_NoExcedeLoVendido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := sellR(t, f)

	_, err := f.engine.Return(ctx, pos.ReturnInput{
		BranchID: branchID, SaleID: sale.ID,
		Lines: []pos.ReturnLine{{Line: 0, Quantity: dec("2")}, {Line: 0, Quantity: dec("2")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.engine.Return(ctx, pos.ReturnInput{
		BranchID: branchID, SaleID: sale.ID,
		Lines: []pos.ReturnLine{{Line: 5, Quantity: dec("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.engine.Return(ctx, pos.ReturnInput{
		BranchID: branchID, SaleID: sale.ID,
		Lines: []pos.ReturnLine{{Line: 0, Quantity: dec("0")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, "7", f.qty(t, productR, whA))
}

func TestReturn_OtraSucursalOInexistente(t *testing.T) {
	f := newFixture(t)
	sale := sellR(t, f)

	_, err := f.engine.Return(context.Background(), pos.ReturnInput{BranchID: otherID, SaleID: sale.ID})
	assert.ErrorIs(t, err, domain.ErrBranchMismatch)

	_, err = f.engine.Return(context.Background(), pos.ReturnInput{BranchID: branchID, SaleID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVoid_ReversionCompleta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := sellR(t, f)

	doc, err := f.engine.Void(ctx, pos.VoidInput{BranchID: branchID, UserID: userID, SaleID: sale.ID, Note: "error de caja"})
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusVoided, doc.Status)
	assert.True(t, doc.GrandTotal.Equal(sale.GrandTotal))
	assert.Equal(t, "10", f.qty(t, productR, whA))

	detail, err := f.engine.GetSale(ctx, branchID, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusVoided, detail.Status)

	_, err = f.engine.Void(ctx, pos.VoidInput{BranchID: branchID, SaleID: sale.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.engine.Return(ctx, pos.ReturnInput{BranchID: branchID, SaleID: sale.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, "10", f.qty(t, productR, whA))
}

func TestVoid_BloqueadaTrasDevolucion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := sellR(t, f)
	_, err := f.engine.Return(ctx, pos.ReturnInput{
		BranchID: branchID, SaleID: sale.ID,
		Lines: []pos.ReturnLine{{Line: 0, Quantity: dec("1")}},
	})
	require.NoError(t, err)

	_, err = f.engine.Void(ctx, pos.VoidInput{BranchID: branchID, SaleID: sale.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestVoid_BloqueadaSiElPagoFueConciliado(t *testing.T) {
	f := newFixture(t)
	sale := sellR(t, f)
	f.store.MarkReconciled(sale.ID)

	_, err := f.engine.Void(context.Background(), pos.VoidInput{BranchID: branchID, SaleID: sale.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, "7", f.qty(t, productR, whA))
}
