package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/memory"
)

func adjust(t *testing.T, f *fixture, wh, delta string) (*entity.LedgerEntry, error) {
	t.Helper()
	return f.stock.Adjust(context.Background(), inventory.AdjustInput{
		BranchID:    branchID,
		UserID:      userID,
		ProductID:   productX,
		WarehouseID: wh,
		Delta:       dec(delta),
		Note:        "conteo",
	})
}

func qty(t *testing.T, f *fixture, wh string) string {
	t.Helper()
	q, err := f.projector.CurrentQty(context.Background(), branchID, productX, wh)
	require.NoError(t, err)
	return q.String()
}

// ──────────────────────────────────────────────────────────────────────────────
// Adjust
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjust_EntradaYSalida(t *testing.T) {
	f := newFixture(t)

	in, err := adjust(t, f, whA, "100")
	require.NoError(t, err)
	assert.Equal(t, entity.DirectionIn, in.Direction)
	assert.Equal(t, entity.ReferenceAdjustment, in.Reference.Type)
	assert.NotEmpty(t, in.Reference.ID)
	assert.Equal(t, userID, in.CreatedBy)

	out, err := adjust(t, f, whA, "-30")
	require.NoError(t, err)
	assert.Equal(t, entity.DirectionOut, out.Direction)
	assert.Equal(t, "30", out.Quantity.String(), "la cantidad se guarda positiva; la dirección codifica el signo")

	assert.Equal(t, "70", qty(t, f, whA))
}

func TestAdjust_DeltaCeroEsInvalido(t *testing.T) {
	f := newFixture(t)
	_, err := adjust(t, f, whA, "0")
	assert.ErrorIs(t, err, domain.ErrInvalidAdjustment)
}

func TestAdjust_NoDejaStockNegativo(t *testing.T) {
	f := newFixture(t)
	_, err := adjust(t, f, whA, "10")
	require.NoError(t, err)

	_, err = adjust(t, f, whA, "-11")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.ErrorIs(t, err, domain.ErrInvalidAdjustment)

	var shortage *domain.StockShortageError
	require.True(t, errors.As(err, &shortage))
	assert.Equal(t, "10", shortage.Available.String())
	assert.Equal(t, "11", shortage.Requested.String())

	assert.Equal(t, "10", qty(t, f, whA))
}

func TestAdjust_RechazaReferenciasDeOtraSucursal(t *testing.T) {
	f := newFixture(t)

	_, err := adjust(t, f, whForeign, "5")
	assert.ErrorIs(t, err, domain.ErrBranchMismatch)

	_, err = f.stock.Adjust(context.Background(), inventory.AdjustInput{
		BranchID: otherID, ProductID: productX, WarehouseID: whForeign, Delta: dec("5"),
	})
	assert.ErrorIs(t, err, domain.ErrBranchMismatch)
}

func TestAdjust_ProductoInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.stock.Adjust(context.Background(), inventory.AdjustInput{
		BranchID: branchID, ProductID: "nope", WarehouseID: whA, Delta: dec("1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Dos ajustes concurrentes que por separado pasarían pero juntos dejarían el stock en
// negativo: exactamente uno gana.
func TestAdjust_CarreraConcurrente(t *testing.T) {
	f := newFixture(t)
	_, err := adjust(t, f, whA, "10")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	start := make(chan struct{})
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := adjust(t, f, whA, "-7")
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	var ok, short int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			short++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)
	assert.Equal(t, "3", qty(t, f, whA))
}

func TestAdjust_MuchasSalidasConcurrentesNuncaNegativo(t *testing.T) {
	f := newFixture(t)
	_, err := adjust(t, f, whA, "20")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := adjust(t, f, whA, "-1"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, succeeded)
	assert.Equal(t, "0", qty(t, f, whA))
}

func TestAdjust_TimeoutDeBloqueo(t *testing.T) {
	f := newFixture(t, memory.WithLockTimeout(50*time.Millisecond))

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- f.store.Run(context.Background(), func(tx *repository.Tx) error {
			if err := tx.Locks.LockStockLine(context.Background(), productX, whA); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	_, err := adjust(t, f, whA, "5")
	assert.ErrorIs(t, err, domain.ErrStockLockTimeout)
	assert.Equal(t, "0", qty(t, f, whA), "nada se persiste si no se obtiene el bloqueo")

	close(release)
	require.NoError(t, <-done)

	_, err = adjust(t, f, whA, "5")
	assert.NoError(t, err, "al liberarse el bloqueo el reintento funciona")
}

// ──────────────────────────────────────────────────────────────────────────────
// Transfer
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_ConservaElTotal(t *testing.T) {
	f := newFixture(t)
	_, err := adjust(t, f, whA, "50")
	require.NoError(t, err)

	out, in, err := f.stock.Transfer(context.Background(), inventory.TransferInput{
		BranchID: branchID, UserID: userID, ProductID: productX,
		FromWarehouseID: whA, ToWarehouseID: whB, Quantity: dec("20"),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DirectionOut, out.Direction)
	assert.Equal(t, entity.DirectionIn, in.Direction)
	assert.Equal(t, out.Reference, in.Reference, "ambos movimientos comparten la referencia del traslado")

	assert.Equal(t, "30", qty(t, f, whA))
	assert.Equal(t, "20", qty(t, f, whB))
	assert.Equal(t, "50", qty(t, f, ""))
}

func TestTransfer_CantidadMayorAlDisponible(t *testing.T) {
	f := newFixture(t)
	_, err := adjust(t, f, whA, "10")
	require.NoError(t, err)

	_, _, err = f.stock.Transfer(context.Background(), inventory.TransferInput{
		BranchID: branchID, ProductID: productX, FromWarehouseID: whA, ToWarehouseID: whB, Quantity: dec("11"),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.NotErrorIs(t, err, domain.ErrInvalidAdjustment)

	entries, err := f.store.Ledger().List(context.Background(), repository.LedgerQuery{ProductID: productX})
	require.NoError(t, err)
	assert.Len(t, entries, 1, "un traslado fallido no deja movimientos")
}

func TestTransfer_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.stock.Transfer(ctx, inventory.TransferInput{
		BranchID: branchID, ProductID: productX, FromWarehouseID: whA, ToWarehouseID: whA, Quantity: dec("1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = f.stock.Transfer(ctx, inventory.TransferInput{
		BranchID: branchID, ProductID: productX, FromWarehouseID: whA, ToWarehouseID: whB, Quantity: dec("0"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = f.stock.Transfer(ctx, inventory.TransferInput{
		BranchID: branchID, ProductID: productX, FromWarehouseID: whA, ToWarehouseID: whForeign, Quantity: dec("1"),
	})
	assert.ErrorIs(t, err, domain.ErrBranchMismatch)
}

// ──────────────────────────────────────────────────────────────────────────────
// ConsumeForSale / RestoreForReturn
// ──────────────────────────────────────────────────────────────────────────────

func TestConsumeForSale_TodoONada(t *testing.T) {
	f := newFixture(t)
	f.store.SeedProduct("product-y", branchID, "SKU-Y", dec("5"), dec("0"))
	_, err := adjust(t, f, whA, "10")
	require.NoError(t, err)

	ref := entity.Reference{Type: entity.ReferenceSale, ID: "sale-1"}
	err = f.store.Run(context.Background(), func(tx *repository.Tx) error {
		_, err := f.stock.ConsumeForSale(context.Background(), tx, branchID, userID, ref, []inventory.StockLine{
			{Line: 0, ProductID: productX, WarehouseID: whA, Quantity: dec("4")},
			{Line: 1, ProductID: "product-y", WarehouseID: whA, Quantity: dec("1")},
		})
		return err
	})
	var shortage *domain.StockShortageError
	require.True(t, errors.As(err, &shortage))
	assert.Equal(t, 1, shortage.Line)
	assert.Equal(t, "product-y", shortage.ProductID)

	entries, err := f.store.Ledger().ListByReference(context.Background(), ref)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, "10", qty(t, f, whA))
}

func TestConsumeForSale_LineasRepetidasSeSuman(t *testing.T) {
	f := newFixture(t)
	_, err := adjust(t, f, whA, "5")
	require.NoError(t, err)

	err = f.store.Run(context.Background(), func(tx *repository.Tx) error {
		_, err := f.stock.ConsumeForSale(context.Background(), tx, branchID, userID,
			entity.Reference{Type: entity.ReferenceSale, ID: "sale-2"},
			[]inventory.StockLine{
				{Line: 0, ProductID: productX, WarehouseID: whA, Quantity: dec("3")},
				{Line: 1, ProductID: productX, WarehouseID: whA, Quantity: dec("3")},
			})
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "5", qty(t, f, whA))
}

func TestRestoreForReturn_Reingresa(t *testing.T) {
	f := newFixture(t)
	ref := entity.Reference{Type: entity.ReferenceSaleReturn, ID: "ret-1"}

	var entries []*entity.LedgerEntry
	err := f.store.Run(context.Background(), func(tx *repository.Tx) error {
		var err error
		entries, err = f.stock.RestoreForReturn(context.Background(), tx, branchID, userID, ref, []inventory.StockLine{
			{Line: 0, ProductID: productX, WarehouseID: whB, Quantity: dec("2")},
		})
		return err
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.DirectionIn, entries[0].Direction)
	assert.Equal(t, "2", qty(t, f, whB))
}
