package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestHasCode_DetectaErroresEnvueltos(t *testing.T) {
	unique := fmt.Errorf("insert sale: %w", &pgconn.PgError{Code: "23505"})
	lock := domain.Persistence("lock stock line", &pgconn.PgError{Code: "55P03"})

	assert.True(t, isUniqueViolation(unique))
	assert.False(t, isLockTimeout(unique))
	assert.True(t, isLockTimeout(lock))
	assert.True(t, isForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(errors.New("conexión rechazada")))
}

func TestMapTxError_TraduceLockTimeout(t *testing.T) {
	err := mapTxError(&pgconn.PgError{Code: "55P03"})
	assert.ErrorIs(t, err, domain.ErrStockLockTimeout)
}

func TestMapTxError_ConservaErroresDeDominio(t *testing.T) {
	shortage := &domain.StockShortageError{ProductID: "p", WarehouseID: "w"}
	assert.Same(t, shortage, mapTxError(shortage))

	err := mapTxError(errors.New("conexión cerrada"))
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	if got := nullIfEmpty("k-1"); assert.NotNil(t, got) {
		assert.Equal(t, "k-1", *got)
	}
}
