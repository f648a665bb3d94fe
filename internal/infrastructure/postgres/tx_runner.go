package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool. lockTimeout acota la espera por filas bloqueadas
// (SET LOCAL lock_timeout); 0 = sin límite.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, lockTimeout: lockTimeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Tras un Commit exitoso dispara los hooks AfterCommit.
func (r *TxRunner) Run(ctx context.Context, fn func(tx *repository.Tx) error) error {
	pgTx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Persistence("begin transaction", err)
	}
	defer func() { _ = pgTx.Rollback(ctx) }()

	if r.lockTimeout > 0 {
		ms := fmt.Sprintf("%dms", r.lockTimeout.Milliseconds())
		if _, err := pgTx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, ms); err != nil {
			return domain.Persistence("set lock_timeout", err)
		}
	}

	tx := &repository.Tx{
		Ledger:     NewLedgerRepository(pgTx),
		Locks:      NewStockLockRepository(pgTx),
		Products:   NewProductRepository(pgTx),
		Warehouses: NewWarehouseRepository(pgTx),
		Sales:      NewSaleRepository(pgTx),
	}

	if err := fn(tx); err != nil {
		return mapTxError(err)
	}
	if err := pgTx.Commit(ctx); err != nil {
		return mapTxError(domain.Persistence("commit transaction", err))
	}
	tx.Committed()
	return nil
}

// mapTxError traduce errores de PostgreSQL que el dominio distingue. Los errores de dominio pasan tal cual.
func mapTxError(err error) error {
	switch {
	case isLockTimeout(err):
		return fmt.Errorf("%w: %v", domain.ErrStockLockTimeout, err)
	case domain.IsDomainError(err), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return domain.Persistence("transaction", err)
	}
}
