package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var _ repository.StockLockRepository = (*StockLockRepo)(nil)

// StockLockRepo serializa escrituras por (producto, bodega) con filas de stock_lines.
// La fila no guarda cantidad: solo existe para poder hacer SELECT ... FOR UPDATE sobre ella.
type StockLockRepo struct {
	q Querier
}

// NewStockLockRepository construye el adaptador. Solo tiene sentido sobre una tx.
func NewStockLockRepository(q Querier) *StockLockRepo {
	return &StockLockRepo{q: q}
}

// LockStockLine crea la fila si falta y la bloquea hasta el fin de la transacción.
// Si lock_timeout vence devuelve domain.ErrStockLockTimeout.
func (r *StockLockRepo) LockStockLine(ctx context.Context, productID, warehouseID string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_lines (product_id, warehouse_id)
		VALUES ($1, $2)
		ON CONFLICT (product_id, warehouse_id) DO NOTHING`, productID, warehouseID)
	if err != nil {
		return r.mapErr("ensure stock line", err)
	}
	var locked string
	err = r.q.QueryRow(ctx, `
		SELECT product_id FROM stock_lines
		WHERE product_id = $1 AND warehouse_id = $2
		FOR UPDATE`, productID, warehouseID).Scan(&locked)
	if err != nil {
		return r.mapErr("lock stock line", err)
	}
	return nil
}

func (r *StockLockRepo) mapErr(op string, err error) error {
	switch {
	case isLockTimeout(err):
		return fmt.Errorf("%w: %s", domain.ErrStockLockTimeout, op)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: producto o bodega inexistente", domain.ErrNotFound)
	default:
		return domain.Persistence(op, err)
	}
}
