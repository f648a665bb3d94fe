package repository

import "context"

// StockLockRepository serializa las escrituras sobre una línea de stock (producto, bodega).
// El bloqueo dura hasta el fin de la transacción; si no se obtiene a tiempo devuelve
// domain.ErrStockLockTimeout.
type StockLockRepository interface {
	LockStockLine(ctx context.Context, productID, warehouseID string) error
}
