package repository

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia de ventas y sus líneas.
// Las filas son de solo inserción: devoluciones y anulaciones se guardan como ventas nuevas.
type SaleRepository interface {
	// Create persiste cabecera e ítems. Si la clave de idempotencia ya existe en la sucursal
	// devuelve domain.ErrDuplicateIdempotencyKey.
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	GetByIdempotencyKey(ctx context.Context, branchID, key string) (*entity.Sale, error)
	// GetForUpdate lee la venta y bloquea su fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	ListByParent(ctx context.Context, parentID string) ([]*entity.Sale, error)
}
