package inventory

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario: Commit si fn retorna nil, Rollback en otro caso.
// Tras el Commit ejecuta los hooks registrados con tx.AfterCommit.
type TxRunner interface {
	Run(ctx context.Context, fn func(tx *repository.Tx) error) error
}

// SnapshotKey identifica una entrada de la caché de cantidades. WarehouseID vacío = total del producto.
type SnapshotKey struct {
	ProductID   string
	WarehouseID string
}

// Snapshot es una lectura de la caché. Version es la generación de la clave al leer: cada
// Invalidate la incrementa y un Set con una generación anterior nunca queda visible.
type Snapshot struct {
	Qty     decimal.Decimal
	Version int64
	Hit     bool
}

// SnapshotCache guarda proyecciones de cantidad. Nunca es fuente de verdad:
// puede vaciarse en cualquier momento sin afectar la corrección, solo la latencia.
type SnapshotCache interface {
	Get(ctx context.Context, key SnapshotKey) (Snapshot, error)
	// Set guarda qty para la generación version (la devuelta por Get antes de plegar).
	Set(ctx context.Context, key SnapshotKey, version int64, qty decimal.Decimal) error
	Invalidate(ctx context.Context, keys ...SnapshotKey) error
}

// PurchaseCostResolver resuelve el costo unitario de la línea de compra que originó una entrada.
// ok=false si la línea ya no está disponible.
type PurchaseCostResolver interface {
	ResolveUnitCost(ctx context.Context, ref entity.Reference, productID string) (cost decimal.Decimal, ok bool, err error)
}
