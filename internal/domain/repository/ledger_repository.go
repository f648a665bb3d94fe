package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LedgerQuery filtra la lectura ordenada del ledger. WarehouseID vacío = todas las bodegas.
// AfterSeq permite reanudar una exportación por tramos.
type LedgerQuery struct {
	ProductID   string
	WarehouseID string
	Since       *time.Time
	AfterSeq    int64
	Limit       int
}

// LedgerRepository define el puerto de persistencia del ledger de stock (solo inserción).
// No existe Update ni Delete: las correcciones son movimientos nuevos.
type LedgerRepository interface {
	Append(ctx context.Context, entry *entity.LedgerEntry) error
	// List devuelve movimientos ordenados por Seq ascendente.
	List(ctx context.Context, q LedgerQuery) ([]entity.LedgerEntry, error)
	// Fold suma Σin − Σout agrupado por bodega. warehouseID vacío = todas las bodegas del producto.
	Fold(ctx context.Context, productID, warehouseID string) (map[string]decimal.Decimal, error)
	// RecentInbound devuelve las últimas limit entradas del producto, más recientes primero.
	RecentInbound(ctx context.Context, productID string, limit int) ([]entity.LedgerEntry, error)
	ListByReference(ctx context.Context, ref entity.Reference) ([]entity.LedgerEntry, error)
}
