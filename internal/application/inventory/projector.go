package inventory

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/domain"
	domaininv "github.com/jhoicas/pos-ledger/internal/domain/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

// QuantityProjector calcula la cantidad disponible plegando el ledger, con caché de snapshots.
// La caché se invalida (no se actualiza incrementalmente) en cada inserción del par.
type QuantityProjector struct {
	ledger     repository.LedgerRepository
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	cache      SnapshotCache
	log        *logger.Logger
}

// NewQuantityProjector construye el proyector.
func NewQuantityProjector(
	ledger repository.LedgerRepository,
	products repository.ProductRepository,
	warehouses repository.WarehouseRepository,
	cache SnapshotCache,
	log *logger.Logger,
) *QuantityProjector {
	return &QuantityProjector{
		ledger:     ledger,
		products:   products,
		warehouses: warehouses,
		cache:      cache,
		log:        log.Component("projector"),
	}
}

// CurrentQty devuelve la cantidad del producto en la bodega. Con warehouseID vacío suma
// todas las bodegas de la sucursal del producto.
func (p *QuantityProjector) CurrentQty(ctx context.Context, branchID, productID, warehouseID string) (decimal.Decimal, error) {
	if err := p.CheckScope(ctx, branchID, productID, warehouseID); err != nil {
		return decimal.Zero, err
	}

	key := SnapshotKey{ProductID: productID, WarehouseID: warehouseID}
	snap, cacheErr := p.cache.Get(ctx, key)
	if cacheErr != nil {
		p.log.Warn().Err(cacheErr).Str("product_id", productID).Msg("lectura de caché fallida, se pliega el ledger")
	} else if snap.Hit {
		return snap.Qty, nil
	}

	// La generación se leyó antes de plegar: si una inserción confirma durante el plegado,
	// su invalidación la incrementa y este Set queda descartado.
	byWarehouse, err := p.ledger.Fold(ctx, productID, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}
	var qty decimal.Decimal
	if warehouseID != "" {
		qty = byWarehouse[warehouseID]
	} else {
		qty = domaininv.Sum(byWarehouse)
	}
	if cacheErr == nil {
		if err := p.cache.Set(ctx, key, snap.Version, qty); err != nil {
			p.log.Warn().Err(err).Str("product_id", productID).Msg("no se pudo guardar snapshot")
		}
	}
	return qty, nil
}

// CurrentQtyPerWarehouse agrupa el mismo plegado por bodega. Incluye con cero las bodegas
// de la sucursal que nunca tuvieron movimientos del producto. Siempre pliega el ledger.
func (p *QuantityProjector) CurrentQtyPerWarehouse(ctx context.Context, branchID, productID string) (map[string]decimal.Decimal, error) {
	if err := p.CheckScope(ctx, branchID, productID, ""); err != nil {
		return nil, err
	}
	byWarehouse, err := p.ledger.Fold(ctx, productID, "")
	if err != nil {
		return nil, err
	}
	warehouses, err := p.warehouses.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(warehouses))
	for _, w := range warehouses {
		out[w.ID] = decimal.Zero
	}
	for id, qty := range byWarehouse {
		out[id] = qty
	}
	return out, nil
}

// CheckScope verifica que el producto (y la bodega, si se indica) existan y sean de la sucursal.
func (p *QuantityProjector) CheckScope(ctx context.Context, branchID, productID, warehouseID string) error {
	if productID == "" {
		return domain.NewValidationError("product_id", "es requerido")
	}
	product, err := p.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}
	if product.BranchID != branchID {
		return domain.ErrBranchMismatch
	}
	if warehouseID == "" {
		return nil
	}
	wh, err := p.warehouses.GetByID(ctx, warehouseID)
	if err != nil {
		return err
	}
	if wh == nil {
		return domain.ErrNotFound
	}
	if wh.BranchID != branchID {
		return domain.ErrBranchMismatch
	}
	return nil
}
