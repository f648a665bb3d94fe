package inventory

import (
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Fold reduce una secuencia de movimientos a la cantidad disponible: Σin − Σout.
func Fold(entries []entity.LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Signed())
	}
	return total
}

// FoldByWarehouse agrupa el mismo plegado por bodega.
func FoldByWarehouse(entries []entity.LedgerEntry) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range entries {
		out[e.WarehouseID] = out[e.WarehouseID].Add(e.Signed())
	}
	return out
}

// Sum suma los valores de un plegado por bodega.
func Sum(byWarehouse map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, q := range byWarehouse {
		total = total.Add(q)
	}
	return total
}

// ValidateEntry verifica las invariantes de un movimiento antes de insertarlo:
// cantidad estrictamente positiva, dirección válida y producto/bodega de la misma sucursal.
func ValidateEntry(entry *entity.LedgerEntry, product *entity.Product, warehouse *entity.Warehouse) error {
	if entry.ProductID == "" || entry.WarehouseID == "" || entry.BranchID == "" {
		return domain.NewValidationError("entry", "producto, bodega y sucursal son requeridos")
	}
	if !entry.Quantity.IsPositive() {
		return domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	if domain.ExceedsScale(entry.Quantity) {
		return domain.NewValidationError("quantity", domain.ScaleReason)
	}
	if entry.UnitCost != nil && domain.ExceedsScale(*entry.UnitCost) {
		return domain.NewValidationError("unit_cost", domain.ScaleReason)
	}
	if entry.Direction != entity.DirectionIn && entry.Direction != entity.DirectionOut {
		return domain.NewValidationError("direction", "debe ser in u out")
	}
	if entry.Reference.Type == "" || entry.Reference.ID == "" {
		return domain.NewValidationError("reference", "tipo e id de referencia son requeridos")
	}
	if product == nil {
		return domain.NewValidationError("product_id", "producto inexistente")
	}
	if warehouse == nil {
		return domain.NewValidationError("warehouse_id", "bodega inexistente")
	}
	if product.BranchID != entry.BranchID || warehouse.BranchID != entry.BranchID {
		return domain.ErrBranchMismatch
	}
	return nil
}
