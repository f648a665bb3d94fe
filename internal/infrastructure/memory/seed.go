package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SeedBranch registra una sucursal con moneda base.
func (s *Store) SeedBranch(id, name, currency string) *entity.Branch {
	b := &entity.Branch{ID: id, Name: name, BaseCurrency: currency, CreatedAt: time.Now().UTC()}
	_ = s.Branches().Create(context.Background(), b)
	return b
}

// SeedWarehouse registra una bodega de la sucursal.
func (s *Store) SeedWarehouse(id, branchID, name string) *entity.Warehouse {
	w := &entity.Warehouse{ID: id, BranchID: branchID, Name: name, CreatedAt: time.Now().UTC()}
	_ = s.Warehouses().Create(context.Background(), w)
	return w
}

// SeedProduct registra un producto con precio y tasa de impuesto (%).
func (s *Store) SeedProduct(id, branchID, sku string, price, taxRate decimal.Decimal) *entity.Product {
	now := time.Now().UTC()
	p := &entity.Product{
		ID:        id,
		BranchID:  branchID,
		SKU:       sku,
		Name:      sku,
		Price:     price,
		TaxRate:   taxRate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_ = s.Products().Create(context.Background(), p)
	return p
}

// SeedStock inserta un saldo de apertura confirmado. unitCost puede ser nil.
func (s *Store) SeedStock(branchID, productID, warehouseID string, qty decimal.Decimal, unitCost *decimal.Decimal) *entity.LedgerEntry {
	e := &entity.LedgerEntry{
		ID:          uuid.New().String(),
		ProductID:   productID,
		WarehouseID: warehouseID,
		BranchID:    branchID,
		Direction:   entity.DirectionIn,
		Quantity:    qty,
		Reference:   entity.Reference{Type: entity.ReferenceOpening, ID: uuid.New().String()},
		UnitCost:    unitCost,
		CreatedAt:   time.Now().UTC(),
	}
	_ = s.Ledger().Append(context.Background(), e)
	return e
}

// SeedTax registra un impuesto con su tasa en porcentaje.
func (s *Store) SeedTax(taxID string, rate decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taxes[taxID] = rate
}

// SeedRate registra la tasa de cambio from→to.
func (s *Store) SeedRate(from, to string, rate decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[[2]string{from, to}] = rate
}

// SeedPurchaseCost registra el costo de una línea de compra para el estimador de costos.
func (s *Store) SeedPurchaseCost(purchaseID, productID string, cost decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchaseCosts[purchaseKey{purchaseID, productID}] = cost
}

// MarkReconciled marca la venta como conciliada con el proveedor de pagos.
func (s *Store) MarkReconciled(saleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconciled[saleID] = true
}

// SeedMinimumStock fija el umbral de stock mínimo del producto.
func (s *Store) SeedMinimumStock(productID string, min decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		p.MinimumStock = min
	}
}
