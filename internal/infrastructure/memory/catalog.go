package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.ProductRepository   = (*ProductRepo)(nil)
	_ repository.WarehouseRepository = (*WarehouseRepo)(nil)
	_ repository.BranchRepository    = (*BranchRepo)(nil)
)

// ProductRepo implementa repository.ProductRepository. Las altas se confirman de inmediato;
// UpdateCost dentro de una transacción se aplica al confirmar.
type ProductRepo struct {
	s  *Store
	tx *txState
}

// Create registra un producto nuevo.
func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	if product.ID == "" {
		return domain.NewValidationError("id", "es requerido")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[product.ID]; ok {
		return fmt.Errorf("%w: producto %s ya existe", domain.ErrInvalidInput, product.ID)
	}
	for _, p := range r.s.products {
		if p.BranchID == product.BranchID && p.SKU == product.SKU {
			return fmt.Errorf("%w: sku %s ya existe en la sucursal", domain.ErrInvalidInput, product.SKU)
		}
	}
	cp := *product
	r.s.products[product.ID] = &cp
	r.s.productOrder = append(r.s.productOrder, product.ID)
	return nil
}

// GetByID devuelve una copia del producto, o nil si no existe.
func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	if r.tx != nil {
		if cost, ok := r.tx.costs[id]; ok {
			cp.Cost = cost
		}
	}
	return &cp, nil
}

// UpdateCost actualiza el costo promedio del producto.
func (r *ProductRepo) UpdateCost(_ context.Context, productID string, cost decimal.Decimal) error {
	if r.tx != nil {
		r.tx.costs[productID] = cost
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Cost = cost
	return nil
}

// ListIDs pagina los IDs en orden de alta.
func (r *ProductRepo) ListIDs(_ context.Context, limit, offset int) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if offset >= len(r.s.productOrder) {
		return []string{}, nil
	}
	end := len(r.s.productOrder)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]string, end-offset)
	copy(out, r.s.productOrder[offset:end])
	return out, nil
}

// ListByBranch pagina los productos de la sucursal en orden de alta.
func (r *ProductRepo) ListByBranch(_ context.Context, branchID string, limit, offset int) ([]*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Product, 0)
	skipped := 0
	for _, id := range r.s.productOrder {
		p := r.s.products[id]
		if p.BranchID != branchID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// WarehouseRepo implementa repository.WarehouseRepository.
type WarehouseRepo struct {
	s *Store
}

// Create registra una bodega. La sucursal debe existir.
func (r *WarehouseRepo) Create(_ context.Context, warehouse *entity.Warehouse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.branches[warehouse.BranchID]; !ok {
		return domain.NewValidationError("branch_id", "sucursal inexistente")
	}
	cp := *warehouse
	r.s.warehouses[warehouse.ID] = &cp
	return nil
}

// GetByID devuelve la bodega o nil si no existe.
func (r *WarehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.warehouses[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

// ListByBranch devuelve las bodegas de la sucursal.
func (r *WarehouseRepo) ListByBranch(_ context.Context, branchID string) ([]*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Warehouse, 0)
	for _, w := range r.s.warehouses {
		if w.BranchID == branchID {
			cp := *w
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *entity.Warehouse) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// BranchRepo implementa repository.BranchRepository.
type BranchRepo struct {
	s *Store
}

// Create registra una sucursal.
func (r *BranchRepo) Create(_ context.Context, branch *entity.Branch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *branch
	r.s.branches[branch.ID] = &cp
	return nil
}

// GetByID devuelve la sucursal o nil si no existe.
func (r *BranchRepo) GetByID(_ context.Context, id string) (*entity.Branch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.branches[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}
