package memory

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementa repository.SaleRepository.
type SaleRepo struct {
	s  *Store
	tx *txState
}

func copySale(sale *entity.Sale) *entity.Sale {
	cp := *sale
	cp.Items = append([]entity.SaleItem(nil), sale.Items...)
	return &cp
}

// putSale indexa la venta. Requiere s.mu tomado para escritura.
func (s *Store) putSale(sale *entity.Sale) {
	s.sales[sale.ID] = copySale(sale)
	if sale.ParentSaleID != "" {
		s.byParent[sale.ParentSaleID] = append(s.byParent[sale.ParentSaleID], sale.ID)
	}
	if sale.IdempotencyKey != "" {
		s.idempotency[idemKey{sale.BranchID, sale.IdempotencyKey}] = sale.ID
	}
}

// Create guarda la venta. La clave de idempotencia es única por sucursal; la unicidad se
// vuelve a verificar al confirmar por si otra transacción ganó la carrera.
func (r *SaleRepo) Create(_ context.Context, sale *entity.Sale) error {
	if sale.ID == "" {
		return domain.NewValidationError("id", "es requerido")
	}
	if r.tx == nil {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
		if sale.IdempotencyKey != "" {
			if _, ok := r.s.idempotency[idemKey{sale.BranchID, sale.IdempotencyKey}]; ok {
				return domain.ErrDuplicateIdempotencyKey
			}
		}
		r.s.putSale(sale)
		return nil
	}

	if sale.IdempotencyKey != "" {
		r.s.mu.RLock()
		_, taken := r.s.idempotency[idemKey{sale.BranchID, sale.IdempotencyKey}]
		r.s.mu.RUnlock()
		if taken {
			return domain.ErrDuplicateIdempotencyKey
		}
		for _, staged := range r.tx.sales {
			if staged.BranchID == sale.BranchID && staged.IdempotencyKey == sale.IdempotencyKey {
				return domain.ErrDuplicateIdempotencyKey
			}
		}
	}
	r.tx.sales = append(r.tx.sales, copySale(sale))
	return nil
}

// GetByID devuelve la venta o nil si no existe.
func (r *SaleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	if r.tx != nil {
		for _, staged := range r.tx.sales {
			if staged.ID == id {
				return copySale(staged), nil
			}
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sale, ok := r.s.sales[id]
	if !ok {
		return nil, nil
	}
	return copySale(sale), nil
}

// GetByIdempotencyKey busca la venta registrada con la clave en la sucursal.
func (r *SaleRepo) GetByIdempotencyKey(ctx context.Context, branchID, key string) (*entity.Sale, error) {
	if r.tx != nil {
		for _, staged := range r.tx.sales {
			if staged.BranchID == branchID && staged.IdempotencyKey == key {
				return copySale(staged), nil
			}
		}
	}
	r.s.mu.RLock()
	id, ok := r.s.idempotency[idemKey{branchID, key}]
	r.s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// GetForUpdate bloquea la venta hasta el fin de la transacción y la devuelve.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	if r.tx != nil {
		if err := r.s.lock(ctx, r.tx, saleKey(id)); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// ListByParent devuelve devoluciones y anulaciones de una venta en orden de registro.
func (r *SaleRepo) ListByParent(_ context.Context, parentID string) ([]*entity.Sale, error) {
	r.s.mu.RLock()
	out := make([]*entity.Sale, 0)
	for _, id := range r.s.byParent[parentID] {
		out = append(out, copySale(r.s.sales[id]))
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for _, staged := range r.tx.sales {
			if staged.ParentSaleID == parentID {
				out = append(out, copySale(staged))
			}
		}
	}
	return out, nil
}
