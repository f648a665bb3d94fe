package memory

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo implementa repository.LedgerRepository. Dentro de una transacción las
// lecturas ven lo confirmado más lo insertado por la propia transacción.
type LedgerRepo struct {
	s  *Store
	tx *txState
}

// Append agrega el movimiento. Fuera de transacción se confirma de inmediato.
func (r *LedgerRepo) Append(_ context.Context, entry *entity.LedgerEntry) error {
	if r.tx != nil {
		r.tx.ledger = append(r.tx.ledger, entry)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.Seq = int64(len(r.s.ledger) + 1)
	r.s.ledger = append(r.s.ledger, *entry)
	r.s.byProduct[entry.ProductID] = append(r.s.byProduct[entry.ProductID], len(r.s.ledger)-1)
	return nil
}

// List devuelve movimientos en orden de Seq a partir de q.AfterSeq.
func (r *LedgerRepo) List(_ context.Context, q repository.LedgerQuery) ([]entity.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]entity.LedgerEntry, 0)
	start := int(q.AfterSeq)
	if start < 0 {
		start = 0
	}
	for i := start; i < len(r.s.ledger); i++ {
		if q.Limit > 0 && len(out) >= q.Limit {
			return out, nil
		}
		if matches(r.s.ledger[i], q) {
			out = append(out, r.s.ledger[i])
		}
	}
	if r.tx != nil {
		for _, e := range r.tx.ledger {
			if q.Limit > 0 && len(out) >= q.Limit {
				break
			}
			if matches(*e, q) {
				out = append(out, *e)
			}
		}
	}
	return out, nil
}

func matches(e entity.LedgerEntry, q repository.LedgerQuery) bool {
	if q.ProductID != "" && e.ProductID != q.ProductID {
		return false
	}
	if q.WarehouseID != "" && e.WarehouseID != q.WarehouseID {
		return false
	}
	if q.Since != nil && e.CreatedAt.Before(*q.Since) {
		return false
	}
	return true
}

// Fold suma Σin − Σout por bodega.
func (r *LedgerRepo) Fold(_ context.Context, productID, warehouseID string) (map[string]decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[string]decimal.Decimal)
	add := func(e entity.LedgerEntry) {
		if warehouseID != "" && e.WarehouseID != warehouseID {
			return
		}
		out[e.WarehouseID] = out[e.WarehouseID].Add(e.Signed())
	}
	for _, idx := range r.s.byProduct[productID] {
		add(r.s.ledger[idx])
	}
	if r.tx != nil {
		for _, e := range r.tx.ledger {
			if e.ProductID == productID {
				add(*e)
			}
		}
	}
	return out, nil
}

// RecentInbound devuelve hasta limit entradas del producto, de la más reciente a la más antigua.
func (r *LedgerRepo) RecentInbound(_ context.Context, productID string, limit int) ([]entity.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	idx := r.s.byProduct[productID]
	out := make([]entity.LedgerEntry, 0, limit)
	for i := len(idx) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.s.ledger[idx[i]]
		if e.Direction == entity.DirectionIn {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListByReference devuelve los movimientos de un documento en orden de inserción.
func (r *LedgerRepo) ListByReference(_ context.Context, ref entity.Reference) ([]entity.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]entity.LedgerEntry, 0)
	for _, e := range r.s.ledger {
		if e.Reference == ref {
			out = append(out, e)
		}
	}
	if r.tx != nil {
		for _, e := range r.tx.ledger {
			if e.Reference == ref {
				out = append(out, *e)
			}
		}
	}
	return out, nil
}
