package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// txState acumula las escrituras de una transacción hasta el Commit.
type txState struct {
	ledger []*entity.LedgerEntry
	sales  []*entity.Sale
	costs  map[string]decimal.Decimal
	held   map[string]struct{}
	order  []string
}

func (t *txState) holds(key string) bool {
	_, ok := t.held[key]
	return ok
}

// lock adquiere key una sola vez por transacción; se libera al terminar.
func (s *Store) lock(ctx context.Context, t *txState, key string) error {
	if t.holds(key) {
		return nil
	}
	if err := s.locks.acquire(ctx, key, s.lockTimeout); err != nil {
		return err
	}
	t.held[key] = struct{}{}
	t.order = append(t.order, key)
	return nil
}

func (s *Store) releaseAll(t *txState) {
	for _, key := range t.order {
		s.locks.release(key)
	}
	t.held = make(map[string]struct{})
	t.order = nil
}

// Run ejecuta fn en una transacción. Si fn retorna error se descartan las escrituras;
// si no, se aplican todas juntas, se liberan los bloqueos y se ejecutan los hooks de AfterCommit.
func (s *Store) Run(ctx context.Context, fn func(tx *repository.Tx) error) error {
	state := &txState{
		costs: make(map[string]decimal.Decimal),
		held:  make(map[string]struct{}),
	}
	defer s.releaseAll(state)

	tx := &repository.Tx{
		Ledger:     &LedgerRepo{s: s, tx: state},
		Locks:      &StockLockRepo{s: s, tx: state},
		Products:   &ProductRepo{s: s, tx: state},
		Warehouses: &WarehouseRepo{s: s},
		Sales:      &SaleRepo{s: s, tx: state},
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.commit(state); err != nil {
		return err
	}
	s.releaseAll(state)
	tx.Committed()
	return nil
}

func (s *Store) commit(t *txState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sale := range t.sales {
		if sale.IdempotencyKey == "" {
			continue
		}
		if _, ok := s.idempotency[idemKey{sale.BranchID, sale.IdempotencyKey}]; ok {
			return domain.ErrDuplicateIdempotencyKey
		}
	}
	for productID := range t.costs {
		if _, ok := s.products[productID]; !ok {
			return domain.Persistence("commit", fmt.Errorf("producto %s desaparecido", productID))
		}
	}

	for _, e := range t.ledger {
		e.Seq = int64(len(s.ledger) + 1)
		s.ledger = append(s.ledger, *e)
		s.byProduct[e.ProductID] = append(s.byProduct[e.ProductID], len(s.ledger)-1)
	}
	for _, sale := range t.sales {
		s.putSale(sale)
	}
	for productID, cost := range t.costs {
		s.products[productID].Cost = cost
	}
	return nil
}

// StockLockRepo implementa repository.StockLockRepository sobre la tabla de bloqueos.
type StockLockRepo struct {
	s  *Store
	tx *txState
}

var _ repository.StockLockRepository = (*StockLockRepo)(nil)

// LockStockLine bloquea el par hasta el fin de la transacción.
func (r *StockLockRepo) LockStockLine(ctx context.Context, productID, warehouseID string) error {
	return r.s.lock(ctx, r.tx, stockLineKey(productID, warehouseID))
}
