package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/pos-ledger/internal/domain"
)

// lockTable mantiene un semáforo de capacidad 1 por clave. Enviar al canal adquiere el
// bloqueo y recibir lo libera.
type lockTable struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[string]chan struct{})}
}

func (t *lockTable) slot(key string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		t.slots[key] = ch
	}
	return ch
}

// acquire espera el bloqueo hasta timeout. Devuelve domain.ErrStockLockTimeout si vence.
func (t *lockTable) acquire(ctx context.Context, key string, timeout time.Duration) error {
	ch := t.slot(key)
	select {
	case ch <- struct{}{}:
		return nil
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return domain.ErrStockLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *lockTable) release(key string) {
	<-t.slot(key)
}

func stockLineKey(productID, warehouseID string) string {
	return "stock:" + productID + ":" + warehouseID
}

func saleKey(saleID string) string {
	return "sale:" + saleID
}
