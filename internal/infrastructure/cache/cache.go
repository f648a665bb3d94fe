package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/shopspring/decimal"
)

var (
	_ inventory.SnapshotCache = NoopSnapshotCache{}
	_ inventory.SnapshotCache = (*MemorySnapshotCache)(nil)
)

// NoopSnapshotCache nunca guarda nada: cada lectura pliega el ledger.
type NoopSnapshotCache struct{}

func (NoopSnapshotCache) Get(_ context.Context, _ inventory.SnapshotKey) (inventory.Snapshot, error) {
	return inventory.Snapshot{}, nil
}

func (NoopSnapshotCache) Set(_ context.Context, _ inventory.SnapshotKey, _ int64, _ decimal.Decimal) error {
	return nil
}

func (NoopSnapshotCache) Invalidate(_ context.Context, _ ...inventory.SnapshotKey) error {
	return nil
}

type memoryItem struct {
	qty     decimal.Decimal
	version int64
	expires time.Time
}

// MemorySnapshotCache guarda snapshots en el proceso con vencimiento. Las generaciones por
// clave no vencen: son las que descartan un Set hecho con un plegado anterior a la invalidación.
type MemorySnapshotCache struct {
	mu       sync.Mutex
	items    map[inventory.SnapshotKey]memoryItem
	versions map[inventory.SnapshotKey]int64
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySnapshotCache crea la caché. ttl <= 0 desactiva el vencimiento.
func NewMemorySnapshotCache(ttl time.Duration) *MemorySnapshotCache {
	return &MemorySnapshotCache{
		items:    make(map[inventory.SnapshotKey]memoryItem),
		versions: make(map[inventory.SnapshotKey]int64),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (c *MemorySnapshotCache) Get(_ context.Context, key inventory.SnapshotKey) (inventory.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := inventory.Snapshot{Version: c.versions[key]}
	item, ok := c.items[key]
	if !ok {
		return snap, nil
	}
	if item.version != snap.Version || (!item.expires.IsZero() && c.now().After(item.expires)) {
		delete(c.items, key)
		return snap, nil
	}
	snap.Qty, snap.Hit = item.qty, true
	return snap, nil
}

func (c *MemorySnapshotCache) Set(_ context.Context, key inventory.SnapshotKey, version int64, qty decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if version != c.versions[key] {
		return nil
	}
	item := memoryItem{qty: qty, version: version}
	if c.ttl > 0 {
		item.expires = c.now().Add(c.ttl)
	}
	c.items[key] = item
	return nil
}

func (c *MemorySnapshotCache) Invalidate(_ context.Context, keys ...inventory.SnapshotKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.versions[k]++
		delete(c.items, k)
	}
	return nil
}

// Len devuelve la cantidad de snapshots guardados (incluidos los vencidos aún no leídos).
func (c *MemorySnapshotCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
