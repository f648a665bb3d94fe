package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/shopspring/decimal"
)

var _ inventory.SnapshotCache = (*RedisSnapshotCache)(nil)

const (
	keyPrefix     = "stock:snapshot:"
	versionPrefix = "stock:snapshot-version:"
)

// redisStore es el subconjunto de *redis.Client que usa la caché.
type redisStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// RedisSnapshotCache comparte los snapshots entre réplicas de la API.
// Cada clave tiene un contador de generación sin TTL; el valor se guarda con la generación
// como sufijo, así Invalidate (INCR) deja inalcanzable cualquier Set de un plegado anterior.
// El TTL acota cuánto sobreviven los valores huérfanos o uno cuya invalidación se perdió.
type RedisSnapshotCache struct {
	client redisStore
	ttl    time.Duration
}

// NewRedisSnapshotCache construye la caché sobre un cliente ya conectado.
func NewRedisSnapshotCache(client redisStore, ttl time.Duration) *RedisSnapshotCache {
	return &RedisSnapshotCache{client: client, ttl: ttl}
}

// NewRedisClient abre el cliente desde URL (redis://...) o dirección host:puerto.
func NewRedisClient(ctx context.Context, url, addr, password string, db int) (*redis.Client, error) {
	var opts *redis.Options
	if url != "" {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr, Password: password, DB: db}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// baseKey arma la clave base de un snapshot; el total del producto usa "*" como bodega.
func baseKey(key inventory.SnapshotKey) string {
	wh := key.WarehouseID
	if wh == "" {
		wh = "*"
	}
	return key.ProductID + ":" + wh
}

func valueKey(key inventory.SnapshotKey, version int64) string {
	return keyPrefix + baseKey(key) + ":" + strconv.FormatInt(version, 10)
}

func versionKey(key inventory.SnapshotKey) string {
	return versionPrefix + baseKey(key)
}

func (c *RedisSnapshotCache) Get(ctx context.Context, key inventory.SnapshotKey) (inventory.Snapshot, error) {
	version, err := c.client.Get(ctx, versionKey(key)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return inventory.Snapshot{}, err
	}
	snap := inventory.Snapshot{Version: version}

	name := valueKey(key, version)
	val, err := c.client.Get(ctx, name).Result()
	if errors.Is(err, redis.Nil) {
		return snap, nil
	}
	if err != nil {
		return inventory.Snapshot{}, err
	}
	qty, err := decimal.NewFromString(val)
	if err != nil {
		return inventory.Snapshot{}, fmt.Errorf("snapshot corrupto en %s: %w", name, err)
	}
	snap.Qty, snap.Hit = qty, true
	return snap, nil
}

func (c *RedisSnapshotCache) Set(ctx context.Context, key inventory.SnapshotKey, version int64, qty decimal.Decimal) error {
	return c.client.Set(ctx, valueKey(key, version), qty.String(), c.ttl).Err()
}

func (c *RedisSnapshotCache) Invalidate(ctx context.Context, keys ...inventory.SnapshotKey) error {
	for _, k := range keys {
		if err := c.client.Incr(ctx, versionKey(k)).Err(); err != nil {
			return err
		}
	}
	return nil
}
