package inventory

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/pos-ledger/internal/domain/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/logger"
)

const defaultPageSize = 500

// LedgerStore es la única puerta de escritura al ledger de stock.
// Valida cada movimiento, lo inserta en la transacción del caller y, tras el Commit,
// invalida la caché de snapshots del par (producto, bodega).
type LedgerStore struct {
	reader   repository.LedgerRepository
	cache    SnapshotCache
	log      *logger.Logger
	pageSize int
}

// NewLedgerStore construye el store. reader se usa para lecturas fuera de transacción.
func NewLedgerStore(reader repository.LedgerRepository, cache SnapshotCache, log *logger.Logger) *LedgerStore {
	return &LedgerStore{reader: reader, cache: cache, log: log.Component("ledger"), pageSize: defaultPageSize}
}

// Append valida e inserta el movimiento dentro de tx. Devuelve su ID.
func (s *LedgerStore) Append(ctx context.Context, tx *repository.Tx, entry *entity.LedgerEntry) (string, error) {
	product, err := tx.Products.GetByID(ctx, entry.ProductID)
	if err != nil {
		return "", err
	}
	warehouse, err := tx.Warehouses.GetByID(ctx, entry.WarehouseID)
	if err != nil {
		return "", err
	}
	if err := domaininv.ValidateEntry(entry, product, warehouse); err != nil {
		return "", err
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := tx.Ledger.Append(ctx, entry); err != nil {
		return "", err
	}
	productID, warehouseID := entry.ProductID, entry.WarehouseID
	tx.AfterCommit(func() { s.invalidate(productID, warehouseID) })
	return entry.ID, nil
}

// invalidate borra el snapshot del par y el total del producto. Un fallo solo cuesta latencia
// hasta que venza el TTL, por eso se registra y no se propaga.
func (s *LedgerStore) invalidate(productID, warehouseID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.cache.Invalidate(ctx,
		SnapshotKey{ProductID: productID, WarehouseID: warehouseID},
		SnapshotKey{ProductID: productID},
	)
	if err != nil {
		s.log.Warn().Err(err).Str("product_id", productID).Str("warehouse_id", warehouseID).
			Msg("no se pudo invalidar snapshot de stock")
	}
}

// Entries recorre los movimientos de forma perezosa, en orden de creación ascendente.
// Lee por tramos de q.Limit (o el tamaño por defecto); para reanudar una exportación basta
// con volver a llamar con AfterSeq = Seq del último movimiento recibido.
func (s *LedgerStore) Entries(ctx context.Context, q repository.LedgerQuery) iter.Seq2[entity.LedgerEntry, error] {
	return func(yield func(entity.LedgerEntry, error) bool) {
		page := q
		if page.Limit <= 0 || page.Limit > s.pageSize {
			page.Limit = s.pageSize
		}
		for {
			batch, err := s.reader.List(ctx, page)
			if err != nil {
				yield(entity.LedgerEntry{}, err)
				return
			}
			for _, e := range batch {
				if !yield(e, nil) {
					return
				}
				page.AfterSeq = e.Seq
			}
			if len(batch) < page.Limit {
				return
			}
		}
	}
}
