package pos

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/logger"
	"github.com/jhoicas/pos-ledger/pkg/metrics"
)

// Estados por transacción de un lote sincronizado.
const (
	SyncAccepted  = "accepted"
	SyncDuplicate = "duplicate"
	SyncRejected  = "rejected"
)

// ReplayResult es el resultado de reproducir una transacción externa.
// Duplicate indica que la clave ya existía y Sale es la venta original sin cambios;
// PayloadMismatch, que el contenido reenviado difiere del registrado.
type ReplayResult struct {
	Sale            *entity.Sale
	Duplicate       bool
	PayloadMismatch bool
}

// SyncItemResult estado de una transacción dentro de un lote.
type SyncItemResult struct {
	Index           int
	IdempotencyKey  string
	Status          string
	SaleID          string
	PayloadMismatch bool
	Code            string
	Error           error
}

// SyncAdapter reproduce transacciones de fuentes que reenvían (cajas offline, webhooks de
// tienda online) garantizando que cada clave consuma stock como máximo una vez.
type SyncAdapter struct {
	engine  *Engine
	sales   repository.SaleRepository
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewSyncAdapter construye el adaptador.
func NewSyncAdapter(engine *Engine, sales repository.SaleRepository, log *logger.Logger, m *metrics.Metrics) *SyncAdapter {
	return &SyncAdapter{engine: engine, sales: sales, log: log.Component("sync"), metrics: m}
}

// Replay busca una venta con la clave de idempotencia; si existe la devuelve sin volver a
// consumir stock, si no ejecuta el checkout normal guardando la clave. Si otra réplica gana
// la carrera entre la búsqueda y el Commit, devuelve la venta de la ganadora.
func (a *SyncAdapter) Replay(ctx context.Context, in CheckoutInput) (ReplayResult, error) {
	if in.IdempotencyKey == "" {
		return ReplayResult{}, domain.NewValidationError("idempotency_key", "es requerida para sincronizar")
	}
	if res, ok, err := a.lookup(ctx, in); err != nil || ok {
		return res, err
	}

	sale, err := a.engine.Checkout(ctx, in)
	if errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
		res, ok, lookupErr := a.lookup(ctx, in)
		if lookupErr != nil {
			return ReplayResult{}, lookupErr
		}
		if ok {
			return res, nil
		}
	}
	if err != nil {
		return ReplayResult{}, err
	}
	return ReplayResult{Sale: sale}, nil
}

func (a *SyncAdapter) lookup(ctx context.Context, in CheckoutInput) (ReplayResult, bool, error) {
	existing, err := a.sales.GetByIdempotencyKey(ctx, in.BranchID, in.IdempotencyKey)
	if err != nil {
		return ReplayResult{}, false, err
	}
	if existing == nil {
		return ReplayResult{}, false, nil
	}
	res := ReplayResult{
		Sale:            existing,
		Duplicate:       true,
		PayloadMismatch: existing.PayloadHash != "" && existing.PayloadHash != PayloadHash(in),
	}
	if res.PayloadMismatch {
		a.log.Branch(in.BranchID).Warn().Str("idempotency_key", in.IdempotencyKey).
			Str("sale_id", existing.ID).Msg("clave reutilizada con contenido distinto, se conserva la venta original")
	}
	return res, true, nil
}

// SyncBatch reproduce un lote en orden. Cada transacción se resuelve por separado: un
// rechazo no afecta a las demás. branchID y userID se imponen a todas las transacciones.
func (a *SyncAdapter) SyncBatch(ctx context.Context, branchID, userID string, batch []CheckoutInput) []SyncItemResult {
	results := make([]SyncItemResult, 0, len(batch))
	for i, in := range batch {
		in.BranchID = branchID
		in.UserID = userID
		item := SyncItemResult{Index: i, IdempotencyKey: in.IdempotencyKey}

		res, err := a.Replay(ctx, in)
		switch {
		case err != nil:
			item.Status = SyncRejected
			item.Code = inventory.ResultLabel(err)
			item.Error = err
			a.log.Info().Err(err).Int("index", i).Str("idempotency_key", in.IdempotencyKey).Msg("transacción sincronizada rechazada")
		case res.Duplicate:
			item.Status = SyncDuplicate
			item.SaleID = res.Sale.ID
			item.PayloadMismatch = res.PayloadMismatch
		default:
			item.Status = SyncAccepted
			item.SaleID = res.Sale.ID
		}
		a.metrics.IncSyncItem(item.Status)
		results = append(results, item)
	}
	return results
}

type canonicalLine struct {
	ProductID    string `json:"p"`
	Quantity     string `json:"q"`
	Price        string `json:"pr,omitempty"`
	DiscountType string `json:"dt,omitempty"`
	Discount     string `json:"d"`
	TaxID        string `json:"t,omitempty"`
}

type canonicalCart struct {
	BranchID    string          `json:"b"`
	WarehouseID string          `json:"w"`
	CustomerID  string          `json:"c"`
	Currency    string          `json:"cur"`
	Paid        string          `json:"paid"`
	Items       []canonicalLine `json:"items"`
}

// PayloadHash resume el contenido económico de un checkout (SHA-256 en hex). Dos envíos
// con los mismos productos, cantidades y precios producen el mismo hash aunque cambie el
// formato de los decimales.
func PayloadHash(in CheckoutInput) string {
	c := canonicalCart{
		BranchID:    in.BranchID,
		WarehouseID: in.WarehouseID,
		CustomerID:  in.CustomerID,
		Currency:    in.Currency,
		Paid:        in.Paid.String(),
		Items:       make([]canonicalLine, 0, len(in.Items)),
	}
	for _, l := range in.Items {
		cl := canonicalLine{
			ProductID:    l.ProductID,
			Quantity:     l.Quantity.String(),
			DiscountType: l.DiscountType,
			Discount:     l.Discount.String(),
			TaxID:        l.TaxID,
		}
		if cl.DiscountType == entity.DiscountPercent {
			cl.DiscountType = ""
		}
		if l.Price != nil {
			cl.Price = l.Price.String()
		}
		c.Items = append(c.Items, cl)
	}
	raw, _ := json.Marshal(c)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
