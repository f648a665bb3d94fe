package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/pos-ledger/internal/domain/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/logger"
	"github.com/jhoicas/pos-ledger/pkg/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

const (
	defaultCostWindow = 50
	recomputePageSize = 200
	costJobName       = "cost_recompute"
)

// CostResult resultado de recalcular el costo de un producto.
type CostResult struct {
	ProductID string          `json:"product_id"`
	Cost      decimal.Decimal `json:"cost"`
	Samples   int             `json:"samples"`
	Updated   bool            `json:"updated"`
}

// CostEstimator recalcula el costo promedio ponderado de los productos a partir de las
// últimas entradas del ledger. Es la única escritura que el núcleo hace sobre el catálogo.
type CostEstimator struct {
	ledger   repository.LedgerRepository
	products repository.ProductRepository
	resolver PurchaseCostResolver
	window   int
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// NewCostEstimator construye el estimador. resolver puede ser nil; window <= 0 usa 50 entradas.
func NewCostEstimator(
	ledger repository.LedgerRepository,
	products repository.ProductRepository,
	resolver PurchaseCostResolver,
	window int,
	log *logger.Logger,
	m *metrics.Metrics,
) *CostEstimator {
	if window <= 0 {
		window = defaultCostWindow
	}
	return &CostEstimator{
		ledger:   ledger,
		products: products,
		resolver: resolver,
		window:   window,
		log:      log.Component("cost_estimator"),
		metrics:  m,
	}
}

// Recompute recalcula el costo de un producto. Si ninguna entrada de la ventana tiene costo
// positivo el costo actual se conserva y Updated es false.
func (e *CostEstimator) Recompute(ctx context.Context, productID string) (CostResult, error) {
	res := CostResult{ProductID: productID}
	entries, err := e.ledger.RecentInbound(ctx, productID, e.window)
	if err != nil {
		return res, err
	}
	samples := make([]domaininv.CostSample, 0, len(entries))
	for _, entry := range entries {
		if entry.Direction != entity.DirectionIn {
			continue
		}
		samples = append(samples, domaininv.CostSample{Quantity: entry.Quantity, UnitCost: e.unitCost(ctx, entry)})
	}
	res.Samples = len(samples)

	cost, ok := domaininv.MovingAverageCost(samples)
	if !ok {
		return res, nil
	}
	if err := e.products.UpdateCost(ctx, productID, cost); err != nil {
		return res, err
	}
	res.Cost = cost
	res.Updated = true
	return res, nil
}

// RecomputeInBranch recalcula el costo verificando que el producto pertenezca a la sucursal.
func (e *CostEstimator) RecomputeInBranch(ctx context.Context, branchID, productID string) (CostResult, error) {
	product, err := e.products.GetByID(ctx, productID)
	if err != nil {
		return CostResult{ProductID: productID}, err
	}
	if product == nil {
		return CostResult{ProductID: productID}, domain.ErrNotFound
	}
	if product.BranchID != branchID {
		return CostResult{ProductID: productID}, domain.ErrBranchMismatch
	}
	return e.Recompute(ctx, productID)
}

// RecomputeAll recorre el catálogo por páginas. Un fallo en un producto se registra y no
// detiene el barrido; los errores se devuelven combinados.
func (e *CostEstimator) RecomputeAll(ctx context.Context) (updated int, err error) {
	return e.sweep(ctx, func(offset int) ([]string, error) {
		return e.products.ListIDs(ctx, recomputePageSize, offset)
	})
}

// RecomputeBranch es RecomputeAll limitado a los productos de una sucursal.
func (e *CostEstimator) RecomputeBranch(ctx context.Context, branchID string) (updated int, err error) {
	if branchID == "" {
		return 0, domain.NewValidationError("branch_id", "es requerido")
	}
	return e.sweep(ctx, func(offset int) ([]string, error) {
		page, err := e.products.ListByBranch(ctx, branchID, recomputePageSize, offset)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(page))
		for _, p := range page {
			ids = append(ids, p.ID)
		}
		return ids, nil
	})
}

func (e *CostEstimator) sweep(ctx context.Context, next func(offset int) ([]string, error)) (updated int, err error) {
	for offset := 0; ; offset += recomputePageSize {
		ids, listErr := next(offset)
		if listErr != nil {
			return updated, multierr.Append(err, listErr)
		}
		for _, id := range ids {
			if ctx.Err() != nil {
				return updated, multierr.Append(err, ctx.Err())
			}
			res, recErr := e.Recompute(ctx, id)
			if recErr != nil {
				e.log.Error().Err(recErr).Str("product_id", id).Msg("recalculo de costo fallido")
				err = multierr.Append(err, recErr)
				continue
			}
			if res.Updated {
				updated++
			}
		}
		if len(ids) < recomputePageSize {
			return updated, err
		}
	}
}

// Run ejecuta RecomputeAll cada interval hasta que ctx se cancele.
func (e *CostEstimator) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			updated, err := e.RecomputeAll(ctx)
			e.metrics.ObserveJob(costJobName, time.Since(start), err)
			ev := e.log.Info()
			if err != nil {
				ev = e.log.Warn().Err(err)
			}
			ev.Int("updated", updated).Dur("elapsed", time.Since(start)).Msg("recalculo de costos completado")
		}
	}
}

// unitCost usa el costo registrado en la entrada; si falta, busca el de la línea de compra
// de origen. 0 si no está disponible.
func (e *CostEstimator) unitCost(ctx context.Context, entry entity.LedgerEntry) decimal.Decimal {
	if entry.UnitCost != nil {
		return *entry.UnitCost
	}
	if e.resolver == nil || entry.Reference.Type != entity.ReferencePurchase {
		return decimal.Zero
	}
	cost, ok, err := e.resolver.ResolveUnitCost(ctx, entry.Reference, entry.ProductID)
	if err != nil {
		e.log.Debug().Err(err).Str("reference_id", entry.Reference.ID).Msg("no se pudo resolver costo de compra")
		return decimal.Zero
	}
	if !ok {
		return decimal.Zero
	}
	return cost
}
