package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

const replenishmentPageSize = 200

// ReplenishmentSuggestion es un SKU por debajo de su stock mínimo con la cantidad sugerida de pedido.
type ReplenishmentSuggestion struct {
	ProductID          string          `json:"product_id"`
	SKU                string          `json:"sku"`
	ProductName        string          `json:"product_name"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	MinimumStock       decimal.Decimal `json:"minimum_stock"`
	IdealStock         decimal.Decimal `json:"ideal_stock"`         // MinimumStock * 1.5
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"` // IdealStock - CurrentStock
	UnitCost           decimal.Decimal `json:"unit_cost"`           // costo promedio móvil
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"`
	Priority           int             `json:"priority"` // 1 = más urgente
}

// ReplenishmentUseCase genera la lista de reposición de una sucursal a partir del ledger.
type ReplenishmentUseCase struct {
	products  repository.ProductRepository
	projector *QuantityProjector
	log       *logger.Logger
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(products repository.ProductRepository, projector *QuantityProjector, log *logger.Logger) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{
		products:  products,
		projector: projector,
		log:       log.Component("replenishment"),
	}
}

// GenerateReplenishmentList devuelve los productos bajo su stock mínimo ordenados por déficit relativo.
// warehouseID vacío = stock de todas las bodegas de la sucursal.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context, branchID, warehouseID string) ([]ReplenishmentSuggestion, error) {
	if branchID == "" {
		return nil, domain.NewValidationError("branch_id", "es requerido")
	}
	factor := decimal.NewFromFloat(1.5)
	suggestions := make([]ReplenishmentSuggestion, 0)

	for offset := 0; ; offset += replenishmentPageSize {
		page, err := uc.products.ListByBranch(ctx, branchID, replenishmentPageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, p := range page {
			if !p.MinimumStock.IsPositive() {
				continue
			}
			current, err := uc.projector.CurrentQty(ctx, branchID, p.ID, warehouseID)
			if err != nil {
				return nil, err
			}
			if !current.LessThan(p.MinimumStock) {
				continue
			}
			ideal := p.MinimumStock.Mul(factor)
			qty := ideal.Sub(current)
			suggestions = append(suggestions, ReplenishmentSuggestion{
				ProductID:          p.ID,
				SKU:                p.SKU,
				ProductName:        p.Name,
				CurrentStock:       current,
				MinimumStock:       p.MinimumStock,
				IdealStock:         ideal,
				SuggestedOrderQty:  qty,
				UnitCost:           p.Cost,
				EstimatedOrderCost: qty.Mul(p.Cost).Round(2),
			})
		}
		if len(page) < replenishmentPageSize {
			break
		}
	}

	// Primero el mayor déficit relativo; a igualdad, el mayor déficit absoluto.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		ra := a.MinimumStock.Sub(a.CurrentStock).Div(a.MinimumStock)
		rb := b.MinimumStock.Sub(b.CurrentStock).Div(b.MinimumStock)
		if !ra.Equal(rb) {
			return ra.GreaterThan(rb)
		}
		return a.MinimumStock.Sub(a.CurrentStock).GreaterThan(b.MinimumStock.Sub(b.CurrentStock))
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}

	uc.log.Debug().Str("branch_id", branchID).Int("count", len(suggestions)).Msg("lista de reposición generada")
	return suggestions, nil
}
