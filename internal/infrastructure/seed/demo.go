// Package seed carga un catálogo de demostración (sucursal, bodegas, productos y saldos de
// apertura) sobre cualquier backend de repositorios.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

// IDs fijos del catálogo de demostración.
const (
	DemoBranchID    = "demo-centro"
	DemoWarehouseID = "demo-principal"
	DemoBackroomID  = "demo-trastienda"
	DemoUserID      = "seed"
)

// Repos repositorios donde se escribe el catálogo.
type Repos struct {
	Branches   repository.BranchRepository
	Warehouses repository.WarehouseRepository
	Products   repository.ProductRepository
}

type demoProduct struct {
	id, sku, name       string
	price, tax, minimum string
	opening, cost       string
}

var demoProducts = []demoProduct{
	{"demo-cafe-500", "CAFE-500", "Café molido 500 g", "18500", "5", "20", "60", "11200"},
	{"demo-panela-1k", "PANELA-1K", "Panela 1 kg", "4200", "0", "30", "24", "2600"},
	{"demo-jabon-3u", "JABON-3U", "Jabón de barra x3", "9900", "19", "15", "40", "5800"},
	{"demo-arroz-5k", "ARROZ-5K", "Arroz 5 kg", "21900", "0", "10", "8", "16300"},
}

// Demo crea el catálogo si la sucursal de demostración no existe. Los saldos de apertura
// entran por el servicio de stock con referencia opening y costo unitario, de modo que el
// estimador de costo los toma como muestras.
func Demo(ctx context.Context, repos Repos, stock *inventory.StockService, log *logger.Logger) error {
	log = log.Branch(DemoBranchID)
	existing, err := repos.Branches.GetByID(ctx, DemoBranchID)
	if err != nil {
		return fmt.Errorf("consultar sucursal demo: %w", err)
	}
	if existing != nil {
		log.Info().Msg("catálogo demo ya cargado")
		return nil
	}

	now := time.Now().UTC()
	if err := repos.Branches.Create(ctx, &entity.Branch{ID: DemoBranchID, Name: "Centro", BaseCurrency: "COP", CreatedAt: now}); err != nil {
		return fmt.Errorf("crear sucursal demo: %w", err)
	}
	for id, name := range map[string]string{DemoWarehouseID: "Principal", DemoBackroomID: "Trastienda"} {
		if err := repos.Warehouses.Create(ctx, &entity.Warehouse{ID: id, BranchID: DemoBranchID, Name: name, CreatedAt: now}); err != nil {
			return fmt.Errorf("crear bodega %s: %w", id, err)
		}
	}

	for _, p := range demoProducts {
		product := &entity.Product{
			ID:           p.id,
			BranchID:     DemoBranchID,
			SKU:          p.sku,
			Name:         p.name,
			Price:        decimal.RequireFromString(p.price),
			TaxRate:      decimal.RequireFromString(p.tax),
			MinimumStock: decimal.RequireFromString(p.minimum),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := repos.Products.Create(ctx, product); err != nil {
			return fmt.Errorf("crear producto %s: %w", p.sku, err)
		}
		cost := decimal.RequireFromString(p.cost)
		_, err := stock.Adjust(ctx, inventory.AdjustInput{
			BranchID:    DemoBranchID,
			UserID:      DemoUserID,
			ProductID:   p.id,
			WarehouseID: DemoWarehouseID,
			Delta:       decimal.RequireFromString(p.opening),
			Note:        "saldo inicial demo",
			UnitCost:    &cost,
			Reference:   &entity.Reference{Type: entity.ReferenceOpening, ID: "demo-opening-" + p.id},
		})
		if err != nil {
			return fmt.Errorf("saldo inicial %s: %w", p.sku, err)
		}
	}

	log.Info().
		Int("products", len(demoProducts)).
		Msg("catálogo demo cargado")
	return nil
}
