package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/pos"
	"github.com/jhoicas/pos-ledger/internal/application/usecase"
	"github.com/jhoicas/pos-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Stock         *inventory.StockService
	Projector     *inventory.QuantityProjector
	Ledger        *inventory.LedgerStore
	Cost          *inventory.CostEstimator
	Replenishment *inventory.ReplenishmentUseCase
	Engine        *pos.Engine
	Sync          *pos.SyncAdapter
	WarehouseUC   *usecase.WarehouseUseCase
	ProductUC     *usecase.ProductUseCase
	JWTSecret     string
	Log           *logger.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token; la sucursal sale del token.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	anyRole := RequireRole(RoleAdmin, RoleManager, RoleCashier)
	managers := RequireRole(RoleAdmin, RoleManager)

	// Warehouses
	warehouses := api.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC, log)
	warehouses.Get("/", anyRole, warehouseHandler.List)
	warehouses.Get("/:id", anyRole, warehouseHandler.GetByID)
	warehouses.Post("/", RequireRole(RoleAdmin), warehouseHandler.Create)

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, log)
	products.Get("/", anyRole, productHandler.List)
	products.Get("/:id", anyRole, productHandler.GetByID)
	products.Post("/", managers, productHandler.Create)

	// Stock
	stock := api.Group("/stock")
	stockHandler := NewStockHandler(deps.Stock, deps.Projector, deps.Ledger, deps.Cost, deps.Replenishment, log)
	stock.Post("/adjust", managers, stockHandler.Adjust)
	stock.Post("/transfer", managers, stockHandler.Transfer)
	stock.Get("/current", anyRole, stockHandler.Current)
	stock.Get("/current/warehouses", anyRole, stockHandler.CurrentByWarehouse)
	stock.Get("/ledger", managers, stockHandler.Ledger)
	stock.Post("/cost/recompute", managers, stockHandler.RecomputeCost)
	stock.Get("/replenishment", managers, stockHandler.Replenishment)

	// POS
	posGroup := api.Group("/pos")
	posHandler := NewPOSHandler(deps.Engine, deps.Sync, log)
	posGroup.Post("/checkout", anyRole, posHandler.Checkout)
	posGroup.Post("/sync", anyRole, posHandler.Sync)
	posGroup.Get("/sales/:id", anyRole, posHandler.GetSale)
	posGroup.Post("/sales/:id/return", anyRole, posHandler.Return)
	posGroup.Post("/sales/:id/void", managers, posHandler.Void)
}
