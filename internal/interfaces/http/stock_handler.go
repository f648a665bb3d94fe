package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/logger"
)

const (
	defaultLedgerPage = 100
	maxLedgerPage     = 1000
)

// StockHandler maneja ajustes, traslados y consultas de stock (protegido).
type StockHandler struct {
	stock         *inventory.StockService
	projector     *inventory.QuantityProjector
	ledger        *inventory.LedgerStore
	cost          *inventory.CostEstimator
	replenishment *inventory.ReplenishmentUseCase
	log           *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(
	stock *inventory.StockService,
	projector *inventory.QuantityProjector,
	ledger *inventory.LedgerStore,
	cost *inventory.CostEstimator,
	replenishment *inventory.ReplenishmentUseCase,
	log *logger.Logger,
) *StockHandler {
	return &StockHandler{
		stock:         stock,
		projector:     projector,
		ledger:        ledger,
		cost:          cost,
		replenishment: replenishment,
		log:           log,
	}
}

// Adjust godoc
// @Summary      Ajustar stock
// @Description  Registra un movimiento con signo en una bodega. Con reference_type=purchase u opening y unit_cost
//
//	alimenta el costo promedio.
//
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "product_id, warehouse_id, qty (con signo)"
// @Success      201   {object}  dto.LedgerEntryResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/stock/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	branchID, userID := GetBranchID(c), GetUserID(c)
	if branchID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.AdjustStockRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	entry, err := h.stock.AdjustFromRequest(c.UserContext(), branchID, userID, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toLedgerEntryResponse(*entry))
}

// Transfer godoc
// @Summary      Trasladar stock entre bodegas
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferStockRequest  true  "product_id, qty, from_warehouse, to_warehouse"
// @Success      201   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stock/transfer [post]
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	branchID, userID := GetBranchID(c), GetUserID(c)
	if branchID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.TransferStockRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, inbound, err := h.stock.TransferFromRequest(c.UserContext(), branchID, userID, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransferResponse{
		Out: toLedgerEntryResponse(*out),
		In:  toLedgerEntryResponse(*inbound),
	})
}

// Current godoc
// @Summary      Cantidad actual
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "Producto"
// @Param        warehouse_id  query  string  false  "Bodega. Vacío = total de la sucursal."
// @Success      200  {object}  dto.CurrentStockResponse
// @Router       /api/stock/current [get]
func (h *StockHandler) Current(c *fiber.Ctx) error {
	branchID := GetBranchID(c)
	if branchID == "" {
		return unauthorized(c)
	}
	productID, warehouseID := c.Query("product_id"), c.Query("warehouse_id")
	qty, err := h.projector.CurrentQty(c.UserContext(), branchID, productID, warehouseID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.CurrentStockResponse{ProductID: productID, WarehouseID: warehouseID, Qty: qty})
}

// CurrentByWarehouse godoc
// @Summary      Cantidad por bodega
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  true  "Producto"
// @Success      200  {object}  dto.WarehouseStockResponse
// @Router       /api/stock/current/warehouses [get]
func (h *StockHandler) CurrentByWarehouse(c *fiber.Ctx) error {
	branchID := GetBranchID(c)
	if branchID == "" {
		return unauthorized(c)
	}
	productID := c.Query("product_id")
	byWh, err := h.projector.CurrentQtyPerWarehouse(c.UserContext(), branchID, productID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.WarehouseStockResponse{ProductID: productID, Warehouses: byWh})
}

// Ledger godoc
// @Summary      Exportar movimientos
// @Description  Página de movimientos en orden de inserción. next_after se envía como after para continuar.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "Producto"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        since         query  string  false  "RFC 3339"
// @Param        after         query  int     false  "Último seq recibido"
// @Param        limit         query  int     false  "Máximo 1000"
// @Success      200  {object}  dto.LedgerPageResponse
// @Router       /api/stock/ledger [get]
func (h *StockHandler) Ledger(c *fiber.Ctx) error {
	branchID := GetBranchID(c)
	if branchID == "" {
		return unauthorized(c)
	}
	var in dto.LedgerPageQuery
	if ok, err := parseQuery(c, &in); !ok {
		return err
	}
	if err := h.projector.CheckScope(c.UserContext(), branchID, in.ProductID, in.WarehouseID); err != nil {
		return writeError(c, h.log, err)
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultLedgerPage
	}
	if limit > maxLedgerPage {
		limit = maxLedgerPage
	}
	q := repository.LedgerQuery{
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		AfterSeq:    in.After,
		Limit:       limit,
	}
	if in.Since != "" {
		since, err := time.Parse(time.RFC3339, in.Since)
		if err != nil {
			return writeError(c, h.log, domain.NewValidationError("since", "debe ser una fecha RFC 3339"))
		}
		q.Since = &since
	}

	page := dto.LedgerPageResponse{Entries: make([]dto.LedgerEntryResponse, 0, limit), NextAfter: in.After}
	for entry, err := range h.ledger.Entries(c.UserContext(), q) {
		if err != nil {
			return writeError(c, h.log, err)
		}
		page.Entries = append(page.Entries, toLedgerEntryResponse(entry))
		page.NextAfter = entry.Seq
		if len(page.Entries) == limit {
			break
		}
	}
	return c.JSON(page)
}

// RecomputeCost godoc
// @Summary      Recalcular costo promedio
// @Description  Con product_id recalcula ese producto; sin él, todos los de la sucursal.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecomputeCostRequest  false  "product_id opcional"
// @Success      200   {object}  inventory.CostResult
// @Router       /api/stock/cost/recompute [post]
func (h *StockHandler) RecomputeCost(c *fiber.Ctx) error {
	branchID := GetBranchID(c)
	if branchID == "" {
		return unauthorized(c)
	}
	var in dto.RecomputeCostRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, &in); !ok {
			return err
		}
	}
	if in.ProductID != "" {
		res, err := h.cost.RecomputeInBranch(c.UserContext(), branchID, in.ProductID)
		if err != nil {
			return writeError(c, h.log, err)
		}
		return c.JSON(res)
	}
	updated, err := h.cost.RecomputeBranch(c.UserContext(), branchID)
	if err != nil {
		h.log.Warn().Err(err).Str("branch_id", branchID).Msg("recalculo de costos con fallos parciales")
		return c.Status(fiber.StatusMultiStatus).JSON(fiber.Map{"updated": updated, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"updated": updated})
}

// Replenishment godoc
// @Summary      Lista de reposición
// @Description  Productos por debajo de su stock mínimo con la cantidad sugerida de pedido.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Bodega. Vacío = stock de toda la sucursal."
// @Success      200  {array}   inventory.ReplenishmentSuggestion
// @Router       /api/stock/replenishment [get]
func (h *StockHandler) Replenishment(c *fiber.Ctx) error {
	branchID := GetBranchID(c)
	if branchID == "" {
		return unauthorized(c)
	}
	list, err := h.replenishment.GenerateReplenishmentList(c.UserContext(), branchID, c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}
