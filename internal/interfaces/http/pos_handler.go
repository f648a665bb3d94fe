package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/pos"
	"github.com/jhoicas/pos-ledger/pkg/logger"
)

// POSHandler maneja checkout, sincronización offline, devoluciones y anulaciones (protegido).
type POSHandler struct {
	engine *pos.Engine
	sync   *pos.SyncAdapter
	log    *logger.Logger
}

// NewPOSHandler construye el handler.
func NewPOSHandler(engine *pos.Engine, sync *pos.SyncAdapter, log *logger.Logger) *POSHandler {
	return &POSHandler{engine: engine, sync: sync, log: log}
}

// Checkout godoc
// @Summary      Cobrar carrito
// @Description  Valida, calcula totales, descuenta stock y registra la venta en una sola transacción.
// @Description  Con idempotency_key una repetición devuelve la venta original con duplicate=true.
// @Tags         pos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CheckoutRequest  true  "Carrito"
// @Success      201   {object}  dto.SaleResponse
// @Success      200   {object}  dto.SaleResponse  "Repetición de una clave ya procesada"
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/pos/checkout [post]
func (h *POSHandler) Checkout(c *fiber.Ctx) error {
	branchID, userID := GetBranchID(c), GetUserID(c)
	if branchID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.CheckoutRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	input := pos.CheckoutInputFromRequest(branchID, userID, in)

	if input.IdempotencyKey == "" {
		sale, err := h.engine.Checkout(c.UserContext(), input)
		if err != nil {
			return writeError(c, h.log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(toSaleResponse(sale))
	}

	res, err := h.sync.Replay(c.UserContext(), input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := toSaleResponse(res.Sale)
	out.Duplicate = res.Duplicate
	out.PayloadMismatch = res.PayloadMismatch
	status := fiber.StatusCreated
	if res.Duplicate {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(out)
}

// Sync godoc
// @Summary      Sincronizar ventas offline
// @Description  Procesa el lote en orden. Cada ítem queda accepted, duplicate o rejected sin afectar a los demás.
// @Tags         pos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SyncRequest  true  "Lote de hasta 500 ventas"
// @Success      200   {object}  dto.SyncResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/pos/sync [post]
func (h *POSHandler) Sync(c *fiber.Ctx) error {
	branchID, userID := GetBranchID(c), GetUserID(c)
	if branchID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.SyncRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	batch := pos.SyncBatchFromRequest(branchID, userID, in)
	results := h.sync.SyncBatch(c.UserContext(), branchID, userID, batch)
	return c.JSON(toSyncResponse(results))
}

// GetSale godoc
// @Summary      Detalle de venta
// @Tags         pos
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleDetailResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/pos/sales/{id} [get]
func (h *POSHandler) GetSale(c *fiber.Ctx) error {
	branchID := GetBranchID(c)
	if branchID == "" {
		return unauthorized(c)
	}
	detail, err := h.engine.GetSale(c.UserContext(), branchID, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toSaleDetailResponse(detail))
}

// Return godoc
// @Summary      Devolución
// @Description  Devuelve líneas (o todo lo pendiente si lines está vacío) a la bodega de la venta.
// @Tags         pos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true   "ID de la venta"
// @Param        body  body  dto.ReturnRequest  false  "Líneas a devolver"
// @Success      201   {object}  dto.SaleResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/pos/sales/{id}/return [post]
func (h *POSHandler) Return(c *fiber.Ctx) error {
	branchID, userID := GetBranchID(c), GetUserID(c)
	if branchID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.ReturnRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, &in); !ok {
			return err
		}
	}
	doc, err := h.engine.Return(c.UserContext(), pos.ReturnInputFromRequest(branchID, userID, c.Params("id"), in))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSaleResponse(doc))
}

// Void godoc
// @Summary      Anular venta
// @Description  Revierte la venta completa. No se permite si ya tiene devoluciones o el pago está conciliado.
// @Tags         pos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string           true   "ID de la venta"
// @Param        body  body  dto.VoidRequest  false  "Nota"
// @Success      201   {object}  dto.SaleResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/pos/sales/{id}/void [post]
func (h *POSHandler) Void(c *fiber.Ctx) error {
	branchID, userID := GetBranchID(c), GetUserID(c)
	if branchID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.VoidRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, &in); !ok {
			return err
		}
	}
	doc, err := h.engine.Void(c.UserContext(), pos.VoidInput{
		BranchID: branchID,
		UserID:   userID,
		SaleID:   c.Params("id"),
		Note:     in.Note,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSaleResponse(doc))
}
