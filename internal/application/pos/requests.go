package pos

import (
	"github.com/jhoicas/pos-ledger/internal/application/dto"
)

// CheckoutInputFromRequest adapta el request HTTP al checkout. branchID y userID vienen del token.
func CheckoutInputFromRequest(branchID, userID string, in dto.CheckoutRequest) CheckoutInput {
	items := make([]CartLine, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, CartLine{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			Price:        it.Price,
			DiscountType: it.DiscountType,
			Discount:     it.Discount,
			TaxID:        it.TaxID,
		})
	}
	return CheckoutInput{
		BranchID:       branchID,
		UserID:         userID,
		WarehouseID:    in.WarehouseID,
		CustomerID:     in.CustomerID,
		Currency:       in.Currency,
		Items:          items,
		Paid:           in.PaidAmount,
		IdempotencyKey: in.IdempotencyKey,
		Note:           in.Note,
	}
}

// SyncBatchFromRequest adapta el lote offline. La clave del ítem prevalece sobre la del checkout anidado.
func SyncBatchFromRequest(branchID, userID string, in dto.SyncRequest) []CheckoutInput {
	batch := make([]CheckoutInput, 0, len(in.Batch))
	for _, item := range in.Batch {
		ci := CheckoutInputFromRequest(branchID, userID, item.Checkout)
		ci.IdempotencyKey = item.IdempotencyKey
		batch = append(batch, ci)
	}
	return batch
}

// ReturnInputFromRequest adapta el request de devolución parcial.
func ReturnInputFromRequest(branchID, userID, saleID string, in dto.ReturnRequest) ReturnInput {
	lines := make([]ReturnLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, ReturnLine{Line: l.Line, Quantity: l.Quantity})
	}
	return ReturnInput{BranchID: branchID, UserID: userID, SaleID: saleID, Lines: lines, Note: in.Note}
}
