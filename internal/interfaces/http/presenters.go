package http

import (
	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/pos"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

func toLedgerEntryResponse(e entity.LedgerEntry) dto.LedgerEntryResponse {
	return dto.LedgerEntryResponse{
		ID:            e.ID,
		Seq:           e.Seq,
		ProductID:     e.ProductID,
		WarehouseID:   e.WarehouseID,
		Direction:     e.Direction,
		Quantity:      e.Quantity,
		ReferenceType: e.Reference.Type,
		ReferenceID:   e.Reference.ID,
		UnitCost:      e.UnitCost,
		Note:          e.Note,
		CreatedAt:     e.CreatedAt,
		CreatedBy:     e.CreatedBy,
	}
}

func toSaleResponse(s *entity.Sale) dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, dto.SaleItemResponse{
			Line:          it.Line,
			ProductID:     it.ProductID,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			DiscountType:  it.DiscountType,
			Discount:      it.Discount,
			TaxID:         it.TaxID,
			TaxRate:       it.TaxRate,
			Tax:           it.Tax,
			Subtotal:      it.Subtotal,
			LineTotal:     it.LineTotal,
			LedgerEntryID: it.LedgerEntryID,
		})
	}
	return dto.SaleResponse{
		ID:             s.ID,
		BranchID:       s.BranchID,
		WarehouseID:    s.WarehouseID,
		CustomerID:     s.CustomerID,
		Kind:           s.Kind,
		ParentSaleID:   s.ParentSaleID,
		Currency:       s.Currency,
		Subtotal:       s.Subtotal,
		DiscountTotal:  s.DiscountTotal,
		TaxTotal:       s.TaxTotal,
		GrandTotal:     s.GrandTotal,
		PaidTotal:      s.PaidTotal,
		Due:            s.Due(),
		Change:         s.ChangeDue,
		Status:         s.Status,
		IdempotencyKey: s.IdempotencyKey,
		Items:          items,
		CreatedAt:      s.CreatedAt,
	}
}

func toSaleDetailResponse(d *pos.SaleDetail) dto.SaleDetailResponse {
	out := dto.SaleDetailResponse{SaleResponse: toSaleResponse(d.Sale), Documents: make([]dto.SaleResponse, 0, len(d.Documents))}
	out.Status = d.Status
	for _, doc := range d.Documents {
		out.Documents = append(out.Documents, toSaleResponse(doc))
	}
	return out
}

func toSyncResponse(results []pos.SyncItemResult) dto.SyncResponse {
	out := dto.SyncResponse{Results: make([]dto.SyncItemResponse, 0, len(results))}
	for _, r := range results {
		item := dto.SyncItemResponse{
			Index:           r.Index,
			IdempotencyKey:  r.IdempotencyKey,
			Status:          r.Status,
			SaleID:          r.SaleID,
			PayloadMismatch: r.PayloadMismatch,
			Code:            r.Code,
		}
		if r.Error != nil {
			item.Error = r.Error.Error()
		}
		switch r.Status {
		case pos.SyncAccepted:
			out.Accepted++
		case pos.SyncDuplicate:
			out.Duplicate++
		default:
			out.Rejected++
		}
		out.Results = append(out.Results, item)
	}
	return out
}
