package inventory

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// AdjustFromRequest adapta el request HTTP al ajuste del servicio de stock.
// branchID y userID vienen del token, nunca del cuerpo.
func (s *StockService) AdjustFromRequest(ctx context.Context, branchID, userID string, in dto.AdjustStockRequest) (*entity.LedgerEntry, error) {
	input := AdjustInput{
		BranchID:    branchID,
		UserID:      userID,
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Delta:       in.Qty,
		Note:        in.Note,
		UnitCost:    in.UnitCost,
	}
	if in.ReferenceType != "" {
		input.Reference = &entity.Reference{Type: in.ReferenceType, ID: in.ReferenceID}
	}
	return s.Adjust(ctx, input)
}

// TransferFromRequest adapta el request HTTP al traslado entre bodegas.
func (s *StockService) TransferFromRequest(ctx context.Context, branchID, userID string, in dto.TransferStockRequest) (out, inbound *entity.LedgerEntry, err error) {
	return s.Transfer(ctx, TransferInput{
		BranchID:        branchID,
		UserID:          userID,
		ProductID:       in.ProductID,
		FromWarehouseID: in.FromWarehouse,
		ToWarehouseID:   in.ToWarehouse,
		Quantity:        in.Qty,
		Note:            in.Note,
	})
}
