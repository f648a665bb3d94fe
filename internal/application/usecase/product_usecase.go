package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// ProductUseCase alta y consulta del catálogo. Cost y stock no se editan aquí: el costo lo
// recalcula el estimador y el stock sale del ledger.
type ProductUseCase struct {
	repo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// Create crea un producto en la sucursal. Cost inicia en 0.
func (uc *ProductUseCase) Create(ctx context.Context, branchID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	switch {
	case in.Price.IsNegative():
		return nil, domain.NewValidationError("price", "no puede ser negativo")
	case in.TaxRate.IsNegative() || in.TaxRate.GreaterThan(decimal.NewFromInt(100)):
		return nil, domain.NewValidationError("tax_rate", "debe estar entre 0 y 100")
	case in.MinimumStock.IsNegative():
		return nil, domain.NewValidationError("minimum_stock", "no puede ser negativo")
	case domain.ExceedsScale(in.Price):
		return nil, domain.NewValidationError("price", domain.ScaleReason)
	case domain.ExceedsScale(in.MinimumStock):
		return nil, domain.NewValidationError("minimum_stock", domain.ScaleReason)
	}
	now := time.Now().UTC()
	product := &entity.Product{
		ID:           uuid.New().String(),
		BranchID:     branchID,
		SKU:          in.SKU,
		Barcode:      in.Barcode,
		Name:         in.Name,
		Price:        in.Price,
		Cost:         decimal.Zero,
		TaxRate:      in.TaxRate,
		MinimumStock: in.MinimumStock,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto de la sucursal.
func (uc *ProductUseCase) GetByID(ctx context.Context, branchID, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if product.BranchID != branchID {
		return nil, domain.ErrBranchMismatch
	}
	return toProductResponse(product), nil
}

// List lista productos de la sucursal con paginación.
func (uc *ProductUseCase) List(ctx context.Context, branchID string, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.ListByBranch(ctx, branchID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:           p.ID,
		BranchID:     p.BranchID,
		SKU:          p.SKU,
		Barcode:      p.Barcode,
		Name:         p.Name,
		Price:        p.Price,
		Cost:         p.Cost,
		TaxRate:      p.TaxRate,
		MinimumStock: p.MinimumStock,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
