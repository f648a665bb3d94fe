package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

// WarehouseUseCase alta y consulta de bodegas, siempre dentro de la sucursal del llamador.
type WarehouseUseCase struct {
	repo     repository.WarehouseRepository
	branches repository.BranchRepository
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(repo repository.WarehouseRepository, branches repository.BranchRepository) *WarehouseUseCase {
	return &WarehouseUseCase{repo: repo, branches: branches}
}

// Create crea una nueva bodega en la sucursal.
func (uc *WarehouseUseCase) Create(ctx context.Context, branchID string, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	branch, err := uc.branches.GetByID(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, domain.ErrNotFound
	}
	warehouse := &entity.Warehouse{
		ID:        uuid.New().String(),
		BranchID:  branchID,
		Name:      in.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.repo.Create(ctx, warehouse); err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// GetByID obtiene una bodega. Una bodega de otra sucursal se reporta como ErrBranchMismatch.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, branchID, id string) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, domain.ErrNotFound
	}
	if warehouse.BranchID != branchID {
		return nil, domain.ErrBranchMismatch
	}
	return toWarehouseResponse(warehouse), nil
}

// List lista las bodegas de la sucursal.
func (uc *WarehouseUseCase) List(ctx context.Context, branchID string) (*dto.WarehouseListResponse, error) {
	list, err := uc.repo.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, *toWarehouseResponse(w))
	}
	return &dto.WarehouseListResponse{Items: items}, nil
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	return &dto.WarehouseResponse{
		ID:        w.ID,
		BranchID:  w.BranchID,
		Name:      w.Name,
		CreatedAt: w.CreatedAt,
	}
}
