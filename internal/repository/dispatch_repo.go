package repository

import (
	"context"

	"farmer-admin/internal/model"

	"gorm.io/gorm"
)

type DispatchRepository interface {
	Create(ctx context.Context, dispatch *model.FarmerDispatch) error
	AddItem(ctx context.Context, item *model.FarmerDispatchItem) error
	Finalize(ctx context.Context, dispatch *model.FarmerDispatch) error
	FindByID(ctx context.Context, id uint) (*model.FarmerDispatch, error)
	List(ctx context.Context, farmerID string, page Page) ([]model.FarmerDispatch, int64, error)
}

type dispatchRepo struct {
	db *gorm.DB
}

func NewDispatchRepo(db *gorm.DB) DispatchRepository {
	return &dispatchRepo{db}
}

// Create inserts the header only; lines are added one by one with AddItem.
func (r *dispatchRepo) Create(ctx context.Context, dispatch *model.FarmerDispatch) error {
	return translateError(r.db.WithContext(ctx).Omit("Items", "Farmer").Create(dispatch).Error)
}

func (r *dispatchRepo) AddItem(ctx context.Context, item *model.FarmerDispatchItem) error {
	return translateError(r.db.WithContext(ctx).Omit("Inventory").Create(item).Error)
}

// Finalize stores the status and total computed from the lines.
func (r *dispatchRepo) Finalize(ctx context.Context, dispatch *model.FarmerDispatch) error {
	res := r.db.WithContext(ctx).Model(&model.FarmerDispatch{}).
		Where("id = ?", dispatch.ID).
		Updates(map[string]interface{}{
			"status":      dispatch.Status,
			"total_value": dispatch.TotalValue,
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *dispatchRepo) FindByID(ctx context.Context, id uint) (*model.FarmerDispatch, error) {
	var dispatch model.FarmerDispatch
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Inventory", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		First(&dispatch, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &dispatch, nil
}

func (r *dispatchRepo) List(ctx context.Context, farmerID string, page Page) ([]model.FarmerDispatch, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.FarmerDispatch{})
	if farmerID != "" {
		query = query.Where("farmer_beneficiary_id = ?", farmerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var dispatches []model.FarmerDispatch
	err := page.scope(query).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("dispatch_date DESC, id DESC").
		Find(&dispatches).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return dispatches, total, nil
}
