package repository

import (
	"context"
	"strings"
	"time"

	"farmer-admin/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository interface {
	Create(ctx context.Context, item *model.InventoryItem) error
	FindByID(ctx context.Context, id uint) (*model.InventoryItem, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*model.InventoryItem, error)
	FindByNaturalKey(ctx context.Context, category model.InventoryCategory, typ, specification string) (*model.InventoryItem, error)
	// ApplyQuantity writes newQty only if the row still holds expected.
	ApplyQuantity(ctx context.Context, id uint, expected, newQty int, status model.InventoryStatus, updatedBy string) error
	UpdateDetails(ctx context.Context, item *model.InventoryItem) error
	Delete(ctx context.Context, id uint, deletedBy string) error
	List(ctx context.Context, filter InventoryFilter, page Page) ([]model.InventoryItem, int64, error)
	Stats(ctx context.Context) (*InventoryStats, error)
}

type InventoryFilter struct {
	Category      model.InventoryCategory
	Type          string
	Specification string
	Status        model.InventoryStatus
	LowStockOnly  bool
	Search        string
}

type CategoryStats struct {
	Category      model.InventoryCategory `json:"category"`
	Items         int64                   `json:"items"`
	TotalQuantity int64                   `json:"total_quantity"`
}

type InventoryStats struct {
	TotalItems      int64           `json:"total_items"`
	TotalQuantity   int64           `json:"total_quantity"`
	TotalValue      decimal.Decimal `json:"total_value"`
	LowStockCount   int64           `json:"low_stock_count"`
	OutOfStockCount int64           `json:"out_of_stock_count"`
	ByCategory      []CategoryStats `json:"by_category"`
}

// Columns a descriptive update may touch. Quantity is written only by ApplyQuantity.
var inventoryDetailColumns = []string{
	"category", "type", "specification", "min_stock_level", "unit_price",
	"supplier", "part_number", "description", "document_url", "location",
	"status", "updated_by", "updated_at",
}

type inventoryRepo struct {
	db *gorm.DB
}

func NewInventoryRepo(db *gorm.DB) InventoryRepository {
	return &inventoryRepo{db}
}

func (r *inventoryRepo) Create(ctx context.Context, item *model.InventoryItem) error {
	return translateError(r.db.WithContext(ctx).Create(item).Error)
}

func (r *inventoryRepo) FindByID(ctx context.Context, id uint) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

// FindByIDForUpdate reads the row under SELECT ... FOR UPDATE. SQLite has no
// row locks and serialises writers per database, so the clause is left out there.
func (r *inventoryRepo) FindByIDForUpdate(ctx context.Context, id uint) (*model.InventoryItem, error) {
	db := r.db.WithContext(ctx)
	if db.Dialector.Name() != "sqlite" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var item model.InventoryItem
	if err := db.First(&item, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

func (r *inventoryRepo) FindByNaturalKey(ctx context.Context, category model.InventoryCategory, typ, specification string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.WithContext(ctx).
		Where("category = ? AND type = ? AND specification = ?", category, typ, specification).
		First(&item).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

func (r *inventoryRepo) ApplyQuantity(ctx context.Context, id uint, expected, newQty int, status model.InventoryStatus, updatedBy string) error {
	res := r.db.WithContext(ctx).Model(&model.InventoryItem{}).
		Where("id = ? AND quantity = ?", id, expected).
		Updates(map[string]interface{}{
			"quantity":   newQty,
			"status":     status,
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStorageConflict
	}
	return nil
}

func (r *inventoryRepo) UpdateDetails(ctx context.Context, item *model.InventoryItem) error {
	item.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(&model.InventoryItem{}).
		Where("id = ?", item.ID).
		Select(inventoryDetailColumns).
		Updates(item)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepo) Delete(ctx context.Context, id uint, deletedBy string) error {
	return translateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.InventoryItem{}).Where("id = ?", id).Update("deleted_by", deletedBy)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Delete(&model.InventoryItem{}, id).Error
	}))
}

func (r *inventoryRepo) List(ctx context.Context, filter InventoryFilter, page Page) ([]model.InventoryItem, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.InventoryItem{})

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Specification != "" {
		query = query.Where("specification = ?", filter.Specification)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.LowStockOnly {
		query = query.Where("quantity <= min_stock_level")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(description) LIKE ? OR LOWER(part_number) LIKE ? OR LOWER(supplier) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var items []model.InventoryItem
	err := page.scope(query).Order("category ASC, type ASC, specification ASC").Find(&items).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return items, total, nil
}

func (r *inventoryRepo) Stats(ctx context.Context) (*InventoryStats, error) {
	db := r.db.WithContext(ctx)
	var stats InventoryStats

	var totals struct {
		Items    int64
		Quantity int64
	}
	if err := db.Model(&model.InventoryItem{}).
		Select("COUNT(*) AS items, COALESCE(SUM(quantity), 0) AS quantity").
		Scan(&totals).Error; err != nil {
		return nil, translateError(err)
	}
	stats.TotalItems = totals.Items
	stats.TotalQuantity = totals.Quantity

	// Priced items only. Summed in Go so the numeric type survives every driver.
	var priced []model.InventoryItem
	if err := db.Select("quantity", "unit_price").Where("unit_price IS NOT NULL").Find(&priced).Error; err != nil {
		return nil, translateError(err)
	}
	stats.TotalValue = decimal.Zero
	for _, item := range priced {
		stats.TotalValue = stats.TotalValue.Add(item.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if err := db.Model(&model.InventoryItem{}).Where("quantity <= min_stock_level").Count(&stats.LowStockCount).Error; err != nil {
		return nil, translateError(err)
	}
	if err := db.Model(&model.InventoryItem{}).Where("quantity = 0").Count(&stats.OutOfStockCount).Error; err != nil {
		return nil, translateError(err)
	}

	if err := db.Model(&model.InventoryItem{}).
		Select("category, COUNT(*) AS items, COALESCE(SUM(quantity), 0) AS total_quantity").
		Group("category").
		Order("category").
		Scan(&stats.ByCategory).Error; err != nil {
		return nil, translateError(err)
	}
	return &stats, nil
}
