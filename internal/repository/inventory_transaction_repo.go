package repository

import (
	"context"
	"time"

	"farmer-admin/internal/model"

	"gorm.io/gorm"
)

type InventoryTransactionRepository interface {
	Create(ctx context.Context, txn *model.InventoryTransaction) error
	List(ctx context.Context, filter TransactionFilter, page Page) ([]model.InventoryTransaction, int64, error)
	// History returns every row for one item, oldest first.
	History(ctx context.Context, inventoryID uint) ([]model.InventoryTransaction, error)
	Recent(ctx context.Context, limit int) ([]model.InventoryTransaction, error)
	GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error)
}

type TransactionFilter struct {
	InventoryID     uint
	TransactionType model.TransactionType
	ReferenceType   model.ReferenceType
	ReferenceID     string
}

// StockMovementData is one day of inbound/outbound volume for charts.
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type inventoryTransactionRepo struct {
	db *gorm.DB
}

func NewInventoryTransactionRepo(db *gorm.DB) InventoryTransactionRepository {
	return &inventoryTransactionRepo{db}
}

func (r *inventoryTransactionRepo) Create(ctx context.Context, txn *model.InventoryTransaction) error {
	return translateError(r.db.WithContext(ctx).Create(txn).Error)
}

func (r *inventoryTransactionRepo) List(ctx context.Context, filter TransactionFilter, page Page) ([]model.InventoryTransaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.InventoryTransaction{})
	if filter.InventoryID != 0 {
		query = query.Where("inventory_id = ?", filter.InventoryID)
	}
	if filter.TransactionType != "" {
		query = query.Where("transaction_type = ?", filter.TransactionType)
	}
	if filter.ReferenceType != "" {
		query = query.Where("reference_type = ?", filter.ReferenceType)
	}
	if filter.ReferenceID != "" {
		query = query.Where("reference_id = ?", filter.ReferenceID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var txns []model.InventoryTransaction
	err := page.scope(query).
		Preload("Inventory", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("created_at DESC, id DESC").
		Find(&txns).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return txns, total, nil
}

func (r *inventoryTransactionRepo) History(ctx context.Context, inventoryID uint) ([]model.InventoryTransaction, error) {
	var txns []model.InventoryTransaction
	err := r.db.WithContext(ctx).
		Where("inventory_id = ?", inventoryID).
		Order("id ASC").
		Find(&txns).Error
	return txns, translateError(err)
}

func (r *inventoryTransactionRepo) Recent(ctx context.Context, limit int) ([]model.InventoryTransaction, error) {
	var txns []model.InventoryTransaction
	err := r.db.WithContext(ctx).
		Preload("Inventory", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&txns).Error
	return txns, translateError(err)
}

func (r *inventoryTransactionRepo) GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	day := dayExpr(r.db)
	rows, err := r.db.WithContext(ctx).Model(&model.InventoryTransaction{}).
		Select(day + ` as date,
			COALESCE(SUM(CASE WHEN transaction_type = 'in' THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN transaction_type = 'out' THEN quantity ELSE 0 END), 0) as outbound
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group(day).
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}
	return results, rows.Err()
}

// dayExpr renders created_at as YYYY-MM-DD text. Postgres DATE() yields a
// date value that drivers scan as a full timestamp.
func dayExpr(db *gorm.DB) string {
	if db.Dialector.Name() == "sqlite" {
		return "DATE(created_at)"
	}
	return "TO_CHAR(created_at, 'YYYY-MM-DD')"
}
