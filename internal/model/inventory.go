package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InventoryCategory string

const (
	CategoryMotor      InventoryCategory = "motor"
	CategoryController InventoryCategory = "controller"
	CategorySolarPanel InventoryCategory = "solar_panel"
	CategoryBOS        InventoryCategory = "bos"
	CategoryStructure  InventoryCategory = "structure"
	CategoryWire       InventoryCategory = "wire"
	CategoryPipe       InventoryCategory = "pipe"
)

// InventoryCategories lists every category in display order.
var InventoryCategories = []InventoryCategory{
	CategoryMotor,
	CategoryController,
	CategorySolarPanel,
	CategoryBOS,
	CategoryStructure,
	CategoryWire,
	CategoryPipe,
}

func (c InventoryCategory) Valid() bool {
	switch c {
	case CategoryMotor, CategoryController, CategorySolarPanel, CategoryBOS,
		CategoryStructure, CategoryWire, CategoryPipe:
		return true
	}
	return false
}

type InventoryStatus string

const (
	StatusActive     InventoryStatus = "active"
	StatusInactive   InventoryStatus = "inactive"
	StatusOutOfStock InventoryStatus = "out_of_stock"
)

func (s InventoryStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusOutOfStock:
		return true
	}
	return false
}

// DeriveStatus returns the status an item must carry once its quantity is
// known. Zero stock is always out_of_stock; an item that was out_of_stock
// becomes active again as soon as stock returns, while a manually
// deactivated item stays inactive.
func DeriveStatus(current InventoryStatus, quantity int) InventoryStatus {
	if quantity == 0 {
		return StatusOutOfStock
	}
	if current == StatusOutOfStock || current == "" {
		return StatusActive
	}
	return current
}

// DefaultMinStockLevel is applied when a draft or create request omits it.
const DefaultMinStockLevel = 10

// InventoryItem is a stock-keeping line identified by (category, type, specification).
type InventoryItem struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	Category      InventoryCategory   `gorm:"type:varchar(20);not null;index;uniqueIndex:idx_inventory_natural_key,where:deleted_at IS NULL" json:"category"`
	Type          string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_inventory_natural_key,where:deleted_at IS NULL" json:"type"`
	Specification string              `gorm:"type:varchar(50);not null;default:'';uniqueIndex:idx_inventory_natural_key,where:deleted_at IS NULL" json:"specification"`
	Quantity      int                 `gorm:"not null;default:0" json:"quantity"`
	MinStockLevel int                 `gorm:"not null;default:10" json:"min_stock_level"`
	UnitPrice     decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"unit_price"`
	Supplier      string              `gorm:"type:varchar(255)" json:"supplier,omitempty"`
	PartNumber    string              `gorm:"type:varchar(100)" json:"part_number,omitempty"`
	Description   string              `gorm:"type:text" json:"description,omitempty"`
	DocumentURL   string              `gorm:"type:text" json:"document_url,omitempty"`
	Location      string              `gorm:"type:varchar(100)" json:"location,omitempty"`
	Status        InventoryStatus     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// User tracking
	CreatedByUserID *string `gorm:"type:varchar(255)" json:"created_by_user_id,omitempty"`
	UpdatedBy       string  `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	DeletedBy       string  `gorm:"type:varchar(255)" json:"-"`
}

func (InventoryItem) TableName() string {
	return "inventory"
}

// IsLowStock reports whether the item sits at or below its alert level.
func (i *InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.MinStockLevel
}

// InventoryItemResponse adds the computed low-stock flag for API responses.
type InventoryItemResponse struct {
	InventoryItem
	IsLowStock bool `json:"is_low_stock"`
}

func (i *InventoryItem) ToResponse() InventoryItemResponse {
	return InventoryItemResponse{InventoryItem: *i, IsLowStock: i.IsLowStock()}
}

// MotorSpecs lists the pump heads offered per motor rating.
var MotorSpecs = map[string][]string{
	"hp_3":   {"30", "50", "70"},
	"hp_5":   {"30", "50", "70", "100"},
	"hp_7_5": {"30", "50", "70", "100"},
}

// SolarPanelTypes lists the panel ratings offered.
var SolarPanelTypes = []string{"520wp", "540wp"}
