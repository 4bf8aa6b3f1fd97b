package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DispatchStatus string

const (
	DispatchPending    DispatchStatus = "pending"
	DispatchDispatched DispatchStatus = "dispatched"
	DispatchDelivered  DispatchStatus = "delivered"
	DispatchInstalled  DispatchStatus = "installed"
)

func (s DispatchStatus) Valid() bool {
	switch s {
	case DispatchPending, DispatchDispatched, DispatchDelivered, DispatchInstalled:
		return true
	}
	return false
}

// FarmerDispatch is one withdrawal of stock on behalf of a farmer. Its items
// and total are fixed in the transaction that decrements stock.
type FarmerDispatch struct {
	ID                  uint                 `gorm:"primaryKey" json:"id"`
	FarmerBeneficiaryID string               `gorm:"type:varchar(50);not null;index" json:"farmer_beneficiary_id"`
	Farmer              *Farmer              `gorm:"foreignKey:FarmerBeneficiaryID;references:BeneficiaryID" json:"farmer,omitempty"`
	DispatchDate        time.Time            `gorm:"not null" json:"dispatch_date"`
	Status              DispatchStatus       `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	TotalValue          decimal.Decimal      `gorm:"type:numeric(14,2);not null;default:0" json:"total_value"`
	Notes               string               `gorm:"type:text" json:"notes,omitempty"`
	CreatedByUserID     string               `gorm:"type:varchar(255);not null" json:"created_by_user_id"`
	CreatedAt           time.Time            `json:"created_at"`
	Items               []FarmerDispatchItem `gorm:"foreignKey:DispatchID" json:"items"`
}

func (FarmerDispatch) TableName() string {
	return "farmer_dispatches"
}

type FarmerDispatchItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	DispatchID  uint            `gorm:"not null;index" json:"dispatch_id"`
	InventoryID uint            `gorm:"not null;index" json:"inventory_id"`
	Inventory   *InventoryItem  `gorm:"foreignKey:InventoryID" json:"inventory,omitempty"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitCost    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"unit_cost"`
	TotalCost   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_cost"`
}

func (FarmerDispatchItem) TableName() string {
	return "farmer_dispatch_items"
}
