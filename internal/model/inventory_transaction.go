package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxIn         TransactionType = "in"
	TxOut        TransactionType = "out"
	TxAdjustment TransactionType = "adjustment"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxIn, TxOut, TxAdjustment:
		return true
	}
	return false
}

// TransactionTypeFor derives the movement direction from a signed delta.
func TransactionTypeFor(delta int) TransactionType {
	if delta < 0 {
		return TxOut
	}
	return TxIn
}

// ReferenceType tags where a stock movement came from.
type ReferenceType string

const (
	RefInitialStock     ReferenceType = "initial_stock"
	RefBulkUpload       ReferenceType = "bulk_upload"
	RefManualAdjustment ReferenceType = "manual_adjustment"
	RefFarmerDispatch   ReferenceType = "farmer_dispatch"
)

func (r ReferenceType) Valid() bool {
	switch r {
	case RefInitialStock, RefBulkUpload, RefManualAdjustment, RefFarmerDispatch:
		return true
	}
	return false
}

// InventoryTransaction is an append-only record of one quantity change.
// NewQuantity - PreviousQuantity is +Quantity for "in" and -Quantity for "out".
type InventoryTransaction struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	InventoryID      uint                `gorm:"not null;index" json:"inventory_id"`
	Inventory        *InventoryItem      `gorm:"foreignKey:InventoryID" json:"inventory,omitempty"`
	TransactionType  TransactionType     `gorm:"type:varchar(20);not null" json:"transaction_type"`
	Quantity         int                 `gorm:"not null" json:"quantity"`
	PreviousQuantity int                 `gorm:"not null" json:"previous_quantity"`
	NewQuantity      int                 `gorm:"not null" json:"new_quantity"`
	ReferenceType    ReferenceType       `gorm:"type:varchar(50);index" json:"reference_type"`
	ReferenceID      *string             `gorm:"type:varchar(50)" json:"reference_id,omitempty"`
	Notes            string              `gorm:"type:text" json:"notes,omitempty"`
	UnitCost         decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"unit_cost"`
	CreatedAt        time.Time           `gorm:"index" json:"created_at"`
	CreatedByUserID  string              `gorm:"type:varchar(255);not null" json:"created_by_user_id"`
}

func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}

// SignedDelta returns the quantity change with its direction applied.
func (t *InventoryTransaction) SignedDelta() int {
	return t.NewQuantity - t.PreviousQuantity
}
