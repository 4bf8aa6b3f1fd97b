package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Scheme string

const (
	SchemeMTS      Scheme = "MTS"
	SchemeSadbhav  Scheme = "SADBHAV"
	SchemeSaylip   Scheme = "SAYLIP"
	SchemeCrompton Scheme = "CROMPTON"
)

// Installation status values used by the dashboard counters.
const (
	InstallationNotStarted = "Not Started"
	InstallationInProgress = "In Progress"
	InstallationCompleted  = "Completed"
	InstallationIssues     = "Issues"
	InstallationDone       = "Done"
)

// Farmer is a scheme beneficiary, keyed by the government-issued beneficiary id.
type Farmer struct {
	BeneficiaryID      string     `gorm:"type:varchar(50);primaryKey" json:"beneficiary_id" validate:"required,max=50"`
	BeneficiaryName    string     `gorm:"type:varchar(255);not null" json:"beneficiary_name" validate:"required,min=2,max=255"`
	PhoneNo            string     `gorm:"type:varchar(15)" json:"phone_no,omitempty" validate:"max=15"`
	AadhaarNo          string     `gorm:"type:varchar(20)" json:"aadhaar_no,omitempty" validate:"max=20"`
	Scheme             Scheme     `gorm:"type:varchar(20);not null;index" json:"scheme" validate:"required,max=20"`
	PumpHP             string     `gorm:"column:pumphp;type:varchar(20)" json:"pumphp,omitempty" validate:"max=20"`
	PumpHead           string     `gorm:"column:pumphead;type:varchar(20)" json:"pumphead,omitempty" validate:"max=20"`
	PumpHPCombined     string     `gorm:"column:pumphp_combined;type:varchar(50)" json:"pumphp_combined,omitempty"`
	SelectionDate      *time.Time `gorm:"type:date" json:"selection_date,omitempty"`
	CircleName         string     `gorm:"type:varchar(100);index" json:"circle_name,omitempty" validate:"max=100"`
	TalukaName         string     `gorm:"type:varchar(100)" json:"taluka_name,omitempty" validate:"max=100"`
	VillageName        string     `gorm:"type:varchar(100)" json:"village_name,omitempty" validate:"max=100"`
	InstallerUserID    *uuid.UUID `gorm:"type:uuid;index" json:"installer_user_id,omitempty"`
	Installer          *User      `gorm:"foreignKey:InstallerUserID" json:"installer,omitempty"`
	LD                 string     `gorm:"column:ld;type:varchar(50)" json:"ld,omitempty" validate:"max=50"`
	JSRStatus          string     `gorm:"column:jsr_status;type:varchar(20)" json:"jsr_status,omitempty" validate:"max=20"`
	DispatchStatus     string     `gorm:"type:varchar(50)" json:"dispatch_status,omitempty" validate:"max=50"`
	DispatchDate       *time.Time `gorm:"type:date" json:"dispatch_date,omitempty"`
	VehicleNo          string     `gorm:"type:varchar(50)" json:"vehicle_no,omitempty" validate:"max=50"`
	DriverInfo         string     `gorm:"type:varchar(255)" json:"driver_info,omitempty" validate:"max=255"`
	InstallationStatus string     `gorm:"type:varchar(50)" json:"installation_status,omitempty" validate:"max=50"`
	InstallationRemark string     `gorm:"type:text" json:"installation_remark,omitempty"`
	ICRStatus          string     `gorm:"column:icr_status;type:varchar(50)" json:"icr_status,omitempty" validate:"max=50"`
	Photos             string     `gorm:"type:text" json:"photos,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// BeforeSave keeps the combined pump label in sync.
func (f *Farmer) BeforeSave(tx *gorm.DB) error {
	f.PumpHPCombined = CombinePump(f.PumpHP, f.PumpHead)
	return nil
}

// CombinePump renders "<hp>-<head>", or whichever half is present.
func CombinePump(hp, head string) string {
	switch {
	case hp == "" && head == "":
		return ""
	case head == "":
		return hp
	case hp == "":
		return head
	}
	return hp + "-" + head
}
