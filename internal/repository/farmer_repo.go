package repository

import (
	"context"
	"strings"

	"farmer-admin/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FarmerRepository interface {
	Create(ctx context.Context, farmer *model.Farmer) error
	Update(ctx context.Context, farmer *model.Farmer) error
	Delete(ctx context.Context, beneficiaryID string) error
	FindByID(ctx context.Context, beneficiaryID string) (*model.Farmer, error)
	Exists(ctx context.Context, beneficiaryID string) (bool, error)
	List(ctx context.Context, filter FarmerFilter, page Page) ([]model.Farmer, int64, error)
	Summary(ctx context.Context) (*FarmerSummary, error)
}

type FarmerFilter struct {
	Scheme             string
	CircleName         string
	TalukaName         string
	VillageName        string
	JSRStatus          string
	DispatchStatus     string
	InstallationStatus string
	ICRStatus          string
	InstallerUserID    *uuid.UUID
	Search             string
}

type FarmerSummary struct {
	TotalFarmers       int64            `json:"total_farmers"`
	JSRStatus          map[string]int64 `json:"jsr_status"`
	DispatchStatus     map[string]int64 `json:"dispatch_status"`
	InstallationStatus map[string]int64 `json:"installation_status"`
	ICRStatus          map[string]int64 `json:"icr_status"`
	SchemeDistribution map[string]int64 `json:"scheme_distribution"`
}

type farmerRepo struct {
	db *gorm.DB
}

func NewFarmerRepo(db *gorm.DB) FarmerRepository {
	return &farmerRepo{db}
}

func (r *farmerRepo) Create(ctx context.Context, farmer *model.Farmer) error {
	return translateError(r.db.WithContext(ctx).Omit("Installer").Create(farmer).Error)
}

func (r *farmerRepo) Update(ctx context.Context, farmer *model.Farmer) error {
	return translateError(r.db.WithContext(ctx).Omit("Installer", "CreatedAt").Save(farmer).Error)
}

func (r *farmerRepo) Delete(ctx context.Context, beneficiaryID string) error {
	res := r.db.WithContext(ctx).Delete(&model.Farmer{}, "beneficiary_id = ?", beneficiaryID)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *farmerRepo) FindByID(ctx context.Context, beneficiaryID string) (*model.Farmer, error) {
	var farmer model.Farmer
	if err := r.db.WithContext(ctx).Preload("Installer").First(&farmer, "beneficiary_id = ?", beneficiaryID).Error; err != nil {
		return nil, translateError(err)
	}
	return &farmer, nil
}

func (r *farmerRepo) Exists(ctx context.Context, beneficiaryID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Farmer{}).Where("beneficiary_id = ?", beneficiaryID).Count(&count).Error
	return count > 0, translateError(err)
}

func (r *farmerRepo) List(ctx context.Context, filter FarmerFilter, page Page) ([]model.Farmer, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Farmer{})

	for column, value := range map[string]string{
		"scheme":              filter.Scheme,
		"circle_name":         filter.CircleName,
		"taluka_name":         filter.TalukaName,
		"village_name":        filter.VillageName,
		"jsr_status":          filter.JSRStatus,
		"dispatch_status":     filter.DispatchStatus,
		"installation_status": filter.InstallationStatus,
		"icr_status":          filter.ICRStatus,
	} {
		if value != "" {
			query = query.Where(column+" = ?", value)
		}
	}
	if filter.InstallerUserID != nil {
		query = query.Where("installer_user_id = ?", *filter.InstallerUserID)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(beneficiary_name) LIKE ? OR LOWER(phone_no) LIKE ? OR LOWER(beneficiary_id) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var farmers []model.Farmer
	if err := page.scope(query).Order("beneficiary_id ASC").Find(&farmers).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return farmers, total, nil
}

func (r *farmerRepo) Summary(ctx context.Context) (*FarmerSummary, error) {
	db := r.db.WithContext(ctx)
	summary := &FarmerSummary{}

	if err := db.Model(&model.Farmer{}).Count(&summary.TotalFarmers).Error; err != nil {
		return nil, translateError(err)
	}

	groups := []struct {
		column string
		target *map[string]int64
	}{
		{"jsr_status", &summary.JSRStatus},
		{"dispatch_status", &summary.DispatchStatus},
		{"installation_status", &summary.InstallationStatus},
		{"icr_status", &summary.ICRStatus},
		{"scheme", &summary.SchemeDistribution},
	}
	for _, g := range groups {
		counts, err := r.countBy(db, g.column)
		if err != nil {
			return nil, err
		}
		*g.target = counts
	}
	return summary, nil
}

func (r *farmerRepo) countBy(db *gorm.DB, column string) (map[string]int64, error) {
	var rows []struct {
		Value *string
		Count int64
	}
	err := db.Model(&model.Farmer{}).
		Select(column + " AS value, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		key := ""
		if row.Value != nil {
			key = *row.Value
		}
		counts[key] += row.Count
	}
	return counts, nil
}
