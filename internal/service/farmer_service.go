package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"farmer-admin/internal/model"
	"farmer-admin/internal/repository"
)

// FarmerRequest carries the editable farmer fields. On update nil pointers are left alone.
type FarmerRequest struct {
	BeneficiaryID      string     `json:"beneficiary_id" validate:"omitempty,max=50"`
	BeneficiaryName    *string    `json:"beneficiary_name" validate:"omitempty,min=2,max=255"`
	PhoneNo            *string    `json:"phone_no" validate:"omitempty,max=15"`
	AadhaarNo          *string    `json:"aadhaar_no" validate:"omitempty,max=20"`
	Scheme             *string    `json:"scheme" validate:"omitempty,max=20"`
	PumpHP             *string    `json:"pumphp" validate:"omitempty,max=20"`
	PumpHead           *string    `json:"pumphead" validate:"omitempty,max=20"`
	SelectionDate      *time.Time `json:"selection_date"`
	CircleName         *string    `json:"circle_name" validate:"omitempty,max=100"`
	TalukaName         *string    `json:"taluka_name" validate:"omitempty,max=100"`
	VillageName        *string    `json:"village_name" validate:"omitempty,max=100"`
	InstallerUserID    *uuid.UUID `json:"installer_user_id"`
	LD                 *string    `json:"ld" validate:"omitempty,max=50"`
	JSRStatus          *string    `json:"jsr_status" validate:"omitempty,max=20"`
	DispatchStatus     *string    `json:"dispatch_status" validate:"omitempty,max=50"`
	DispatchDate       *time.Time `json:"dispatch_date"`
	VehicleNo          *string    `json:"vehicle_no" validate:"omitempty,max=50"`
	DriverInfo         *string    `json:"driver_info" validate:"omitempty,max=255"`
	InstallationStatus *string    `json:"installation_status" validate:"omitempty,max=50"`
	InstallationRemark *string    `json:"installation_remark"`
	ICRStatus          *string    `json:"icr_status" validate:"omitempty,max=50"`
	Photos             *string    `json:"photos"`
}

type FarmerService interface {
	CreateFarmer(ctx context.Context, req *FarmerRequest, actor Actor) (*model.Farmer, error)
	UpdateFarmer(ctx context.Context, beneficiaryID string, req *FarmerRequest, actor Actor) (*model.Farmer, error)
	DeleteFarmer(ctx context.Context, beneficiaryID string, actor Actor) error
	GetFarmer(ctx context.Context, beneficiaryID string) (*model.Farmer, error)
	ListFarmers(ctx context.Context, filter repository.FarmerFilter, page repository.Page) ([]model.Farmer, int64, error)
	Summary(ctx context.Context) (*repository.FarmerSummary, error)
}

type farmerService struct {
	farmerRepo repository.FarmerRepository
	log        *zap.Logger
}

func NewFarmerService(farmerRepo repository.FarmerRepository, log *zap.Logger) FarmerService {
	return &farmerService{farmerRepo: farmerRepo, log: log.Named("farmer")}
}

func (s *farmerService) CreateFarmer(ctx context.Context, req *FarmerRequest, actor Actor) (*model.Farmer, error) {
	farmer := &model.Farmer{BeneficiaryID: strings.TrimSpace(req.BeneficiaryID)}
	req.apply(farmer)
	if err := validate(farmer); err != nil {
		return nil, err
	}

	if _, err := s.farmerRepo.FindByID(ctx, farmer.BeneficiaryID); err == nil {
		return nil, &AlreadyExistsError{Resource: "farmer", Key: farmer.BeneficiaryID}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if err := s.farmerRepo.Create(ctx, farmer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &AlreadyExistsError{Resource: "farmer", Key: farmer.BeneficiaryID}
		}
		return nil, err
	}
	s.log.Info("farmer created", zap.String("beneficiary_id", farmer.BeneficiaryID), zap.String("actor", actor.Ref()))
	return s.GetFarmer(ctx, farmer.BeneficiaryID)
}

func (s *farmerService) UpdateFarmer(ctx context.Context, beneficiaryID string, req *FarmerRequest, actor Actor) (*model.Farmer, error) {
	farmer, err := s.GetFarmer(ctx, beneficiaryID)
	if err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	req.apply(farmer)
	farmer.Installer = nil
	if err := validate(farmer); err != nil {
		return nil, err
	}
	if err := s.farmerRepo.Update(ctx, farmer); err != nil {
		return nil, err
	}
	return s.GetFarmer(ctx, beneficiaryID)
}

func (s *farmerService) DeleteFarmer(ctx context.Context, beneficiaryID string, actor Actor) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	err := s.farmerRepo.Delete(ctx, beneficiaryID)
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: "farmer", ID: beneficiaryID}
	}
	if err != nil {
		return err
	}
	s.log.Info("farmer deleted", zap.String("beneficiary_id", beneficiaryID), zap.String("actor", actor.Ref()))
	return nil
}

func (s *farmerService) GetFarmer(ctx context.Context, beneficiaryID string) (*model.Farmer, error) {
	farmer, err := s.farmerRepo.FindByID(ctx, beneficiaryID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Resource: "farmer", ID: beneficiaryID}
	}
	return farmer, err
}

func (s *farmerService) ListFarmers(ctx context.Context, filter repository.FarmerFilter, page repository.Page) ([]model.Farmer, int64, error) {
	return s.farmerRepo.List(ctx, filter, page)
}

func (s *farmerService) Summary(ctx context.Context) (*repository.FarmerSummary, error) {
	return s.farmerRepo.Summary(ctx)
}

func (r *FarmerRequest) apply(f *model.Farmer) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&f.BeneficiaryName, r.BeneficiaryName)
	setString(&f.PhoneNo, r.PhoneNo)
	setString(&f.AadhaarNo, r.AadhaarNo)
	if r.Scheme != nil {
		f.Scheme = model.Scheme(strings.ToUpper(strings.TrimSpace(*r.Scheme)))
	}
	setString(&f.PumpHP, r.PumpHP)
	setString(&f.PumpHead, r.PumpHead)
	if r.SelectionDate != nil {
		f.SelectionDate = r.SelectionDate
	}
	setString(&f.CircleName, r.CircleName)
	setString(&f.TalukaName, r.TalukaName)
	setString(&f.VillageName, r.VillageName)
	if r.InstallerUserID != nil {
		f.InstallerUserID = r.InstallerUserID
	}
	setString(&f.LD, r.LD)
	setString(&f.JSRStatus, r.JSRStatus)
	setString(&f.DispatchStatus, r.DispatchStatus)
	if r.DispatchDate != nil {
		f.DispatchDate = r.DispatchDate
	}
	setString(&f.VehicleNo, r.VehicleNo)
	setString(&f.DriverInfo, r.DriverInfo)
	setString(&f.InstallationStatus, r.InstallationStatus)
	setString(&f.InstallationRemark, r.InstallationRemark)
	setString(&f.ICRStatus, r.ICRStatus)
	setString(&f.Photos, r.Photos)
	f.PumpHPCombined = model.CombinePump(f.PumpHP, f.PumpHead)
}
