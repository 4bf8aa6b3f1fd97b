package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"farmer-admin/internal/model"
	"farmer-admin/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type DispatchLine struct {
	InventoryID uint            `json:"inventory_id"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

type CreateDispatchRequest struct {
	FarmerBeneficiaryID string         `json:"farmer_beneficiary_id" validate:"required,max=50"`
	Items               []DispatchLine `json:"items"`
	Notes               string         `json:"notes"`
}

type DispatchService interface {
	CreateDispatch(ctx context.Context, req *CreateDispatchRequest, actor Actor) (*model.FarmerDispatch, error)
	GetDispatch(ctx context.Context, id uint) (*model.FarmerDispatch, error)
	ListDispatches(ctx context.Context, farmerID string, page repository.Page) ([]model.FarmerDispatch, int64, error)
}

type dispatchService struct {
	uow          repository.UnitOfWork
	dispatchRepo repository.DispatchRepository
	ledger       StockLedger
	events       EventPublisher
	log          *zap.Logger
	now          func() time.Time
}

func NewDispatchService(uow repository.UnitOfWork, dispatchRepo repository.DispatchRepository, ledger StockLedger, events EventPublisher, log *zap.Logger) DispatchService {
	return &dispatchService{
		uow:          uow,
		dispatchRepo: dispatchRepo,
		ledger:       ledger,
		events:       events,
		log:          log.Named("dispatch"),
		now:          time.Now,
	}
}

// CreateDispatch withdraws every line from stock in one transaction. The
// first failing line aborts the dispatch and nothing is written.
func (s *dispatchService) CreateDispatch(ctx context.Context, req *CreateDispatchRequest, actor Actor) (*model.FarmerDispatch, error) {
	req.FarmerBeneficiaryID = strings.TrimSpace(req.FarmerBeneficiaryID)
	if err := validate(req); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "must contain at least one line"}
	}
	for i, line := range req.Items {
		if err := validateDispatchLine(line); err != nil {
			return nil, &DispatchLineError{Line: i, InventoryID: line.InventoryID, Err: err}
		}
	}

	dispatch := &model.FarmerDispatch{
		FarmerBeneficiaryID: req.FarmerBeneficiaryID,
		DispatchDate:        s.now(),
		Status:              model.DispatchPending,
		TotalValue:          decimal.Zero,
		Notes:               req.Notes,
		CreatedByUserID:     actor.Ref(),
	}
	var txns []*model.InventoryTransaction

	err := s.uow.Execute(ctx, func(repos repository.Repositories) error {
		exists, err := repos.Farmers().Exists(ctx, dispatch.FarmerBeneficiaryID)
		if err != nil {
			return err
		}
		if !exists {
			return &NotFoundError{Resource: "farmer", ID: dispatch.FarmerBeneficiaryID}
		}

		if err := repos.Dispatches().Create(ctx, dispatch); err != nil {
			return err
		}

		total := decimal.Zero
		ref := dispatch.FarmerBeneficiaryID
		for i, line := range req.Items {
			txn, err := s.ledger.ApplyInTx(ctx, repos, StockChange{
				ItemID:        line.InventoryID,
				Delta:         -line.Quantity,
				ReferenceType: model.RefFarmerDispatch,
				ReferenceID:   &ref,
				UnitCost:      decimal.NewNullDecimal(line.UnitCost),
				Notes:         "Dispatched to farmer " + ref,
			}, actor)
			if err != nil {
				return &DispatchLineError{Line: i, InventoryID: line.InventoryID, Err: err}
			}
			txns = append(txns, txn)

			lineTotal := line.UnitCost.Mul(decimal.NewFromInt(int64(line.Quantity)))
			item := &model.FarmerDispatchItem{
				DispatchID:  dispatch.ID,
				InventoryID: line.InventoryID,
				Quantity:    line.Quantity,
				UnitCost:    line.UnitCost,
				TotalCost:   lineTotal,
			}
			if err := repos.Dispatches().AddItem(ctx, item); err != nil {
				return &DispatchLineError{Line: i, InventoryID: line.InventoryID, Err: err}
			}
			total = total.Add(lineTotal)
		}

		dispatch.Status = model.DispatchDispatched
		dispatch.TotalValue = total
		return repos.Dispatches().Finalize(ctx, dispatch)
	})
	if err != nil {
		s.log.Warn("dispatch aborted",
			zap.String("farmer_id", req.FarmerBeneficiaryID),
			zap.Int("lines", len(req.Items)),
			zap.Error(err),
		)
		return nil, err
	}

	created, err := s.dispatchRepo.FindByID(ctx, dispatch.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("dispatch created",
		zap.Uint("dispatch_id", created.ID),
		zap.String("farmer_id", created.FarmerBeneficiaryID),
		zap.String("total_value", created.TotalValue.StringFixed(2)),
	)
	for _, txn := range txns {
		publishStockUpdate(s.events, txn, actor)
	}
	publish(s.events, EventDispatchCreated, map[string]interface{}{
		"dispatch_id":           created.ID,
		"farmer_beneficiary_id": created.FarmerBeneficiaryID,
		"total_value":           created.TotalValue,
		"items":                 len(created.Items),
		"user":                  actor.eventUser(),
	})
	return created, nil
}

func validateDispatchLine(line DispatchLine) error {
	if line.InventoryID == 0 {
		return &ValidationError{Field: "inventory_id", Reason: "is required"}
	}
	if line.Quantity <= 0 {
		return &ValidationError{Field: "quantity", Reason: "must be greater than 0"}
	}
	if line.UnitCost.IsNegative() {
		return &ValidationError{Field: "unit_cost", Reason: "must be at least 0"}
	}
	return nil
}

func (s *dispatchService) GetDispatch(ctx context.Context, id uint) (*model.FarmerDispatch, error) {
	dispatch, err := s.dispatchRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Resource: "dispatch", ID: uintString(id)}
	}
	return dispatch, err
}

func (s *dispatchService) ListDispatches(ctx context.Context, farmerID string, page repository.Page) ([]model.FarmerDispatch, int64, error) {
	return s.dispatchRepo.List(ctx, strings.TrimSpace(farmerID), page)
}
