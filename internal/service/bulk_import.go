package service

import (
	"context"
	"errors"
	"strings"

	"farmer-admin/internal/model"
	"farmer-admin/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryDraft is one incoming stock line from a bulk request or an uploaded file.
type InventoryDraft struct {
	Category      model.InventoryCategory `json:"category" validate:"required,inventory_category"`
	Type          string                  `json:"type" validate:"required,max=50"`
	Specification string                  `json:"specification" validate:"max=50"`
	Quantity      int                     `json:"quantity" validate:"gte=0"`
	MinStockLevel *int                    `json:"min_stock_level" validate:"omitempty,gte=0"`
	UnitPrice     decimal.NullDecimal     `json:"unit_price"`
	Supplier      string                  `json:"supplier" validate:"max=255"`
	PartNumber    string                  `json:"part_number" validate:"max=100"`
	Description   string                  `json:"description"`
	Location      string                  `json:"location" validate:"max=100"`

	// Row is the source line number for file uploads, 0 otherwise.
	Row int `json:"-"`
}

func (d *InventoryDraft) normalize() {
	d.Category = model.InventoryCategory(strings.ToLower(strings.TrimSpace(string(d.Category))))
	d.Type = strings.TrimSpace(d.Type)
	d.Specification = strings.TrimSpace(d.Specification)
}

func (d *InventoryDraft) check() error {
	d.normalize()
	if err := validate(d); err != nil {
		return err
	}
	if d.UnitPrice.Valid && d.UnitPrice.Decimal.IsNegative() {
		return &ValidationError{Field: "unit_price", Reason: "must be at least 0"}
	}
	return nil
}

// newItem builds the row inserted for an unseen natural key. Stock arrives
// afterwards through the ledger, so the item starts empty.
func (d *InventoryDraft) newItem(actor Actor) *model.InventoryItem {
	minStock := model.DefaultMinStockLevel
	if d.MinStockLevel != nil {
		minStock = *d.MinStockLevel
	}
	ref := actor.Ref()
	return &model.InventoryItem{
		Category:        d.Category,
		Type:            d.Type,
		Specification:   d.Specification,
		Quantity:        0,
		MinStockLevel:   minStock,
		UnitPrice:       d.UnitPrice,
		Supplier:        d.Supplier,
		PartNumber:      d.PartNumber,
		Description:     d.Description,
		Location:        d.Location,
		Status:          model.DeriveStatus("", 0),
		CreatedByUserID: &ref,
		UpdatedBy:       ref,
	}
}

type SkipReason string

const (
	SkipInvalid       SkipReason = "validation_failed"
	SkipNotFound      SkipReason = "not_found"
	SkipInsufficient  SkipReason = "insufficient_stock"
	SkipDuplicate     SkipReason = "duplicate"
	SkipParseError    SkipReason = "parse_error"
	SkipStorageFailed SkipReason = "storage_error"
)

type ReconcileEntry struct {
	Index         int                     `json:"index"`
	Row           int                     `json:"row,omitempty"`
	ItemID        uint                    `json:"item_id,omitempty"`
	Category      model.InventoryCategory `json:"category,omitempty"`
	Type          string                  `json:"type,omitempty"`
	Specification string                  `json:"specification,omitempty"`
	Quantity      int                     `json:"quantity"`
	Reason        SkipReason              `json:"reason,omitempty"`
	Error         string                  `json:"error,omitempty"`
}

type ReconcileResult struct {
	Created []ReconcileEntry `json:"created"`
	Updated []ReconcileEntry `json:"updated"`
	Skipped []ReconcileEntry `json:"skipped"`
}

func newReconcileResult() *ReconcileResult {
	return &ReconcileResult{
		Created: []ReconcileEntry{},
		Updated: []ReconcileEntry{},
		Skipped: []ReconcileEntry{},
	}
}

type BulkImporter interface {
	Reconcile(ctx context.Context, drafts []InventoryDraft, actor Actor) (*ReconcileResult, error)
}

type bulkImporter struct {
	uow    repository.UnitOfWork
	ledger StockLedger
	events EventPublisher
	log    *zap.Logger
}

func NewBulkImporter(uow repository.UnitOfWork, ledger StockLedger, events EventPublisher, log *zap.Logger) BulkImporter {
	return &bulkImporter{uow: uow, ledger: ledger, events: events, log: log.Named("bulk_import")}
}

// Reconcile merges drafts into inventory by (category, type, specification).
// Each draft runs in its own savepoint: a bad draft is skipped with a reason
// and the rest of the batch still commits. A storage conflict aborts the batch.
func (b *bulkImporter) Reconcile(ctx context.Context, drafts []InventoryDraft, actor Actor) (*ReconcileResult, error) {
	result := newReconcileResult()
	var txns []*model.InventoryTransaction

	err := b.uow.Execute(ctx, func(repos repository.Repositories) error {
		for i := range drafts {
			draft := drafts[i]
			entry := ReconcileEntry{Index: i, Row: draft.Row}

			if err := draft.check(); err != nil {
				entry.fill(&draft)
				result.skip(entry, SkipInvalid, err)
				continue
			}
			entry.fill(&draft)

			var created bool
			var txn *model.InventoryTransaction
			err := repos.Atomic(func(sp repository.Repositories) error {
				var err error
				created, entry.ItemID, txn, err = b.reconcileOne(ctx, sp, &draft, actor)
				return err
			})
			if err != nil {
				if errors.Is(err, ErrStorageConflict) || ctx.Err() != nil {
					return err
				}
				result.skip(entry, skipReasonFor(err), err)
				continue
			}

			if txn != nil {
				txns = append(txns, txn)
			}
			if created {
				result.Created = append(result.Created, entry)
			} else {
				result.Updated = append(result.Updated, entry)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.log.Info("inventory reconciled",
		zap.Int("drafts", len(drafts)),
		zap.Int("created", len(result.Created)),
		zap.Int("updated", len(result.Updated)),
		zap.Int("skipped", len(result.Skipped)),
		zap.String("actor", actor.Ref()),
	)
	for _, txn := range txns {
		publishStockUpdate(b.events, txn, actor)
	}
	publish(b.events, EventInventoryReconciled, map[string]interface{}{
		"created": len(result.Created),
		"updated": len(result.Updated),
		"skipped": len(result.Skipped),
		"user":    actor.eventUser(),
	})
	return result, nil
}

func (b *bulkImporter) reconcileOne(ctx context.Context, repos repository.Repositories, draft *InventoryDraft, actor Actor) (bool, uint, *model.InventoryTransaction, error) {
	item, err := repos.Inventory().FindByNaturalKey(ctx, draft.Category, draft.Type, draft.Specification)
	created := false
	notes := "Bulk upload - added to existing stock"
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		item = draft.newItem(actor)
		if err := repos.Inventory().Create(ctx, item); err != nil {
			return false, 0, nil, err
		}
		created = true
		notes = "Bulk upload - new item"
	default:
		return false, 0, nil, err
	}

	if draft.Quantity == 0 {
		return created, item.ID, nil, nil
	}
	txn, err := b.ledger.ApplyInTx(ctx, repos, StockChange{
		ItemID:        item.ID,
		Delta:         draft.Quantity,
		ReferenceType: model.RefBulkUpload,
		UnitCost:      draft.UnitPrice,
		Notes:         notes,
	}, actor)
	if err != nil {
		return false, 0, nil, err
	}
	return created, item.ID, txn, nil
}

func (e *ReconcileEntry) fill(d *InventoryDraft) {
	e.Category = d.Category
	e.Type = d.Type
	e.Specification = d.Specification
	e.Quantity = d.Quantity
}

func (r *ReconcileResult) skip(entry ReconcileEntry, reason SkipReason, err error) {
	entry.Reason = reason
	entry.Error = err.Error()
	r.Skipped = append(r.Skipped, entry)
}

func skipReasonFor(err error) SkipReason {
	switch {
	case errors.Is(err, ErrValidation):
		return SkipInvalid
	case errors.Is(err, ErrInsufficientStock):
		return SkipInsufficient
	case errors.Is(err, ErrNotFound):
		return SkipNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return SkipDuplicate
	}
	return SkipStorageFailed
}
