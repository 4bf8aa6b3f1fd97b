package service

import (
	"context"
	"errors"

	"farmer-admin/internal/model"
	"farmer-admin/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockChange is one signed movement against an inventory item.
type StockChange struct {
	ItemID        uint
	Delta         int
	ReferenceType model.ReferenceType
	ReferenceID   *string
	UnitCost      decimal.NullDecimal
	Notes         string
}

// StockLedger is the only writer of InventoryItem.Quantity.
type StockLedger interface {
	// ApplyStockChange runs the change in its own transaction.
	ApplyStockChange(ctx context.Context, change StockChange, actor Actor) (*model.InventoryTransaction, error)
	// ApplyInTx runs the change inside a caller-owned transaction.
	ApplyInTx(ctx context.Context, repos repository.Repositories, change StockChange, actor Actor) (*model.InventoryTransaction, error)
}

type stockLedger struct {
	uow    repository.UnitOfWork
	events EventPublisher
	log    *zap.Logger
}

func NewStockLedger(uow repository.UnitOfWork, events EventPublisher, log *zap.Logger) StockLedger {
	return &stockLedger{uow: uow, events: events, log: log.Named("ledger")}
}

func (l *stockLedger) ApplyStockChange(ctx context.Context, change StockChange, actor Actor) (*model.InventoryTransaction, error) {
	var txn *model.InventoryTransaction
	err := l.uow.Execute(ctx, func(repos repository.Repositories) error {
		var err error
		txn, err = l.ApplyInTx(ctx, repos, change, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("stock changed",
		zap.Uint("item_id", txn.InventoryID),
		zap.Int("delta", txn.SignedDelta()),
		zap.Int("new_quantity", txn.NewQuantity),
		zap.String("reference_type", string(txn.ReferenceType)),
		zap.String("actor", actor.Ref()),
	)
	publishStockUpdate(l.events, txn, actor)
	return txn, nil
}

func (l *stockLedger) ApplyInTx(ctx context.Context, repos repository.Repositories, change StockChange, actor Actor) (*model.InventoryTransaction, error) {
	if change.Delta == 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must not be zero"}
	}
	if !change.ReferenceType.Valid() {
		return nil, &ValidationError{Field: "reference_type", Reason: "is not a valid reference type"}
	}
	if change.UnitCost.Valid && change.UnitCost.Decimal.IsNegative() {
		return nil, &ValidationError{Field: "unit_cost", Reason: "must be at least 0"}
	}

	item, err := repos.Inventory().FindByIDForUpdate(ctx, change.ItemID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &ItemNotFoundError{ItemID: change.ItemID}
	}
	if err != nil {
		return nil, err
	}

	previous := item.Quantity
	next := previous + change.Delta
	if next < 0 {
		return nil, &InsufficientStockError{ItemID: item.ID, Requested: -change.Delta, Available: previous}
	}

	status := model.DeriveStatus(item.Status, next)
	if err := repos.Inventory().ApplyQuantity(ctx, item.ID, previous, next, status, actor.Ref()); err != nil {
		return nil, err
	}

	quantity := change.Delta
	if quantity < 0 {
		quantity = -quantity
	}
	txn := &model.InventoryTransaction{
		InventoryID:      item.ID,
		TransactionType:  model.TransactionTypeFor(change.Delta),
		Quantity:         quantity,
		PreviousQuantity: previous,
		NewQuantity:      next,
		ReferenceType:    change.ReferenceType,
		ReferenceID:      change.ReferenceID,
		Notes:            change.Notes,
		UnitCost:         change.UnitCost,
		CreatedByUserID:  actor.Ref(),
	}
	if err := repos.Transactions().Create(ctx, txn); err != nil {
		return nil, err
	}

	item.Quantity = next
	item.Status = status
	txn.Inventory = item
	return txn, nil
}

func publishStockUpdate(events EventPublisher, txn *model.InventoryTransaction, actor Actor) {
	payload := map[string]interface{}{
		"item_id":           txn.InventoryID,
		"transaction_id":    txn.ID,
		"transaction_type":  txn.TransactionType,
		"quantity":          txn.Quantity,
		"previous_quantity": txn.PreviousQuantity,
		"new_quantity":      txn.NewQuantity,
		"reference_type":    txn.ReferenceType,
		"user":              actor.eventUser(),
	}
	if txn.Inventory != nil {
		payload["status"] = txn.Inventory.Status
		payload["category"] = txn.Inventory.Category
		payload["type"] = txn.Inventory.Type
		payload["specification"] = txn.Inventory.Specification
	}
	publish(events, EventStockUpdate, payload)
}
