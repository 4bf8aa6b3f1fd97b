package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories exposes the stores that share one database transaction.
type Repositories interface {
	Inventory() InventoryRepository
	Transactions() InventoryTransactionRepository
	Dispatches() DispatchRepository
	Farmers() FarmerRepository

	// Atomic runs fn inside a savepoint. A failing fn rolls back only its
	// own writes; the enclosing transaction stays usable.
	Atomic(fn func(Repositories) error) error
}

// UnitOfWork runs a function with repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(Repositories) error) error
}

type unitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &unitOfWork{db: db}
}

func (u *unitOfWork) Execute(ctx context.Context, fn func(Repositories) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepositories{tx: tx})
	})
	return translateError(err)
}

type txRepositories struct {
	tx *gorm.DB
}

func (r *txRepositories) Inventory() InventoryRepository {
	return NewInventoryRepo(r.tx)
}

func (r *txRepositories) Transactions() InventoryTransactionRepository {
	return NewInventoryTransactionRepo(r.tx)
}

func (r *txRepositories) Dispatches() DispatchRepository {
	return NewDispatchRepo(r.tx)
}

func (r *txRepositories) Farmers() FarmerRepository {
	return NewFarmerRepo(r.tx)
}

func (r *txRepositories) Atomic(fn func(Repositories) error) error {
	return r.tx.Transaction(func(sp *gorm.DB) error {
		return fn(&txRepositories{tx: sp})
	})
}
