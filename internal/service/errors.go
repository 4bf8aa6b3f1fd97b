package service

import (
	"errors"
	"fmt"
	"strconv"

	"farmer-admin/internal/repository"
	"farmer-admin/pkg/validator"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrValidation        = errors.New("validation failed")
	ErrForbidden         = errors.New("forbidden")
	ErrAlreadyExists     = errors.New("already exists")
	ErrStorageConflict   = repository.ErrStorageConflict
	ErrReferenced        = repository.ErrReferenced

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is not active")
	ErrUserNotFound       = &NotFoundError{Resource: "user"}
)

// InsufficientStockError reports a withdrawal larger than the stock on hand.
type InsufficientStockError struct {
	ItemID    uint
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: requested %d, available %d", e.ItemID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

type ItemNotFoundError struct {
	ItemID uint
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("inventory item %d not found", e.ItemID)
}

func (e *ItemNotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFoundError is the generic missing-record error for everything but inventory items.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type AlreadyExistsError struct {
	Resource string
	Key      string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Resource, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }

// DispatchLineError names the dispatch line that aborted the whole dispatch.
type DispatchLineError struct {
	Line        int
	InventoryID uint
	Err         error
}

func (e *DispatchLineError) Error() string {
	return fmt.Sprintf("dispatch line %d (inventory %d): %v", e.Line, e.InventoryID, e.Err)
}

func (e *DispatchLineError) Unwrap() error { return e.Err }

// validate runs struct validation and converts the first failure.
func validate(req interface{}) error {
	if err := validator.Struct(req); err != nil {
		field, reason := validator.FirstError(err)
		return &ValidationError{Field: field, Reason: reason}
	}
	return nil
}

func uintString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
