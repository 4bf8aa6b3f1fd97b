package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type draft struct {
	Category string    `json:"category" validate:"required,inventory_category"`
	Type     string    `json:"type" validate:"required,max=50"`
	Quantity int       `json:"quantity" validate:"gte=0"`
	Owner    uuid.UUID `json:"owner" validate:"uuid_required"`
}

func TestStruct_CustomTags(t *testing.T) {
	ok := draft{Category: "motor", Type: "3hp", Quantity: 1, Owner: uuid.New()}
	assert.NoError(t, Struct(ok))

	err := Struct(draft{Category: "tractor", Type: "3hp", Owner: uuid.Nil})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 2)
	assert.Equal(t, "category", verrs[0].Field())
	assert.Equal(t, "inventory_category", verrs[0].Tag())
	assert.Equal(t, "owner", verrs[1].Field())
	assert.Equal(t, "uuid_required", verrs[1].Tag())

	field, reason := FirstError(err)
	assert.Equal(t, "category", field)
	assert.Equal(t, "is not a valid inventory_category", reason)
}

func TestFirstError(t *testing.T) {
	err := Struct(draft{Category: "motor", Type: "3hp", Quantity: -1, Owner: uuid.New()})
	require.Error(t, err)

	field, reason := FirstError(err)
	assert.Equal(t, "quantity", field)
	assert.Equal(t, "must be at least 0", reason)
}

func TestStatusTags(t *testing.T) {
	type s struct {
		Inventory string `validate:"inventory_status"`
		Dispatch  string `validate:"dispatch_status"`
		Role      string `validate:"user_role"`
	}
	assert.NoError(t, Struct(s{Inventory: "out_of_stock", Dispatch: "installed", Role: "Admin"}))
	assert.Error(t, Struct(s{Inventory: "gone", Dispatch: "installed", Role: "Admin"}))
	assert.Error(t, Struct(s{Inventory: "active", Dispatch: "lost", Role: "Admin"}))
	assert.Error(t, Struct(s{Inventory: "active", Dispatch: "pending", Role: "root"}))
}
