package service

import (
	"context"
	"testing"

	"farmer-admin/internal/model"
	"farmer-admin/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchService_CreateDispatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedFarmer(t, "MH-1001")
	motor := env.seedItem(t, model.CategoryMotor, "3hp", "30", 10)
	panel := env.seedItem(t, model.CategorySolarPanel, "540wp", "", 20)

	dispatch, err := env.dispatch.CreateDispatch(ctx, &CreateDispatchRequest{
		FarmerBeneficiaryID: "MH-1001",
		Items: []DispatchLine{
			{InventoryID: motor.ID, Quantity: 1, UnitCost: decimal.RequireFromString("15000")},
			{InventoryID: panel.ID, Quantity: 6, UnitCost: decimal.RequireFromString("9500.50")},
		},
		Notes: "Vehicle MH12AB1234",
	}, env.employee)
	require.NoError(t, err)

	t.Run("header and items", func(t *testing.T) {
		assert.Equal(t, model.DispatchDispatched, dispatch.Status)
		assert.Equal(t, "MH-1001", dispatch.FarmerBeneficiaryID)
		assert.Equal(t, env.employee.Ref(), dispatch.CreatedByUserID)
		assert.True(t, decimal.RequireFromString("72003").Equal(dispatch.TotalValue), "total %s", dispatch.TotalValue)
		require.Len(t, dispatch.Items, 2)
		assert.True(t, decimal.RequireFromString("57003").Equal(dispatch.Items[1].TotalCost))
		require.NotNil(t, dispatch.Items[0].Inventory)
		assert.Equal(t, "3hp", dispatch.Items[0].Inventory.Type)
	})

	t.Run("stock decremented through the ledger", func(t *testing.T) {
		assert.Equal(t, 9, env.reload(t, motor.ID).Quantity)
		assert.Equal(t, 14, env.reload(t, panel.ID).Quantity)

		txns := env.history(t, panel.ID)
		last := txns[len(txns)-1]
		assert.Equal(t, model.TxOut, last.TransactionType)
		assert.Equal(t, 6, last.Quantity)
		assert.Equal(t, model.RefFarmerDispatch, last.ReferenceType)
		require.NotNil(t, last.ReferenceID)
		assert.Equal(t, "MH-1001", *last.ReferenceID)
		assert.Equal(t, "Dispatched to farmer MH-1001", last.Notes)
	})

	t.Run("events after commit", func(t *testing.T) {
		created := env.events.ofType(EventDispatchCreated)
		require.Len(t, created, 1)
		assert.Equal(t, dispatch.ID, created[0].Payload["dispatch_id"])
		assert.Equal(t, 2, created[0].Payload["items"])
	})

	t.Run("listed by farmer", func(t *testing.T) {
		list, total, err := env.dispatch.ListDispatches(ctx, "MH-1001", repository.Page{Number: 1, Size: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, list, 1)
		assert.Equal(t, dispatch.ID, list[0].ID)
	})
}

func TestDispatchService_RollsBackWholeDispatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedFarmer(t, "MH-2002")
	motor := env.seedItem(t, model.CategoryMotor, "5hp", "50", 4)
	pipe := env.seedItem(t, model.CategoryPipe, "hdpe", "63mm", 2)
	stockEventsBefore := len(env.events.ofType(EventStockUpdate))

	_, err := env.dispatch.CreateDispatch(ctx, &CreateDispatchRequest{
		FarmerBeneficiaryID: "MH-2002",
		Items: []DispatchLine{
			{InventoryID: motor.ID, Quantity: 1},
			{InventoryID: pipe.ID, Quantity: 3},
		},
	}, env.employee)

	var lineErr *DispatchLineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 1, lineErr.Line)
	assert.Equal(t, pipe.ID, lineErr.InventoryID)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 3, insufficient.Requested)
	assert.Equal(t, 2, insufficient.Available)

	assert.Equal(t, 4, env.reload(t, motor.ID).Quantity, "first line rolled back")
	assert.Equal(t, 2, env.reload(t, pipe.ID).Quantity)
	assert.Len(t, env.history(t, motor.ID), 1)

	var dispatches int64
	require.NoError(t, env.db.Model(&model.FarmerDispatch{}).Count(&dispatches).Error)
	assert.Zero(t, dispatches)
	var items int64
	require.NoError(t, env.db.Model(&model.FarmerDispatchItem{}).Count(&items).Error)
	assert.Zero(t, items)

	assert.Len(t, env.events.ofType(EventStockUpdate), stockEventsBefore)
	assert.Empty(t, env.events.ofType(EventDispatchCreated))
}

func TestDispatchService_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedFarmer(t, "MH-3003")
	motor := env.seedItem(t, model.CategoryMotor, "7.5hp", "100", 5)

	t.Run("unknown farmer", func(t *testing.T) {
		_, err := env.dispatch.CreateDispatch(ctx, &CreateDispatchRequest{
			FarmerBeneficiaryID: "NOPE",
			Items:               []DispatchLine{{InventoryID: motor.ID, Quantity: 1}},
		}, env.employee)

		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "farmer", notFound.Resource)
	})

	t.Run("no lines", func(t *testing.T) {
		_, err := env.dispatch.CreateDispatch(ctx, &CreateDispatchRequest{FarmerBeneficiaryID: "MH-3003"}, env.employee)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("non-positive quantity names the line", func(t *testing.T) {
		_, err := env.dispatch.CreateDispatch(ctx, &CreateDispatchRequest{
			FarmerBeneficiaryID: "MH-3003",
			Items: []DispatchLine{
				{InventoryID: motor.ID, Quantity: 1},
				{InventoryID: motor.ID, Quantity: 0},
			},
		}, env.employee)

		var lineErr *DispatchLineError
		require.ErrorAs(t, err, &lineErr)
		assert.Equal(t, 1, lineErr.Line)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := env.dispatch.CreateDispatch(ctx, &CreateDispatchRequest{
			FarmerBeneficiaryID: "MH-3003",
			Items:               []DispatchLine{{InventoryID: 4242, Quantity: 1}},
		}, env.employee)

		var notFound *ItemNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, uint(4242), notFound.ItemID)
	})

	assert.Equal(t, 5, env.reload(t, motor.ID).Quantity)

	t.Run("get unknown dispatch", func(t *testing.T) {
		_, err := env.dispatch.GetDispatch(ctx, 77)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
