package service

import (
	"context"
	"sync"
	"testing"

	"farmer-admin/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockLedger_ApplyStockChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.seedItem(t, model.CategoryMotor, "3hp", "30", 0)
	require.Equal(t, model.StatusOutOfStock, item.Status)

	t.Run("increment records an in row", func(t *testing.T) {
		txn, err := env.ledger.ApplyStockChange(ctx, StockChange{
			ItemID:        item.ID,
			Delta:         12,
			ReferenceType: model.RefManualAdjustment,
			UnitCost:      decimal.NewNullDecimal(decimal.RequireFromString("15000")),
		}, env.admin)

		require.NoError(t, err)
		assert.Equal(t, model.TxIn, txn.TransactionType)
		assert.Equal(t, 12, txn.Quantity)
		assert.Equal(t, 0, txn.PreviousQuantity)
		assert.Equal(t, 12, txn.NewQuantity)
		assert.Equal(t, env.admin.Ref(), txn.CreatedByUserID)

		stored := env.reload(t, item.ID)
		assert.Equal(t, 12, stored.Quantity)
		assert.Equal(t, model.StatusActive, stored.Status)
	})

	t.Run("decrement records an out row with positive quantity", func(t *testing.T) {
		ref := "FARM-1"
		txn, err := env.ledger.ApplyStockChange(ctx, StockChange{
			ItemID:        item.ID,
			Delta:         -5,
			ReferenceType: model.RefFarmerDispatch,
			ReferenceID:   &ref,
		}, env.admin)

		require.NoError(t, err)
		assert.Equal(t, model.TxOut, txn.TransactionType)
		assert.Equal(t, 5, txn.Quantity)
		assert.Equal(t, 12, txn.PreviousQuantity)
		assert.Equal(t, 7, txn.NewQuantity)
		require.NotNil(t, txn.ReferenceID)
		assert.Equal(t, "FARM-1", *txn.ReferenceID)
	})

	t.Run("snapshots chain and replay equals stock", func(t *testing.T) {
		txns := env.history(t, item.ID)
		require.Len(t, txns, 2)
		for i := 1; i < len(txns); i++ {
			assert.Equal(t, txns[i-1].NewQuantity, txns[i].PreviousQuantity)
		}
		assert.Equal(t, env.reload(t, item.ID).Quantity, replay(txns))
	})

	t.Run("publishes a stock update per write", func(t *testing.T) {
		updates := env.events.ofType(EventStockUpdate)
		require.Len(t, updates, 2)
		assert.Equal(t, 7, updates[1].Payload["new_quantity"])
		assert.Equal(t, item.ID, updates[1].Payload["item_id"])
	})
}

func TestStockLedger_InsufficientStockWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	item := env.seedItem(t, model.CategoryMotor, "5hp", "50", 3)
	before := len(env.history(t, item.ID))
	eventsBefore := len(env.events.ofType(EventStockUpdate))

	_, err := env.ledger.ApplyStockChange(context.Background(), StockChange{
		ItemID:        item.ID,
		Delta:         -4,
		ReferenceType: model.RefManualAdjustment,
	}, env.admin)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, item.ID, insufficient.ItemID)
	assert.Equal(t, 4, insufficient.Requested)
	assert.Equal(t, 3, insufficient.Available)

	assert.Equal(t, 3, env.reload(t, item.ID).Quantity)
	assert.Len(t, env.history(t, item.ID), before)
	assert.Len(t, env.events.ofType(EventStockUpdate), eventsBefore)
}

func TestStockLedger_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.seedItem(t, model.CategoryWire, "4mm", "", 5)

	tests := []struct {
		name   string
		change StockChange
		field  string
	}{
		{"zero delta", StockChange{ItemID: item.ID, Delta: 0, ReferenceType: model.RefManualAdjustment}, "quantity"},
		{"unknown reference type", StockChange{ItemID: item.ID, Delta: 1, ReferenceType: "gift"}, "reference_type"},
		{"negative unit cost", StockChange{
			ItemID: item.ID, Delta: 1, ReferenceType: model.RefManualAdjustment,
			UnitCost: decimal.NewNullDecimal(decimal.NewFromInt(-1)),
		}, "unit_cost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ledger.ApplyStockChange(ctx, tt.change, env.admin)

			var invalid *ValidationError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
	assert.Equal(t, 5, env.reload(t, item.ID).Quantity)
}

func TestStockLedger_UnknownItem(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ledger.ApplyStockChange(context.Background(), StockChange{
		ItemID:        9999,
		Delta:         1,
		ReferenceType: model.RefManualAdjustment,
	}, env.admin)

	var notFound *ItemNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, uint(9999), notFound.ItemID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStockLedger_StatusFollowsQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.seedItem(t, model.CategoryController, "5hp", "", 2)

	apply := func(delta int) {
		_, err := env.ledger.ApplyStockChange(ctx, StockChange{
			ItemID: item.ID, Delta: delta, ReferenceType: model.RefManualAdjustment,
		}, env.admin)
		require.NoError(t, err)
	}

	apply(-2)
	assert.Equal(t, model.StatusOutOfStock, env.reload(t, item.ID).Status)

	apply(4)
	assert.Equal(t, model.StatusActive, env.reload(t, item.ID).Status)

	_, err := env.inventory.UpdateItem(ctx, item.ID, &UpdateInventoryRequest{Status: ptr(model.StatusInactive)}, env.admin)
	require.NoError(t, err)
	apply(1)
	assert.Equal(t, model.StatusInactive, env.reload(t, item.ID).Status, "inactive stays inactive while stocked")

	apply(-5)
	assert.Equal(t, model.StatusOutOfStock, env.reload(t, item.ID).Status)
}

func TestStockLedger_ConcurrentWithdrawals(t *testing.T) {
	env := newTestEnv(t)
	item := env.seedItem(t, model.CategorySolarPanel, "540wp", "", 10)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, delta := range []int{-8, -5} {
		wg.Add(1)
		go func(i, delta int) {
			defer wg.Done()
			_, errs[i] = env.ledger.ApplyStockChange(context.Background(), StockChange{
				ItemID: item.ID, Delta: delta, ReferenceType: model.RefManualAdjustment,
			}, env.employee)
		}(i, delta)
	}
	wg.Wait()

	succeeded, rejected := 0, 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var insufficient *InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, item.ID, insufficient.ItemID)
		rejected++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	stored := env.reload(t, item.ID)
	assert.GreaterOrEqual(t, stored.Quantity, 0)
	assert.Contains(t, []int{2, 5}, stored.Quantity)
	assert.Equal(t, stored.Quantity, replay(env.history(t, item.ID)))
}
