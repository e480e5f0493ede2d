package service

import (
	"context"
	"testing"
	"time"

	"salon-inventory/internal/model"
	"salon-inventory/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectForConsumptionTakesEarliestExpiryThenEarliestStocked(t *testing.T) {
	e := newEnv(t)
	g := e.group(t, "Shampoo", 5)
	u1 := e.unit(t, g.ID, "U1", day("2025-01-01"), day("2024-12-01"))
	u2 := e.unit(t, g.ID, "U2", day("2025-01-01"), day("2024-12-05"))
	u3 := e.unit(t, g.ID, "U3", day("2025-02-01"), day("2024-11-01"))

	res, err := e.inventory().SelectForConsumption(context.Background(), testActor, ConsumeInput{ProductGroupID: g.ID, Quantity: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Count)
	assert.Equal(t, []uuid.UUID{u1.ID, u2.ID}, res.UnitIDs)
	assert.Equal(t, model.UnitConsumed, e.unitStatus(t, u1.ID))
	assert.Equal(t, model.UnitConsumed, e.unitStatus(t, u2.ID))
	assert.Equal(t, model.UnitActive, e.unitStatus(t, u3.ID))

	var consumed model.InventoryUnit
	require.NoError(t, e.db.First(&consumed, "id = ?", u1.ID).Error)
	require.NotNil(t, consumed.ConsumedAt)
	assert.Equal(t, model.ReasonSales, consumed.ConsumedReason)
}

func TestSelectForConsumptionInsufficientStockLeavesUnitsActive(t *testing.T) {
	e := newEnv(t)
	g := e.group(t, "Conditioner", 5)
	var ids []uuid.UUID
	for i, sku := range []string{"A", "B", "C"} {
		u := e.unit(t, g.ID, sku, day("2025-03-01").AddDate(0, 0, i), day("2024-12-01"))
		ids = append(ids, u.ID)
	}

	_, err := e.inventory().SelectForConsumption(context.Background(), testActor, ConsumeInput{ProductGroupID: g.ID, Quantity: 5})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientStock))

	typed := apperror.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, apperror.StockShortage{Requested: 5, Available: 3}, typed.Details())

	for _, id := range ids {
		assert.Equal(t, model.UnitActive, e.unitStatus(t, id))
	}
}

func TestSelectForConsumptionIsDeterministic(t *testing.T) {
	build := func(t *testing.T) ([]uuid.UUID, []uuid.UUID) {
		e := newEnv(t)
		g := e.group(t, "Serum", 5)
		var order []uuid.UUID
		// Inserted out of FIFO order on purpose.
		order = append(order, e.unit(t, g.ID, "S3", day("2025-05-01"), day("2024-10-01")).ID)
		order = append(order, e.unit(t, g.ID, "S1", day("2025-04-01"), day("2024-10-03")).ID)
		order = append(order, e.unit(t, g.ID, "S2", day("2025-04-01"), day("2024-10-04")).ID)

		res, err := e.inventory().SelectForConsumption(context.Background(), testActor, ConsumeInput{ProductGroupID: g.ID, Quantity: 3})
		require.NoError(t, err)
		return res.UnitIDs, []uuid.UUID{order[1], order[2], order[0]}
	}

	got, want := build(t)
	assert.Equal(t, want, got)
}

func TestSelectForConsumptionValidatesInput(t *testing.T) {
	e := newEnv(t)
	g := e.group(t, "Gel", 5)

	_, err := e.inventory().SelectForConsumption(context.Background(), testActor, ConsumeInput{ProductGroupID: g.ID, Quantity: 0})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	_, err = e.inventory().SelectForConsumption(context.Background(), testActor, ConsumeInput{ProductGroupID: uuid.New(), Quantity: 1})
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestSelectForConsumptionUsesCallerReason(t *testing.T) {
	e := newEnv(t)
	g := e.group(t, "Wax", 5)
	u := e.unit(t, g.ID, "W1", day("2025-01-01"), day("2024-12-01"))

	_, err := e.inventory().SelectForConsumption(context.Background(), testActor, ConsumeInput{ProductGroupID: g.ID, Quantity: 1, Reason: "service"})
	require.NoError(t, err)

	var stored model.InventoryUnit
	require.NoError(t, e.db.First(&stored, "id = ?", u.ID).Error)
	assert.Equal(t, model.ReasonService, stored.ConsumedReason)
}

func TestConsumeSingleUnit(t *testing.T) {
	e := newEnv(t)
	g := e.group(t, "Mask", 5)
	u := e.unit(t, g.ID, "M1", day("2025-01-01"), day("2024-12-01"))
	svc := e.inventory()
	fixed := time.Date(2024, 12, 10, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	got, err := svc.ConsumeSingleUnit(context.Background(), testActor, u.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.UnitConsumed, got.Status)
	assert.Equal(t, model.ReasonManual, got.ConsumedReason)
	require.NotNil(t, got.ConsumedAt)
	assert.True(t, got.ConsumedAt.Equal(fixed))

	_, err = svc.ConsumeSingleUnit(context.Background(), testActor, u.ID, "")
	assert.True(t, apperror.Is(err, apperror.CodeInvalidState))

	_, err = svc.ConsumeSingleUnit(context.Background(), testActor, uuid.New(), "")
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestConsumeSingleUnitRejectsExpired(t *testing.T) {
	e := newEnv(t)
	g := e.group(t, "Toner", 5)
	u := e.unit(t, g.ID, "T1", day("2025-01-01"), day("2024-12-01"))
	svc := e.inventory()

	_, err := svc.MarkUnitStatus(context.Background(), testActor, u.ID, model.UnitExpired)
	require.NoError(t, err)

	_, err = svc.ConsumeSingleUnit(context.Background(), testActor, u.ID, "DAMAGED")
	assert.True(t, apperror.Is(err, apperror.CodeInvalidState))
	assert.Equal(t, model.UnitExpired, e.unitStatus(t, u.ID))
}

func TestMarkUnitStatusOverridesAndClearsConsumption(t *testing.T) {
	e := newEnv(t)
	g := e.group(t, "Oil", 5)
	u := e.unit(t, g.ID, "O1", day("2025-01-01"), day("2024-12-01"))
	svc := e.inventory()

	consumed, err := svc.MarkUnitStatus(context.Background(), testActor, u.ID, "consumed")
	require.NoError(t, err)
	assert.Equal(t, model.UnitConsumed, consumed.Status)
	assert.NotNil(t, consumed.ConsumedAt)

	restored, err := svc.MarkUnitStatus(context.Background(), testActor, u.ID, model.UnitActive)
	require.NoError(t, err)
	assert.Equal(t, model.UnitActive, restored.Status)
	assert.Nil(t, restored.ConsumedAt)
	assert.Empty(t, restored.ConsumedReason)

	_, err = svc.MarkUnitStatus(context.Background(), testActor, u.ID, "SOLD")
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	_, err = svc.MarkUnitStatus(context.Background(), testActor, uuid.New(), model.UnitExpired)
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}
