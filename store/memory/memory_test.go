package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/metering"
	"github.com/warp/settlement-engine/settlement"
	"github.com/warp/settlement-engine/store/memory"
)

func eur(s string) generic.Amount { return generic.Money(decimal.RequireFromString(s)) }

func TestMemory_TenancyTakesUnitArea(t *testing.T) {
	m := memory.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SaveUnit(ctx, settlement.Unit{ID: "u1", Name: "EG", Area: decimal.NewFromInt(60)}))
	require.NoError(t, m.SaveTenancy(ctx, settlement.Tenancy{ID: "t1", UnitID: "u1", MoveIn: generic.NewTimePoint(2024, time.March, 1)}))

	got, err := m.GetTenancy(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "60", got.Area.String())

	// Move-out before move-in is rejected
	before := generic.NewTimePoint(2024, time.February, 1)
	err = m.SaveTenancy(ctx, settlement.Tenancy{ID: "t2", UnitID: "u1", MoveIn: generic.NewTimePoint(2024, time.March, 1), MoveOut: &before})
	assert.True(t, errors.Is(err, generic.ErrInvalidTenancyWindow))
}

func TestMemory_ExpenseLinesInsertOnly(t *testing.T) {
	m := memory.NewMemory()
	ctx := context.Background()

	line := settlement.ExpenseLine{ID: "l1", Category: "Wasser", Amount: eur("100"), BillingYear: 2025, Key: settlement.AreaKey{}}
	require.NoError(t, m.AddExpenseLine(ctx, line))
	assert.True(t, errors.Is(m.AddExpenseLine(ctx, line), memory.ErrDuplicateExpenseLine))

	// Direct key needs an existing tenancy
	direct := settlement.ExpenseLine{ID: "l2", Amount: eur("1"), BillingYear: 2025, Key: settlement.DirectKey{TenancyID: "ghost"}}
	assert.True(t, errors.Is(m.AddExpenseLine(ctx, direct), generic.ErrEntityNotFound))

	lines, err := m.ListExpenseLines(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, generic.ProrateLinear, lines[0].Proration)
}

func TestMemory_WithTxKeepsOnlySuccessfulWrites(t *testing.T) {
	m := memory.NewMemory()
	ctx := context.Background()

	// GIVEN: A failing transaction
	err := m.WithTx(ctx, func(tx *memory.Memory) error {
		require.NoError(t, tx.SaveMeter(ctx, metering.Meter{ID: "p", Medium: metering.MediumGas}))
		return errors.New("abort")
	})
	require.Error(t, err)

	meters, _ := m.ListMeters(ctx)
	assert.Empty(t, meters)

	// WHEN: A successful one
	require.NoError(t, m.WithTx(ctx, func(tx *memory.Memory) error {
		return tx.SaveMeter(ctx, metering.Meter{ID: "p", Medium: metering.MediumGas})
	}))

	// THEN: Its writes are visible
	meters, _ = m.ListMeters(ctx)
	assert.Len(t, meters, 1)
}

func TestMemory_ReadingsNeedMeter(t *testing.T) {
	m := memory.NewMemory()
	ctx := context.Background()

	r := metering.Reading{MeterID: "m", Date: generic.NewTimePoint(2025, time.January, 1), Value: decimal.NewFromInt(5)}
	assert.True(t, errors.Is(m.SaveReading(ctx, r), generic.ErrEntityNotFound))

	require.NoError(t, m.SaveMeter(ctx, metering.Meter{ID: "m", Medium: metering.MediumHeating}))
	require.NoError(t, m.SaveReading(ctx, r))
	r.Value = decimal.NewFromInt(7)
	require.NoError(t, m.SaveReading(ctx, r))

	readings, err := m.ListReadings(ctx)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, int64(7), readings[0].Value.IntPart())
}
