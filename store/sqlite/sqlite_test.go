package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/metering"
	"github.com/warp/settlement-engine/payments"
	"github.com/warp/settlement-engine/settlement"
	"github.com/warp/settlement-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func eur(s string) generic.Amount { return generic.Money(decimal.RequireFromString(s)) }

func seed(t *testing.T, store *sqlite.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveUnit(ctx, settlement.Unit{ID: "u1", Name: "EG", Area: decimal.RequireFromString("75.5"), BaseRent: eur("650")}))
	require.NoError(t, store.SaveTenancy(ctx, settlement.Tenancy{
		ID: "t1", UnitID: "u1", TenantName: "Berger", Occupants: 2,
		MonthlyPrepayment: eur("200"), MoveIn: generic.NewTimePoint(2023, time.May, 1),
	}))
}

func TestMigrations_AppliedOnOpen(t *testing.T) {
	store := newStore(t)

	version, dirty, err := store.MigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// Re-applying is a no-op
	require.NoError(t, store.MigrateUp())
}

func TestBuilding_MissingThenSaved(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	// GIVEN: A fresh database
	b, err := store.GetBuilding(ctx)
	require.NoError(t, err)
	assert.Nil(t, b)

	// WHEN: Saving with only the area entered
	area := decimal.RequireFromString("300")
	require.NoError(t, store.SaveBuilding(ctx, settlement.Building{Name: "Haus", TotalArea: &area}))

	// THEN: Unentered aggregates stay nil
	b, err = store.GetBuilding(ctx)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.True(t, b.TotalArea.Equal(area))
	assert.Nil(t, b.TotalOccupants)
	assert.Nil(t, b.TotalUnits)
}

func TestTenancy_RoundTripWithUnitArea(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seed(t, store)

	got, err := store.GetTenancy(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "75.5", got.Area.String())
	assert.Equal(t, "200.00", got.MonthlyPrepayment.Value.StringFixed(2))
	assert.Nil(t, got.MoveOut)

	missing, err := store.GetTenancy(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// Unknown unit
	err = store.SaveTenancy(ctx, settlement.Tenancy{ID: "t2", UnitID: "ghost", MoveIn: generic.NewTimePoint(2024, time.January, 1)})
	assert.True(t, errors.Is(err, generic.ErrEntityNotFound))
}

func TestExpenseLines_InsertOnlyInEntryOrder(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seed(t, store)

	lines := []settlement.ExpenseLine{
		{ID: "l2", Category: "Grundsteuer", Amount: eur("900"), BillingYear: 2025, Key: settlement.AreaKey{}},
		{ID: "l1", Category: "Wasser", Amount: eur("450"), BillingYear: 2025, Key: settlement.PersonDaysKey{}},
		{ID: "l3", Category: "Reparatur", Amount: eur("80"), BillingYear: 2025, Key: settlement.DirectKey{TenancyID: "t1"}, Proration: generic.ProrateNone},
		{ID: "l0", Category: "Grundsteuer", Amount: eur("850"), BillingYear: 2024, Key: settlement.AreaKey{}},
	}
	for _, l := range lines {
		require.NoError(t, store.AddExpenseLine(ctx, l))
	}

	got, err := store.ListExpenseLines(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"l2", "l1", "l3"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, generic.ProrateLinear, got[0].Proration)
	assert.Equal(t, settlement.DirectKey{TenancyID: "t1"}, got[2].Key)
	assert.Equal(t, generic.ProrateNone, got[2].Proration)

	// An amendment must be a new line
	err = store.AddExpenseLine(ctx, lines[0])
	assert.True(t, errors.Is(err, sqlite.ErrDuplicateExpenseLine))
}

func TestMetersAndReadings(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveMeter(ctx, metering.Meter{ID: "p", Number: "Z1", Medium: metering.MediumElectricity}))
	require.NoError(t, store.SaveMeter(ctx, metering.Meter{ID: "s", Number: "Z2", Medium: metering.MediumElectricity, IsSubmeter: true, ParentID: "p"}))

	day := generic.NewTimePoint(2025, time.January, 1)
	require.NoError(t, store.SaveReading(ctx, metering.Reading{MeterID: "s", Date: day, Value: decimal.NewFromInt(10)}))
	// Same day replaces
	require.NoError(t, store.SaveReading(ctx, metering.Reading{MeterID: "s", Date: day, Value: decimal.NewFromInt(12)}))

	meters, err := store.ListMeters(ctx)
	require.NoError(t, err)
	require.Len(t, meters, 2)
	assert.Equal(t, "p", meters[1].ParentID)

	readings, err := store.ListReadings(ctx)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, int64(12), readings[0].Value.IntPart())

	err = store.SaveReading(ctx, metering.Reading{MeterID: "ghost", Date: day, Value: decimal.NewFromInt(1)})
	assert.True(t, errors.Is(err, generic.ErrEntityNotFound))
}

func TestCorruptDecimalIsAnError(t *testing.T) {
	// GIVEN: A database file whose reading and tenancy values were damaged outside the store
	path := filepath.Join(t.TempDir(), "settle.db")
	store, err := sqlite.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()
	seed(t, store)
	require.NoError(t, store.SaveMeter(ctx, metering.Meter{ID: "m", Number: "Z1", Medium: metering.MediumElectricity}))
	require.NoError(t, store.SaveReading(ctx, metering.Reading{
		MeterID: "m", Date: generic.NewTimePoint(2025, time.January, 1), Value: decimal.NewFromInt(1200),
	}))

	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = raw.Exec("UPDATE meter_readings SET value = 'l2OO' WHERE meter_id = 'm'")
	require.NoError(t, err)
	_, err = raw.Exec("UPDATE tenancies SET monthly_prepayment = '' WHERE id = 't1'")
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	// WHEN: Reading them back
	_, readErr := store.ListReadings(ctx)
	_, tenancyErr := store.ListTenancies(ctx)

	// THEN: Both fail and name the record instead of reading zero
	require.Error(t, readErr)
	assert.Contains(t, readErr.Error(), "reading of m")
	require.Error(t, tenancyErr)
	assert.Contains(t, tenancyErr.Error(), "tenancy t1")
}

func TestPayments_ByYear(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seed(t, store)

	require.NoError(t, store.SavePayment(ctx, payments.Payment{ID: "p1", TenancyID: "t1", Amount: eur("850"), PeriodYear: 2025, PeriodMonth: time.January, PaidOn: generic.NewTimePoint(2025, time.January, 3)}))
	require.NoError(t, store.SavePayment(ctx, payments.Payment{ID: "p2", TenancyID: "t1", Amount: eur("850"), PeriodYear: 2025, PeriodMonth: time.February}))
	require.NoError(t, store.SavePayment(ctx, payments.Payment{ID: "p0", TenancyID: "t1", Amount: eur("850"), PeriodYear: 2024, PeriodMonth: time.December}))

	got, err := store.ListPayments(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, time.February, got[0].PeriodMonth)
	assert.True(t, got[0].PaidOn.IsZero())
	assert.Equal(t, "2025-01-03", got[1].PaidOn.String())
}

func TestSnapshots_ReplaceSamePeriod(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seed(t, store)

	snap := settlement.Snapshot{
		ID: "stmt-t1-2025-01-01", TenancyID: "t1",
		PeriodStart: "2025-01-01", PeriodEnd: "2025-12-31",
		Balance: "10.00",
	}
	require.NoError(t, store.SaveSnapshot(ctx, snap))
	snap.Balance = "12.00"
	require.NoError(t, store.SaveSnapshot(ctx, snap))

	got, err := store.ListSnapshots(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "12.00", got[0].Balance)
	assert.Equal(t, 2025, got[0].Period.Start.Year())
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	// GIVEN: A transaction that writes a unit then fails
	err := store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if err := tx.SaveUnit(ctx, settlement.Unit{ID: "u9", Name: "DG", Area: decimal.NewFromInt(40), BaseRent: eur("400")}); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	// THEN: Nothing was written
	units, err := store.ListUnits(ctx)
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestReset(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seed(t, store)

	require.NoError(t, store.Reset(ctx))

	ts, err := store.ListTenancies(ctx)
	require.NoError(t, err)
	assert.Empty(t, ts)
}
