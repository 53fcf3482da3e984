package factory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/settlement-engine/factory"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/logging"
	"github.com/warp/settlement-engine/settlement"
	"github.com/warp/settlement-engine/store/memory"
)

func TestDemoDataset_AppliesAndSettles(t *testing.T) {
	// GIVEN: The demo house loaded into a memory store
	ctx := context.Background()
	store := memory.NewMemory()
	ds := factory.DemoDataset()
	require.NoError(t, store.WithTx(ctx, func(tx *memory.Memory) error {
		return ds.Apply(ctx, tx)
	}))

	// WHEN: Computing Berger's 2025 statement
	svc := settlement.NewService(store, store, generic.PeriodConfig{}, logging.Discard())
	stmt, err := svc.Statement(ctx, "t-berger", 2025)

	// THEN: Only 2025 lines appear and the property tax is split by area
	require.NoError(t, err)
	assert.Len(t, stmt.Breakdown.Rows, 7)
	assert.Equal(t, "Grundsteuer", stmt.Breakdown.Rows[0].Category)
	assert.Equal(t, "302.00", stmt.Breakdown.Rows[0].Share.Value.StringFixed(2))
	assert.NoError(t, stmt.Breakdown.Err())
}

func TestParseDataset_PresetKeysAndDirectLines(t *testing.T) {
	ds := factory.DemoDataset()

	byID := map[string]settlement.ExpenseLine{}
	for _, l := range ds.Expenses {
		byID[l.ID] = l
	}
	assert.Equal(t, settlement.PersonDaysKey{}, byID["demo-2025-kaltwasser"].Key)
	assert.Equal(t, settlement.PerUnitKey{}, byID["demo-2025-garten"].Key)
	assert.Equal(t, settlement.DirectKey{TenancyID: "t-yilmaz"}, byID["demo-2025-rauchmelder"].Key)
	assert.Equal(t, generic.ProrateNone, byID["demo-2025-rauchmelder"].Proration)

	// Main meters are ordered before their submeters
	require.Len(t, ds.Meters, 3)
	assert.False(t, ds.Meters[0].IsSubmeter)
	assert.True(t, ds.Meters[2].IsSubmeter)
}

func TestParseDataset_Rejections(t *testing.T) {
	tests := []struct {
		name string
		json string
		is   error
	}{
		{
			name: "unknown key tag",
			json: `{"expenses": [{"category": "X", "amount": "1", "billing_year": 2025, "key": "m2"}]}`,
		},
		{
			name: "direct without target",
			json: `{"expenses": [{"category": "X", "amount": "1", "billing_year": 2025, "key": "direct"}]}`,
		},
		{
			name: "move-out before move-in",
			json: `{"tenancies": [{"id": "t", "unit_id": "u", "tenant_name": "A", "move_in": "2025-05-01", "move_out": "2025-04-01"}]}`,
			is:   generic.ErrInvalidTenancyWindow,
		},
		{
			name: "submeter of another medium",
			json: `{"meters": [{"id": "p", "medium": "gas"}, {"id": "s", "medium": "electricity", "parent_id": "p"}]}`,
			is:   generic.ErrInvalidMeterParent,
		},
		{
			name: "month out of range",
			json: `{"payments": [{"tenancy_id": "t", "amount": "1", "year": 2025, "month": 13}]}`,
		},
		{
			name: "malformed date",
			json: `{"readings": [{"meter_id": "m", "date": "01.01.2025", "value": "1"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.ParseDataset([]byte(tt.json))
			require.Error(t, err)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is), "got %v", err)
			}
		})
	}
}

func TestApply_FailedImportLeavesNothing(t *testing.T) {
	// GIVEN: A tenancy pointing at a unit that is not in the dataset
	ds, err := factory.ParseDataset([]byte(`{
		"units": [{"id": "u1", "name": "EG", "area": "50", "base_rent": "500"}],
		"tenancies": [{"id": "t1", "unit_id": "ghost", "tenant_name": "A", "move_in": "2025-01-01"}]
	}`))
	require.NoError(t, err)

	ctx := context.Background()
	store := memory.NewMemory()

	// WHEN: Applying inside a transaction
	err = store.WithTx(ctx, func(tx *memory.Memory) error { return ds.Apply(ctx, tx) })

	// THEN: The import fails and the unit was not kept
	assert.True(t, errors.Is(err, generic.ErrEntityNotFound))
	units, _ := store.ListUnits(ctx)
	assert.Empty(t, units)
}
