package settlement

import (
	"context"
	"fmt"

	"github.com/warp/settlement-engine/generic"
)

// =============================================================================
// SNAPSHOT - Frozen statement at issue time
// =============================================================================

// Snapshot captures a statement as it was sent to the tenant. Later edits
// to expense lines supersede lines; they never rewrite an issued snapshot.
type Snapshot struct {
	ID                 string         `json:"id"`
	TenancyID          string         `json:"tenancy_id"`
	TenantName         string         `json:"tenant_name"`
	Period             generic.Period `json:"-"`
	PeriodStart        string         `json:"period_start"`
	PeriodEnd          string         `json:"period_end"`
	TakenAt            string         `json:"taken_at"`
	OccupancyDays      int            `json:"occupancy_days"`
	BasisDays          int            `json:"basis_days"`
	Rows               []SnapshotRow  `json:"rows"`
	TotalCost          string         `json:"total_cost"`
	ProratedPrepayment string         `json:"prorated_prepayment"`
	Balance            string         `json:"balance"`
	Outcome            Outcome        `json:"outcome"`
}

type SnapshotRow struct {
	Category   string `json:"category"`
	HouseTotal string `json:"house_total"`
	Key        string `json:"key"`
	Ratio      string `json:"ratio"`
	TimeFactor string `json:"time_factor,omitempty"`
	Share      string `json:"share"`
	Error      string `json:"error,omitempty"`
}

// NewSnapshot freezes a statement. Amounts are stored as fixed two-decimal
// strings.
func NewSnapshot(stmt Statement, takenAt generic.TimePoint) Snapshot {
	s := stmt.Settlement
	snap := Snapshot{
		ID:                 snapshotID(s.TenancyID, s.Period),
		TenancyID:          s.TenancyID,
		TenantName:         stmt.TenantName,
		Period:             s.Period,
		PeriodStart:        s.Period.Start.String(),
		PeriodEnd:          s.Period.End.String(),
		TakenAt:            takenAt.String(),
		OccupancyDays:      s.OccupancyDays,
		BasisDays:          s.BasisDays,
		TotalCost:          s.TotalCost.Value.StringFixed(2),
		ProratedPrepayment: s.ProratedPrepayment.Value.StringFixed(2),
		Balance:            s.Balance.Value.StringFixed(2),
		Outcome:            s.Outcome(),
	}
	for _, r := range stmt.Breakdown.Rows {
		row := SnapshotRow{
			Category:   r.Category,
			HouseTotal: r.HouseTotal.Value.StringFixed(2),
			Key:        r.KeyLabel,
			Ratio:      r.Ratio,
			TimeFactor: r.TimeFactor,
			Share:      r.Share.Value.StringFixed(2),
		}
		if r.Err != nil {
			row.Error = r.Err.Error()
		}
		snap.Rows = append(snap.Rows, row)
	}
	return snap
}

func snapshotID(tenancyID string, period generic.Period) string {
	return fmt.Sprintf("stmt-%s-%s", tenancyID, period.Start)
}

// =============================================================================
// SNAPSHOT STORE - Persistence for snapshots
// =============================================================================

type SnapshotStore interface {
	// SaveSnapshot stores or replaces the snapshot for its tenancy and period.
	SaveSnapshot(ctx context.Context, snapshot Snapshot) error
	ListSnapshots(ctx context.Context, tenancyID string) ([]Snapshot, error)
}
