package metering

import (
	"sort"

	"github.com/warp/settlement-engine/generic"
)

// =============================================================================
// CONSUMPTION - One meter over one interval
// =============================================================================

// ConsumptionResult is a meter's consumption between its two bounding
// readings. When fewer than two distinct bounding readings exist, Value is
// zero and Incomplete is set.
type ConsumptionResult struct {
	MeterID string
	// latest reading at or before the interval start, else the earliest
	// inside the interval (a meter installed mid-period)
	Start      *Reading
	End        *Reading // latest reading at or before the interval end
	Value      generic.Amount
	Incomplete bool
}

// Consumption computes End.Value - Start.Value for meter over interval.
// Readings of other meters are ignored. The value may be negative; callers
// decide how to flag it.
func Consumption(meter Meter, readings []Reading, interval generic.Period) ConsumptionResult {
	res := ConsumptionResult{MeterID: meter.ID, Value: generic.ZeroOf(meter.Medium.Unit())}

	own := make([]Reading, 0, len(readings))
	for _, r := range readings {
		if r.MeterID == meter.ID {
			own = append(own, r)
		}
	}
	sort.SliceStable(own, func(i, j int) bool { return own[i].Date.Before(own[j].Date) })

	res.Start = latestAtOrBefore(own, interval.Start)
	if res.Start == nil {
		res.Start = earliestWithin(own, interval)
	}
	res.End = latestAtOrBefore(own, interval.End)
	if res.Start == nil || res.End == nil || res.Start.Date.Equal(res.End.Date) {
		res.Incomplete = true
		return res
	}
	res.Value = generic.Amount{Value: res.End.Value.Sub(res.Start.Value), Unit: meter.Medium.Unit()}
	return res
}

// latestAtOrBefore expects readings sorted by date. On equal dates the
// later entry wins.
func latestAtOrBefore(sorted []Reading, day generic.TimePoint) *Reading {
	i := sort.Search(len(sorted), func(i int) bool { return sorted[i].Date.After(day) })
	if i == 0 {
		return nil
	}
	r := sorted[i-1]
	return &r
}

// earliestWithin expects readings sorted by date.
func earliestWithin(sorted []Reading, interval generic.Period) *Reading {
	for _, r := range sorted {
		if interval.Contains(r.Date) {
			return &r
		}
	}
	return nil
}

// bounding counts the distinct bounding readings found.
func (c ConsumptionResult) bounding() int {
	switch {
	case c.Start != nil && c.End != nil && !c.Start.Date.Equal(c.End.Date):
		return 2
	case c.Start != nil || c.End != nil:
		return 1
	default:
		return 0
	}
}
