package metering

import (
	"github.com/warp/settlement-engine/generic"
)

// =============================================================================
// NET CONSUMPTION - Main meter minus its submeters
// =============================================================================

// NetResult is the differential metering report of one main meter.
type NetResult struct {
	Parent      Meter
	Children    []Meter // in registry order
	Interval    generic.Period
	GrossParent generic.Amount
	PerChild    map[string]generic.Amount
	Net         generic.Amount // GrossParent - Σ PerChild, never clamped
	Incomplete  bool
	Anomaly     bool
	Warnings    []error
}

// NetConsumption computes gross, per-submeter and net consumption of
// parent over interval. Missing readings and negative values become
// warnings on the result.
func NetConsumption(parent Meter, children []Meter, readings []Reading, interval generic.Period) NetResult {
	unit := parent.Medium.Unit()
	res := NetResult{
		Parent:   parent,
		Children: children,
		Interval: interval,
		PerChild: make(map[string]generic.Amount, len(children)),
	}

	gross := Consumption(parent, readings, interval)
	res.GrossParent = gross.Value
	res.observe(gross)

	childSum := generic.ZeroOf(unit)
	for _, child := range children {
		c := Consumption(child, readings, interval)
		res.PerChild[child.ID] = c.Value
		childSum = childSum.Add(c.Value)
		res.observe(c)
	}

	res.Net = res.GrossParent.Sub(childSum)
	if res.Net.IsNegative() {
		res.Anomaly = true
		res.Warnings = append(res.Warnings, &generic.MeterAnomalyError{MeterID: parent.ID, Value: res.Net, Net: true})
	}
	return res
}

func (r *NetResult) observe(c ConsumptionResult) {
	if c.Incomplete {
		r.Incomplete = true
		r.Warnings = append(r.Warnings, &generic.MeterIncompleteError{
			MeterID:  c.MeterID,
			Interval: r.Interval,
			Readings: c.bounding(),
		})
	}
	if c.Value.IsNegative() {
		r.Anomaly = true
		r.Warnings = append(r.Warnings, &generic.MeterAnomalyError{MeterID: c.MeterID, Value: c.Value})
	}
}

// Report computes a NetResult for every main meter with submeters.
func Report(reg *Registry, readings []Reading, interval generic.Period) []NetResult {
	parents := reg.Parents()
	out := make([]NetResult, 0, len(parents))
	for _, p := range parents {
		out = append(out, NetConsumption(p, reg.Children(p.ID), readings, interval))
	}
	return out
}
