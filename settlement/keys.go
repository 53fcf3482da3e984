package settlement

import (
	"fmt"
	"strings"

	"github.com/warp/settlement-engine/generic"
)

// =============================================================================
// ALLOCATION KEYS - Closed set of distribution rules
// =============================================================================

// AllocationKey says how an expense line is split between tenancies.
// The set is closed: AreaKey, PersonDaysKey, PerUnitKey, DirectKey.
type AllocationKey interface {
	// Tag is the stable storage form ("area", "persons", "unit", "direct").
	Tag() string
	// Label is the human-readable key name for breakdown tables.
	Label() string

	isAllocationKey()
}

// AreaKey splits by floor area: tenant area / total area.
type AreaKey struct{}

// PersonDaysKey splits by person-days: occupants × days over
// total occupants × basis days. Time is part of the key.
type PersonDaysKey struct{}

// PerUnitKey splits equally between the building's units.
type PerUnitKey struct{}

// DirectKey assigns the whole line to one tenancy.
type DirectKey struct {
	TenancyID string
}

const (
	TagArea       = "area"
	TagPersonDays = "persons"
	TagPerUnit    = "unit"
	TagDirect     = "direct"
)

func (AreaKey) Tag() string       { return TagArea }
func (PersonDaysKey) Tag() string { return TagPersonDays }
func (PerUnitKey) Tag() string    { return TagPerUnit }
func (DirectKey) Tag() string     { return TagDirect }

func (AreaKey) Label() string       { return "Area" }
func (PersonDaysKey) Label() string { return "Person-days" }
func (PerUnitKey) Label() string    { return "Per unit" }
func (DirectKey) Label() string     { return "Direct" }

func (AreaKey) isAllocationKey()       {}
func (PersonDaysKey) isAllocationKey() {}
func (PerUnitKey) isAllocationKey()    {}
func (DirectKey) isAllocationKey()     {}

// ParseAllocationKey resolves a stored key tag. directTarget is required
// for "direct" and must be empty for every other tag.
func ParseAllocationKey(tag, directTarget string) (AllocationKey, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case TagArea:
		return withoutTarget(AreaKey{}, directTarget)
	case TagPersonDays:
		return withoutTarget(PersonDaysKey{}, directTarget)
	case TagPerUnit:
		return withoutTarget(PerUnitKey{}, directTarget)
	case TagDirect:
		if directTarget == "" {
			return nil, fmt.Errorf("allocation key %q requires a target tenancy", tag)
		}
		return DirectKey{TenancyID: directTarget}, nil
	default:
		return nil, fmt.Errorf("unknown allocation key %q", tag)
	}
}

func withoutTarget(k AllocationKey, target string) (AllocationKey, error) {
	if target != "" {
		return nil, fmt.Errorf("allocation key %q does not take a target tenancy", k.Tag())
	}
	return k, nil
}

// DirectTarget returns the designated tenancy of a Direct key, or "".
func DirectTarget(k AllocationKey) string {
	if d, ok := k.(DirectKey); ok {
		return d.TenancyID
	}
	return ""
}

// =============================================================================
// PRESETS - Data-entry defaults per cost category
// =============================================================================

// Preset is the suggested key for a well-known cost category. Presets only
// fill in entry forms; the engine never looks at category labels.
type Preset struct {
	Category  string
	Key       AllocationKey
	Proration generic.ProrateMethod
}

// Presets lists the categories landlords enter most often.
var Presets = []Preset{
	{Category: "Grundsteuer", Key: AreaKey{}, Proration: generic.ProrateLinear},
	{Category: "Sach- und Haftpflichtversicherung", Key: AreaKey{}, Proration: generic.ProrateLinear},
	{Category: "Schornsteinfeger", Key: AreaKey{}, Proration: generic.ProrateLinear},
	{Category: "Hausreinigung", Key: AreaKey{}, Proration: generic.ProrateLinear},
	{Category: "Kaltwasser", Key: PersonDaysKey{}, Proration: generic.ProrateLinear},
	{Category: "Entwässerung", Key: PersonDaysKey{}, Proration: generic.ProrateLinear},
	{Category: "Straßenreinigung und Müll", Key: PersonDaysKey{}, Proration: generic.ProrateLinear},
	{Category: "Beleuchtung", Key: PersonDaysKey{}, Proration: generic.ProrateLinear},
	{Category: "Allgemeinstrom", Key: PersonDaysKey{}, Proration: generic.ProrateLinear},
	{Category: "Gartenpflege", Key: PerUnitKey{}, Proration: generic.ProrateLinear},
	{Category: "Hausmeister", Key: PerUnitKey{}, Proration: generic.ProrateLinear},
	{Category: "Fernsehen", Key: PerUnitKey{}, Proration: generic.ProrateLinear},
	{Category: "Sonstiges", Key: PerUnitKey{}, Proration: generic.ProrateLinear},
}

// PresetFor returns the preset for an exact category name. Unknown
// categories default to the area key.
func PresetFor(category string) Preset {
	for _, p := range Presets {
		if p.Category == category {
			return p
		}
	}
	return Preset{Category: category, Key: AreaKey{}, Proration: generic.ProrateLinear}
}
