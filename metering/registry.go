package metering

import (
	"fmt"

	"github.com/warp/settlement-engine/generic"
)

// =============================================================================
// REGISTRY - Meters by id, parent links kept acyclic
// =============================================================================

// Registry holds meters by id. Parent links are only created through Add
// and AssignParent, which reject any link that would break the submeter
// rules or make a meter its own ancestor.
type Registry struct {
	meters map[string]Meter
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{meters: make(map[string]Meter)}
}

// BuildRegistry loads meters in any order: main meters first, then
// submeters.
func BuildRegistry(meters []Meter) (*Registry, error) {
	r := NewRegistry()
	for _, pass := range []bool{false, true} {
		for _, m := range meters {
			if m.IsSubmeter != pass {
				continue
			}
			if err := r.Add(m); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// Add registers a meter. A submeter must name an existing main meter of
// the same medium; a main meter must not name a parent.
func (r *Registry) Add(m Meter) error {
	if m.ID == "" {
		return fmt.Errorf("%w: empty id", generic.ErrInvalidMeterParent)
	}
	if _, exists := r.meters[m.ID]; exists {
		return fmt.Errorf("%w: %s", generic.ErrDuplicateMeter, m.ID)
	}
	if !m.IsSubmeter {
		if m.ParentID != "" {
			return fmt.Errorf("%w: main meter %s cannot have parent %s", generic.ErrInvalidMeterParent, m.ID, m.ParentID)
		}
	} else if err := r.checkParent(m, m.ParentID); err != nil {
		return err
	}
	r.meters[m.ID] = m
	r.order = append(r.order, m.ID)
	return nil
}

// AssignParent turns childID into a submeter of parentID.
func (r *Registry) AssignParent(childID, parentID string) error {
	child, ok := r.meters[childID]
	if !ok {
		return fmt.Errorf("meter %s: %w", childID, generic.ErrEntityNotFound)
	}
	if r.isAncestorOrSelf(childID, parentID) {
		return fmt.Errorf("%w: %s under %s", generic.ErrMeterCycle, childID, parentID)
	}
	if err := r.checkParent(child, parentID); err != nil {
		return err
	}
	if len(r.Children(childID)) > 0 {
		return fmt.Errorf("%w: %s has submeters and cannot become one", generic.ErrInvalidMeterParent, childID)
	}
	child.IsSubmeter = true
	child.ParentID = parentID
	r.meters[childID] = child
	return nil
}

func (r *Registry) checkParent(child Meter, parentID string) error {
	if parentID == "" {
		return fmt.Errorf("%w: submeter %s needs a parent", generic.ErrInvalidMeterParent, child.ID)
	}
	parent, ok := r.meters[parentID]
	if !ok {
		return fmt.Errorf("%w: parent %s of %s does not exist", generic.ErrInvalidMeterParent, parentID, child.ID)
	}
	if parent.IsSubmeter {
		return fmt.Errorf("%w: parent %s is itself a submeter", generic.ErrInvalidMeterParent, parentID)
	}
	if parent.Medium != child.Medium {
		return fmt.Errorf("%w: %s measures %s, %s measures %s",
			generic.ErrInvalidMeterParent, parentID, parent.Medium, child.ID, child.Medium)
	}
	return nil
}

// isAncestorOrSelf walks parent links up from start looking for target.
func (r *Registry) isAncestorOrSelf(target, start string) bool {
	seen := make(map[string]bool)
	for id := start; id != "" && !seen[id]; id = r.meters[id].ParentID {
		if id == target {
			return true
		}
		seen[id] = true
	}
	return false
}

func (r *Registry) Get(id string) (Meter, bool) {
	m, ok := r.meters[id]
	return m, ok
}

// Meters returns all meters in registration order.
func (r *Registry) Meters() []Meter {
	out := make([]Meter, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.meters[id])
	}
	return out
}

// Children returns the submeters of parentID in registration order.
func (r *Registry) Children(parentID string) []Meter {
	var out []Meter
	for _, id := range r.order {
		if m := r.meters[id]; m.IsSubmeter && m.ParentID == parentID {
			out = append(out, m)
		}
	}
	return out
}

// Parents returns the main meters that have at least one submeter.
func (r *Registry) Parents() []Meter {
	var out []Meter
	for _, id := range r.order {
		m := r.meters[id]
		if !m.IsSubmeter && len(r.Children(id)) > 0 {
			out = append(out, m)
		}
	}
	return out
}
