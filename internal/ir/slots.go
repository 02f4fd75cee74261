package ir

import (
	"fmt"

	"github.com/roach88/tripir/internal/expr"
)

// SlotKind says which part of a candidate itinerary a slot is checked
// against.
type SlotKind string

const (
	KindAttraction    SlotKind = "attraction"
	KindAccommodation SlotKind = "accommodation"
	KindRestaurant    SlotKind = "restaurant"
	KindTransport     SlotKind = "transport"
	KindDynamic       SlotKind = "dynamic"
)

// TripLevel is the Stage index of slots that belong to the whole trip.
const TripLevel = -1

// Slot is one constraint position in a document.
type Slot struct {
	// Path is the stable JSON-style path, e.g.
	// "stages[1].restaurant_constraints" or "dynamic_constraints.total_budget".
	Path string

	// Stage is the stage index, or TripLevel.
	Stage int

	Kind SlotKind

	// Expr is the constraint root, nil when the slot is absent.
	Expr expr.Expr
}

// Present reports whether the slot holds an expression.
func (s Slot) Present() bool {
	return s.Expr != nil
}

// Slots enumerates every constraint slot of d in declaration order, present
// or absent. Stage slots come first (stage by stage), then the trip-level
// transport slots, then trip-level dynamic slots. Dynamic slots are only
// listed when their DynamicConstraint is set.
func (d *IR) Slots() []Slot {
	var out []Slot

	for i := range d.Stages {
		st := &d.Stages[i]
		prefix := fmt.Sprintf("stages[%d].", i)
		out = append(out,
			Slot{Path: prefix + "attraction_constraints", Stage: i, Kind: KindAttraction, Expr: st.AttractionConstraints},
			Slot{Path: prefix + "accommodation_constraints", Stage: i, Kind: KindAccommodation, Expr: st.AccommodationConstraints},
			Slot{Path: prefix + "restaurant_constraints", Stage: i, Kind: KindRestaurant, Expr: st.RestaurantConstraints},
		)
		out = append(out, st.DynamicConstraints.slotList(prefix+"dynamic_constraints.", i)...)
	}

	out = append(out,
		Slot{Path: "departure_transport_constraints", Stage: TripLevel, Kind: KindTransport, Expr: d.DepartureTransportConstraints},
		Slot{Path: "intermediate_transport_constraints", Stage: TripLevel, Kind: KindTransport, Expr: d.IntermediateTransportConstraints},
		Slot{Path: "back_transport_constraints", Stage: TripLevel, Kind: KindTransport, Expr: d.BackTransportConstraints},
	)
	out = append(out, d.DynamicConstraints.slotList("dynamic_constraints.", TripLevel)...)

	return out
}

// PresentSlots returns only the slots that hold an expression.
func (d *IR) PresentSlots() []Slot {
	var out []Slot
	for _, s := range d.Slots() {
		if s.Present() {
			out = append(out, s)
		}
	}
	return out
}

func (dc *DynamicConstraint) slotList(prefix string, stage int) []Slot {
	if dc == nil {
		return nil
	}
	named := dc.slots()
	out := make([]Slot, len(named))
	for i, s := range named {
		out[i] = Slot{Path: prefix + s.name, Stage: stage, Kind: KindDynamic, Expr: *s.ref}
	}
	return out
}
