package ir

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/tripir/internal/expr"
	"github.com/roach88/tripir/internal/value"
)

// IR is the root document of a trip request.
type IR struct {
	StartDate       string  // YYYY-MM-DD
	Peoples         int     // party size
	TotalTravelDays int     // sum of stage travel days
	Stages          []Stage // ordered, non-empty
	Budgets         float64 // overall budget, 0 = not stated
	ChildrenNum     int

	DepartureTransportConstraints    expr.Expr // nil = unconstrained
	IntermediateTransportConstraints expr.Expr // nil = unconstrained
	BackTransportConstraints         expr.Expr // nil = unconstrained

	// DynamicConstraints holds trip-level time, budget and party slots.
	DynamicConstraints *DynamicConstraint
}

// Stage is one city leg of a multi-stage itinerary.
type Stage struct {
	OriginCity      string
	DestinationCity string
	TravelDays      int

	AttractionConstraints    expr.Expr // nil = unconstrained
	AccommodationConstraints expr.Expr // nil = unconstrained
	RestaurantConstraints    expr.Expr // nil = unconstrained

	// DynamicConstraints holds stage-level time, budget and party slots.
	DynamicConstraints *DynamicConstraint
}

// DynamicConstraint is a flat set of optional constraint slots grouped by
// concern. Each slot is independently optional.
type DynamicConstraint struct {
	DailyTotalTime expr.Expr
	TotalTime      expr.Expr

	DailyTotalBudget     expr.Expr
	TotalBudget          expr.Expr
	DailyMealBudget      expr.Expr
	TotalMealBudget      expr.Expr
	DailyTicketBudget    expr.Expr
	TotalTicketBudget    expr.Expr
	DailyHotelBudget     expr.Expr
	TotalHotelBudget     expr.Expr
	DailyTransportBudget expr.Expr
	TotalTransportBudget expr.Expr

	TransportMode expr.Expr

	NumTravelers  expr.Expr
	RoomsPerNight expr.Expr
	ChildrenNum   expr.Expr

	// MultiStage marks a request that spans more than one city.
	MultiStage bool
}

// namedSlot binds a slot's wire name to its storage.
type namedSlot struct {
	name string
	ref  *expr.Expr
}

// slots lists the expression slots of d in declaration order.
func (d *DynamicConstraint) slots() []namedSlot {
	return []namedSlot{
		{"daily_total_time", &d.DailyTotalTime},
		{"total_time", &d.TotalTime},
		{"daily_total_budget", &d.DailyTotalBudget},
		{"total_budget", &d.TotalBudget},
		{"daily_meal_budget", &d.DailyMealBudget},
		{"total_meal_budget", &d.TotalMealBudget},
		{"daily_ticket_budget", &d.DailyTicketBudget},
		{"total_ticket_budget", &d.TotalTicketBudget},
		{"daily_hotel_budget", &d.DailyHotelBudget},
		{"total_hotel_budget", &d.TotalHotelBudget},
		{"daily_transport_budget", &d.DailyTransportBudget},
		{"total_transport_budget", &d.TotalTransportBudget},
		{"transport_mode", &d.TransportMode},
		{"num_travelers", &d.NumTravelers},
		{"rooms_per_night", &d.RoomsPerNight},
		{"children_num", &d.ChildrenNum},
	}
}

// DynamicSlotNames returns the wire names of the DynamicConstraint slots in
// declaration order.
func DynamicSlotNames() []string {
	var d DynamicConstraint
	slots := d.slots()
	names := make([]string, len(slots))
	for i, s := range slots {
		names[i] = s.name
	}
	return names
}

// Get returns the expression in the named slot. ok is false for an
// unknown name.
func (d *DynamicConstraint) Get(name string) (e expr.Expr, ok bool) {
	for _, s := range d.slots() {
		if s.name == name {
			return *s.ref, true
		}
	}
	return nil, false
}

// Set stores e in the named slot and reports whether the name is known.
func (d *DynamicConstraint) Set(name string, e expr.Expr) bool {
	for _, s := range d.slots() {
		if s.name == name {
			*s.ref = e
			return true
		}
	}
	return false
}

// Populated returns the number of non-nil slots in d.
func (d *DynamicConstraint) Populated() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, s := range d.slots() {
		if *s.ref != nil {
			n++
		}
	}
	return n
}

// Record returns the tagged record form of d. Absent slots are omitted.
func (d DynamicConstraint) Record() value.Record {
	out := value.Record{"multi_stage": value.Bool(d.MultiStage)}
	for _, s := range d.slots() {
		if *s.ref != nil {
			out[s.name] = expr.ToRecord(*s.ref)
		}
	}
	return out
}

// MarshalJSON encodes d with slots as serialized expressions.
func (d DynamicConstraint) MarshalJSON() ([]byte, error) {
	return value.Marshal(d.Record())
}

// UnmarshalJSON decodes d. Unknown keys are rejected so a misspelled slot
// never silently becomes "unconstrained".
func (d *DynamicConstraint) UnmarshalJSON(data []byte) error {
	var rec value.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("dynamic_constraints: %w", err)
	}

	out := DynamicConstraint{}
	known := map[string]bool{"multi_stage": true}
	for _, s := range out.slots() {
		known[s.name] = true
		switch raw := rec.Get(s.name).(type) {
		case value.Null:
		case value.Record:
			e, err := expr.FromRecord(raw)
			if err != nil {
				return fmt.Errorf("dynamic_constraints.%s: %w", s.name, err)
			}
			*s.ref = e
		default:
			return fmt.Errorf("dynamic_constraints.%s: expected expression record, got %s", s.name, value.KindOf(raw))
		}
	}
	for k := range rec {
		if !known[k] {
			return fmt.Errorf("dynamic_constraints: unknown slot %q", k)
		}
	}

	switch ms := rec.Get("multi_stage").(type) {
	case value.Null:
	case value.Bool:
		out.MultiStage = bool(ms)
	default:
		return fmt.Errorf("dynamic_constraints.multi_stage: expected bool, got %s", value.KindOf(ms))
	}

	*d = out
	return nil
}

// stageJSON is the wire form of Stage.
type stageJSON struct {
	OriginCity               string             `json:"origin_city"`
	DestinationCity          string             `json:"destination_city"`
	TravelDays               int                `json:"travel_days"`
	AttractionConstraints    *expr.JSON         `json:"attraction_constraints,omitempty"`
	AccommodationConstraints *expr.JSON         `json:"accommodation_constraints,omitempty"`
	RestaurantConstraints    *expr.JSON         `json:"restaurant_constraints,omitempty"`
	DynamicConstraints       *DynamicConstraint `json:"dynamic_constraints,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(stageJSON{
		OriginCity:               s.OriginCity,
		DestinationCity:          s.DestinationCity,
		TravelDays:               s.TravelDays,
		AttractionConstraints:    expr.Wrap(s.AttractionConstraints),
		AccommodationConstraints: expr.Wrap(s.AccommodationConstraints),
		RestaurantConstraints:    expr.Wrap(s.RestaurantConstraints),
		DynamicConstraints:       s.DynamicConstraints,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var w stageJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Stage{
		OriginCity:               w.OriginCity,
		DestinationCity:          w.DestinationCity,
		TravelDays:               w.TravelDays,
		AttractionConstraints:    w.AttractionConstraints.Unwrap(),
		AccommodationConstraints: w.AccommodationConstraints.Unwrap(),
		RestaurantConstraints:    w.RestaurantConstraints.Unwrap(),
		DynamicConstraints:       w.DynamicConstraints,
	}
	return nil
}

// irJSON is the wire form of IR.
type irJSON struct {
	StartDate                        string             `json:"start_date"`
	Peoples                          int                `json:"peoples"`
	TotalTravelDays                  int                `json:"total_travel_days"`
	Stages                           []Stage            `json:"stages"`
	Budgets                          float64            `json:"budgets"`
	ChildrenNum                      int                `json:"children_num"`
	DepartureTransportConstraints    *expr.JSON         `json:"departure_transport_constraints,omitempty"`
	IntermediateTransportConstraints *expr.JSON         `json:"intermediate_transport_constraints,omitempty"`
	BackTransportConstraints         *expr.JSON         `json:"back_transport_constraints,omitempty"`
	DynamicConstraints               *DynamicConstraint `json:"dynamic_constraints,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (d IR) MarshalJSON() ([]byte, error) {
	stages := d.Stages
	if stages == nil {
		stages = []Stage{}
	}
	return json.Marshal(irJSON{
		StartDate:                        d.StartDate,
		Peoples:                          d.Peoples,
		TotalTravelDays:                  d.TotalTravelDays,
		Stages:                           stages,
		Budgets:                          d.Budgets,
		ChildrenNum:                      d.ChildrenNum,
		DepartureTransportConstraints:    expr.Wrap(d.DepartureTransportConstraints),
		IntermediateTransportConstraints: expr.Wrap(d.IntermediateTransportConstraints),
		BackTransportConstraints:         expr.Wrap(d.BackTransportConstraints),
		DynamicConstraints:               d.DynamicConstraints,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *IR) UnmarshalJSON(data []byte) error {
	var w irJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*d = IR{
		StartDate:                        w.StartDate,
		Peoples:                          w.Peoples,
		TotalTravelDays:                  w.TotalTravelDays,
		Stages:                           w.Stages,
		Budgets:                          w.Budgets,
		ChildrenNum:                      w.ChildrenNum,
		DepartureTransportConstraints:    w.DepartureTransportConstraints.Unwrap(),
		IntermediateTransportConstraints: w.IntermediateTransportConstraints.Unwrap(),
		BackTransportConstraints:         w.BackTransportConstraints.Unwrap(),
		DynamicConstraints:               w.DynamicConstraints,
	}
	return nil
}

// Parse decodes a JSON IR document.
func Parse(data []byte) (*IR, error) {
	var doc IR
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse IR: %w", err)
	}
	return &doc, nil
}
