package engine

import (
	"fmt"
	"sort"

	"github.com/roach88/tripir/internal/expr"
	"github.com/roach88/tripir/internal/ir"
	"github.com/roach88/tripir/internal/value"
)

// StageCandidate holds the evaluation contexts of one stage of a candidate
// itinerary. Records of each context are the options the itinerary picked
// from (hotels for Accommodation, restaurants for Restaurant).
type StageCandidate struct {
	Attraction    expr.Context
	Accommodation expr.Context
	Restaurant    expr.Context
	Dynamic       expr.Context
}

// Candidate is a proposed itinerary, expressed as the contexts each
// constraint slot is evaluated against. Trip backs the transport slots and
// trip-level dynamic slots.
type Candidate struct {
	Trip   expr.Context
	Stages []StageCandidate
}

// Wire keys of a serialized candidate.
const (
	keyTrip          = "trip"
	keyStages        = "stages"
	keyAttraction    = "attraction"
	keyAccommodation = "accommodation"
	keyRestaurant    = "restaurant"
	keyDynamic       = "dynamic"
)

// ParseCandidate decodes a JSON candidate:
//
//	{"trip": {...}, "stages": [{"attraction": {...}, "accommodation": {...},
//	  "restaurant": {...}, "dynamic": {...}}]}
//
// Every context follows the expression Context contract, so a "global" list
// becomes the context's aggregate records. All keys are optional.
func ParseCandidate(data []byte) (Candidate, error) {
	v, err := value.Unmarshal(data)
	if err != nil {
		return Candidate{}, NewCandidateError("decode: %v", err)
	}
	return CandidateFromValue(v)
}

// CandidateFromValue builds a Candidate from its decoded wire form.
// Unknown keys and non-mapping contexts are rejected.
func CandidateFromValue(v value.Value) (Candidate, error) {
	var c Candidate
	if _, ok := v.(value.Null); ok {
		return c, nil
	}
	r, ok := v.(value.Record)
	if !ok {
		return c, NewCandidateError("candidate must be a mapping, got %s", value.KindOf(v))
	}

	for _, k := range r.SortedKeys() {
		switch k {
		case keyTrip, keyStages:
		default:
			return c, NewCandidateError("unknown key %q", k)
		}
	}

	trip, err := contextField(r, keyTrip, keyTrip)
	if err != nil {
		return c, err
	}
	c.Trip = trip

	switch stages := r.Get(keyStages).(type) {
	case value.Null:
	case value.List:
		c.Stages = make([]StageCandidate, len(stages))
		for i, item := range stages {
			sc, err := stageCandidate(item, fmt.Sprintf("stages[%d]", i))
			if err != nil {
				return c, err
			}
			c.Stages[i] = sc
		}
	default:
		return c, NewCandidateError("stages must be a list, got %s", value.KindOf(stages))
	}
	return c, nil
}

func stageCandidate(v value.Value, path string) (StageCandidate, error) {
	var sc StageCandidate
	if _, ok := v.(value.Null); ok {
		return sc, nil
	}
	r, ok := v.(value.Record)
	if !ok {
		return sc, NewCandidateError("%s must be a mapping, got %s", path, value.KindOf(v))
	}
	for _, k := range r.SortedKeys() {
		switch k {
		case keyAttraction, keyAccommodation, keyRestaurant, keyDynamic:
		default:
			return sc, NewCandidateError("%s: unknown key %q", path, k)
		}
	}

	targets := []struct {
		key string
		ctx *expr.Context
	}{
		{keyAttraction, &sc.Attraction},
		{keyAccommodation, &sc.Accommodation},
		{keyRestaurant, &sc.Restaurant},
		{keyDynamic, &sc.Dynamic},
	}
	for _, t := range targets {
		ctx, err := contextField(r, t.key, path+"."+t.key)
		if err != nil {
			return sc, err
		}
		*t.ctx = ctx
	}
	return sc, nil
}

func contextField(r value.Record, key, path string) (expr.Context, error) {
	switch v := r.Get(key).(type) {
	case value.Null:
		return expr.Context{}, nil
	case value.Record:
		return expr.ContextFromRecord(v), nil
	default:
		return expr.Context{}, NewCandidateError("%s must be a mapping, got %s", path, value.KindOf(v))
	}
}

// Record returns the wire form of the candidate. Empty contexts and empty
// stage entries are omitted so the form is stable under round trips.
func (c Candidate) Record() value.Record {
	out := value.Record{}
	if r := c.Trip.Record(); len(r) > 0 {
		out[keyTrip] = r
	}
	if len(c.Stages) > 0 {
		stages := make(value.List, len(c.Stages))
		for i, sc := range c.Stages {
			entry := value.Record{}
			for key, ctx := range map[string]expr.Context{
				keyAttraction:    sc.Attraction,
				keyAccommodation: sc.Accommodation,
				keyRestaurant:    sc.Restaurant,
				keyDynamic:       sc.Dynamic,
			} {
				if r := ctx.Record(); len(r) > 0 {
					entry[key] = r
				}
			}
			stages[i] = entry
		}
		out[keyStages] = stages
	}
	return out
}

// MarshalJSON encodes the candidate in its canonical wire form.
func (c Candidate) MarshalJSON() ([]byte, error) {
	return value.MarshalCanonical(c.Record())
}

// ContextFor returns the context a slot is evaluated against. Stage slots
// use the matching stage entry; a missing entry yields an empty context.
func (c Candidate) ContextFor(s ir.Slot) expr.Context {
	if s.Stage == ir.TripLevel {
		return c.Trip
	}
	if s.Stage < 0 || s.Stage >= len(c.Stages) {
		return expr.Context{}
	}
	sc := c.Stages[s.Stage]
	switch s.Kind {
	case ir.KindAttraction:
		return sc.Attraction
	case ir.KindAccommodation:
		return sc.Accommodation
	case ir.KindRestaurant:
		return sc.Restaurant
	default:
		return sc.Dynamic
	}
}

// withStages returns a copy of c with at least n stage entries. The copy
// shares contexts with c but not the Stages slice.
func (c Candidate) withStages(n int) Candidate {
	out := Candidate{Trip: c.Trip, Stages: make([]StageCandidate, max(n, len(c.Stages)))}
	copy(out.Stages, c.Stages)
	return out
}

// recordKinds maps stage slot kinds to their store record category, in a
// fixed order.
var recordKinds = []struct {
	kind     ir.SlotKind
	category string
}{
	{ir.KindAttraction, "attraction"},
	{ir.KindAccommodation, "hotel"},
	{ir.KindRestaurant, "restaurant"},
}

// CategoryFor returns the store record category backing a stage slot kind,
// or "" when the kind has none.
func CategoryFor(kind ir.SlotKind) string {
	for _, rk := range recordKinds {
		if rk.kind == kind {
			return rk.category
		}
	}
	return ""
}

// Categories returns every record category the engine reads, sorted.
func Categories() []string {
	out := make([]string, len(recordKinds))
	for i, rk := range recordKinds {
		out[i] = rk.category
	}
	sort.Strings(out)
	return out
}

func (sc *StageCandidate) contextOf(kind ir.SlotKind) *expr.Context {
	switch kind {
	case ir.KindAttraction:
		return &sc.Attraction
	case ir.KindAccommodation:
		return &sc.Accommodation
	case ir.KindRestaurant:
		return &sc.Restaurant
	}
	return nil
}
