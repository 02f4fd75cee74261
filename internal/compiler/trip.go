package compiler

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/tripir/internal/expr"
	"github.com/roach88/tripir/internal/ir"
)

//go:embed schema.cue
var schemaSource string

// RequestField is the top-level field CompileSource reads the request from
// when a file declares one.
const RequestField = "trip"

// CompileFile loads a .cue file and compiles its trip request.
func CompileFile(path string) (*ir.IR, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return CompileSource(path, data)
}

// CompileSource compiles CUE source text. The request is the top-level
// "trip" field when present, otherwise the whole file.
func CompileSource(filename string, src []byte) (*ir.IR, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, cueError(err, "")
	}
	if trip := v.LookupPath(cue.ParsePath(RequestField)); trip.Exists() {
		v = trip
	}
	return CompileRequest(v)
}

// CompileRequest parses a CUE trip request into an IR document.
// Uses CUE SDK's Go API directly.
//
// The value is first unified with the embedded #Trip schema, so unknown
// fields and wrong scalar types fail with CUE positions. Constraint slots
// hold expressions in their tagged struct form:
//
//	restaurant_constraints: {
//		type: "op", op: ">="
//		left:  {type: "field", field: "rating"}
//		right: {type: "value", value: 4.5}
//	}
//
// CompileRequest does not run ir.Validate or check operator names; see
// Validate.
func CompileRequest(v cue.Value) (*ir.IR, error) {
	if err := v.Err(); err != nil {
		return nil, cueError(err, "")
	}

	schema := v.Context().CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("trip schema: %w", err)
	}
	v = schema.LookupPath(cue.ParsePath("#Trip")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(err, "")
	}

	doc := &ir.IR{}
	var err error

	if doc.StartDate, err = stringField(v, "start_date", "start_date"); err != nil {
		return nil, err
	}
	if doc.Peoples, err = intField(v, "peoples", "peoples"); err != nil {
		return nil, err
	}
	if doc.TotalTravelDays, err = intField(v, "total_travel_days", "total_travel_days"); err != nil {
		return nil, err
	}
	if doc.ChildrenNum, err = intField(v, "children_num", "children_num"); err != nil {
		return nil, err
	}
	if b, ok := lookup(v, "budgets"); ok {
		if doc.Budgets, err = b.Float64(); err != nil {
			return nil, cueError(err, "budgets")
		}
	}

	doc.Stages, err = parseStages(v)
	if err != nil {
		return nil, err
	}

	transport := []struct {
		name string
		dst  *expr.Expr
	}{
		{"departure_transport_constraints", &doc.DepartureTransportConstraints},
		{"intermediate_transport_constraints", &doc.IntermediateTransportConstraints},
		{"back_transport_constraints", &doc.BackTransportConstraints},
	}
	for _, t := range transport {
		if *t.dst, err = slotField(v, t.name, t.name); err != nil {
			return nil, err
		}
	}

	doc.DynamicConstraints, err = parseDynamic(v, "dynamic_constraints", "dynamic_constraints")
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// parseStages extracts the ordered stage list.
func parseStages(v cue.Value) ([]ir.Stage, error) {
	iter, err := v.LookupPath(cue.ParsePath("stages")).List()
	if err != nil {
		return nil, cueError(err, "stages")
	}

	var stages []ir.Stage
	for i := 0; iter.Next(); i++ {
		sv := iter.Value()
		prefix := fmt.Sprintf("stages[%d].", i)
		var st ir.Stage

		if st.OriginCity, err = stringField(sv, "origin_city", prefix+"origin_city"); err != nil {
			return nil, err
		}
		if st.DestinationCity, err = stringField(sv, "destination_city", prefix+"destination_city"); err != nil {
			return nil, err
		}
		if st.TravelDays, err = intField(sv, "travel_days", prefix+"travel_days"); err != nil {
			return nil, err
		}

		slots := []struct {
			name string
			dst  *expr.Expr
		}{
			{"attraction_constraints", &st.AttractionConstraints},
			{"accommodation_constraints", &st.AccommodationConstraints},
			{"restaurant_constraints", &st.RestaurantConstraints},
		}
		for _, s := range slots {
			if *s.dst, err = slotField(sv, s.name, prefix+s.name); err != nil {
				return nil, err
			}
		}

		st.DynamicConstraints, err = parseDynamic(sv, "dynamic_constraints", prefix+"dynamic_constraints")
		if err != nil {
			return nil, err
		}

		stages = append(stages, st)
	}
	return stages, nil
}

// parseDynamic extracts the named DynamicConstraint. Absent or null yields
// nil.
func parseDynamic(parent cue.Value, name, path string) (*ir.DynamicConstraint, error) {
	v, ok := lookup(parent, name)
	if !ok || v.Null() == nil {
		return nil, nil
	}

	dc := &ir.DynamicConstraint{}
	for _, slot := range ir.DynamicSlotNames() {
		e, err := slotField(v, slot, path+"."+slot)
		if err != nil {
			return nil, err
		}
		dc.Set(slot, e)
	}

	if ms, ok := lookup(v, "multi_stage"); ok {
		b, err := ms.Bool()
		if err != nil {
			return nil, cueError(err, path+".multi_stage")
		}
		dc.MultiStage = b
	}
	return dc, nil
}

// slotField compiles an optional expression slot. Absent or null yields nil.
func slotField(v cue.Value, name, path string) (expr.Expr, error) {
	f, ok := lookup(v, name)
	if !ok || f.Null() == nil {
		return nil, nil
	}
	return compileExpr(f, path)
}

// stringField reads a string field. The schema guarantees required ones.
// path names the field in errors.
func stringField(v cue.Value, name, path string) (string, error) {
	f, ok := lookup(v, name)
	if !ok {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", cueError(err, path)
	}
	return s, nil
}

// intField reads an int field, 0 when absent.
func intField(v cue.Value, name, path string) (int, error) {
	f, ok := lookup(v, name)
	if !ok {
		return 0, nil
	}
	n, err := f.Int64()
	if err != nil {
		return 0, cueError(err, path)
	}
	return int(n), nil
}

// lookup returns the named field when it is set to a concrete value.
// Optional schema fields the request left out are reported as absent.
func lookup(v cue.Value, name string) (cue.Value, bool) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() || !f.IsConcrete() {
		return f, false
	}
	return f, true
}
