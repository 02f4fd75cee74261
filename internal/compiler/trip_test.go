package compiler

import (
	"errors"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tripir/internal/expr"
	"github.com/roach88/tripir/internal/value"
)

// compileString compiles src as a request and returns only the error.
func compileString(t *testing.T, src string) error {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename("request.cue"))
	require.NoError(t, v.Err())
	_, err := CompileRequest(v)
	return err
}

const minimalRequest = `
	start_date: "2026-05-01"
	peoples: 1
	total_travel_days: 1
	stages: [{origin_city: "Shanghai", destination_city: "Hangzhou", travel_days: 1}]
`

func TestCompileRequestMinimal(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(minimalRequest)
	require.NoError(t, v.Err())

	doc, err := CompileRequest(v)
	require.NoError(t, err)

	assert.Equal(t, "2026-05-01", doc.StartDate)
	assert.Equal(t, 1, doc.Peoples)
	assert.Equal(t, 1, doc.TotalTravelDays)
	assert.Zero(t, doc.Budgets)
	assert.Zero(t, doc.ChildrenNum)
	require.Len(t, doc.Stages, 1)
	assert.Equal(t, "Hangzhou", doc.Stages[0].DestinationCity)
	assert.Nil(t, doc.Stages[0].AttractionConstraints)
	assert.Nil(t, doc.DynamicConstraints)
	assert.Empty(t, doc.PresentSlots())
}

func TestCompileFile(t *testing.T) {
	doc, err := CompileFile(filepath.Join("testdata", "beijing_xian.cue"))
	require.NoError(t, err)

	assert.Equal(t, 2, doc.Peoples)
	assert.Equal(t, 6000.0, doc.Budgets)
	require.Len(t, doc.Stages, 2)
	assert.Len(t, doc.PresentSlots(), 5)
	assert.Empty(t, Validate(doc))

	want := expr.Bin(expr.OpGe, expr.Ref("rating"), expr.Lit(4.5))
	assert.Equal(t, want, doc.Stages[0].AttractionConstraints)

	agg := doc.Stages[0].RestaurantConstraints.(expr.Op).Left.(expr.Aggregate)
	assert.Equal(t, expr.FuncSum, agg.Func)
	assert.Equal(t, "cost", agg.Field)
	assert.Equal(t, expr.ProjectAll, agg.ReturnField)
	assert.NotNil(t, agg.Filter)

	mode := doc.BackTransportConstraints.(expr.Op).Left.(expr.Value)
	assert.Equal(t, value.List{value.Text("train"), value.Text("plane")}, mode.Literal)

	require.NotNil(t, doc.DynamicConstraints)
	assert.True(t, doc.DynamicConstraints.MultiStage)
	assert.NotNil(t, doc.DynamicConstraints.TotalBudget)
	assert.Equal(t, 1, doc.DynamicConstraints.Populated())
}

func TestCompileFileMatchesJSONForm(t *testing.T) {
	doc, err := CompileFile(filepath.Join("testdata", "beijing_xian.cue"))
	require.NoError(t, err)

	id, err := doc.DocumentID()
	require.NoError(t, err)

	data, err := doc.MarshalCanonical()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"destination_city":"Xi'an"`)
	assert.NotEmpty(t, id)
}

func TestCompileFileMissing(t *testing.T) {
	_, err := CompileFile(filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.cue")
}

func TestCompileSourceWithoutTripField(t *testing.T) {
	doc, err := CompileSource("bare.cue", []byte(minimalRequest))
	require.NoError(t, err)
	assert.Equal(t, "Shanghai", doc.Stages[0].OriginCity)
}

func TestCompileSourceSyntaxError(t *testing.T) {
	_, err := CompileSource("broken.cue", []byte(`trip: {peoples: `))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.cue")
}

func TestCompileRequestSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "zero peoples",
			src: `start_date: "2026-05-01", peoples: 0, total_travel_days: 1
				stages: [{origin_city: "A", destination_city: "B", travel_days: 1}]`,
			want: "peoples",
		},
		{
			name: "bad date",
			src: `start_date: "May 1", peoples: 1, total_travel_days: 1
				stages: [{origin_city: "A", destination_city: "B", travel_days: 1}]`,
			want: "start_date",
		},
		{
			name: "no stages",
			src:  `start_date: "2026-05-01", peoples: 1, total_travel_days: 0, stages: []`,
			want: "stages",
		},
		{
			name: "unknown field",
			src: `start_date: "2026-05-01", peoples: 1, total_travel_days: 1, pets: 2
				stages: [{origin_city: "A", destination_city: "B", travel_days: 1}]`,
			want: "pets",
		},
		{
			name: "unknown dynamic slot",
			src: `start_date: "2026-05-01", peoples: 1, total_travel_days: 1
				stages: [{origin_city: "A", destination_city: "B", travel_days: 1}]
				dynamic_constraints: {souvenir_budget: {type: "value", value: true}}`,
			want: "souvenir_budget",
		},
		{
			name: "missing city",
			src: `start_date: "2026-05-01", peoples: 1, total_travel_days: 1
				stages: [{origin_city: "A", travel_days: 1}]`,
			want: "destination_city",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compileString(t, tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)

			var ce *CompileError
			require.True(t, errors.As(err, &ce))
			assert.Contains(t, ce.Field, tt.want, "field comes from the failing path")
		})
	}
}

func TestCompileRequestNullSlots(t *testing.T) {
	err := compileString(t, minimalRequest+`
		back_transport_constraints: null
		dynamic_constraints: null
	`)
	require.NoError(t, err)
}

func TestCompileRequestExpressionErrors(t *testing.T) {
	tests := []struct {
		name  string
		slot  string
		field string
	}{
		{"missing type", `{op: ">="}`, "back_transport_constraints.type"},
		{"missing right", `{type: "op", op: "==", left: {type: "field", field: "mode"}}`, "back_transport_constraints.right"},
		{"null operand", `{type: "unary", op: "not", operand: null}`, "back_transport_constraints.operand"},
		{"nested missing field", `{type: "op", op: "==", left: {type: "field"}, right: {type: "value", value: 1}}`, "back_transport_constraints.left.field"},
		{"missing func", `{type: "aggregate", field: "cost"}`, "back_transport_constraints.func"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compileString(t, minimalRequest+"\nback_transport_constraints: "+tt.slot)
			require.Error(t, err)

			var ce *CompileError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.field, ce.Field)
			assert.True(t, ce.Pos.IsValid(), "error carries a position")
		})
	}
}

func TestCompileRequestUnknownExprType(t *testing.T) {
	err := compileString(t, minimalRequest+`
		stages: [{origin_city: "Shanghai", destination_city: "Hangzhou", travel_days: 1,
			restaurant_constraints: {type: "regex", pattern: "^dim"}}]
	`)
	require.Error(t, err)
	assert.True(t, expr.IsUnknownExprType(err))
	assert.Contains(t, err.Error(), "stages[0].restaurant_constraints.type")
}

func TestCompileExprLiteralShapes(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`{type: "value", value: {tags: ["a", "b"], score: 3, open: true, note: null}}`)
	require.NoError(t, v.Err())

	e, err := CompileExpr(v, "x")
	require.NoError(t, err)

	lit := e.(expr.Value).Literal.(value.Record)
	assert.Equal(t, value.List{value.Text("a"), value.Text("b")}, lit["tags"])
	assert.Equal(t, value.Number(3), lit["score"])
	assert.Equal(t, value.Bool(true), lit["open"])
	assert.Equal(t, value.Null{}, lit["note"])
}

func TestCompileExprMissingValueIsNull(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`{type: "value"}`)

	e, err := CompileExpr(v, "x")
	require.NoError(t, err)
	assert.Equal(t, expr.Value{Literal: value.Null{}}, e)
}

func TestCompileExprAggregateReturnField(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`{type: "aggregate", func: "min", field: "price", return_field: "name"}`)

	e, err := CompileExpr(v, "x")
	require.NoError(t, err)
	assert.Equal(t, expr.Agg(expr.FuncMin, "price", "name", nil), e)
}

func TestCompileExprNotAStruct(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`"rating >= 4"`)

	_, err := CompileExpr(v, "slot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expression must be a struct")
}

func TestCompileExprFieldTypeErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"numeric return_field", `{type: "aggregate", func: "min", field: "price", return_field: 3}`, "stages[1].restaurant_constraints.return_field"},
		{"numeric aggregate field", `{type: "aggregate", func: "sum", field: 3}`, "stages[1].restaurant_constraints.field"},
		{"numeric op", `{type: "op", op: 1, left: {type: "field", field: "a"}, right: {type: "value", value: 1}}`, "stages[1].restaurant_constraints.op"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := cuecontext.New().CompileString(tt.src)
			require.NoError(t, v.Err())

			_, err := CompileExpr(v, "stages[1].restaurant_constraints")
			require.Error(t, err)

			var ce *CompileError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, err.Error(), tt.field+": ")
		})
	}
}

func TestFieldPath(t *testing.T) {
	tests := []struct {
		selectors []string
		want      string
	}{
		{nil, ""},
		{[]string{"peoples"}, "peoples"},
		{[]string{"#Trip", "stages", "0", "travel_days"}, "stages[0].travel_days"},
		{[]string{"trip", "dynamic_constraints", "souvenir_budget"}, "dynamic_constraints.souvenir_budget"},
		{[]string{"stages", "2", "restaurant_constraints", "left", "field"}, "stages[2].restaurant_constraints.left.field"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, fieldPath(tt.selectors))
		})
	}
}

func TestCompileErrorString(t *testing.T) {
	assert.Equal(t, "peoples: must be positive", (&CompileError{Field: "peoples", Message: "must be positive"}).Error())
	assert.Equal(t, "unexpected EOF", (&CompileError{Message: "unexpected EOF"}).Error())
}
