package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tripir/internal/expr"
	"github.com/roach88/tripir/internal/ir"
)

func validDocument() *ir.IR {
	return &ir.IR{
		StartDate:       "2026-05-01",
		Peoples:         2,
		TotalTravelDays: 2,
		Stages: []ir.Stage{{
			OriginCity:            "Shanghai",
			DestinationCity:       "Beijing",
			TravelDays:            2,
			AttractionConstraints: expr.Bin(expr.OpGe, expr.Ref("rating"), expr.Lit(4.5)),
		}},
	}
}

func TestValidateValid(t *testing.T) {
	errs := Validate(validDocument())
	assert.Empty(t, errs, "valid document should have no errors")
}

func TestValidateStructure(t *testing.T) {
	doc := validDocument()
	doc.Peoples = 0
	doc.TotalTravelDays = 4

	errs := Validate(doc)
	require.Len(t, errs, 2)
	for _, e := range errs {
		assert.Equal(t, ErrInvalidDocument, e.Code)
	}
	assert.Equal(t, "peoples", errs[0].Field)
	assert.Equal(t, "total_travel_days", errs[1].Field)
}

func TestValidateExpr(t *testing.T) {
	tests := []struct {
		name  string
		e     expr.Expr
		code  string
		field string
	}{
		{
			name:  "unknown operator",
			e:     expr.Bin("~=", expr.Ref("name"), expr.Lit("dim")),
			code:  ErrUnknownOperator,
			field: "slot.op",
		},
		{
			name:  "unknown unary operator",
			e:     expr.UnaryOp{Op: "neg", Operand: expr.Ref("open")},
			code:  ErrUnknownUnaryOperator,
			field: "slot.op",
		},
		{
			name:  "unknown arithmetic operator",
			e:     expr.Bin(expr.OpLe, expr.Arith("%", expr.Ref("cost"), expr.Lit(2)), expr.Lit(1)),
			code:  ErrUnknownArithOperator,
			field: "slot.left.op",
		},
		{
			name:  "unknown aggregate function",
			e:     expr.Agg("avg", "cost", expr.ProjectAll, nil),
			code:  ErrUnknownAggregateFunc,
			field: "slot.func",
		},
		{
			name:  "sum without field",
			e:     expr.Agg(expr.FuncSum, "", expr.ProjectAll, nil),
			code:  ErrAggregateFieldMissing,
			field: "slot.field",
		},
		{
			name:  "empty field name",
			e:     expr.Not(expr.Ref("")),
			code:  ErrEmptyFieldName,
			field: "slot.operand.field",
		},
		{
			name:  "return field on count",
			e:     expr.Agg(expr.FuncCount, "", "name", nil),
			code:  ErrReturnFieldUnsupported,
			field: "slot.return_field",
		},
		{
			name:  "inside aggregate filter",
			e:     expr.Agg(expr.FuncCount, "", expr.ProjectAll, expr.Bin("like", expr.Ref("type"), expr.Lit("snack"))),
			code:  ErrUnknownOperator,
			field: "slot.filter.op",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateExpr(tt.e, "slot")
			require.Len(t, errs, 1, "%v", errs)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidateExprValidTrees(t *testing.T) {
	valid := []expr.Expr{
		expr.Lit(nil),
		expr.And(expr.Bin(expr.OpInclude, expr.Ref("tags"), expr.Lit("spicy")), expr.Not(expr.Ref("closed"))),
		expr.Bin(expr.OpLe, expr.Arith(expr.ArithDiv, expr.Ref("cost"), expr.Ref("people")), expr.Lit(100)),
		expr.Agg(expr.FuncMax, "rating", "name", expr.Bin(expr.OpEq, expr.Ref("type"), expr.Lit("hotel"))),
		expr.Agg(expr.FuncCount, "", expr.ProjectAll, nil),
		nil,
	}
	for _, e := range valid {
		assert.Empty(t, ValidateExpr(e, "slot"))
	}
}

func TestValidateReportsEverySlot(t *testing.T) {
	doc := validDocument()
	doc.Stages[0].RestaurantConstraints = expr.Bin("like", expr.Ref("name"), expr.Lit("%bar"))
	doc.BackTransportConstraints = expr.Agg("median", "price", expr.ProjectAll, nil)

	errs := Validate(doc)
	require.Len(t, errs, 2)
	assert.Equal(t, "stages[0].restaurant_constraints.op", errs[0].Field)
	assert.Equal(t, "back_transport_constraints.func", errs[1].Field)
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Field: "slot.op", Message: `unknown operator "~="`, Code: ErrUnknownOperator}
	assert.Equal(t, `[E101] slot.op: unknown operator "~="`, e.Error())
}
