package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tripir/internal/value"
)

func TestContextFromRecord_LiftsGlobal(t *testing.T) {
	ctx := ctxOf(map[string]any{
		"budget": 100,
		"global": []any{
			map[string]any{"cost": 10},
			"not a record",
			map[string]any{"cost": 20},
		},
	})

	require.Len(t, ctx.Records, 2)
	assert.Equal(t, value.Number(20), ctx.Records[1]["cost"])
	assert.Equal(t, value.Number(100), ctx.Lookup("budget"))
	assert.IsType(t, value.List{}, ctx.Lookup("global"))
}

func TestContextFromRecord_GlobalNotList(t *testing.T) {
	ctx := ctxOf(map[string]any{"global": "earth"})
	assert.Empty(t, ctx.Records)
	assert.Equal(t, value.Text("earth"), ctx.Lookup("global"))
}

func TestContext_Lookup(t *testing.T) {
	var ctx Context
	assert.Equal(t, value.Null{}, ctx.Lookup("anything"))
}

func TestContext_Record(t *testing.T) {
	ctx := NewContext(value.Record{"budget": value.Number(5)}, value.Record{"cost": value.Number(1)})
	r := ctx.Record()

	assert.Equal(t, value.Number(5), r["budget"])
	assert.Equal(t, value.List{value.Record{"cost": value.Number(1)}}, r[GlobalKey])

	back := ContextFromRecord(r)
	assert.Equal(t, ctx.Records, back.Records)

	assert.NotContains(t, NewContext(value.Record{"x": value.Bool(true)}).Record(), GlobalKey)
}
