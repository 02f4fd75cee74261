package value

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_SealedTypes(t *testing.T) {
	vals := []Value{
		Null{},
		Number(4.5),
		Text("Louvre"),
		Bool(true),
		List{Number(1)},
		Record{"cost": Number(60)},
	}
	for _, v := range vals {
		switch v.(type) {
		case Null, Number, Text, Bool, List, Record:
		default:
			t.Fatalf("unexpected type %T", v)
		}
	}
}

func TestRecord_GetMissingIsNull(t *testing.T) {
	r := NewRecord(P("rating", Number(4.7)))
	assert.Equal(t, Number(4.7), r.Get("rating"))
	assert.Equal(t, Null{}, r.Get("price"))
}

func TestFrom(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null{}},
		{"bool", true, Bool(true)},
		{"string", "snack", Text("snack")},
		{"int", 5000, Number(5000)},
		{"int64", int64(-3), Number(-3)},
		{"float", 0.8, Number(0.8)},
		{"json number", json.Number("120"), Number(120)},
		{"list", []any{"a", 1}, List{Text("a"), Number(1)}},
		{"strings", []string{"bus", "train"}, List{Text("bus"), Text("train")}},
		{"map", map[string]any{"cost": 35}, Record{"cost": Number(35)}},
		{"value passthrough", Text("x"), Text("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := From(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFrom_Unsupported(t *testing.T) {
	_, err := From(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestMarshal_SortedKeys(t *testing.T) {
	r := Record{
		"type": Text("snack"),
		"cost": Number(60),
		"tags": List{Text("b"), Text("a")},
		"open": Bool(false),
		"note": Null{},
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"cost":60,"note":null,"open":false,"tags":["b","a"],"type":"snack"}`, string(data))
}

func TestUnmarshal_AllKinds(t *testing.T) {
	v, err := Unmarshal([]byte(`{"a":null,"b":1.5,"c":"x","d":true,"e":[1,{"f":2}]}`))
	require.NoError(t, err)

	want := Record{
		"a": Null{},
		"b": Number(1.5),
		"c": Text("x"),
		"d": Bool(true),
		"e": List{Number(1), Record{"f": Number(2)}},
	}
	assert.Equal(t, want, v)
}

func TestUnmarshal_RoundTrip(t *testing.T) {
	in := Record{
		"name":   Text("Hotel Lutetia"),
		"rating": Number(4.5),
		"rooms":  List{Number(1), Number(2)},
	}
	data, err := Marshal(in)
	require.NoError(t, err)

	out, err := Unmarshal(data)
	require.NoError(t, err)
	assert.True(t, Equal(in, out))
}

func TestUnmarshal_Invalid(t *testing.T) {
	_, err := Unmarshal([]byte(`{"a":`))
	require.Error(t, err)

	_, err = Unmarshal(nil)
	require.Error(t, err)
}

func TestNumber_MarshalRejectsNonFinite(t *testing.T) {
	_, err := Marshal(Number(math.Inf(1)))
	require.Error(t, err)

	_, err = Marshal(Number(math.NaN()))
	require.Error(t, err)
}

func TestToAny(t *testing.T) {
	v := Record{"cost": Number(60), "tags": List{Text("a")}, "x": Null{}}
	got := ToAny(v)
	assert.Equal(t, map[string]any{"cost": 60.0, "tags": []any{"a"}, "x": nil}, got)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "null", KindOf(Null{}))
	assert.Equal(t, "number", KindOf(Number(1)))
	assert.Equal(t, "text", KindOf(Text("")))
	assert.Equal(t, "bool", KindOf(Bool(false)))
	assert.Equal(t, "list", KindOf(List{}))
	assert.Equal(t, "record", KindOf(Record{}))
}
