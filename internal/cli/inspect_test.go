package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect_PushableFilter(t *testing.T) {
	cmd := NewInspectCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, testdata("snack_filter.json"))
	require.NoError(t, err)

	assert.Contains(t, out, "type:          op")
	assert.Contains(t, out, "nodes:         3")
	assert.Contains(t, out, "fields:        type")
	assert.Contains(t, out, "record fields: -")
	assert.Contains(t, out, "aggregate:     false")
	assert.Contains(t, out, "pushdown:      "+markOK+" ")
	assert.Contains(t, out, "json_extract")
	assert.NotContains(t, out, "problems:")
}

func TestInspect_Aggregate(t *testing.T) {
	cmd := NewInspectCommand(&RootOptions{Format: "json"})
	out, err := execute(t, cmd, testdata("snack_total.yaml"))
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "aggregate", data["type"])
	assert.Equal(t, true, data["aggregate"])

	pushdown := data["pushdown"].(map[string]any)
	assert.Equal(t, false, pushdown["pushable"])
	assert.NotEmpty(t, pushdown["reasons"])
	assert.Nil(t, pushdown["sql"])
}

func TestInspect_Problems(t *testing.T) {
	cmd := NewInspectCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, testdata("unknown_op.json"))
	require.NoError(t, err, "inspect describes invalid expressions without failing")

	assert.Contains(t, out, "problems:")
	assert.Contains(t, out, "~=")
}

func TestInspect_FingerprintStable(t *testing.T) {
	first, err := execute(t, NewInspectCommand(&RootOptions{Format: "json"}), testdata("budget.json"))
	require.NoError(t, err)
	second, err := execute(t, NewInspectCommand(&RootOptions{Format: "json"}), testdata("budget.json"))
	require.NoError(t, err)

	fp1 := decodeResponse(t, first).Data.(map[string]any)["fingerprint"]
	fp2 := decodeResponse(t, second).Data.(map[string]any)["fingerprint"]
	assert.NotEmpty(t, fp1)
	assert.Equal(t, fp1, fp2)
}
