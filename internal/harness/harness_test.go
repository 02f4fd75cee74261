package harness

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tripir/internal/value"
)

func boolPtr(b bool) *bool { return &b }

// minimalScenario checks one passing candidate against the shared document
// without seeded records.
func minimalScenario(t *testing.T) *Scenario {
	return &Scenario{
		Name:        "minimal",
		Description: "Minimal test scenario",
		Document:    testDocument(t),
		Cases: []Case{
			{
				Name: "pass",
				Candidate: map[string]any{
					"trip": map[string]any{"mode": "train", "total_cost": 4000, "budget": 6000},
					"stages": []any{
						map[string]any{"attraction": map[string]any{"rating": 4.7}},
						map[string]any{"accommodation": map[string]any{"price": 450}},
					},
				},
				Expect: &ExpectClause{Satisfied: boolPtr(true)},
			},
		},
	}
}

func TestRun_MinimalScenario(t *testing.T) {
	result, err := Run(minimalScenario(t))
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)

	// one case event plus the five present slots
	require.Len(t, result.Trace, 6)
	assert.Equal(t, EventCase, result.Trace[0].Type)
	assert.Equal(t, "minimal/pass", result.Trace[0].RunID)
	assert.True(t, result.Trace[0].Satisfied)
	for i, ev := range result.Trace[1:] {
		assert.Equal(t, EventSlot, ev.Type)
		assert.Equal(t, int64(i+2), ev.Seq)
		assert.Equal(t, value.Bool(true), ev.Value)
	}
}

func TestRun_EmptyAggregateWithoutRecords(t *testing.T) {
	result, err := Run(minimalScenario(t))
	require.NoError(t, err)

	for _, ev := range result.CaseEvents("pass") {
		if ev.Path == "stages[0].restaurant_constraints" {
			assert.True(t, ev.Satisfied, "sum over no restaurants is 0")
			return
		}
	}
	t.Fatal("restaurant slot not traced")
}

func TestRun_SeededRecordsAreLoaded(t *testing.T) {
	scenario := minimalScenario(t)
	scenario.Records = []RecordSet{{
		Category: "restaurant",
		City:     "Beijing",
		Items: []map[string]any{
			{"id": "r1", "type": "snack", "cost": 70},
			{"id": "r2", "type": "snack", "cost": 60},
		},
	}}
	scenario.Cases[0].Expect = &ExpectClause{
		Satisfied: boolPtr(false),
		Slots:     map[string]bool{"stages[0].restaurant_constraints": false},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_FailedExpectation(t *testing.T) {
	scenario := minimalScenario(t)
	scenario.Cases[0].Expect = &ExpectClause{
		Satisfied: boolPtr(false),
		Slots: map[string]bool{
			"back_transport_constraints": false,
			"stages[7].attraction_constraints": true,
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "Assertion failed: satisfied (case pass)")
	assert.Contains(t, result.Errors[1], "back_transport_constraints satisfied=false")
	assert.Contains(t, result.Errors[2], "no such slot in document")
}

func TestRun_ExpectedError(t *testing.T) {
	scenario := minimalScenario(t)
	scenario.Cases = append(scenario.Cases, Case{
		Name:      "bad",
		Candidate: map[string]any{"stages": "not a list"},
		Expect:    &ExpectClause{Error: "CANDIDATE_SHAPE"},
	})

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	events := result.CaseEvents("bad")
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)
	assert.Equal(t, "CANDIDATE_SHAPE", events[0].Code)
	assert.Equal(t, int64(7), events[0].Seq)
}

func TestRun_UnexpectedError(t *testing.T) {
	scenario := minimalScenario(t)
	scenario.Cases[0].Candidate = map[string]any{"flights": []any{}}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Expected: check to succeed")
	assert.Contains(t, result.Errors[0], "CANDIDATE_SHAPE")
}

func TestRun_WrongErrorCode(t *testing.T) {
	scenario := minimalScenario(t)
	scenario.Cases[0].Candidate = map[string]any{"flights": []any{}}
	scenario.Cases[0].Expect = &ExpectClause{Error: "SLOT_EVALUATION"}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Expected: error SLOT_EVALUATION")
}

func TestRun_NoExpectOnlyTraces(t *testing.T) {
	scenario := minimalScenario(t)
	scenario.Cases[0].Expect = nil
	scenario.Cases[0].Candidate["trip"] = map[string]any{"mode": "bus"}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.False(t, result.Trace[0].Satisfied)
}

func TestRun_MissingDocument(t *testing.T) {
	scenario := minimalScenario(t)
	scenario.Document = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load document")
}

func TestRun_IsDeterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "beijing_xian.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := (&TraceSnapshot{ScenarioName: scenario.Name, Trace: first.Trace}).MarshalCanonical()
	require.NoError(t, err)
	b, err := (&TraceSnapshot{ScenarioName: scenario.Name, Trace: second.Trace}).MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	_, err := Run(minimalScenario(t), WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "case checked")
	assert.Contains(t, buf.String(), "run_id=minimal/pass")
}

func TestRunID(t *testing.T) {
	assert.Equal(t, "trip/case", RunID("trip", "case"))
}
