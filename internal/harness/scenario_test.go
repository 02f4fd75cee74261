package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDocument returns the absolute path of the shared trip document.
func testDocument(t *testing.T) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("testdata", "documents", "beijing_xian.yaml"))
	require.NoError(t, err)
	return path
}

// writeScenario writes content to dir/name and returns the path.
func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "beijing_xian.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "beijing_xian", scenario.Name)
	assert.NotEmpty(t, scenario.Description)
	assert.Equal(t, filepath.Join("testdata", "documents", "beijing_xian.yaml"), scenario.Document,
		"document resolves against the scenario directory")

	require.Len(t, scenario.Records, 2)
	assert.Equal(t, "restaurant", scenario.Records[0].Category)
	assert.Equal(t, "Beijing", scenario.Records[0].City)
	assert.Len(t, scenario.Records[0].Items, 3)
	assert.Equal(t, "Xi'an", scenario.Records[1].City)

	require.Len(t, scenario.Cases, 5)
	first := scenario.Cases[0]
	assert.Equal(t, "within_budget", first.Name)
	require.NotNil(t, first.Expect)
	require.NotNil(t, first.Expect.Satisfied)
	assert.True(t, *first.Expect.Satisfied)
	assert.Equal(t, true, first.Expect.Slots["dynamic_constraints.total_budget"])
	assert.Equal(t, "CANDIDATE_SHAPE", scenario.Cases[4].Expect.Error)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "typo.yaml", `
name: typo
description: misspelled cases key
document: `+testDocument(t)+`
case:
  - name: one
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	doc := testDocument(t)

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\ndocument: " + doc + "\ncases: [{name: a}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\ndocument: " + doc + "\ncases: [{name: a}]\n",
			wantErr: "description is required",
		},
		{
			name:    "missing document",
			content: "name: n\ndescription: d\ncases: [{name: a}]\n",
			wantErr: "document is required",
		},
		{
			name:    "document not found",
			content: "name: n\ndescription: d\ndocument: nowhere.yaml\ncases: [{name: a}]\n",
			wantErr: "document file not found",
		},
		{
			name:    "unsupported document type",
			content: "name: n\ndescription: d\ndocument: trip.toml\ncases: [{name: a}]\n",
			wantErr: "must be a .json, .yaml or .cue file",
		},
		{
			name:    "no cases",
			content: "name: n\ndescription: d\ndocument: " + doc + "\n",
			wantErr: "cases list is required",
		},
		{
			name:    "unnamed case",
			content: "name: n\ndescription: d\ndocument: " + doc + "\ncases: [{candidate: {}}]\n",
			wantErr: "cases[0]: name is required",
		},
		{
			name:    "duplicate case",
			content: "name: n\ndescription: d\ndocument: " + doc + "\ncases: [{name: a}, {name: a}]\n",
			wantErr: `duplicate case name "a"`,
		},
		{
			name:    "unknown record category",
			content: "name: n\ndescription: d\ndocument: " + doc + "\nrecords: [{category: museum, city: Beijing}]\ncases: [{name: a}]\n",
			wantErr: `unknown category "museum"`,
		},
		{
			name:    "record set without city",
			content: "name: n\ndescription: d\ndocument: " + doc + "\nrecords: [{category: hotel}]\ncases: [{name: a}]\n",
			wantErr: "records[0]: city is required",
		},
		{
			name:    "error mixed with satisfied",
			content: "name: n\ndescription: d\ndocument: " + doc + "\ncases: [{name: a, expect: {error: SLOT_EVALUATION, satisfied: false}}]\n",
			wantErr: "error cannot be combined",
		},
		{
			name:    "empty expect",
			content: "name: n\ndescription: d\ndocument: " + doc + "\ncases: [{name: a, expect: {}}]\n",
			wantErr: "one of satisfied, slots or error is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), "s.yaml", tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenarioDir(t *testing.T) {
	dir := t.TempDir()
	doc := testDocument(t)
	writeScenario(t, dir, "b.yaml", "name: second\ndescription: d\ndocument: "+doc+"\ncases: [{name: a}]\n")
	writeScenario(t, dir, "a.yml", "name: first\ndescription: d\ndocument: "+doc+"\ncases: [{name: a}]\n")
	writeScenario(t, dir, "notes.txt", "not a scenario")

	scenarios, err := LoadScenarioDir(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "first", scenarios[0].Name)
	assert.Equal(t, "second", scenarios[1].Name)
}

func TestLoadScenarioDir_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	doc := testDocument(t)
	writeScenario(t, dir, "a.yaml", "name: same\ndescription: d\ndocument: "+doc+"\ncases: [{name: a}]\n")
	writeScenario(t, dir, "b.yaml", "name: same\ndescription: d\ndocument: "+doc+"\ncases: [{name: a}]\n")

	_, err := LoadScenarioDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scenario name "same" already used`)
}

func TestLoadScenarioDir_Empty(t *testing.T) {
	_, err := LoadScenarioDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scenario files found")
}
