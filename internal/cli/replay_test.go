package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedRuns stores a satisfied run-1 and an unsatisfied run-2 in a fresh
// database and returns its path.
func seedRuns(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "tripir.db")

	_, err := execute(t, newTestCheckCommand("text", "run-1"),
		testdata("trip.yaml"), testdata("plan_ok.yaml"), "--db", dbPath)
	require.NoError(t, err)
	_, err = execute(t, newTestCheckCommand("text", "run-2"),
		testdata("trip.yaml"), testdata("plan_bus.yaml"), "--db", dbPath)
	require.Error(t, err)

	return dbPath
}

func TestReplay_SingleRun(t *testing.T) {
	dbPath := seedRuns(t)

	cmd := NewReplayCommand(&RootOptions{Format: "json"})
	out, err := execute(t, cmd, "run-2", "--db", dbPath)
	require.NoError(t, err, "an unsatisfied run that replays identically is a success")

	data := decodeResponse(t, out).Data.(map[string]any)
	assert.EqualValues(t, 1, data["total_runs"])
	assert.Equal(t, true, data["all_identical"])

	runs := data["runs"].([]any)
	require.Len(t, runs, 1)
	run := runs[0].(map[string]any)
	assert.Equal(t, "run-2", run["run_id"])
	assert.Equal(t, false, run["satisfied"])
	assert.Equal(t, true, run["identical"])
}

func TestReplay_All(t *testing.T) {
	dbPath := seedRuns(t)

	cmd := NewReplayCommand(&RootOptions{Format: "text", Verbose: true})
	out, err := execute(t, cmd, "--all", "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, out, markOK+" run-1")
	assert.Contains(t, out, markOK+" run-2")
	assert.Contains(t, out, "2 run(s) replayed identically")
}

func TestReplay_AllForDocument(t *testing.T) {
	dbPath := seedRuns(t)

	cmd := NewReplayCommand(&RootOptions{Format: "json"})
	out, err := execute(t, cmd, "--all", "--document", "other-document", "--db", dbPath)
	require.NoError(t, err)

	data := decodeResponse(t, out).Data.(map[string]any)
	assert.EqualValues(t, 0, data["total_runs"])
}

func TestReplay_EmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tripir.db")

	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, "--all", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "No check runs stored.\n", out)
}

func TestReplay_UnknownRun(t *testing.T) {
	dbPath := seedRuns(t)

	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, "run-9", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
	assert.Contains(t, out, "run run-9 not found")
}

func TestReplay_RunIDOrAll(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tripir.db")

	tests := []struct {
		name string
		args []string
	}{
		{"neither", []string{"--db", dbPath}},
		{"both", []string{"run-1", "--all", "--db", dbPath}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewReplayCommand(&RootOptions{Format: "text"})
			_, err := execute(t, cmd, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestReplay_RequiresDB(t *testing.T) {
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	_, err := execute(t, cmd, "--all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db")
}
