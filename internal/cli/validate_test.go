package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidDocument(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, testdata("trip.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, markOK+" Document valid (5 constraint slot(s))")
	assert.Contains(t, out, "id: ")
}

func TestValidate_ValidDocumentJSON(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	out, err := execute(t, cmd, testdata("trip.yaml"))
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["valid"])
	assert.EqualValues(t, 5, data["slots"])
	assert.NotEmpty(t, data["document_id"])
}

func TestValidate_CUEDocument(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, filepath.Join("..", "compiler", "testdata", "beijing_xian.cue"))
	require.NoError(t, err)
	assert.Contains(t, out, "Document valid")
}

func TestValidate_InvalidDocument(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, testdata("invalid_trip.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, markFail+" Validation failed")
	assert.Contains(t, out, "total_travel_days")
	assert.Contains(t, out, "stages[0].attraction_constraints")
	assert.Contains(t, out, "~=")
}

func TestValidate_InvalidDocumentJSON(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	out, err := execute(t, cmd, testdata("invalid_trip.yaml"))
	require.Error(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalid, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "validation error(s)")

	details := resp.Error.Details.(map[string]any)
	assert.Equal(t, false, details["valid"])
	assert.Len(t, details["errors"], 2)
}

func TestValidate_MissingFile(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, "/nonexistent/trip.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "trip.yaml")
}

func TestValidate_UnsupportedExtension(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	_, err := execute(t, cmd, testdata("trip.toml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
