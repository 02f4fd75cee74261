package ir

// Version constants for the document schema and checker.
const (
	// SchemaVersion is the IR document schema version.
	SchemaVersion = "1"

	// EngineVersion is the tripir checker version recorded on reports.
	EngineVersion = "0.1.0"
)
