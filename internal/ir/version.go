package ir

// Version constants for recorded artifacts.
const (
	// TraceVersion is the schema version of harness traces and journal rows.
	TraceVersion = "1"

	// Version is the stately release.
	Version = "0.1.0"
)
