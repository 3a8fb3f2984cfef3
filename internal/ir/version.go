package ir

// Version constants for the persisted trace format and the engine.
const (
	// FormatVersion is the version of the persisted event payload format.
	FormatVersion = "1"

	// EngineVersion is the netreplay engine version.
	EngineVersion = "0.1.0"
)
