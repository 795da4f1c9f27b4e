package ir

// Version constants for journal payloads and the engine.
const (
	// IRVersion is the payload schema version written to the journal.
	IRVersion = "1"

	// EngineVersion is the routesync engine version.
	EngineVersion = "0.1.0"
)
