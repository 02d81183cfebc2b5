package ir

// Version constants for the cycle log schema and engine.
const (
	// IRVersion is the value schema version recorded with every session.
	IRVersion = "1"

	// EngineVersion is the seqlock engine version.
	EngineVersion = "0.1.0"
)
