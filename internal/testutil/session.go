package testutil

// FixedSessionGenerator generates the same journal session id every time.
//
// This enables deterministic test execution and golden snapshot comparison.
// The same scenario with the same FixedSessionGenerator produces
// byte-identical journal traces.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a new fixed session id generator.
//
// The id is typically set in the scenario YAML:
//
//	session: "test-session-00000000-0000-0000-0000-000000000001"
//
// If id is empty, Generate() returns "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session id.
//
// Implements journal.SessionIDGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
