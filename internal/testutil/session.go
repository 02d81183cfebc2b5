// Package testutil holds helpers shared by tests across packages.
package testutil

// FixedSessionGenerator returns the same session token every time.
//
// A scenario run with a fixed token writes cycles with identical IDs on
// every run, which is what makes golden traces byte-stable.
//
// Unlike engine.FixedGenerator, which hands out a list of tokens in order,
// this generator never runs out.
//
// Thread-safety: stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	token string
}

// DefaultSessionToken is used when no token is given.
const DefaultSessionToken = "test-session-default"

// NewFixedSessionGenerator creates a generator for token.
//
// The token is typically set in the scenario YAML:
//
//	session: "test-session-00000000-0000-0000-0000-000000000001"
func NewFixedSessionGenerator(token string) *FixedSessionGenerator {
	if token == "" {
		token = DefaultSessionToken
	}
	return &FixedSessionGenerator{token: token}
}

// Generate returns the fixed token. Implements engine.SessionGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.token
}
