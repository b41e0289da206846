package testutil

// DefaultRunID is the run id FixedRunIDGenerator falls back to.
const DefaultRunID = "test-run-default"

// FixedRunIDGenerator generates the same run id every time.
//
// Golden traces embed the run id, so two executions of one scenario
// produce byte-identical snapshots only when the id is fixed.
//
// Unlike engine.FixedGenerator, which returns ids in sequence and panics
// when they run out, this generator never runs out. Engines built one after
// another from the same scenario all share the id.
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a fixed run id generator.
//
// The id is typically set in the scenario YAML:
//
//	run_id: "test-run-0001"
//
// If id is empty, Generate returns DefaultRunID.
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = DefaultRunID
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run id.
//
// Implements engine.RunIDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
