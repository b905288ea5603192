package testutil

import "fmt"

// SequentialIDs hands out run ids "<prefix>-0001", "<prefix>-0002", ...
//
// Passed to store.WithIDGenerator so recorded runs and golden files do not
// depend on UUIDv7 timestamps.
type SequentialIDs struct {
	prefix string
	clock  *DeterministicClock
}

// NewSequentialIDs returns a generator; an empty prefix becomes "run".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialIDs{prefix: prefix, clock: NewDeterministicClock()}
}

// Next returns the next id.
func (g *SequentialIDs) Next() string {
	return fmt.Sprintf("%s-%04d", g.prefix, g.clock.Next())
}

// Reset restarts the sequence at 1.
func (g *SequentialIDs) Reset() {
	g.clock.Reset()
}
