package anki

// IDGenerator allocates the integer IDs for note and card rows. One generator
// instance spans an entire package write, so note and card IDs are
// interleaved but globally unique within the exported file.
type IDGenerator struct {
	next int64
}

// NewIDGenerator returns a generator whose first ID is seed. By convention
// the seed is the current time in milliseconds, which keeps IDs from separate
// exports distinguishable.
func NewIDGenerator(seed int64) *IDGenerator {
	return &IDGenerator{next: seed}
}

// Next returns a value strictly greater than every previous value from the
// same generator.
func (g *IDGenerator) Next() int64 {
	id := g.next
	g.next++
	return id
}
