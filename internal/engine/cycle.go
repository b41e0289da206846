package engine

// CycleDetector remembers graph fingerprints seen during a run.
//
// Some molecules oscillate: an arrow loop or a quine returns to a state it
// already had. A recurring fingerprint means Run would repeat forever, so
// it halts instead of burning the whole step budget.
//
// Example:
//
//	step 3: fingerprint 9f2c...  recorded
//	step 4: fingerprint 41aa...  recorded
//	step 5: fingerprint 9f2c...  seen at step 3, period 2 → CYCLE DETECTED
//
// Fingerprints ignore node id offsets, so a molecule that rebuilds itself
// with fresh ids is still caught.
type CycleDetector struct {
	seen map[string]int64 // fingerprint → clock reading when first seen
}

// NewCycleDetector creates an empty detector.
func NewCycleDetector() *CycleDetector {
	return &CycleDetector{seen: make(map[string]int64)}
}

// Seen returns the step at which fingerprint was first recorded.
func (c *CycleDetector) Seen(fingerprint string) (int64, bool) {
	step, ok := c.seen[fingerprint]
	return step, ok
}

// Record marks fingerprint as seen at step. An existing entry keeps its
// original step.
func (c *CycleDetector) Record(fingerprint string, step int64) {
	if _, ok := c.seen[fingerprint]; !ok {
		c.seen[fingerprint] = step
	}
}

// Reset forgets every fingerprint.
func (c *CycleDetector) Reset() {
	clear(c.seen)
}

// Len returns the number of distinct states recorded.
func (c *CycleDetector) Len() int {
	return len(c.seen)
}
