// Package edge turns a level-held key into single-edge entry pulses.
//
// The matcher evaluates its entry input on every clock edge it is
// asserted. A physical key held down across several edges would otherwise
// submit the same digit several times; Detector sits ahead of the matcher
// and passes only the rising edge through.
package edge

// Detector reports rising edges of a sampled level.
type Detector struct {
	prev bool
}

// Sample records level for this edge and reports whether it rose since
// the previous sample.
func (d *Detector) Sample(level bool) bool {
	rose := level && !d.prev
	d.prev = level
	return rose
}

// Level returns the most recently sampled level.
func (d *Detector) Level() bool {
	return d.prev
}

// Reset forgets the previous sample. A level that is already high on the
// next sample counts as a rising edge.
func (d *Detector) Reset() {
	d.prev = false
}
