// package resource holds the CPU-side resource containers the renderer mirrors
// onto the GPU: versioned buffers and images with stable identities. GPU code
// never mutates these; application code mutates them between frames and the
// resource manager compares versions to decide what to upload.
package resource

import "sync/atomic"

// Tracker carries the change counters for one CPU resource.
//
// Version increases on every content mutation. Generation increases only on
// structural change (resize, format change) and always implies a version
// increase, so a consumer watching only Version never misses a rebuild.
type Tracker struct {
	version    atomic.Uint64
	generation atomic.Uint64
}

// Version returns the current content version.
//
// Returns:
//   - uint64: the monotonically increasing content version
func (t *Tracker) Version() uint64 {
	return t.version.Load()
}

// Generation returns the current structural generation.
//
// Returns:
//   - uint64: the generation counter, increased only on structural changes
func (t *Tracker) Generation() uint64 {
	return t.generation.Load()
}

// Bump records a content mutation by incrementing the version counter once.
func (t *Tracker) Bump() {
	t.version.Add(1)
}

// BumpStructural records a structural mutation: the generation counter and the
// version counter are both incremented.
func (t *Tracker) BumpStructural() {
	t.generation.Add(1)
	t.version.Add(1)
}
