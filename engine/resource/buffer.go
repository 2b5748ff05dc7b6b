package resource

import (
	"sync"

	"github.com/google/uuid"
)

// buffer is the implementation of the Buffer interface.
type buffer struct {
	id      uuid.UUID
	label   string
	tracker Tracker

	mu   sync.RWMutex
	data []byte
}

// Buffer is a CPU-side byte buffer with a stable identity and a version
// counter. The resource manager compares the version against its GPU mirror to
// decide whether an upload is needed; application code mutates the contents
// through Write so that every logical mutation bumps the version exactly once.
//
// Reads are safe concurrently with the renderer's extraction walk; writes take
// the exclusive lock and must not race with reads of the same buffer.
type Buffer interface {
	// ID returns the stable identity of this buffer. It is assigned at
	// creation and never changes while the buffer is alive.
	//
	// Returns:
	//   - uuid.UUID: the buffer identity
	ID() uuid.UUID

	// Label returns the debug label for this buffer.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Version returns the current content version.
	//
	// Returns:
	//   - uint64: the monotonically increasing content version
	Version() uint64

	// Len returns the current byte length of the contents.
	//
	// Returns:
	//   - int: the content length in bytes
	Len() int

	// Read invokes fn with the current contents under the read lock. The
	// slice must not be retained or mutated past the callback.
	//
	// Parameters:
	//   - fn: callback receiving the buffer contents
	Read(fn func(data []byte))

	// Write invokes fn with a mutable reference to the contents under the
	// exclusive lock, then bumps the version once. fn may replace the slice
	// entirely (e.g., to grow it).
	//
	// Parameters:
	//   - fn: callback mutating the buffer contents
	Write(fn func(data *[]byte))

	// SetData replaces the contents wholesale and bumps the version once.
	//
	// Parameters:
	//   - data: the new contents; the slice is copied
	SetData(data []byte)
}

var _ Buffer = &buffer{}

// NewBuffer creates a CPU buffer with a fresh identity and version 0.
//
// Parameters:
//   - label: debug label for the buffer
//   - initial: initial contents, copied; may be nil
//
// Returns:
//   - Buffer: a new Buffer instance
func NewBuffer(label string, initial []byte) Buffer {
	b := &buffer{
		id:    uuid.New(),
		label: label,
	}
	if len(initial) > 0 {
		b.data = make([]byte, len(initial))
		copy(b.data, initial)
	}
	return b
}

func (b *buffer) ID() uuid.UUID {
	return b.id
}

func (b *buffer) Label() string {
	return b.label
}

func (b *buffer) Version() uint64 {
	return b.tracker.Version()
}

func (b *buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

func (b *buffer) Read(fn func(data []byte)) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	fn(b.data)
}

func (b *buffer) Write(fn func(data *[]byte)) {
	b.mu.Lock()
	fn(&b.data)
	b.mu.Unlock()
	b.tracker.Bump()
}

func (b *buffer) SetData(data []byte) {
	b.mu.Lock()
	if cap(b.data) >= len(data) {
		b.data = b.data[:len(data)]
	} else {
		b.data = make([]byte, len(data))
	}
	copy(b.data, data)
	b.mu.Unlock()
	b.tracker.Bump()
}
