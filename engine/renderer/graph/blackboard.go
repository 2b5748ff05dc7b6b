package graph

// Blackboard carries frame-scoped values between nodes: a producing node
// publishes a transient texture id or bind group under a string key during
// prepare, and consuming nodes read it during prepare or execute. Cleared when
// the frame's transient state is reset.
type Blackboard struct {
	values map[string]any
}

// NewBlackboard creates an empty blackboard.
//
// Returns:
//   - *Blackboard: a new Blackboard instance
func NewBlackboard() *Blackboard {
	return &Blackboard{values: make(map[string]any)}
}

// Set publishes a value under a key, replacing any previous value.
//
// Parameters:
//   - key: the well-known key consumers read
//   - value: the frame-scoped value
func (b *Blackboard) Set(key string, value any) {
	b.values[key] = value
}

// Get returns the value under a key.
//
// Parameters:
//   - key: the key to look up
//
// Returns:
//   - any: the stored value, or nil
//   - bool: false if nothing is stored under the key
func (b *Blackboard) Get(key string) (any, bool) {
	v, ok := b.values[key]
	return v, ok
}

// Clear removes every value. Called at frame end alongside the transient
// pool reset so stale ids never leak into the next frame.
func (b *Blackboard) Clear() {
	clear(b.values)
}
