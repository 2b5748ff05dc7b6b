package bind_group_provider

import (
	"hash/fnv"

	"github.com/google/uuid"
)

// Fingerprint is a hash over a bind group's layout plus the ordered physical
// resource ids it binds. Fingerprint equality means a cached bind group may be
// reused without reconstruction; any recreated resource produces a new
// physical id and therefore a new fingerprint.
type Fingerprint uint64

// ComputeFingerprint hashes the layout hash and the physical ids of every
// bound resource, in binding order. The caller is responsible for passing ids
// in a stable order.
//
// Parameters:
//   - layoutHash: hash of the bind group layout description
//   - physicalIDs: physical ids of every bound resource, in binding order
//
// Returns:
//   - Fingerprint: the combined fingerprint
func ComputeFingerprint(layoutHash uint64, physicalIDs ...uuid.UUID) Fingerprint {
	h := fnv.New64a()
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(layoutHash >> (8 * i))
	}
	h.Write(buf[:])
	for i := range physicalIDs {
		h.Write(physicalIDs[i][:])
	}
	return Fingerprint(h.Sum64())
}
