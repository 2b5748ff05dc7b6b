// package extract walks the visible scene once per frame, culls against the
// camera frustum, and emits the flat, sorted draw lists the render passes
// consume. Everything here is CPU-only and frame-scoped.
package extract

import "math"

const (
	pipelineKeyBits = 14
	materialKeyBits = 20
	depthKeyBits    = 30

	pipelineKeyMask = (1 << pipelineKeyBits) - 1
	materialKeyMask = (1 << materialKeyBits) - 1
	depthKeyMask    = (1 << depthKeyBits) - 1
)

// depthBits quantizes a non-negative squared distance into 30 bits.
// Non-negative IEEE floats compare like their bit patterns, so dropping the
// two low mantissa bits preserves ordering; negative inputs clamp to zero.
func depthBits(distanceSq float32) uint64 {
	if distanceSq <= 0 {
		return 0
	}
	return uint64(math.Float32bits(distanceSq)>>2) & depthKeyMask
}

// OpaqueSortKey builds the sort key for opaque draws: pipeline in the high
// bits, then material, then depth ascending, so sorting groups state changes
// together and draws front to back within each group for early-Z.
//
// Parameters:
//   - pipelineID: the pipeline cache id for this draw
//   - materialKey: the small numeric material key
//   - distanceSq: squared camera distance
//
// Returns:
//   - uint64: the opaque sort key
func OpaqueSortKey(pipelineID, materialKey uint32, distanceSq float32) uint64 {
	return uint64(pipelineID&pipelineKeyMask)<<50 |
		uint64(materialKey&materialKeyMask)<<30 |
		depthBits(distanceSq)
}

// TransparentSortKey builds the sort key for transparent draws: inverted
// depth in the high bits so ascending sort yields back-to-front blending
// order, with pipeline and material below purely to reduce state churn among
// equal-depth draws.
//
// Parameters:
//   - pipelineID: the pipeline cache id for this draw
//   - materialKey: the small numeric material key
//   - distanceSq: squared camera distance
//
// Returns:
//   - uint64: the transparent sort key
func TransparentSortKey(pipelineID, materialKey uint32, distanceSq float32) uint64 {
	inverted := depthKeyMask &^ depthBits(distanceSq)
	return inverted<<34 |
		uint64(pipelineID&pipelineKeyMask)<<20 |
		uint64(materialKey&materialKeyMask)
}
