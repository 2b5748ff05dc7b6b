package extract

import (
	"sort"

	"github.com/charmbracelet/log"

	"github.com/ember-gfx/ember-go/common"
	"github.com/ember-gfx/ember-go/engine/renderer/dynamic_buffer"
	"github.com/ember-gfx/ember-go/engine/renderer/pipeline"
)

// extractor is the implementation of the Extractor interface.
type extractor struct {
	logger *log.Logger

	// scratch lists are reused across frames to keep extraction allocation-free
	// in steady state.
	scratch Lists
}

// Extractor performs the per-frame scene walk: frustum culling, pipeline
// resolution, sort-key construction, and stable sorting into the frame's draw
// queues. One instance is owned by the renderer and used from the render
// thread only.
type Extractor interface {
	// Extract culls items against the view frustum derived from viewProj,
	// resolves each survivor through resolve, and returns the partitioned,
	// sorted lists. The returned Lists is valid until the next Extract call.
	//
	// Parameters:
	//   - items: every visible, mesh-bearing scene entry this frame
	//   - viewProj: the camera view-projection matrix, column-major
	//   - camX, camY, camZ: the camera position in world space
	//   - resolve: pipeline/material key resolution callback
	//
	// Returns:
	//   - *Lists: the frame's draw queues, sorted and partitioned
	Extract(items []Item, viewProj []float32, camX, camY, camZ float32, resolve ResolveFunc) *Lists
}

var _ Extractor = &extractor{}

// NewExtractor creates an Extractor.
//
// Parameters:
//   - opts: a variadic list of ExtractorOption functions
//
// Returns:
//   - Extractor: a new Extractor instance
func NewExtractor(opts ...ExtractorOption) Extractor {
	e := &extractor{
		logger: log.WithPrefix("extract"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *extractor) Extract(items []Item, viewProj []float32, camX, camY, camZ float32, resolve ResolveFunc) *Lists {
	lists := &e.scratch
	lists.Opaque = lists.Opaque[:0]
	lists.Transparent = lists.Transparent[:0]
	lists.Shadow = lists.Shadow[:0]
	lists.ObjectUniforms = lists.ObjectUniforms[:0]
	lists.UseTransmission = false
	lists.Culled = 0

	frustum := common.ExtractFrustumFromMatrix(viewProj)

	for i := range items {
		item := &items[i]

		cx, cy, cz := item.World[12], item.World[13], item.World[14]
		if item.Bounds.Radius > 0 {
			ws := common.TransformSphere(item.Bounds, item.World[:])
			if !frustum.ContainsSphere(ws.Center[0], ws.Center[1], ws.Center[2], ws.Radius) {
				lists.Culled++
				continue
			}
			cx, cy, cz = ws.Center[0], ws.Center[1], ws.Center[2]
		}
		distanceSq := common.DistanceSquared(cx, cy, cz, camX, camY, camZ)

		resolution, ok := resolve(item, pipeline.VariantMain)
		if !ok {
			e.logger.Debug("draw not ready, skipping", "material", item.MaterialID)
			continue
		}

		objectIndex := len(lists.ObjectUniforms)
		lists.ObjectUniforms = append(lists.ObjectUniforms, buildObjectUniform(item.World[:]))

		cmd := RenderCommand{
			GeometryID:       item.GeometryID,
			MaterialID:       item.MaterialID,
			Resolution:       resolution,
			ObjectIndex:      objectIndex,
			DistanceSq:       distanceSq,
			UsesTransmission: item.UsesTransmission,
		}

		if item.Transparent {
			cmd.SortKey = TransparentSortKey(resolution.PipelineID, resolution.MaterialKey, distanceSq)
			lists.Transparent = append(lists.Transparent, cmd)
			if item.UsesTransmission {
				lists.UseTransmission = true
			}
		} else {
			cmd.SortKey = OpaqueSortKey(resolution.PipelineID, resolution.MaterialKey, distanceSq)
			lists.Opaque = append(lists.Opaque, cmd)
		}

		if item.CastsShadow {
			shadowResolution, shadowOK := resolve(item, pipeline.VariantShadow)
			if shadowOK {
				shadowCmd := cmd
				shadowCmd.Resolution = shadowResolution
				shadowCmd.SortKey = OpaqueSortKey(shadowResolution.PipelineID, shadowResolution.MaterialKey, distanceSq)
				lists.Shadow = append(lists.Shadow, shadowCmd)
			}
		}
	}

	// Stable sorts keep equal-key draws in submission order across frames.
	sort.SliceStable(lists.Opaque, func(a, b int) bool {
		return lists.Opaque[a].SortKey < lists.Opaque[b].SortKey
	})
	sort.SliceStable(lists.Transparent, func(a, b int) bool {
		return lists.Transparent[a].SortKey < lists.Transparent[b].SortKey
	})
	sort.SliceStable(lists.Shadow, func(a, b int) bool {
		return lists.Shadow[a].SortKey < lists.Shadow[b].SortKey
	})

	return lists
}

// buildObjectUniform fills the per-draw uniform: the world matrix and its
// inverse transpose for normal transformation. A singular world matrix falls
// back to the world matrix itself.
func buildObjectUniform(world []float32) dynamic_buffer.ObjectUniform {
	var u dynamic_buffer.ObjectUniform
	copy(u.Model[:], world)

	var inv [16]float32
	if common.Invert4(inv[:], world) {
		for row := 0; row < 4; row++ {
			for col := 0; col < 4; col++ {
				u.NormalMatrix[col*4+row] = inv[row*4+col]
			}
		}
	} else {
		copy(u.NormalMatrix[:], world)
	}
	return u
}
