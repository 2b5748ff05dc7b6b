package extract

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"

	"github.com/ember-gfx/ember-go/common"
	"github.com/ember-gfx/ember-go/engine/renderer/dynamic_buffer"
	"github.com/ember-gfx/ember-go/engine/renderer/pipeline"
)

// Item is one visible, mesh-bearing scene entry handed to the extractor: an
// already-resolved world transform plus the versioned handles the draw needs.
type Item struct {
	// World is the resolved world matrix, column-major.
	World [16]float32
	// Bounds is the object-space bounding sphere; zero radius means unknown
	// bounds and the item is never culled.
	Bounds common.BoundingSphere

	// GeometryID and GeometryVersion identify the geometry handle.
	GeometryID      uuid.UUID
	GeometryVersion uint64
	// MaterialID and MaterialVersion identify the material handle.
	MaterialID      uuid.UUID
	MaterialVersion uint64

	// Transparent selects the transparent queue and back-to-front ordering.
	Transparent bool
	// UsesTransmission marks materials sampling the opaque scene color.
	UsesTransmission bool
	// CastsShadow adds the item to the shadow queue.
	CastsShadow bool
}

// DrawResolution is everything the passes need to record one draw, resolved
// during extraction: the compiled pipeline with its sort-key id, the material
// bind group, and the geometry buffers.
type DrawResolution struct {
	// PipelineID is the pipeline cache id, feeding the sort key.
	PipelineID uint32
	// MaterialKey is the small numeric material key, feeding the sort key.
	MaterialKey uint32

	// Pipeline is the compiled render pipeline for this draw.
	Pipeline *wgpu.RenderPipeline
	// MaterialBindGroup binds the material uniforms and textures (group 2).
	MaterialBindGroup *wgpu.BindGroup

	// VertexBuffer and IndexBuffer are the geometry's GPU mirrors.
	VertexBuffer *wgpu.Buffer
	IndexBuffer  *wgpu.Buffer
	// IndexCount is the number of indices to draw.
	IndexCount uint32
	// IndexFormat is the index element type.
	IndexFormat wgpu.IndexFormat
}

// RenderCommand is one immutable frame-scoped draw record. Created during
// extraction, consumed by the frame's passes, discarded at frame end.
type RenderCommand struct {
	// SortKey is the combined ordering key; see OpaqueSortKey and
	// TransparentSortKey for the layouts.
	SortKey uint64

	// GeometryID and MaterialID are the handles this draw was resolved from.
	GeometryID uuid.UUID
	MaterialID uuid.UUID

	// Resolution holds the resolved GPU references for recording.
	Resolution DrawResolution

	// ObjectIndex is the draw's slot in the shared dynamic uniform buffer.
	ObjectIndex int

	// UsesTransmission marks draws whose pipeline layout includes the scene
	// color group; the transparent pass binds it for them.
	UsesTransmission bool

	// DistanceSq is the squared camera distance used for the depth bits.
	DistanceSq float32
}

// PipelineID returns the resolved pipeline id for this draw.
func (c *RenderCommand) PipelineID() uint32 {
	return c.Resolution.PipelineID
}

// ResolveFunc resolves the GPU references for an item in a pass variant,
// doing the ensure/cache work against the resource manager and pipeline
// cache. ok is false when the draw is not ready this frame (shader still
// compiling, geometry data missing); the extractor skips it and the draw
// retries next frame.
type ResolveFunc func(item *Item, variant pipeline.PassVariant) (DrawResolution, bool)

// Lists holds the frame's partitioned, sorted draw queues plus the per-draw
// uniforms in ObjectIndex order.
type Lists struct {
	// Opaque is sorted ascending by (pipeline, material, depth).
	Opaque []RenderCommand
	// Transparent is sorted back to front.
	Transparent []RenderCommand
	// Shadow holds shadow-casting draws in opaque key order.
	Shadow []RenderCommand

	// ObjectUniforms holds one entry per surviving draw, indexed by
	// RenderCommand.ObjectIndex.
	ObjectUniforms []dynamic_buffer.ObjectUniform

	// UseTransmission is true when any surviving transparent draw samples
	// the scene color; the transmission-copy pass keys off it.
	UseTransmission bool

	// Culled counts items rejected by the frustum test, for diagnostics.
	Culled int
}
