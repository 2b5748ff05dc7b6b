// package gpu_resource owns the GPU-side mirrors of CPU resources: buffers and
// textures keyed by the CPU resource identity, re-uploaded or recreated by
// comparing version counters. Everything here runs on the render thread; the
// CPU containers carry their own locks.
package gpu_resource

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
)

// bufferAction is the decision taken for one buffer ensure call.
type bufferAction int

const (
	bufferActionNoop bufferAction = iota
	bufferActionWrite
	bufferActionRecreate
)

// decideBufferAction picks the cheapest correct action for a buffer whose CPU
// side is at version with byteLen bytes, given the mirror's last uploaded
// version and current capacity. exists is false when no mirror has been
// created yet.
func decideBufferAction(exists bool, lastVersion, version uint64, capacity, byteLen uint64) bufferAction {
	if !exists {
		return bufferActionRecreate
	}
	if version <= lastVersion {
		return bufferActionNoop
	}
	if byteLen <= capacity {
		return bufferActionWrite
	}
	return bufferActionRecreate
}

// nextBufferCapacity doubles from the current capacity until needed fits,
// with a small floor so tiny uniform buffers do not thrash.
func nextBufferCapacity(current, needed uint64) uint64 {
	c := current
	if c < 256 {
		c = 256
	}
	for c < needed {
		c *= 2
	}
	return c
}

// gpuBuffer is the GPU mirror of one CPU buffer.
type gpuBuffer struct {
	buffer     *wgpu.Buffer
	capacity   uint64
	usage      wgpu.BufferUsage
	physicalID uuid.UUID

	lastVersion   uint64
	lastUsedFrame uint64
}

// update brings the mirror up to date with data at version, creating or
// recreating the physical buffer as needed. Returns true when the physical
// identity changed.
func (g *gpuBuffer) update(device *wgpu.Device, queue *wgpu.Queue, label string, data []byte, version uint64, usage wgpu.BufferUsage) (bool, error) {
	byteLen := uint64(len(data))

	switch decideBufferAction(g.buffer != nil, g.lastVersion, version, g.capacity, byteLen) {
	case bufferActionNoop:
		return false, nil

	case bufferActionWrite:
		if byteLen > 0 {
			queue.WriteBuffer(g.buffer, 0, data)
		}
		g.lastVersion = version
		return false, nil

	default:
		if g.buffer != nil {
			g.buffer.Release()
			g.buffer = nil
		}
		capacity := nextBufferCapacity(g.capacity, byteLen)
		buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label,
			Size:  capacity,
			Usage: usage | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return false, fmt.Errorf("failed to create buffer %s: %w", label, err)
		}
		if byteLen > 0 {
			queue.WriteBuffer(buf, 0, data)
		}
		g.buffer = buf
		g.capacity = capacity
		g.usage = usage
		g.physicalID = uuid.New()
		g.lastVersion = version
		return true, nil
	}
}

// release frees the physical buffer.
func (g *gpuBuffer) release() {
	if g.buffer != nil {
		g.buffer.Release()
		g.buffer = nil
	}
}
