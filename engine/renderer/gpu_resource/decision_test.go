package gpu_resource

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDecideBufferAction(t *testing.T) {
	tests := []struct {
		name        string
		exists      bool
		lastVersion uint64
		version     uint64
		capacity    uint64
		byteLen     uint64
		want        bufferAction
	}{
		{"first ensure creates", false, 0, 0, 0, 64, bufferActionRecreate},
		{"unchanged version is a no-op", true, 5, 5, 256, 64, bufferActionNoop},
		{"older version is a no-op", true, 5, 3, 256, 64, bufferActionNoop},
		{"newer version fitting capacity writes in place", true, 5, 6, 256, 200, bufferActionWrite},
		{"newer version exactly at capacity writes in place", true, 5, 6, 256, 256, bufferActionWrite},
		{"newer version over capacity recreates", true, 5, 6, 256, 257, bufferActionRecreate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decideBufferAction(tt.exists, tt.lastVersion, tt.version, tt.capacity, tt.byteLen)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecideTextureAction(t *testing.T) {
	tests := []struct {
		name     string
		exists   bool
		lastVer  uint64
		lastGen  uint64
		version  uint64
		gen      uint64
		want     textureAction
	}{
		{"first ensure creates", false, 0, 0, 1, 0, textureActionRecreate},
		{"unchanged counters are a no-op", true, 3, 1, 3, 1, textureActionNoop},
		{"version-only change uploads in place", true, 3, 1, 4, 1, textureActionUpload},
		{"generation change always recreates", true, 3, 1, 5, 2, textureActionRecreate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decideTextureAction(tt.exists, tt.lastVer, tt.lastGen, tt.version, tt.gen)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextBufferCapacityDoubles(t *testing.T) {
	assert.Equal(t, uint64(256), nextBufferCapacity(0, 1), "capacity never drops below the floor")
	assert.Equal(t, uint64(256), nextBufferCapacity(256, 256))
	assert.Equal(t, uint64(512), nextBufferCapacity(256, 257))
	assert.Equal(t, uint64(2048), nextBufferCapacity(256, 1500))
}

func TestBufferLookupKeyedByContentIdentity(t *testing.T) {
	cpuID := uuid.New()
	mirror := &gpuBuffer{buffer: &wgpu.Buffer{}, physicalID: uuid.New()}
	m := &resourceManager{buffers: map[uuid.UUID]*gpuBuffer{cpuID: mirror}}

	assert.Equal(t, mirror.buffer, m.Buffer(cpuID))
	assert.Nil(t, m.Buffer(mirror.physicalID), "the physical id is not a lookup key")
	assert.Nil(t, m.Buffer(uuid.New()))
}
