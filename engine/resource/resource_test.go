package resource

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferVersionMonotonicity(t *testing.T) {
	buf := NewBuffer("test", nil)
	require.Equal(t, uint64(0), buf.Version())

	const mutations = 17
	for i := 0; i < mutations; i++ {
		buf.SetData([]byte{byte(i)})
	}
	assert.Equal(t, uint64(mutations), buf.Version(), "each logical mutation bumps the version exactly once")

	before := buf.Version()
	buf.Write(func(data *[]byte) {
		*data = append(*data, 1, 2, 3)
	})
	assert.Equal(t, before+1, buf.Version(), "a Write callback is one logical mutation")
}

func TestBufferReadSeesWrittenData(t *testing.T) {
	buf := NewBuffer("test", []byte{9, 9})
	assert.Equal(t, 2, buf.Len())
	assert.Equal(t, uint64(0), buf.Version(), "initial contents are not a mutation")

	buf.SetData([]byte{1, 2, 3, 4})
	buf.Read(func(data []byte) {
		assert.Equal(t, []byte{1, 2, 3, 4}, data)
	})
	assert.Equal(t, 4, buf.Len())
}

func TestBufferIdentityStable(t *testing.T) {
	buf := NewBuffer("test", nil)
	id := buf.ID()
	buf.SetData(make([]byte, 1024))
	buf.SetData(make([]byte, 4096))
	assert.Equal(t, id, buf.ID(), "identity never changes while the buffer is alive")
	assert.NotEqual(t, id, NewBuffer("other", nil).ID())
}

func TestImageGenerationImpliesVersion(t *testing.T) {
	img := NewImage("test", 4, 4, wgpu.TextureFormatRGBA8Unorm)

	img.SetPixels(make([]byte, 64))
	assert.Equal(t, uint64(1), img.Version())
	assert.Equal(t, uint64(0), img.Generation(), "pixel writes never bump the generation")

	img.Reshape(8, 8, wgpu.TextureFormatRGBA8Unorm, 1, make([]byte, 256))
	assert.Equal(t, uint64(1), img.Generation())
	assert.Equal(t, uint64(2), img.Version(), "a structural change also bumps the version")

	w, h, format, mips := img.Descriptor()
	assert.Equal(t, uint32(8), w)
	assert.Equal(t, uint32(8), h)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, format)
	assert.Equal(t, uint32(1), mips)
}

func TestImageHasData(t *testing.T) {
	img := NewImage("test", 2, 2, wgpu.TextureFormatRGBA8Unorm)
	assert.False(t, img.HasData(), "an image before its async load completes has no data")

	img.SetPixels(make([]byte, 16))
	assert.True(t, img.HasData())
}
