package light

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLightNormalizesDirection(t *testing.T) {
	l := NewLight(LightTypeDirectional, WithDirection(0, -2, 0))
	assert.Equal(t, [3]float32{0, -1, 0}, l.Direction())

	l.SetDirection(3, 0, 4)
	dir := l.Direction()
	assert.InDelta(t, 0.6, dir[0], 1e-5)
	assert.InDelta(t, 0.8, dir[2], 1e-5)
}

func TestMarshalLightBufferSkipsDisabled(t *testing.T) {
	lights := []Light{
		NewLight(LightTypeDirectional, WithIntensity(2)),
		NewLight(LightTypePoint, WithEnabled(false)),
		NewLight(LightTypeSpot, WithSpotCone(25, 35)),
	}
	buf := MarshalLightBuffer(lights, [3]float32{0.1, 0.1, 0.1})

	require.Len(t, buf, 16+2*64)
	count := binary.LittleEndian.Uint32(buf[12:16])
	assert.Equal(t, uint32(2), count)

	// first light record starts after the 16-byte header
	lightType := binary.LittleEndian.Uint32(buf[16+12 : 16+16])
	assert.Equal(t, uint32(LightTypeDirectional), lightType)
	secondType := binary.LittleEndian.Uint32(buf[16+64+12 : 16+64+16])
	assert.Equal(t, uint32(LightTypeSpot), secondType)
}

func TestGPULightLayout(t *testing.T) {
	g := GPULight{
		Position:  [3]float32{1, 2, 3},
		LightType: uint32(LightTypeSpot),
		Intensity: 5,
	}
	require.Equal(t, 64, g.Size())
	buf := g.Marshal()
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4])))
	assert.Equal(t, uint32(LightTypeSpot), binary.LittleEndian.Uint32(buf[12:16]))
	assert.Equal(t, float32(5), math.Float32frombits(binary.LittleEndian.Uint32(buf[28:32])))
}

func TestShadowDataProjectsCenterToClipOrigin(t *testing.T) {
	var s GPUShadowData
	s.ComputeDirectionalLightVP([3]float32{0, -1, 0}, 0, 0, 0, DefaultShadowHalfExtent, DefaultShadowNear, DefaultShadowFar)

	// The frustum center must land at clip-space X/Y origin.
	m := s.LightVP
	x := m[0]*0 + m[4]*0 + m[8]*0 + m[12]
	y := m[1]*0 + m[5]*0 + m[9]*0 + m[13]
	assert.InDelta(t, 0, x, 1e-4)
	assert.InDelta(t, 0, y, 1e-4)
}

func TestComputeNormalBiasScalesWithTexelSize(t *testing.T) {
	var s GPUShadowData
	s.ComputeNormalBias(40, 3, 2048)
	assert.InDelta(t, 2.0*40.0/2048.0*3.0, s.NormalBias, 1e-6)

	var coarse GPUShadowData
	coarse.ComputeNormalBias(40, 3, 512)
	assert.Greater(t, coarse.NormalBias, s.NormalBias)
}

func TestSpotConeStoredAsCosine(t *testing.T) {
	l := NewLight(LightTypeSpot, WithSpotCone(0, 90))
	assert.InDelta(t, 1.0, l.InnerCone(), 1e-5)
	assert.InDelta(t, 0.0, l.OuterCone(), 1e-5)
}
