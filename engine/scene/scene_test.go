package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ember-gfx/ember-go/engine/light"
	"github.com/ember-gfx/ember-go/engine/mesh"
	"github.com/ember-gfx/ember-go/engine/renderer/material"
)

func testObject(name string) Object {
	return NewObject(name, mesh.NewCube(name, 1), material.NewPBRMaterial(name))
}

func TestAddAssignsSequentialIDs(t *testing.T) {
	s := NewScene(WithName("test"))
	a := testObject("a")
	b := testObject("b")
	idA := s.Add(a)
	idB := s.Add(b)

	assert.NotEqual(t, idA, idB)
	assert.Equal(t, idA, a.ID())
	assert.Same(t, a, s.Get(idA))
	assert.Equal(t, 2, s.Count())

	s.Remove(idA)
	assert.Nil(t, s.Get(idA))
	assert.Equal(t, 1, s.Count())
}

func TestAddPanicsWithoutMesh(t *testing.T) {
	s := NewScene()
	assert.Panics(t, func() {
		s.Add(NewObject("broken", nil, material.NewPBRMaterial("m")))
	})
}

func TestItemsSkipsHiddenObjects(t *testing.T) {
	s := NewScene()
	visible := testObject("shown")
	hidden := testObject("hidden")
	hidden.SetVisible(false)
	s.Add(visible)
	s.Add(hidden)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, visible.Mesh().ID(), items[0].GeometryID)
	assert.Equal(t, visible.Material().ID(), items[0].MaterialID)
	assert.True(t, items[0].CastsShadow)
}

func TestItemsCarryMaterialFlags(t *testing.T) {
	s := NewScene()
	glass := NewObject("glass",
		mesh.NewSphere("glass", 1, 8, 4),
		material.NewPBRMaterial("glass", material.WithTransparent(), material.WithTransmission(0.9)),
	)
	glass.SetCastsShadow(false)
	s.Add(glass)

	items := s.Items()
	require.Len(t, items, 1)
	assert.True(t, items[0].Transparent)
	assert.True(t, items[0].UsesTransmission)
	assert.False(t, items[0].CastsShadow)
}

func TestItemsTrackMaterialVersion(t *testing.T) {
	s := NewScene()
	obj := testObject("edited")
	s.Add(obj)

	v0 := s.Items()[0].MaterialVersion
	obj.Material().SetRoughness(0.2)
	v1 := s.Items()[0].MaterialVersion
	assert.Greater(t, v1, v0)
}

func TestUpdateAdvancesAnimations(t *testing.T) {
	s := NewScene(WithUpdateWorkers(2))
	obj := testObject("mover")
	obj.SetAnimation(NewAnimation(
		TransformKey{Position: [3]float32{0, 0, 0}, Scale: [3]float32{1, 1, 1}},
		TransformKey{Position: [3]float32{10, 0, 0}, Scale: [3]float32{1, 1, 1}},
		2.0, PlayModeLoop,
	))
	s.Add(obj)

	s.Update(1.0)
	x, _, _ := obj.Position()
	assert.InDelta(t, 5.0, x, 1e-4)
}

func TestUpdateFansOutAcrossWorkers(t *testing.T) {
	s := NewScene(WithUpdateWorkers(4))
	// enough objects to force the pooled path
	for i := 0; i < 200; i++ {
		obj := testObject("bulk")
		obj.SetAnimation(NewAnimation(
			TransformKey{Scale: [3]float32{1, 1, 1}},
			TransformKey{Position: [3]float32{0, 1, 0}, Scale: [3]float32{1, 1, 1}},
			1.0, PlayModeOnce,
		))
		s.Add(obj)
	}
	s.Update(0.5)
	for _, item := range s.Items() {
		assert.InDelta(t, 0.5, item.World[13], 1e-4)
	}
}

func TestPingPongReversesAtEnds(t *testing.T) {
	a := NewAnimation(TransformKey{}, TransformKey{Position: [3]float32{1, 0, 0}}, 1.0, PlayModePingPong)

	a.Advance(0.75)
	assert.False(t, a.Reversed())
	assert.InDelta(t, 0.75, a.Progress(), 1e-5)

	// crosses the end and comes back: 0.75 + 0.5 -> 1.0, then back to 0.75
	a.Advance(0.5)
	assert.True(t, a.Reversed())
	assert.InDelta(t, 0.75, a.Progress(), 1e-5)

	// sweeps back through the start and reverses again
	a.Advance(0.8)
	assert.False(t, a.Reversed())
	assert.InDelta(t, 0.05, a.Progress(), 1e-5)
}

func TestLoopWrapsWithoutReversal(t *testing.T) {
	a := NewAnimation(TransformKey{}, TransformKey{Position: [3]float32{1, 0, 0}}, 1.0, PlayModeLoop)
	a.Advance(2.25)
	assert.InDelta(t, 0.25, a.Progress(), 1e-5)
	assert.False(t, a.Reversed())
}

func TestOnceStopsAtEnd(t *testing.T) {
	a := NewAnimation(TransformKey{}, TransformKey{Position: [3]float32{1, 0, 0}}, 1.0, PlayModeOnce)
	a.Advance(5)
	assert.True(t, a.Done())
	assert.InDelta(t, 1.0, a.Progress(), 1e-5)
	a.Advance(1)
	assert.InDelta(t, 1.0, a.Progress(), 1e-5)

	a.Reset()
	assert.False(t, a.Done())
	assert.Zero(t, a.Progress())
}

func TestShadowLightSelection(t *testing.T) {
	s := NewScene()
	assert.Nil(t, s.ShadowLight())

	point := light.NewLight(light.LightTypePoint, light.WithCastsShadows(true))
	disabledSun := light.NewLight(light.LightTypeDirectional, light.WithCastsShadows(true), light.WithEnabled(false))
	sun := light.NewLight(light.LightTypeDirectional, light.WithCastsShadows(true))
	s.AddLight(point)
	s.AddLight(disabledSun)
	s.AddLight(sun)

	assert.Same(t, sun, s.ShadowLight())

	s.RemoveLight(sun)
	assert.Nil(t, s.ShadowLight())
	assert.Len(t, s.Lights(), 2)
}
