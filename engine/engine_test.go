package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ember-gfx/ember-go/engine/scene"
)

func newBareEngine() *engine {
	return &engine{
		tickRateChannel: make(chan time.Duration, 1),
		scenes:          make(map[int]scene.Scene),
	}
}

func TestActiveScenePicksLowestActiveKey(t *testing.T) {
	e := newBareEngine()

	back := scene.NewScene(scene.WithName("back"))
	front := scene.NewScene(scene.WithName("front"))
	e.AddScene(5, back)
	e.AddScene(1, front)

	got := e.activeScene()
	require.NotNil(t, got)
	assert.Equal(t, "front", got.Name())

	front.SetActive(false)
	got = e.activeScene()
	require.NotNil(t, got)
	assert.Equal(t, "back", got.Name())

	back.SetActive(false)
	assert.Nil(t, e.activeScene())
}

func TestSceneRegistry(t *testing.T) {
	e := newBareEngine()
	s := scene.NewScene(scene.WithName("world"))

	e.AddScene(0, s)
	assert.Equal(t, s, e.Scene(0))
	assert.Nil(t, e.Scene(1))

	cp := e.Scenes()
	assert.Len(t, cp, 1)
	delete(cp, 0)
	assert.Equal(t, s, e.Scene(0), "Scenes must return a copy")

	e.RemoveScene(0)
	assert.Nil(t, e.Scene(0))
}

func TestSetTickRateBeforeRunStoresRate(t *testing.T) {
	e := newBareEngine()

	e.SetTickRate(120)
	assert.Equal(t, time.Second/120, e.engineTickRate)

	e.SetTickRate(0)
	assert.Equal(t, time.Second/60, e.engineTickRate)
}

func TestSetTickRateWhileRunningReplacesPendingValue(t *testing.T) {
	e := newBareEngine()
	e.running = true

	e.SetTickRate(30)
	e.SetTickRate(144)

	select {
	case rate := <-e.tickRateChannel:
		assert.Equal(t, time.Second/144, rate)
	default:
		t.Fatal("expected a pending tick rate")
	}
}

func TestSetRenderFrameLimit(t *testing.T) {
	e := newBareEngine()

	e.SetRenderFrameLimit(60)
	assert.Equal(t, time.Second/60, e.renderFrameLimit)

	e.SetRenderFrameLimit(0)
	assert.Equal(t, time.Duration(0), e.renderFrameLimit)
}
