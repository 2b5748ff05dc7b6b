package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCameraWithoutControllerKeepsIdentity(t *testing.T) {
	cam := NewCamera()
	cam.Update()
	view := cam.ViewMatrix()
	assert.Equal(t, float32(1), view[0])
	assert.Equal(t, float32(1), view[5])
	x, y, z := cam.Position()
	assert.Zero(t, x)
	assert.Zero(t, y)
	assert.Zero(t, z)
}

func TestCameraMatricesFollowController(t *testing.T) {
	ctrl := NewCameraController()
	ctrl.SetTarget(0, 0, 0)
	cam := NewCamera(WithController(ctrl), WithAspect(16.0/9.0))

	before := cam.ViewProjectionMatrix()
	ctrl.SetAzimuth(math32.Pi / 3)
	cam.Update()
	after := cam.ViewProjectionMatrix()
	assert.NotEqual(t, before, after)
}

func TestControllerSphericalPosition(t *testing.T) {
	ctrl := NewCameraController()
	ctrl.SetTarget(0, 0, 0)
	ctrl.SetElevation(0.05)
	ctrl.SetAzimuth(0)
	ctrl.SetRadius(10)

	x, y, z := ctrl.Position()
	// azimuth 0 looks down +Z, elevation lifts off the plane
	assert.InDelta(t, 0, x, 1e-4)
	assert.InDelta(t, 10*math32.Sin(0.05), y, 1e-4)
	assert.InDelta(t, 10*math32.Cos(0.05), z, 1e-4)
}

func TestControllerClampsRadiusAndElevation(t *testing.T) {
	ctrl := NewCameraController()
	ctrl.SetRadius(1e6)
	assert.Equal(t, ctrl.MaxRadius(), ctrl.Radius())
	ctrl.SetRadius(0)
	assert.Equal(t, ctrl.MinRadius(), ctrl.Radius())

	ctrl.SetElevation(math32.Pi)
	assert.Equal(t, ctrl.MaxElevation(), ctrl.Elevation())
	ctrl.SetElevation(-math32.Pi)
	assert.Equal(t, ctrl.MinElevation(), ctrl.Elevation())
}

func TestPanPreservesOrbitOffset(t *testing.T) {
	ctrl := NewCameraController()
	ctrl.SetTarget(0, 0, 0)
	px, py, pz := ctrl.Position()
	tx, ty, tz := ctrl.Target()

	ctrl.PanRight(3)
	ctrl.PanUp(-1)

	px2, py2, pz2 := ctrl.Position()
	tx2, ty2, tz2 := ctrl.Target()
	assert.InDelta(t, px-tx, px2-tx2, 1e-4)
	assert.InDelta(t, py-ty, py2-ty2, 1e-4)
	assert.InDelta(t, pz-tz, pz2-tz2, 1e-4)
}

func TestUniformForCapturesPositionAndViewProj(t *testing.T) {
	ctrl := NewCameraController()
	cam := NewCamera(WithController(ctrl))
	u := UniformFor(cam)

	px, py, pz := cam.Position()
	assert.Equal(t, [3]float32{px, py, pz}, u.CameraPosition)
	assert.Equal(t, cam.ViewProjectionMatrix(), u.ViewProj)

	require.Equal(t, 80, u.Size())
	assert.Len(t, u.Marshal(), 80)
}
