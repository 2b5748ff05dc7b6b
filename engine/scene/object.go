package scene

import (
	"sync"

	"github.com/ember-gfx/ember-go/common"
	"github.com/ember-gfx/ember-go/engine/mesh"
	"github.com/ember-gfx/ember-go/engine/renderer/material"
)

// objectImpl is the implementation of the Object interface.
type objectImpl struct {
	mu *sync.RWMutex

	id   uint64
	name string

	mesh     mesh.Mesh
	material material.Material

	position [3]float32
	rotation [3]float32 // Euler angles in radians
	scale    [3]float32

	visible     bool
	castsShadow bool

	animation *Animation

	world      [16]float32
	worldDirty bool
}

// Object is a renderable scene entity: a mesh and material pair with a local
// transform, visibility flags, and an optional transform animation. The scene
// assigns the numeric ID on Add.
type Object interface {
	// ID returns the scene-assigned object ID, zero before Add.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Name retrieves the object identifier.
	//
	// Returns:
	//   - string: the object name
	Name() string

	// Mesh returns the object's geometry.
	//
	// Returns:
	//   - mesh.Mesh: the mesh, never nil for objects added to a scene
	Mesh() mesh.Mesh

	// Material returns the object's material.
	//
	// Returns:
	//   - material.Material: the material, never nil for objects added to a scene
	Material() material.Material

	// SetMaterial replaces the object's material.
	//
	// Parameters:
	//   - m: the new material
	SetMaterial(m material.Material)

	// Position returns the world-space position.
	//
	// Returns:
	//   - x, y, z: position components
	Position() (x, y, z float32)

	// SetPosition sets the world-space position.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetRotation sets the Euler rotation in radians.
	//
	// Parameters:
	//   - x, y, z: rotation about each axis in radians
	SetRotation(x, y, z float32)

	// SetScale sets the per-axis scale.
	//
	// Parameters:
	//   - x, y, z: scale components
	SetScale(x, y, z float32)

	// Visible reports whether the object is submitted for rendering.
	//
	// Returns:
	//   - bool: true when visible
	Visible() bool

	// SetVisible shows or hides the object.
	//
	// Parameters:
	//   - visible: true to render the object
	SetVisible(visible bool)

	// CastsShadow reports whether the object renders into the shadow map.
	//
	// Returns:
	//   - bool: true when the object casts shadows
	CastsShadow() bool

	// SetCastsShadow enables or disables shadow casting for the object.
	//
	// Parameters:
	//   - casts: true to render the object into the shadow map
	SetCastsShadow(casts bool)

	// Animation returns the attached transform animation, or nil.
	//
	// Returns:
	//   - *Animation: the animation or nil
	Animation() *Animation

	// SetAnimation attaches a transform animation. While attached, the
	// animation's sampled transform overrides the object's static transform
	// each Update. Pass nil to detach.
	//
	// Parameters:
	//   - a: the animation to attach, or nil
	SetAnimation(a *Animation)

	// WorldMatrix returns the current column-major world transform,
	// rebuilding it lazily after transform edits.
	//
	// Returns:
	//   - [16]float32: the world matrix
	WorldMatrix() [16]float32

	// Update advances the attached animation (if any) and applies its
	// sampled transform.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float32)
}

var _ Object = &objectImpl{}

// NewObject creates a scene object from a mesh and material with an identity
// transform.
//
// Parameters:
//   - name: the object identifier
//   - msh: the geometry to render
//   - mat: the material to render with
//
// Returns:
//   - Object: a new visible, shadow-casting Object
func NewObject(name string, msh mesh.Mesh, mat material.Material) Object {
	o := &objectImpl{
		mu:          &sync.RWMutex{},
		name:        name,
		mesh:        msh,
		material:    mat,
		scale:       [3]float32{1, 1, 1},
		visible:     true,
		castsShadow: true,
		worldDirty:  true,
	}
	return o
}

func (o *objectImpl) ID() uint64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.id
}

func (o *objectImpl) Name() string {
	return o.name
}

func (o *objectImpl) Mesh() mesh.Mesh {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.mesh
}

func (o *objectImpl) Material() material.Material {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.material
}

func (o *objectImpl) SetMaterial(m material.Material) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.material = m
}

func (o *objectImpl) Position() (x, y, z float32) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.position[0], o.position[1], o.position[2]
}

func (o *objectImpl) SetPosition(x, y, z float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.position = [3]float32{x, y, z}
	o.worldDirty = true
}

func (o *objectImpl) SetRotation(x, y, z float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rotation = [3]float32{x, y, z}
	o.worldDirty = true
}

func (o *objectImpl) SetScale(x, y, z float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scale = [3]float32{x, y, z}
	o.worldDirty = true
}

func (o *objectImpl) Visible() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.visible
}

func (o *objectImpl) SetVisible(visible bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.visible = visible
}

func (o *objectImpl) CastsShadow() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.castsShadow
}

func (o *objectImpl) SetCastsShadow(casts bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.castsShadow = casts
}

func (o *objectImpl) Animation() *Animation {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.animation
}

func (o *objectImpl) SetAnimation(a *Animation) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.animation = a
	o.worldDirty = true
}

func (o *objectImpl) WorldMatrix() [16]float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.worldDirty {
		common.BuildModelMatrix(o.world[:],
			o.position[0], o.position[1], o.position[2],
			o.rotation[0], o.rotation[1], o.rotation[2],
			o.scale[0], o.scale[1], o.scale[2],
		)
		o.worldDirty = false
	}
	return o.world
}

func (o *objectImpl) Update(dt float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.animation == nil {
		return
	}
	o.animation.Advance(dt)
	key := o.animation.Sample()
	o.position = key.Position
	o.rotation = key.Rotation
	o.scale = key.Scale
	o.worldDirty = true
}
