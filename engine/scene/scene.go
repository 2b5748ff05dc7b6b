// package scene holds the CPU-side world the renderer draws each frame:
// objects with transforms and animations, lights, an ambient term, an optional
// environment map, and the camera. The scene never touches the GPU; the
// renderer walks it once per frame through Items().
package scene

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/ember-gfx/ember-go/engine/camera"
	"github.com/ember-gfx/ember-go/engine/light"
	"github.com/ember-gfx/ember-go/engine/renderer/extract"
	"github.com/ember-gfx/ember-go/engine/resource"
)

// updateChunkSize is the number of objects each worker task advances during
// Update. Scenes below one chunk skip the pool entirely.
const updateChunkSize = 64

// Scene manages a registry of Objects along with lights, ambient lighting, an
// optional environment image, and a Camera. Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Add registers an object with the scene and assigns its ID.
	// Panics if the object carries no mesh or no material.
	//
	// Parameters:
	//   - obj: the Object to add
	//
	// Returns:
	//   - uint64: the assigned object ID
	Add(obj Object) uint64

	// Get retrieves an Object by its ID.
	// Returns nil if not found.
	//
	// Parameters:
	//   - id: the object's unique ID
	//
	// Returns:
	//   - Object: the object or nil
	Get(id uint64) Object

	// Remove removes an Object from the registry by ID.
	//
	// Parameters:
	//   - id: the object's unique ID
	Remove(id uint64)

	// Clear removes all objects from the scene. Lights are kept.
	Clear()

	// Count returns the number of registered objects.
	//
	// Returns:
	//   - int: the object count
	Count() int

	// Update advances camera matrices and all object animations. Large
	// scenes fan the animation work across the scene's worker pool.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last frame in seconds
	Update(deltaTime float32)

	// Objects returns every object in insertion order. The returned slice is
	// reused across calls and must not be retained.
	//
	// Returns:
	//   - []Object: the scene's objects
	Objects() []Object

	// Items builds the extraction snapshot for this frame: one entry per
	// visible object carrying its resolved world matrix, bounds, and
	// versioned geometry and material identities. The returned slice is
	// reused across calls and must not be retained.
	//
	// Returns:
	//   - []extract.Item: the visible object snapshot
	Items() []extract.Item

	// AddLight adds a light source to the scene. Lights are marshaled into a
	// GPU storage buffer each frame and passed to lit fragment shaders.
	//
	// Parameters:
	//   - l: the Light to add
	AddLight(l light.Light)

	// RemoveLight removes a light source from the scene by reference.
	//
	// Parameters:
	//   - l: the Light to remove
	RemoveLight(l light.Light)

	// Lights returns all lights currently registered in the scene.
	//
	// Returns:
	//   - []light.Light: the scene's light list
	Lights() []light.Light

	// ShadowLight returns the first enabled shadow-casting directional
	// light, or nil when the scene has none.
	//
	// Returns:
	//   - light.Light: the shadow light or nil
	ShadowLight() light.Light

	// AmbientColor returns the scene's ambient light color.
	//
	// Returns:
	//   - [3]float32: the ambient RGB color
	AmbientColor() [3]float32

	// SetAmbientColor sets the scene's ambient light color.
	//
	// Parameters:
	//   - color: the ambient RGB color
	SetAmbientColor(color [3]float32)

	// Environment returns the equirectangular environment image used for the
	// skybox and image-based lighting, or nil.
	//
	// Returns:
	//   - resource.Image: the environment image or nil
	Environment() resource.Image

	// SetEnvironment sets the equirectangular environment image.
	//
	// Parameters:
	//   - env: the environment image, or nil to clear
	SetEnvironment(env resource.Image)
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	cam camera.Camera

	nextID  uint64
	objects map[uint64]Object
	order   []uint64 // insertion order for deterministic snapshots

	lights      []light.Light
	ambient     [3]float32
	environment resource.Image

	// itemsScratch is reused across Items calls to avoid per-frame allocation.
	itemsScratch []extract.Item

	// objectsScratch is reused across Objects calls for the same reason.
	objectsScratch []Object

	// updatePool manages a bounded set of reusable goroutines for the
	// parallel animation advance in Update. Workers persist across frames.
	updatePool    worker.DynamicWorkerPool
	updateWorkers int
}

var _ Scene = &scene{}

// NewScene creates a new Scene with the provided options applied.
//
// Parameters:
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:            &sync.RWMutex{},
		name:          "scene",
		active:        true,
		nextID:        1,
		objects:       make(map[uint64]Object),
		ambient:       [3]float32{0.03, 0.03, 0.03},
		updateWorkers: max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(s)
	}
	s.updatePool = worker.NewDynamicWorkerPool(s.updateWorkers, 256, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Add(obj Object) uint64 {
	if obj.Mesh() == nil {
		panic("scene: object has no mesh")
	}
	if obj.Material() == nil {
		panic("scene: object has no material")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	if impl, ok := obj.(*objectImpl); ok {
		impl.mu.Lock()
		impl.id = id
		impl.mu.Unlock()
	}
	s.objects[id] = obj
	s.order = append(s.order, id)
	return id
}

func (s *scene) Get(id uint64) Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[id]; !ok {
		return
	}
	delete(s.objects, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = make(map[uint64]Object)
	s.order = s.order[:0]
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *scene) Update(deltaTime float32) {
	s.mu.RLock()
	cam := s.cam
	objs := make([]Object, 0, len(s.order))
	for _, id := range s.order {
		objs = append(objs, s.objects[id])
	}
	s.mu.RUnlock()

	if cam != nil {
		cam.Update()
	}

	if len(objs) <= updateChunkSize {
		for _, obj := range objs {
			obj.Update(deltaTime)
		}
		return
	}

	// Fan chunks across the persistent pool; a WaitGroup provides the
	// per-frame barrier.
	var wg sync.WaitGroup
	taskID := 0
	for start := 0; start < len(objs); start += updateChunkSize {
		end := min(start+updateChunkSize, len(objs))
		chunk := objs[start:end]
		wg.Add(1)
		id := taskID
		taskID++
		s.updatePool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for _, obj := range chunk {
					obj.Update(deltaTime)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (s *scene) Objects() []Object {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.objectsScratch = s.objectsScratch[:0]
	for _, id := range s.order {
		s.objectsScratch = append(s.objectsScratch, s.objects[id])
	}
	return s.objectsScratch
}

func (s *scene) Items() []extract.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.itemsScratch = s.itemsScratch[:0]
	for _, id := range s.order {
		obj := s.objects[id]
		if !obj.Visible() {
			continue
		}
		msh := obj.Mesh()
		mat := obj.Material()
		s.itemsScratch = append(s.itemsScratch, extract.Item{
			World:            obj.WorldMatrix(),
			Bounds:           msh.Bounds(),
			GeometryID:       msh.ID(),
			GeometryVersion:  msh.Version(),
			MaterialID:       mat.ID(),
			MaterialVersion:  mat.Version(),
			Transparent:      mat.Transparent(),
			UsesTransmission: mat.UsesTransmission(),
			CastsShadow:      obj.CastsShadow(),
		})
	}
	return s.itemsScratch
}

func (s *scene) AddLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, l)
}

func (s *scene) RemoveLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.lights {
		if existing == l {
			s.lights = append(s.lights[:i], s.lights[i+1:]...)
			return
		}
	}
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]light.Light, len(s.lights))
	copy(out, s.lights)
	return out
}

func (s *scene) ShadowLight() light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.lights {
		if l.Enabled() && l.CastsShadows() && l.Type() == light.LightTypeDirectional {
			return l
		}
	}
	return nil
}

func (s *scene) AmbientColor() [3]float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ambient
}

func (s *scene) SetAmbientColor(color [3]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambient = color
}

func (s *scene) Environment() resource.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.environment
}

func (s *scene) SetEnvironment(env resource.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.environment = env
}
