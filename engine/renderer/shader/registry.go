package shader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/fsnotify/fsnotify"
)

// registry is the implementation of the Registry interface.
type registry struct {
	logger *log.Logger

	mu        sync.RWMutex
	templates map[string]string

	watcher *fsnotify.Watcher
	done    chan struct{}

	// modules caches compiled shader modules by source hash so pipelines
	// sharing a vertex or fragment stage compile it once.
	modules map[uint64]*wgpu.ShaderModule
}

// Registry holds the WGSL template set and the compiled-module cache. When a
// watched template directory changes on disk, the template text is replaced;
// pipelines pick up the new source lazily because the expanded code hash no
// longer matches any cached canonical key.
type Registry interface {
	// Register adds or replaces a template under a key.
	//
	// Parameters:
	//   - key: the template key (e.g. "pbr", "tone_map")
	//   - source: the raw WGSL template source
	Register(key, source string)

	// Template returns the raw template source for a key.
	//
	// Parameters:
	//   - key: the template key
	//
	// Returns:
	//   - string: the template source
	//   - bool: false if no template is registered under the key
	Template(key string) (string, bool)

	// LoadDir registers every .wgsl file in dir under its base name without
	// extension.
	//
	// Parameters:
	//   - dir: directory containing .wgsl template files
	//
	// Returns:
	//   - error: read failure
	LoadDir(dir string) error

	// Watch starts an fsnotify watcher on dir; changed .wgsl files are
	// re-registered in place. Used during development for shader hot reload.
	//
	// Parameters:
	//   - dir: directory to watch
	//
	// Returns:
	//   - error: watcher setup failure
	Watch(dir string) error

	// ModuleFor returns the compiled module for a shader, compiling and
	// caching it on first sight of its code hash.
	//
	// Parameters:
	//   - device: the WebGPU device used for compilation
	//   - sh: the expanded shader
	//
	// Returns:
	//   - *wgpu.ShaderModule: the compiled module
	//   - error: compilation failure
	ModuleFor(device *wgpu.Device, sh Shader) (*wgpu.ShaderModule, error)

	// Release stops the watcher and frees every cached module.
	Release()
}

var _ Registry = &registry{}

// NewRegistry creates an empty shader registry.
//
// Parameters:
//   - opts: a variadic list of RegistryOption functions
//
// Returns:
//   - Registry: a new Registry instance
func NewRegistry(opts ...RegistryOption) Registry {
	r := &registry{
		logger:    log.WithPrefix("shader"),
		templates: make(map[string]string),
		modules:   make(map[uint64]*wgpu.ShaderModule),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *registry) Register(key, source string) {
	r.mu.Lock()
	r.templates[key] = source
	r.mu.Unlock()
}

func (r *registry) Template(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.templates[key]
	return src, ok
}

func (r *registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read shader dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".wgsl") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read shader %s: %w", entry.Name(), err)
		}
		r.Register(strings.TrimSuffix(entry.Name(), ".wgsl"), string(data))
	}
	return nil
}

func (r *registry) Watch(dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create shader watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch shader dir %s: %w", dir, err)
	}
	r.watcher = watcher

	go func() {
		for {
			select {
			case <-r.done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if !strings.HasSuffix(event.Name, ".wgsl") {
					continue
				}
				data, err := os.ReadFile(event.Name)
				if err != nil {
					r.logger.Warn("failed to reload shader", "file", event.Name, "err", err)
					continue
				}
				key := strings.TrimSuffix(filepath.Base(event.Name), ".wgsl")
				r.Register(key, string(data))
				r.logger.Info("reloaded shader template", "key", key)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Warn("shader watcher error", "err", err)
			}
		}
	}()
	return nil
}

func (r *registry) ModuleFor(device *wgpu.Device, sh Shader) (*wgpu.ShaderModule, error) {
	r.mu.RLock()
	module, ok := r.modules[sh.CodeHash()]
	r.mu.RUnlock()
	if ok {
		return module, nil
	}

	module, err := device.CreateShaderModule(sh.ModuleDescriptor())
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader %s: %w", sh.Key(), err)
	}

	r.mu.Lock()
	r.modules[sh.CodeHash()] = module
	r.mu.Unlock()
	return module, nil
}

func (r *registry) Release() {
	close(r.done)
	if r.watcher != nil {
		r.watcher.Close()
		r.watcher = nil
	}
	r.mu.Lock()
	for hash, module := range r.modules {
		module.Release()
		delete(r.modules, hash)
	}
	r.mu.Unlock()
}
