package renderer

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/ember-gfx/ember-go/engine/renderer/graph"
	"github.com/ember-gfx/ember-go/engine/renderer/settings"
	"github.com/ember-gfx/ember-go/engine/window"
)

// wgpuRendererBackend is the WebGPU implementation of RendererBackend.
type wgpuRendererBackend struct {
	logger   *log.Logger
	settings *settings.RenderSettings

	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat wgpu.TextureFormat
	width         uint32
	height        uint32

	// sceneTexture is the single-sample scene color target; with MSAA the
	// passes render into msaaView and resolve into it.
	sceneTexture *wgpu.Texture
	sceneView    *wgpu.TextureView
	msaaTexture  *wgpu.Texture
	msaaView     *wgpu.TextureView
	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView

	shadowTexture *wgpu.Texture
	shadowView    *wgpu.TextureView
	shadowSize    uint32

	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ RendererBackend = &wgpuRendererBackend{}

// newWGPURendererBackend creates the backend against a window's surface,
// negotiates the adapter and device, and builds the initial frame targets.
//
// Parameters:
//   - win: the window providing the surface descriptor and initial size
//   - s: the render settings
//   - logger: the renderer's logger
//
// Returns:
//   - RendererBackend: the initialized backend
//   - error: adapter, device, or target creation failure
func newWGPURendererBackend(win window.Window, s *settings.RenderSettings, logger *log.Logger) (RendererBackend, error) {
	runtime.LockOSThread()

	b := &wgpuRendererBackend{
		logger:   logger,
		settings: s,
		instance: wgpu.CreateInstance(nil),
	}

	descriptor := win.SurfaceDescriptor()
	if descriptor == nil {
		return nil, errors.New("window has no surface descriptor")
	}
	b.surface = b.instance.CreateSurface(descriptor)

	power := wgpu.PowerPreferenceHighPerformance
	if s.PowerPreference == settings.PowerPreferenceLowPower {
		power = wgpu.PowerPreferenceLowPower
	}
	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: b.surface,
		PowerPreference:   power,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "ember device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()

	if err := b.Resize(uint32(win.Width()), uint32(win.Height())); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *wgpuRendererBackend) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackend) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackend) SurfaceFormat() wgpu.TextureFormat {
	return b.surfaceFormat
}

func (b *wgpuRendererBackend) ShadowView() *wgpu.TextureView {
	return b.shadowView
}

func (b *wgpuRendererBackend) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	b.width = width
	b.height = height

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       width,
		Height:      height,
		PresentMode: b.settings.PresentMode(),
		AlphaMode:   capabilities.AlphaModes[0],
	})

	return b.RebuildTargets()
}

func (b *wgpuRendererBackend) RebuildTargets() error {
	b.releaseSceneTargets()

	samples := b.settings.MSAASamples
	if samples == 0 {
		samples = 1
	}
	colorFormat := b.settings.ColorFormat()

	// The single-sample scene color is sampled by the tone map pass and
	// copied by the transmission pass, so it needs more than attachment
	// usage.
	sceneTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "scene color",
		Size: wgpu.Extent3D{
			Width:              b.width,
			Height:             b.height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        colorFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("failed to create scene color texture: %w", err)
	}
	sceneView, err := sceneTexture.CreateView(nil)
	if err != nil {
		sceneTexture.Release()
		return fmt.Errorf("failed to create scene color view: %w", err)
	}
	b.sceneTexture = sceneTexture
	b.sceneView = sceneView

	if samples > 1 {
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "scene color msaa",
			Size: wgpu.Extent3D{
				Width:              b.width,
				Height:             b.height,
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   samples,
			Dimension:     wgpu.TextureDimension2D,
			Format:        colorFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return fmt.Errorf("failed to create msaa texture: %w", err)
		}
		msaaView, err := msaaTexture.CreateView(nil)
		if err != nil {
			msaaTexture.Release()
			return fmt.Errorf("failed to create msaa view: %w", err)
		}
		b.msaaTexture = msaaTexture
		b.msaaView = msaaView
	}

	// Depth sample count must match the color attachment it pairs with.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "scene depth",
		Size: wgpu.Extent3D{
			Width:              b.width,
			Height:             b.height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        b.settings.DepthFormat(),
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("failed to create depth texture: %w", err)
	}
	depthView, err := depthTexture.CreateView(nil)
	if err != nil {
		depthTexture.Release()
		return fmt.Errorf("failed to create depth view: %w", err)
	}
	b.depthTexture = depthTexture
	b.depthView = depthView

	if err := b.ensureShadowMap(); err != nil {
		return err
	}

	b.logger.Debug("rebuilt frame targets",
		"width", b.width, "height", b.height,
		"samples", samples, "color_format", colorFormat)
	return nil
}

// ensureShadowMap creates or recreates the shadow map when the configured
// size changes. It is independent of the surface size.
func (b *wgpuRendererBackend) ensureShadowMap() error {
	size := b.settings.ShadowMapSize
	if size == 0 {
		size = 1
	}
	if b.shadowTexture != nil && b.shadowSize == size {
		return nil
	}
	if b.shadowView != nil {
		b.shadowView.Release()
		b.shadowView = nil
	}
	if b.shadowTexture != nil {
		b.shadowTexture.Release()
		b.shadowTexture = nil
	}

	shadowTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "shadow map",
		Size: wgpu.Extent3D{
			Width:              size,
			Height:             size,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth32Float,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("failed to create shadow map: %w", err)
	}
	shadowView, err := shadowTexture.CreateView(nil)
	if err != nil {
		shadowTexture.Release()
		return fmt.Errorf("failed to create shadow map view: %w", err)
	}
	b.shadowTexture = shadowTexture
	b.shadowView = shadowView
	b.shadowSize = size
	return nil
}

func (b *wgpuRendererBackend) AcquireFrame() (*graph.FrameResources, error) {
	if b.frameSurface != nil {
		return nil, errors.New("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return nil, err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, err
	}
	b.frameSurface = surfaceTexture
	b.frameView = view

	samples := b.settings.MSAASamples
	if samples == 0 {
		samples = 1
	}

	frame := &graph.FrameResources{
		SurfaceView:   view,
		SceneTexture:  b.sceneTexture,
		DepthView:     b.depthView,
		ShadowView:    b.shadowView,
		ShadowSize:    b.shadowSize,
		ShadowFormat:  wgpu.TextureFormatDepth32Float,
		Width:         b.width,
		Height:        b.height,
		SampleCount:   samples,
		ColorFormat:   b.settings.ColorFormat(),
		SurfaceFormat: b.surfaceFormat,
		DepthFormat:   b.settings.DepthFormat(),
	}
	if samples > 1 {
		frame.SceneView = b.msaaView
		frame.SceneResolveView = b.sceneView
	} else {
		frame.SceneView = b.sceneView
	}
	return frame, nil
}

func (b *wgpuRendererBackend) Present() {
	if b.frameSurface == nil {
		return
	}
	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

// releaseSceneTargets frees the surface-sized attachments. The shadow map is
// handled separately because its size is settings-driven.
func (b *wgpuRendererBackend) releaseSceneTargets() {
	if b.depthView != nil {
		b.depthView.Release()
		b.depthView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
	if b.msaaView != nil {
		b.msaaView.Release()
		b.msaaView = nil
	}
	if b.msaaTexture != nil {
		b.msaaTexture.Release()
		b.msaaTexture = nil
	}
	if b.sceneView != nil {
		b.sceneView.Release()
		b.sceneView = nil
	}
	if b.sceneTexture != nil {
		b.sceneTexture.Release()
		b.sceneTexture = nil
	}
}

func (b *wgpuRendererBackend) Release() {
	b.Present()
	b.releaseSceneTargets()
	if b.shadowView != nil {
		b.shadowView.Release()
		b.shadowView = nil
	}
	if b.shadowTexture != nil {
		b.shadowTexture.Release()
		b.shadowTexture = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
