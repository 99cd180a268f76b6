// Command voxel runs the chunked voxel renderer: a camera flies over a
// streamed block world lit by orbiting point lights, with a debug overlay.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/loov/hrtime"
	"github.com/pkg/errors"

	"voxel-engine/core"
	"voxel-engine/debug"
	modelio "voxel-engine/io"
	"voxel-engine/scene"
	"voxel-engine/systems"
	"voxel-engine/vulkan"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("voxel engine stopped", "err", fmt.Sprintf("%+v", err))
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := core.NewFlags("voxel")
	if err := flags.Parse(args); err != nil {
		return err
	}
	cfg, err := flags.Config()
	if err != nil {
		return err
	}
	log, err := core.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	a := &app{cfg: cfg, log: log, timer: debug.NewTimer(log, cfg.Debug.Timers)}
	defer a.teardown()
	if err := a.init(flags.ModelPath()); err != nil {
		return err
	}
	return a.loop()
}

// app owns every engine resource. Resources are released in reverse order
// of creation.
type app struct {
	cfg   core.Config
	log   *slog.Logger
	timer *debug.Timer

	window   *core.Window
	device   *vulkan.Device
	renderer *vulkan.Renderer

	globalLayout *vulkan.DescriptorSetLayout
	uboBuffers   [vulkan.MaxFramesInFlight]*vulkan.Buffer
	globalSets   [vulkan.MaxFramesInFlight]vk.DescriptorSet

	simple  *systems.SimpleRenderSystem
	lights  *systems.PointLightSystem
	gui     *debug.Gui
	watcher *core.Watcher

	objects         *scene.Objects
	world           *scene.World
	loadingDisabled bool
	running         bool
	// deferred holds events received while waiting out a minimized window.
	deferred        []core.Event

	cleanup []func()
}

func (a *app) onClose(fn func()) {
	a.cleanup = append(a.cleanup, fn)
}

func (a *app) teardown() {
	if a.device != nil {
		a.device.WaitIdle()
	}
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

func (a *app) init(modelPath string) error {
	var err error
	if a.window, err = core.NewWindow(a.cfg.Window); err != nil {
		return err
	}
	a.onClose(a.window.Destroy)

	icfg := vulkan.DefaultInstanceConfig()
	icfg.AppName = a.cfg.Window.Title
	icfg.EnableValidation = a.cfg.Graphics.Validation
	icfg.RequiredExtensions = a.window.RequiredInstanceExtensions()
	instance, err := vulkan.NewInstance(icfg, a.log)
	if err != nil {
		return err
	}
	a.onClose(instance.Destroy)

	surface, err := a.window.CreateSurface(instance.Handle)
	if err != nil {
		return err
	}
	if a.device, err = vulkan.NewDevice(instance, surface, a.log); err != nil {
		vk.DestroySurface(instance.Handle, surface, nil)
		return err
	}
	a.onClose(a.device.Destroy)
	a.log.Info("selected GPU", "name", a.device.GPUName(), "type", a.device.DeviceType())

	if a.renderer, err = vulkan.NewRenderer(a.device, a.window.Extent, a.cfg.Graphics.VSync, a.log); err != nil {
		return err
	}
	a.onClose(a.renderer.Destroy)
	a.renderer.OnRecreate(func(formatsChanged bool) {
		if formatsChanged {
			a.rebuildPipelines()
		}
	})

	if err := a.initGlobalDescriptors(); err != nil {
		return err
	}
	if err := a.initSystems(); err != nil {
		return err
	}
	if err := a.initScene(modelPath); err != nil {
		return err
	}

	if a.cfg.Debug.WatchShaders {
		if a.watcher, err = core.NewWatcher(a.cfg.Graphics.Shaders, a.log); err != nil {
			a.log.Warn("shader hot reload disabled", "err", err)
		} else {
			a.onClose(func() { a.watcher.Close() })
		}
	}
	return nil
}

func (a *app) initGlobalDescriptors() error {
	pool, err := vulkan.NewDescriptorPool(a.device, vulkan.GlobalPoolConfig())
	if err != nil {
		return err
	}
	a.onClose(pool.Destroy)

	a.globalLayout, err = vulkan.NewDescriptorSetLayout(a.device, vulkan.DescriptorSetLayoutConfig{
		Bindings: []vk.DescriptorSetLayoutBinding{
			vulkan.UniformBufferBinding(0, vk.ShaderStageFlags(vk.ShaderStageAllGraphics)),
		},
	})
	if err != nil {
		return err
	}
	a.onClose(a.globalLayout.Destroy)

	uboSize := vk.DeviceSize(unsafe.Sizeof(scene.GlobalUbo{}))
	for i := range a.uboBuffers {
		buf, err := vulkan.NewBuffer(a.device, uboSize, 1,
			vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit),
			a.device.MinUniformBufferOffsetAlignment())
		if err != nil {
			return errors.Wrap(err, "failed to create global uniform buffer")
		}
		a.onClose(buf.Destroy)
		if err := buf.Map(); err != nil {
			return err
		}
		a.uboBuffers[i] = buf

		set, err := pool.AllocateDescriptorSet(a.globalLayout)
		if err != nil {
			return errors.Wrap(err, "failed to allocate global descriptor set")
		}
		info := buf.DescriptorInfo()
		err = vulkan.DescriptorWriter{
			Layout: a.globalLayout,
			Writes: []vulkan.DescriptorWrite{{Binding: 0, Buffer: &info}},
		}.Write(a.device, set)
		if err != nil {
			return err
		}
		a.globalSets[i] = set
	}
	return nil
}

func (a *app) initSystems() error {
	dir := a.cfg.Graphics.Shaders
	renderPass := a.renderer.RenderPass()
	var err error

	a.simple, err = systems.NewSimpleRenderSystem(a.device, renderPass, a.globalLayout.Handle,
		systems.ShaderSetIn(dir, "simple_shader"), a.log)
	if err != nil {
		return err
	}
	a.onClose(a.simple.Destroy)

	a.lights, err = systems.NewPointLightSystem(a.device, renderPass, a.globalLayout.Handle,
		systems.ShaderSetIn(dir, "point_light"), a.log)
	if err != nil {
		return err
	}
	a.onClose(a.lights.Destroy)

	if a.cfg.Debug.Overlay {
		overlay := systems.ShaderSetIn(dir, "overlay")
		a.gui, err = debug.NewGui(a.device, renderPass, a.window.Handle, overlay.Vertex, overlay.Fragment, a.log)
		if err != nil {
			return err
		}
		a.onClose(a.gui.Destroy)
		a.gui.Overlay.BordersVisible = a.cfg.World.ShowBorders
		a.window.SetInputHandler(a.gui)
	}
	return nil
}

var lightColors = []mgl32.Vec3{
	{1, .1, .1},
	{.1, .1, 1},
	{.1, 1, .1},
	{1, 1, .1},
	{.1, 1, 1},
	{1, 1, 1},
}

func (a *app) initScene(modelPath string) error {
	a.objects = scene.NewObjects()
	a.onClose(a.objects.Clear)

	var err error
	alloc := scene.DeviceAllocator{Device: a.device}
	a.world, err = scene.NewWorld(alloc, a.objects, scene.DefaultLevel(), a.cfg.World.Radius, a.log)
	if err != nil {
		return err
	}
	a.onClose(a.world.Destroy)
	a.world.ShowBorders = a.cfg.World.ShowBorders

	for i, color := range lightColors {
		light := a.objects.CreatePointLight(0.8, 0.2, color)
		angle := float32(i) * math32.Pi * 2 / float32(len(lightColors))
		rotate := mgl32.HomogRotate3D(angle, mgl32.Vec3{0, -1, 0})
		light.Transform.Translation = rotate.Mul4x1(mgl32.Vec4{-4, -3, -4, 1}).Vec3()
	}

	if modelPath == "" {
		return nil
	}
	b, err := modelio.LoadModel(modelPath)
	if err != nil {
		return err
	}
	model, err := scene.NewModel(alloc, b)
	if err != nil {
		return errors.Wrapf(err, "failed to upload %s", filepath.Base(modelPath))
	}
	obj := a.objects.Create()
	obj.SetModel(model, true)
	obj.Transform.Translation = mgl32.Vec3{scene.ChunkSize / 2, -scene.ChunkDepth, scene.ChunkSize / 2}
	a.log.Info("model loaded", "path", modelPath, "vertices", model.VertexCount())
	return nil
}

func (a *app) rebuildPipelines() {
	a.device.WaitIdle()
	renderPass := a.renderer.RenderPass()
	if err := a.simple.Rebuild(renderPass); err != nil {
		a.log.Warn("keeping previous pipelines", "err", err)
	}
	if err := a.lights.Rebuild(renderPass); err != nil {
		a.log.Warn("keeping previous pipelines", "err", err)
	}
	if a.gui != nil {
		if err := a.gui.Rebuild(renderPass); err != nil {
			a.log.Warn("keeping previous pipelines", "err", err)
		}
	}
}

func (a *app) dispatcher() *core.Dispatcher {
	d := core.NewDispatcher()
	d.On(core.EventWindowResize, func(e core.Event) bool {
		a.log.Debug(e.String())
		a.window.ResetResized()
		a.renderer.MarkResized()
		return true
	})
	d.On(core.EventWindowClose, func(e core.Event) bool {
		a.running = false
		return true
	})
	d.On(core.EventShadersChanged, func(e core.Event) bool {
		a.log.Info("reloading shaders")
		a.rebuildPipelines()
		return true
	})
	return d
}

// uiKeys hides the keyboard from the camera while the overlay has focus.
type uiKeys struct {
	keys scene.KeyState
	gui  *debug.Gui
}

func (k uiKeys) KeyPressed(key scene.Key) bool {
	if k.gui != nil && k.gui.WantsKeyboard() {
		return false
	}
	return k.keys.KeyPressed(key)
}

func (a *app) loop() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if a.watcher != nil {
		go a.watcher.Run(ctx)
	}

	events := a.dispatcher()
	camera := scene.NewCamera()
	viewer := &scene.GameObject{Transform: scene.NewTransform(), IsActive: true}
	viewer.Transform.Translation = mgl32.Vec3{scene.ChunkSize / 2, -2 * scene.ChunkDepth, -scene.ChunkSize / 2}
	viewer.Transform.Rotation[0] = -0.6
	controller := scene.NewKeyboardMovementController(a.cfg.World.MoveSpeed, a.cfg.World.LookSpeed)
	keys := uiKeys{keys: a.window, gui: a.gui}
	ubo := scene.NewGlobalUbo()

	a.running = true
	last := hrtime.Now()
	for a.running && !a.window.ShouldClose() {
		pending := append(a.deferred, a.window.PollEvents()...)
		a.deferred = nil
		if a.watcher != nil {
			if e, ok := a.watcher.Poll(); ok {
				pending = append(pending, e)
			}
		}
		events.DispatchAll(pending)

		now := hrtime.Now()
		frameTime := float32((now - last).Seconds())
		last = now

		controller.MoveInPlaneXZ(keys, frameTime, viewer)
		camera.SetViewYXZ(viewer.Transform.Translation, viewer.Transform.Rotation)
		camera.SetPerspectiveProjection(mgl32.DegToRad(a.cfg.Graphics.FOV), a.renderer.AspectRatio(),
			a.cfg.Graphics.Near, a.cfg.Graphics.Far)

		if a.gui != nil {
			a.world.ShowBorders = a.gui.Overlay.BordersVisible
		}
		stop := a.timer.Start("world update")
		err := a.world.Update(ctx, camera.Position(), a.loadingDisabled)
		stop()
		if err != nil {
			return err
		}

		if err := a.drawFrame(camera, &ubo, frameTime); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) drawFrame(camera *scene.Camera, ubo *scene.GlobalUbo, frameTime float32) error {
	defer a.timer.Start("frame")()

	ok, err := a.renderer.Frame(func(cmd vk.CommandBuffer) error {
		frameIndex := a.renderer.FrameIndex()
		frame := &scene.FrameInfo{
			FrameIndex:           frameIndex,
			FrameTime:            frameTime,
			CommandBuffer:        cmd,
			Camera:               camera,
			GlobalDescriptorSet:  a.globalSets[frameIndex],
			GameObjects:          a.objects,
			ChunkLoadingDisabled: &a.loadingDisabled,
		}

		ubo.SetCamera(camera)
		a.lights.Update(frame, ubo)
		buf := a.uboBuffers[frameIndex]
		if err := buf.WriteToBuffer(vulkan.Bytes(ubo), 0); err != nil {
			return err
		}
		if err := buf.Flush(); err != nil {
			return err
		}

		a.simple.Render(frame)
		a.lights.Render(frame)
		if a.gui != nil {
			a.gui.NewFrame(frame)
			a.gui.Draw(frame, a.world.ChunkBorderIDs())
			if err := a.gui.Render(cmd); err != nil {
				a.log.Warn("overlay skipped", "err", err)
			}
		}
		return nil
	})
	if err == nil && !ok {
		if e := a.window.Extent(); e.Width == 0 || e.Height == 0 {
			a.deferred = a.window.WaitEvents()
		}
	}
	return err
}
