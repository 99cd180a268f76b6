package systems

import (
	"log/slog"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"voxel-engine/scene"
	"voxel-engine/vulkan"
)

// SimplePushConstantData is the per-draw push constant block: 128 bytes,
// visible to the vertex and fragment stages.
type SimplePushConstantData struct {
	ModelMatrix  mgl32.Mat4
	NormalMatrix mgl32.Mat4
}

const pushStages = vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit)

// SimpleRenderSystem draws every active object that has a model, filled,
// as lines or both according to its render mode.
type SimpleRenderSystem struct {
	device  *vulkan.Device
	layout  vk.PipelineLayout
	filled  *vulkan.Pipeline
	lines   *vulkan.Pipeline
	shaders ShaderSet
	log     *slog.Logger
}

func NewSimpleRenderSystem(device *vulkan.Device, renderPass vk.RenderPass, globalSetLayout vk.DescriptorSetLayout, shaders ShaderSet, log *slog.Logger) (*SimpleRenderSystem, error) {
	layout, err := vulkan.NewPipelineLayout(device, []vk.DescriptorSetLayout{globalSetLayout}, []vk.PushConstantRange{{
		StageFlags: pushStages,
		Offset:     0,
		Size:       uint32(unsafe.Sizeof(SimplePushConstantData{})),
	}})
	if err != nil {
		return nil, err
	}
	s := &SimpleRenderSystem{device: device, layout: layout, shaders: shaders, log: log}
	if err := s.Rebuild(renderPass); err != nil {
		vulkan.DestroyPipelineLayout(device, layout)
		return nil, err
	}
	return s, nil
}

// Rebuild recreates both pipelines against renderPass, re-reading the
// shaders. On failure the current pipelines are kept.
func (s *SimpleRenderSystem) Rebuild(renderPass vk.RenderPass) error {
	cfg := vulkan.DefaultPipelineConfig()
	cfg.BindingDescriptions = scene.VertexBindingDescriptions()
	cfg.AttributeDescriptions = scene.VertexAttributeDescriptions()
	cfg.RenderPass = renderPass
	cfg.PipelineLayout = s.layout

	pipelines, err := swapPipelines(s.device, s.shaders, []*vulkan.Pipeline{s.filled, s.lines}, cfg, vulkan.WireframeConfig(cfg))
	if err != nil {
		return errors.Wrap(err, "failed to build simple render pipelines")
	}
	s.filled, s.lines = pipelines[0], pipelines[1]
	s.log.Debug("simple render pipelines built", "vert", s.shaders.Vertex)
	return nil
}

// drawLists splits the drawable objects into the filled and line passes, in
// ascending id order. A BOTH object appears in both lists. With a non-nil
// frustum, objects whose bounds are outside it are skipped.
func drawLists(objects *scene.Objects, frustum *scene.Frustum) (filled, lines []*scene.GameObject) {
	for _, obj := range objects.Sorted() {
		if !obj.Drawable() {
			continue
		}
		if frustum != nil && !frustum.Intersects(obj.Model.Bounds().Transform(obj.Transform.Mat4())) {
			continue
		}
		switch {
		case obj.RenderMode == scene.RenderBoth:
			filled = append(filled, obj)
			lines = append(lines, obj)
		case obj.RenderMode == scene.RenderWireframe || obj.IsWireFrame:
			lines = append(lines, obj)
		default:
			filled = append(filled, obj)
		}
	}
	return filled, lines
}

func pushConstantsFor(obj *scene.GameObject) SimplePushConstantData {
	return SimplePushConstantData{
		ModelMatrix:  obj.Transform.Mat4(),
		NormalMatrix: obj.Transform.NormalMatrix().Mat4(),
	}
}

func (s *SimpleRenderSystem) Render(frame *scene.FrameInfo) {
	var frustum *scene.Frustum
	if frame.Camera != nil {
		f := scene.CameraFrustum(frame.Camera)
		frustum = &f
	}
	filled, lines := drawLists(frame.GameObjects, frustum)
	s.drawPass(frame, s.filled, filled)
	s.drawPass(frame, s.lines, lines)
}

func (s *SimpleRenderSystem) drawPass(frame *scene.FrameInfo, pipeline *vulkan.Pipeline, objects []*scene.GameObject) {
	if len(objects) == 0 {
		return
	}
	cmd := frame.CommandBuffer
	pipeline.Bind(cmd)
	bindGlobalSet(cmd, s.layout, frame.GlobalDescriptorSet)
	for _, obj := range objects {
		push := pushConstantsFor(obj)
		vk.CmdPushConstants(cmd, s.layout, pushStages, 0, uint32(unsafe.Sizeof(push)), unsafe.Pointer(&push))
		obj.Model.Bind(cmd)
		obj.Model.Draw(cmd)
	}
}

func (s *SimpleRenderSystem) Destroy() {
	if s.filled != nil {
		s.filled.Destroy()
	}
	if s.lines != nil {
		s.lines.Destroy()
	}
	vulkan.DestroyPipelineLayout(s.device, s.layout)
}
