package systems

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"voxel-engine/scene"
	"voxel-engine/vulkan"
)

// lightOrbitSpeed is the rotation of every light about the vertical axis,
// in radians per second.
const lightOrbitSpeed = 0.5

// lightVertexCount is the two-triangle billboard each light instance draws.
const lightVertexCount = 6

// PointLightSystem animates the point lights, packs them into the global
// uniform block and draws them as alpha-blended billboards.
type PointLightSystem struct {
	device   *vulkan.Device
	layout   vk.PipelineLayout
	pipeline *vulkan.Pipeline
	shaders  ShaderSet
	log      *slog.Logger

	lightCount       int
	overflowReported bool
}

func NewPointLightSystem(device *vulkan.Device, renderPass vk.RenderPass, globalSetLayout vk.DescriptorSetLayout, shaders ShaderSet, log *slog.Logger) (*PointLightSystem, error) {
	layout, err := vulkan.NewPipelineLayout(device, []vk.DescriptorSetLayout{globalSetLayout}, nil)
	if err != nil {
		return nil, err
	}
	s := &PointLightSystem{device: device, layout: layout, shaders: shaders, log: log}
	if err := s.Rebuild(renderPass); err != nil {
		vulkan.DestroyPipelineLayout(device, layout)
		return nil, err
	}
	return s, nil
}

// Rebuild recreates the billboard pipeline against renderPass. On failure
// the current pipeline is kept.
func (s *PointLightSystem) Rebuild(renderPass vk.RenderPass) error {
	cfg := vulkan.EnableAlphaBlending(vulkan.DefaultPipelineConfig())
	cfg.RenderPass = renderPass
	cfg.PipelineLayout = s.layout

	pipelines, err := swapPipelines(s.device, s.shaders, []*vulkan.Pipeline{s.pipeline}, cfg)
	if err != nil {
		return errors.Wrap(err, "failed to build point light pipeline")
	}
	s.pipeline = pipelines[0]
	s.log.Debug("point light pipeline built", "vert", s.shaders.Vertex)
	return nil
}

// Update orbits the lights and writes them into ubo. Lights beyond
// scene.MaxLights are not drawn; the first overflow is logged.
func (s *PointLightSystem) Update(frame *scene.FrameInfo, ubo *scene.GlobalUbo) {
	rotation := mgl32.HomogRotate3D(lightOrbitSpeed*frame.FrameTime, mgl32.Vec3{0, -1, 0})
	frame.GameObjects.Each(func(obj *scene.GameObject) {
		if obj.PointLight == nil {
			return
		}
		t := &obj.Transform
		t.Translation = rotation.Mul4x1(t.Translation.Vec4(1)).Vec3()
	})

	packed, dropped := scene.PackLights(ubo, frame.GameObjects)
	s.lightCount = packed
	if dropped > 0 && !s.overflowReported {
		s.overflowReported = true
		s.log.Warn("too many point lights, extra lights are not rendered",
			"max", scene.MaxLights, "dropped", dropped)
	}
}

// LightCount is the number of lights packed by the last Update.
func (s *PointLightSystem) LightCount() int {
	return s.lightCount
}

func (s *PointLightSystem) Render(frame *scene.FrameInfo) {
	if s.lightCount == 0 {
		return
	}
	cmd := frame.CommandBuffer
	s.pipeline.Bind(cmd)
	bindGlobalSet(cmd, s.layout, frame.GlobalDescriptorSet)
	vk.CmdDraw(cmd, lightVertexCount, uint32(s.lightCount), 0, 0)
}

func (s *PointLightSystem) Destroy() {
	if s.pipeline != nil {
		s.pipeline.Destroy()
	}
	vulkan.DestroyPipelineLayout(s.device, s.layout)
}
