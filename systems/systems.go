// Package systems contains the render systems that record draw commands for
// the scene during the swapchain render pass.
package systems

import (
	"path/filepath"

	vk "github.com/goki/vulkan"

	"voxel-engine/vulkan"
)

// ShaderSet names the compiled SPIR-V stages of one pipeline.
type ShaderSet struct {
	Vertex   string
	Fragment string
}

// ShaderSetIn returns the .vert.spv and .frag.spv pair called name in dir.
func ShaderSetIn(dir, name string) ShaderSet {
	return ShaderSet{
		Vertex:   filepath.Join(dir, name+".vert.spv"),
		Fragment: filepath.Join(dir, name+".frag.spv"),
	}
}

func bindGlobalSet(cmd vk.CommandBuffer, layout vk.PipelineLayout, set vk.DescriptorSet) {
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, layout, 0, 1, []vk.DescriptorSet{set}, 0, nil)
}

// swapPipelines builds every pipeline from configs and only replaces old
// once all of them succeeded, so a broken shader keeps the previous
// pipelines running.
func swapPipelines(device *vulkan.Device, shaders ShaderSet, old []*vulkan.Pipeline, configs ...vulkan.PipelineConfig) ([]*vulkan.Pipeline, error) {
	built := make([]*vulkan.Pipeline, 0, len(configs))
	for _, cfg := range configs {
		p, err := vulkan.NewPipeline(device, shaders.Vertex, shaders.Fragment, cfg)
		if err != nil {
			for _, b := range built {
				b.Destroy()
			}
			return old, err
		}
		built = append(built, p)
	}
	for _, p := range old {
		if p != nil {
			p.Destroy()
		}
	}
	return built, nil
}
