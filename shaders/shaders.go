// Package shaders holds the GLSL sources of the engine's pipelines. The
// compiled SPIR-V files next to them are loaded at run time.
package shaders

//go:generate glslc simple_shader.vert -o simple_shader.vert.spv
//go:generate glslc simple_shader.frag -o simple_shader.frag.spv
//go:generate glslc point_light.vert -o point_light.vert.spv
//go:generate glslc point_light.frag -o point_light.frag.spv
//go:generate glslc overlay.vert -o overlay.vert.spv
//go:generate glslc overlay.frag -o overlay.frag.spv
