package scene

import vk "github.com/goki/vulkan"

// FrameInfo is the per-frame context handed to render systems. It is only
// valid between BeginFrame and EndFrame of the frame it was built for.
type FrameInfo struct {
	FrameIndex          int
	FrameTime           float32
	CommandBuffer       vk.CommandBuffer
	Camera              *Camera
	GlobalDescriptorSet vk.DescriptorSet
	GameObjects         *Objects

	// ChunkLoadingDisabled points at the loop's streaming switch so the
	// overlay can flip it.
	ChunkLoadingDisabled *bool
}
