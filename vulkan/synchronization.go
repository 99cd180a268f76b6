package vulkan

import (
	vk "github.com/goki/vulkan"
)

// FrameSync holds the per frame-in-flight synchronization primitives.
// Index i belongs to frame slot i and is never shared with another slot.
type FrameSync struct {
	ImageAvailable []vk.Semaphore
	RenderFinished []vk.Semaphore
	InFlight       []vk.Fence
}

func CreateSemaphore(device *Device) (vk.Semaphore, error) {
	var sem vk.Semaphore
	ret := vk.CreateSemaphore(device.Device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &sem)
	return sem, check(ret, "failed to create semaphore")
}

func CreateFence(device *Device, signaled bool) (vk.Fence, error) {
	info := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	ret := vk.CreateFence(device.Device, &info, nil, &fence)
	return fence, check(ret, "failed to create fence")
}

// NewFrameSync creates frames sets of primitives; fences start signaled so
// the first wait on each slot returns immediately.
func NewFrameSync(device *Device, frames int) (*FrameSync, error) {
	s := &FrameSync{}
	for i := 0; i < frames; i++ {
		available, err := CreateSemaphore(device)
		if err != nil {
			s.Destroy(device)
			return nil, err
		}
		s.ImageAvailable = append(s.ImageAvailable, available)

		finished, err := CreateSemaphore(device)
		if err != nil {
			s.Destroy(device)
			return nil, err
		}
		s.RenderFinished = append(s.RenderFinished, finished)

		fence, err := CreateFence(device, true)
		if err != nil {
			s.Destroy(device)
			return nil, err
		}
		s.InFlight = append(s.InFlight, fence)
	}
	return s, nil
}

func (s *FrameSync) Destroy(device *Device) {
	for _, sem := range s.ImageAvailable {
		vk.DestroySemaphore(device.Device, sem, nil)
	}
	for _, sem := range s.RenderFinished {
		vk.DestroySemaphore(device.Device, sem, nil)
	}
	for _, fence := range s.InFlight {
		vk.DestroyFence(device.Device, fence, nil)
	}
	s.ImageAvailable, s.RenderFinished, s.InFlight = nil, nil, nil
}

func WaitFence(device *Device, fence vk.Fence) error {
	ret := vk.WaitForFences(device.Device, 1, []vk.Fence{fence}, vk.True, vk.MaxUint64)
	return check(ret, "failed to wait for fence")
}

func ResetFence(device *Device, fence vk.Fence) error {
	return check(vk.ResetFences(device.Device, 1, []vk.Fence{fence}), "failed to reset fence")
}

func SubmitQueue(queue vk.Queue, cmd vk.CommandBuffer, wait, signal vk.Semaphore, fence vk.Fence) error {
	ret := vk.QueueSubmit(queue, 1, []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{wait},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cmd},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{signal},
	}}, fence)
	return check(ret, "failed to submit draw command buffer")
}

func PresentQueue(queue vk.Queue, swapchain vk.Swapchain, imageIndex uint32, wait vk.Semaphore) error {
	ret := vk.QueuePresent(queue, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{swapchain},
		PImageIndices:      []uint32{imageIndex},
	})
	return presentResult(ret)
}

// acquireResult maps the result of vkAcquireNextImageKHR. A suboptimal
// swapchain still yields a usable image; recreation waits for present.
func acquireResult(ret vk.Result) error {
	switch ret {
	case vk.Success, vk.Suboptimal:
		return nil
	case vk.ErrorOutOfDate:
		return ErrSwapChainOutOfDate
	default:
		return check(ret, "failed to acquire swapchain image")
	}
}

func presentResult(ret vk.Result) error {
	switch ret {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return ErrSwapChainOutOfDate
	default:
		return check(ret, "failed to present swapchain image")
	}
}
