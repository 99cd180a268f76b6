// Package vulkan wraps the Vulkan objects the voxel engine renders with:
// instance, device, swapchain, pipelines, buffers and descriptors, plus the
// Renderer that drives the per-frame lifecycle on top of them.
package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

// MaxFramesInFlight is the number of frames whose GPU work may overlap
// CPU recording of the next frame.
const MaxFramesInFlight = 2

var (
	ErrSwapChainOutOfDate      = errors.New("vulkan: swapchain out of date")
	ErrNoSuitableDevice        = errors.New("vulkan: failed to find a suitable GPU")
	ErrNoMemoryType            = errors.New("vulkan: failed to find suitable memory type")
	ErrDescriptorPoolExhausted = errors.New("vulkan: descriptor pool exhausted")
)

// NewError returns nil for vk.Success and an error carrying the result
// code and a stack trace otherwise.
func NewError(ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	if err := vk.Error(ret); err != nil {
		return errors.Errorf("vulkan error: %s (%d)", err.Error(), ret)
	}
	return errors.Errorf("vulkan error: result %d", ret)
}

// IsError reports whether ret is anything other than vk.Success.
func IsError(ret vk.Result) bool {
	return ret != vk.Success
}

func check(ret vk.Result, op string) error {
	if err := NewError(ret); err != nil {
		return errors.Wrap(err, op)
	}
	return nil
}

func safeString(s string) string {
	if len(s) > 0 && s[len(s)-1] == 0 {
		return s
	}
	return s + "\x00"
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}
