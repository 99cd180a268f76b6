package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

// Texture is a sampled RGBA image resident on the GPU.
type Texture struct {
	Image   *Image
	Sampler vk.Sampler
}

// UploadTexture uploads tightly packed RGBA8 pixels into a device-local image
// ready for sampling in fragment shaders.
func UploadTexture(device *Device, width, height uint32, pixels []byte) (*Texture, error) {
	size := int(width) * int(height) * 4
	if size == 0 || len(pixels) < size {
		return nil, errors.Errorf("vulkan: texture %dx%d needs %d bytes, got %d", width, height, size, len(pixels))
	}

	staging, err := NewBuffer(device, vk.DeviceSize(size), 1,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit), 1)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create staging buffer")
	}
	defer staging.Destroy()
	if err := staging.Map(); err != nil {
		return nil, err
	}
	if err := staging.WriteToBuffer(pixels[:size], 0); err != nil {
		return nil, err
	}
	staging.Unmap()

	image, err := CreateImage(device, width, height, vk.FormatR8g8b8a8Unorm,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create texture image")
	}

	var recordErr error
	err = device.ExecuteSingleTimeCommands(func(cmd vk.CommandBuffer) {
		if recordErr = TransitionImageLayout(cmd, image.Handle, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); recordErr != nil {
			return
		}
		CmdCopyBufferToImage(cmd, staging.Handle, image.Handle, width, height)
		recordErr = TransitionImageLayout(cmd, image.Handle, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	})
	if err == nil {
		err = recordErr
	}
	if err != nil {
		image.Destroy(device)
		return nil, errors.Wrap(err, "failed to upload texture data")
	}

	if err := image.CreateView(device, vk.ImageAspectFlags(vk.ImageAspectColorBit)); err != nil {
		image.Destroy(device)
		return nil, err
	}
	sampler, err := CreateSampler(device, vk.FilterLinear, vk.SamplerAddressModeRepeat)
	if err != nil {
		image.Destroy(device)
		return nil, err
	}
	return &Texture{Image: image, Sampler: sampler}, nil
}

func (t *Texture) DescriptorInfo() vk.DescriptorImageInfo {
	return vk.DescriptorImageInfo{
		Sampler:     t.Sampler,
		ImageView:   t.Image.View,
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	}
}

func (t *Texture) Destroy(device *Device) {
	DestroySampler(device, t.Sampler)
	t.Image.Destroy(device)
}
