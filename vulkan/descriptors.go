package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

type DescriptorSetLayoutConfig struct {
	Bindings []vk.DescriptorSetLayoutBinding
}

func (cfg DescriptorSetLayoutConfig) validate() error {
	seen := make(map[uint32]bool, len(cfg.Bindings))
	for _, b := range cfg.Bindings {
		if seen[b.Binding] {
			return errors.Errorf("vulkan: descriptor binding %d already in use", b.Binding)
		}
		seen[b.Binding] = true
	}
	return nil
}

type DescriptorSetLayout struct {
	Handle   vk.DescriptorSetLayout
	Bindings map[uint32]vk.DescriptorSetLayoutBinding

	device *Device
}

func NewDescriptorSetLayout(device *Device, cfg DescriptorSetLayoutConfig) (*DescriptorSetLayout, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	l := &DescriptorSetLayout{
		Bindings: make(map[uint32]vk.DescriptorSetLayoutBinding, len(cfg.Bindings)),
		device:   device,
	}
	for _, b := range cfg.Bindings {
		l.Bindings[b.Binding] = b
	}

	var handle vk.DescriptorSetLayout
	ret := vk.CreateDescriptorSetLayout(device.Device, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(cfg.Bindings)),
		PBindings:    cfg.Bindings,
	}, nil, &handle)
	if err := check(ret, "failed to create descriptor set layout"); err != nil {
		return nil, err
	}
	l.Handle = handle
	return l, nil
}

func (l *DescriptorSetLayout) Destroy() {
	if l.Handle != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(l.device.Device, l.Handle, nil)
		l.Handle = vk.NullDescriptorSetLayout
	}
}

func UniformBufferBinding(binding uint32, stages vk.ShaderStageFlags) vk.DescriptorSetLayoutBinding {
	return vk.DescriptorSetLayoutBinding{
		Binding:         binding,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      stages,
	}
}

func CombinedImageSamplerBinding(binding uint32, stages vk.ShaderStageFlags) vk.DescriptorSetLayoutBinding {
	return vk.DescriptorSetLayoutBinding{
		Binding:         binding,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 1,
		StageFlags:      stages,
	}
}

type DescriptorPoolConfig struct {
	MaxSets uint32
	Flags   vk.DescriptorPoolCreateFlags
	Sizes   []vk.DescriptorPoolSize
}

// GlobalPoolConfig sizes the shared pool for one uniform buffer set per
// frame in flight.
func GlobalPoolConfig() DescriptorPoolConfig {
	return DescriptorPoolConfig{
		MaxSets: MaxFramesInFlight,
		Sizes: []vk.DescriptorPoolSize{
			{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: MaxFramesInFlight},
		},
	}
}

var overlayDescriptorTypes = []vk.DescriptorType{
	vk.DescriptorTypeSampler,
	vk.DescriptorTypeCombinedImageSampler,
	vk.DescriptorTypeSampledImage,
	vk.DescriptorTypeStorageImage,
	vk.DescriptorTypeUniformTexelBuffer,
	vk.DescriptorTypeStorageTexelBuffer,
	vk.DescriptorTypeUniformBuffer,
	vk.DescriptorTypeStorageBuffer,
	vk.DescriptorTypeUniformBufferDynamic,
	vk.DescriptorTypeStorageBufferDynamic,
	vk.DescriptorTypeInputAttachment,
}

// OverlayPoolConfig is the debug overlay's own pool, large enough that the
// overlay never competes with the global pool.
func OverlayPoolConfig() DescriptorPoolConfig {
	const perType = 1000
	sizes := make([]vk.DescriptorPoolSize, len(overlayDescriptorTypes))
	for i, t := range overlayDescriptorTypes {
		sizes[i] = vk.DescriptorPoolSize{Type: t, DescriptorCount: perType}
	}
	return DescriptorPoolConfig{
		MaxSets: perType,
		Flags:   vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		Sizes:   sizes,
	}
}

type DescriptorPool struct {
	Handle vk.DescriptorPool
	Config DescriptorPoolConfig

	device *Device
}

func NewDescriptorPool(device *Device, cfg DescriptorPoolConfig) (*DescriptorPool, error) {
	if cfg.MaxSets == 0 || len(cfg.Sizes) == 0 {
		return nil, errors.New("vulkan: descriptor pool needs at least one set and one pool size")
	}
	var handle vk.DescriptorPool
	ret := vk.CreateDescriptorPool(device.Device, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         cfg.Flags,
		MaxSets:       cfg.MaxSets,
		PoolSizeCount: uint32(len(cfg.Sizes)),
		PPoolSizes:    cfg.Sizes,
	}, nil, &handle)
	if err := check(ret, "failed to create descriptor pool"); err != nil {
		return nil, err
	}
	return &DescriptorPool{Handle: handle, Config: cfg, device: device}, nil
}

// AllocateDescriptorSet returns ErrDescriptorPoolExhausted when the pool
// has no room left; callers degrade rather than fail.
func (p *DescriptorPool) AllocateDescriptorSet(layout *DescriptorSetLayout) (vk.DescriptorSet, error) {
	sets := make([]vk.DescriptorSet, 1)
	ret := vk.AllocateDescriptorSets(p.device.Device, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     p.Handle,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout.Handle},
	}, &sets[0])
	if err := allocateResult(ret); err != nil {
		return vk.DescriptorSet(vk.NullHandle), err
	}
	return sets[0], nil
}

func allocateResult(ret vk.Result) error {
	switch ret {
	case vk.Success:
		return nil
	case vk.ErrorOutOfPoolMemory, vk.ErrorFragmentedPool:
		return ErrDescriptorPoolExhausted
	default:
		return check(ret, "failed to allocate descriptor set")
	}
}

func (p *DescriptorPool) FreeDescriptors(sets []vk.DescriptorSet) error {
	if len(sets) == 0 {
		return nil
	}
	if p.Config.Flags&vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit) == 0 {
		return errors.New("vulkan: descriptor pool was not created with the free descriptor set flag")
	}
	return check(vk.FreeDescriptorSets(p.device.Device, p.Handle, uint32(len(sets)), &sets[0]), "failed to free descriptor sets")
}

func (p *DescriptorPool) ResetPool() error {
	return check(vk.ResetDescriptorPool(p.device.Device, p.Handle, 0), "failed to reset descriptor pool")
}

func (p *DescriptorPool) Destroy() {
	vk.DestroyDescriptorPool(p.device.Device, p.Handle, nil)
}

// DescriptorWrite binds exactly one of Buffer or Image to Binding.
type DescriptorWrite struct {
	Binding uint32
	Buffer  *vk.DescriptorBufferInfo
	Image   *vk.DescriptorImageInfo
}

type DescriptorWriter struct {
	Layout *DescriptorSetLayout
	Writes []DescriptorWrite
}

func (w DescriptorWriter) build(set vk.DescriptorSet) ([]vk.WriteDescriptorSet, error) {
	out := make([]vk.WriteDescriptorSet, 0, len(w.Writes))
	for _, write := range w.Writes {
		binding, ok := w.Layout.Bindings[write.Binding]
		if !ok {
			return nil, errors.Errorf("vulkan: layout does not contain binding %d", write.Binding)
		}
		if binding.DescriptorCount != 1 {
			return nil, errors.Errorf("vulkan: binding %d expects %d descriptors, writer binds one", write.Binding, binding.DescriptorCount)
		}
		if (write.Buffer == nil) == (write.Image == nil) {
			return nil, errors.Errorf("vulkan: write to binding %d must set exactly one of buffer or image", write.Binding)
		}
		wd := vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      write.Binding,
			DescriptorCount: 1,
			DescriptorType:  binding.DescriptorType,
		}
		if write.Buffer != nil {
			wd.PBufferInfo = []vk.DescriptorBufferInfo{*write.Buffer}
		} else {
			wd.PImageInfo = []vk.DescriptorImageInfo{*write.Image}
		}
		out = append(out, wd)
	}
	return out, nil
}

// Write applies every write to set.
func (w DescriptorWriter) Write(device *Device, set vk.DescriptorSet) error {
	writes, err := w.build(set)
	if err != nil {
		return err
	}
	vk.UpdateDescriptorSets(device.Device, uint32(len(writes)), writes, 0, nil)
	return nil
}

func CreateSampler(device *Device, filter vk.Filter, addressMode vk.SamplerAddressMode) (vk.Sampler, error) {
	var sampler vk.Sampler
	ret := vk.CreateSampler(device.Device, &vk.SamplerCreateInfo{
		SType:         vk.StructureTypeSamplerCreateInfo,
		MagFilter:     filter,
		MinFilter:     filter,
		MipmapMode:    vk.SamplerMipmapModeLinear,
		AddressModeU:  addressMode,
		AddressModeV:  addressMode,
		AddressModeW:  addressMode,
		MinLod:        -1000,
		MaxLod:        1000,
		MaxAnisotropy: 1.0,
	}, nil, &sampler)
	if err := check(ret, "failed to create sampler"); err != nil {
		return vk.Sampler(vk.NullHandle), err
	}
	return sampler, nil
}

func DestroySampler(device *Device, sampler vk.Sampler) {
	vk.DestroySampler(device.Device, sampler, nil)
}
