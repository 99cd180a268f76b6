package vulkan

import (
	"os"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

type Pipeline struct {
	Handle vk.Pipeline
	Layout vk.PipelineLayout

	device     *Device
	vertModule vk.ShaderModule
	fragModule vk.ShaderModule
}

// PipelineConfig is the complete fixed-function state of a graphics
// pipeline. Start from DefaultPipelineConfig and override fields.
type PipelineConfig struct {
	BindingDescriptions   []vk.VertexInputBindingDescription
	AttributeDescriptions []vk.VertexInputAttributeDescription

	Topology         vk.PrimitiveTopology
	PolygonMode      vk.PolygonMode
	CullMode         vk.CullModeFlagBits
	FrontFace        vk.FrontFace
	LineWidth        float32
	DepthTestEnable  bool
	DepthWriteEnable bool
	BlendAttachment  vk.PipelineColorBlendAttachmentState
	DynamicStates    []vk.DynamicState

	PipelineLayout vk.PipelineLayout
	RenderPass     vk.RenderPass
	Subpass        uint32
}

const colorWriteAll = vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit)

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Topology:         vk.PrimitiveTopologyTriangleList,
		PolygonMode:      vk.PolygonModeFill,
		CullMode:         vk.CullModeNone,
		FrontFace:        vk.FrontFaceClockwise,
		LineWidth:        1.0,
		DepthTestEnable:  true,
		DepthWriteEnable: true,
		BlendAttachment: vk.PipelineColorBlendAttachmentState{
			BlendEnable:    vk.False,
			ColorWriteMask: colorWriteAll,
		},
		DynamicStates: []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor},
	}
}

// EnableAlphaBlending turns on standard source-over blending.
func EnableAlphaBlending(cfg PipelineConfig) PipelineConfig {
	cfg.BlendAttachment = vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vk.True,
		ColorWriteMask:      colorWriteAll,
		SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
		DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorZero,
		AlphaBlendOp:        vk.BlendOpAdd,
	}
	return cfg
}

func WireframeConfig(cfg PipelineConfig) PipelineConfig {
	cfg.PolygonMode = vk.PolygonModeLine
	cfg.CullMode = vk.CullModeNone
	return cfg
}

func (cfg PipelineConfig) validate() error {
	if cfg.PipelineLayout == vk.PipelineLayout(vk.NullHandle) {
		return errors.New("vulkan: cannot create graphics pipeline: no pipeline layout provided")
	}
	if cfg.RenderPass == vk.NullRenderPass {
		return errors.New("vulkan: cannot create graphics pipeline: no render pass provided")
	}
	if len(cfg.AttributeDescriptions) > 0 && len(cfg.BindingDescriptions) == 0 {
		return errors.New("vulkan: vertex attributes given without a binding")
	}
	return nil
}

// NewPipeline loads the SPIR-V files at vertPath and fragPath and builds a
// graphics pipeline from them with cfg.
func NewPipeline(device *Device, vertPath, fragPath string, cfg PipelineConfig) (*Pipeline, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	vertCode, err := ReadShaderFile(vertPath)
	if err != nil {
		return nil, err
	}
	fragCode, err := ReadShaderFile(fragPath)
	if err != nil {
		return nil, err
	}
	return NewPipelineFromCode(device, vertCode, fragCode, cfg)
}

func NewPipelineFromCode(device *Device, vertCode, fragCode []byte, cfg PipelineConfig) (*Pipeline, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{device: device, Layout: cfg.PipelineLayout}

	var err error
	if p.vertModule, err = createShaderModule(device, vertCode); err != nil {
		return nil, errors.Wrap(err, "vertex shader")
	}
	if p.fragModule, err = createShaderModule(device, fragCode); err != nil {
		p.Destroy()
		return nil, errors.Wrap(err, "fragment shader")
	}

	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: p.vertModule,
			PName:  safeString("main"),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: p.fragModule,
			PName:  safeString("main"),
		},
	}

	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(cfg.BindingDescriptions)),
		PVertexBindingDescriptions:      cfg.BindingDescriptions,
		VertexAttributeDescriptionCount: uint32(len(cfg.AttributeDescriptions)),
		PVertexAttributeDescriptions:    cfg.AttributeDescriptions,
	}
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               cfg.Topology,
		PrimitiveRestartEnable: vk.False,
	}
	viewport := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}
	raster := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             cfg.PolygonMode,
		LineWidth:               cfg.LineWidth,
		CullMode:                vk.CullModeFlags(cfg.CullMode),
		FrontFace:               cfg.FrontFace,
		DepthBiasEnable:         vk.False,
	}
	multisample := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		SampleShadingEnable:  vk.False,
		MinSampleShading:     1.0,
	}
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{cfg.BlendAttachment},
	}
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       boolToVk(cfg.DepthTestEnable),
		DepthWriteEnable:      boolToVk(cfg.DepthWriteEnable),
		DepthCompareOp:        vk.CompareOpLess,
		DepthBoundsTestEnable: vk.False,
		MinDepthBounds:        0.0,
		MaxDepthBounds:        1.0,
		StencilTestEnable:     vk.False,
	}
	dynamic := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(cfg.DynamicStates)),
		PDynamicStates:    cfg.DynamicStates,
	}

	pipelines := make([]vk.Pipeline, 1)
	ret := vk.CreateGraphicsPipelines(device.Device, vk.PipelineCache(vk.NullHandle), 1, []vk.GraphicsPipelineCreateInfo{{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewport,
		PRasterizationState: &raster,
		PMultisampleState:   &multisample,
		PColorBlendState:    &colorBlend,
		PDepthStencilState:  &depthStencil,
		PDynamicState:       &dynamic,
		Layout:              cfg.PipelineLayout,
		RenderPass:          cfg.RenderPass,
		Subpass:             cfg.Subpass,
		BasePipelineIndex:   -1,
	}}, nil, pipelines)
	if err := check(ret, "failed to create graphics pipeline"); err != nil {
		p.Destroy()
		return nil, err
	}
	p.Handle = pipelines[0]
	return p, nil
}

func (p *Pipeline) Bind(cmd vk.CommandBuffer) {
	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, p.Handle)
}

// Destroy releases the pipeline and its shader modules. The pipeline layout
// belongs to whoever created it.
func (p *Pipeline) Destroy() {
	dev := p.device.Device
	if p.vertModule != vk.ShaderModule(vk.NullHandle) {
		vk.DestroyShaderModule(dev, p.vertModule, nil)
		p.vertModule = vk.ShaderModule(vk.NullHandle)
	}
	if p.fragModule != vk.ShaderModule(vk.NullHandle) {
		vk.DestroyShaderModule(dev, p.fragModule, nil)
		p.fragModule = vk.ShaderModule(vk.NullHandle)
	}
	if p.Handle != vk.Pipeline(vk.NullHandle) {
		vk.DestroyPipeline(dev, p.Handle, nil)
		p.Handle = vk.Pipeline(vk.NullHandle)
	}
}

// NewPipelineLayout creates a layout over setLayouts with the given push
// constant ranges.
func NewPipelineLayout(device *Device, setLayouts []vk.DescriptorSetLayout, pushConstants []vk.PushConstantRange) (vk.PipelineLayout, error) {
	var layout vk.PipelineLayout
	ret := vk.CreatePipelineLayout(device.Device, &vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(setLayouts)),
		PSetLayouts:            setLayouts,
		PushConstantRangeCount: uint32(len(pushConstants)),
		PPushConstantRanges:    pushConstants,
	}, nil, &layout)
	if err := check(ret, "failed to create pipeline layout"); err != nil {
		return vk.PipelineLayout(vk.NullHandle), err
	}
	return layout, nil
}

func DestroyPipelineLayout(device *Device, layout vk.PipelineLayout) {
	vk.DestroyPipelineLayout(device.Device, layout, nil)
}

// ReadShaderFile reads a SPIR-V binary. The code must be a non-empty whole
// number of 32-bit words.
func ReadShaderFile(path string) ([]byte, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open shader file %s", path)
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.Errorf("vulkan: shader file %s is not valid SPIR-V (%d bytes)", path, len(code))
	}
	return code, nil
}

func createShaderModule(device *Device, code []byte) (vk.ShaderModule, error) {
	var module vk.ShaderModule
	info := shaderModuleInfo(code)
	ret := vk.CreateShaderModule(device.Device, &info, nil, &module)
	if err := check(ret, "failed to create shader module"); err != nil {
		return vk.ShaderModule(vk.NullHandle), err
	}
	return module, nil
}

// shaderModuleInfo describes SPIR-V code, whose length is a multiple of 4.
func shaderModuleInfo(code []byte) vk.ShaderModuleCreateInfo {
	return vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    unsafe.Slice((*uint32)(unsafe.Pointer(&code[0])), len(code)/4),
	}
}

func boolToVk(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}
