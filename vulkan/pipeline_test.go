package vulkan

import (
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPipelineConfig(t *testing.T) {
	cfg := DefaultPipelineConfig()
	assert.Equal(t, vk.PrimitiveTopologyTriangleList, cfg.Topology)
	assert.Equal(t, vk.PolygonModeFill, cfg.PolygonMode)
	assert.True(t, cfg.DepthTestEnable)
	assert.True(t, cfg.DepthWriteEnable)
	assert.Equal(t, vk.Bool32(vk.False), cfg.BlendAttachment.BlendEnable)
	assert.Equal(t, []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}, cfg.DynamicStates)
}

func TestPipelineConfigVariants(t *testing.T) {
	base := DefaultPipelineConfig()

	wire := WireframeConfig(base)
	assert.Equal(t, vk.PolygonModeLine, wire.PolygonMode)
	assert.Equal(t, vk.PolygonModeFill, base.PolygonMode)

	blend := EnableAlphaBlending(base)
	assert.Equal(t, vk.Bool32(vk.True), blend.BlendAttachment.BlendEnable)
	assert.Equal(t, vk.BlendFactorSrcAlpha, blend.BlendAttachment.SrcColorBlendFactor)
	assert.Equal(t, vk.BlendFactorOneMinusSrcAlpha, blend.BlendAttachment.DstColorBlendFactor)
}

func TestPipelineConfigValidate(t *testing.T) {
	var layoutTag, passTag byte
	layout := vk.PipelineLayout(unsafe.Pointer(&layoutTag))
	pass := vk.RenderPass(unsafe.Pointer(&passTag))

	cfg := DefaultPipelineConfig()
	assert.Error(t, cfg.validate())

	cfg.PipelineLayout = layout
	assert.Error(t, cfg.validate())

	cfg.RenderPass = pass
	assert.NoError(t, cfg.validate())

	cfg.AttributeDescriptions = []vk.VertexInputAttributeDescription{{Location: 0}}
	assert.Error(t, cfg.validate())

	cfg.BindingDescriptions = []vk.VertexInputBindingDescription{{Binding: 0, Stride: 12}}
	assert.NoError(t, cfg.validate())
}

func TestReadShaderFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.spv")
	require.NoError(t, os.WriteFile(good, []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 1, 0}, 0o644))
	code, err := ReadShaderFile(good)
	require.NoError(t, err)
	assert.Len(t, code, 8)

	odd := filepath.Join(dir, "odd.spv")
	require.NoError(t, os.WriteFile(odd, []byte{1, 2, 3}, 0o644))
	_, err = ReadShaderFile(odd)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.spv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = ReadShaderFile(empty)
	assert.Error(t, err)

	_, err = ReadShaderFile(filepath.Join(dir, "missing.spv"))
	assert.Error(t, err)
}

func TestShaderModuleInfo(t *testing.T) {
	code := []byte{1, 0, 0, 0, 2, 0, 0, 0}
	info := shaderModuleInfo(code)
	assert.Equal(t, vk.StructureTypeShaderModuleCreateInfo, info.SType)
	assert.Equal(t, uint64(8), info.CodeSize)
	assert.Equal(t, []uint32{1, 2}, info.PCode)
}
