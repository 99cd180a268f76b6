package vulkan

import (
	"log/slog"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

type Instance struct {
	Handle           vk.Instance
	EnableValidation bool

	debugCallback    vk.DebugReportCallback
	hasDebugCallback bool
	log              *slog.Logger
}

type InstanceConfig struct {
	AppName            string
	EngineName         string
	AppVersion         uint32
	EngineVersion      uint32
	EnableValidation   bool
	RequiredExtensions []string
}

func DefaultInstanceConfig() InstanceConfig {
	return InstanceConfig{
		AppName:          "Gameska",
		EngineName:       "Voxel Engine",
		AppVersion:       vk.MakeVersion(1, 0, 0),
		EngineVersion:    vk.MakeVersion(1, 0, 0),
		EnableValidation: true,
	}
}

// NewInstance creates the Vulkan instance. vk.Init must already have been
// called with a valid GetInstanceProcAddr, which core.Window does.
func NewInstance(config InstanceConfig, log *slog.Logger) (*Instance, error) {
	extensions := append([]string{}, config.RequiredExtensions...)
	var layers []string
	if config.EnableValidation {
		if !checkValidationLayerSupport() {
			return nil, errors.Errorf("validation layers requested but %s is not available", validationLayer)
		}
		layers = append(layers, validationLayer)
		extensions = append(extensions, "VK_EXT_debug_report")
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeString(config.AppName),
		ApplicationVersion: config.AppVersion,
		PEngineName:        safeString(config.EngineName),
		EngineVersion:      config.EngineVersion,
		ApiVersion:         vk.MakeVersion(1, 1, 0),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}

	var handle vk.Instance
	if err := check(vk.CreateInstance(&createInfo, nil, &handle), "failed to create Vulkan instance"); err != nil {
		return nil, err
	}
	if err := vk.InitInstance(handle); err != nil {
		vk.DestroyInstance(handle, nil)
		return nil, errors.Wrap(err, "failed to load instance functions")
	}

	inst := &Instance{
		Handle:           handle,
		EnableValidation: config.EnableValidation,
		log:              log,
	}

	if config.EnableValidation {
		ret := vk.CreateDebugReportCallback(handle, &vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: inst.debugReport,
		}, nil, &inst.debugCallback)
		if IsError(ret) {
			log.Warn("failed to set up debug report callback", "err", NewError(ret))
		} else {
			inst.hasDebugCallback = true
		}
	}

	return inst, nil
}

func (i *Instance) debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint64, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		i.log.Error("validation", "layer", pLayerPrefix, "code", messageCode, "msg", pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0,
		flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		i.log.Warn("validation", "layer", pLayerPrefix, "code", messageCode, "msg", pMessage)
	default:
		i.log.Debug("validation", "layer", pLayerPrefix, "code", messageCode, "msg", pMessage)
	}
	return vk.Bool32(vk.False)
}

func (i *Instance) Destroy() {
	if i.hasDebugCallback {
		vk.DestroyDebugReportCallback(i.Handle, i.debugCallback, nil)
		i.hasDebugCallback = false
	}
	vk.DestroyInstance(i.Handle, nil)
}

func checkValidationLayerSupport() bool {
	var count uint32
	if IsError(vk.EnumerateInstanceLayerProperties(&count, nil)) || count == 0 {
		return false
	}
	layers := make([]vk.LayerProperties, count)
	vk.EnumerateInstanceLayerProperties(&count, layers)
	for _, layer := range layers {
		layer.Deref()
		if vk.ToString(layer.LayerName[:]) == validationLayer {
			return true
		}
	}
	return false
}
