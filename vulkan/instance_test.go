package vulkan

import (
	"bytes"
	"log/slog"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestDebugReportRoutesBySeverity(t *testing.T) {
	var logs bytes.Buffer
	inst := &Instance{log: slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	var callback vk.DebugReportCallbackFunc = inst.debugReport

	ret := callback(vk.DebugReportFlags(vk.DebugReportErrorBit), vk.DebugReportObjectTypeUnknown,
		0, 42, 7, "Validation", "bad layout", nil)
	assert.Equal(t, vk.Bool32(vk.False), ret, "the call that triggered the report is not aborted")
	assert.Contains(t, logs.String(), "level=ERROR")
	assert.Contains(t, logs.String(), "bad layout")

	logs.Reset()
	callback(vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit), vk.DebugReportObjectTypeUnknown,
		0, 0, 0, "Validation", "slow path", nil)
	assert.Contains(t, logs.String(), "level=WARN")
}
