package debug

import (
	"log/slog"
	"time"

	"github.com/loov/hrtime"
)

// Timer logs how long named sections take. A disabled timer does not read
// the clock.
type Timer struct {
	log     *slog.Logger
	enabled bool
}

func NewTimer(log *slog.Logger, enabled bool) *Timer {
	return &Timer{log: log, enabled: enabled}
}

func (t *Timer) Enabled() bool {
	return t != nil && t.enabled
}

// Start begins timing name. Call the returned func when the section ends:
//
//	defer timer.Start("world update")()
func (t *Timer) Start(name string) func() {
	if !t.Enabled() {
		return func() {}
	}
	start := hrtime.Now()
	return func() {
		t.report(name, hrtime.Since(start))
	}
}

func (t *Timer) report(name string, d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	t.log.Info("execution of "+name+" took", "ms", ms)
}
