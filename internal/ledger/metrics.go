package ledger

import "time"

// MetricsRecorder is the side-channel the service emits counters and
// timings into. Implementations must not block the caller; recording
// failures are never surfaced to ledger operations.
type MetricsRecorder interface {
	Count(name string, delta int64, tags map[string]string)
	Timing(name string, d time.Duration, tags map[string]string)
}

// NopMetrics discards all events. Use in tests.
type NopMetrics struct{}

func NewNopMetrics() *NopMetrics { return &NopMetrics{} }

func (*NopMetrics) Count(string, int64, map[string]string)          {}
func (*NopMetrics) Timing(string, time.Duration, map[string]string) {}
