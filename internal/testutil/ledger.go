package testutil

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"inlet/internal/ledger"
	"inlet/internal/model"
)

// NewTestService creates a Service backed by the given store, with a
// fixed clock, sequential IDs, and a recording metrics sink.
func NewTestService(t *testing.T, store ledger.Store) (*ledger.Service, *StubClock, *RecordingMetrics) {
	t.Helper()

	clock := FixedClock()
	metrics := NewRecordingMetrics()
	svc := ledger.NewService(store, &ledger.NopLogger{}, clock, NewStubIDGenerator(), metrics)
	return svc, clock, metrics
}

// StageCapture ingests a capture with the given channel-native id and
// returns it. Fails the test on error.
func StageCapture(t *testing.T, svc *ledger.Service, source ledger.Source, nativeID string) *model.Capture {
	t.Helper()

	c, created, err := svc.Ingest(ledger.IngestRequest{
		Source:          source,
		Channel:         "test_channel",
		ChannelNativeID: nativeID,
	})
	if err != nil {
		t.Fatalf("failed to ingest capture: %v", err)
	}
	if !created {
		t.Fatalf("capture %s was not newly created", nativeID)
	}
	return c
}

// RecordingMetrics captures metric calls for assertions.
type RecordingMetrics struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewRecordingMetrics() *RecordingMetrics {
	return &RecordingMetrics{counts: make(map[string]int64)}
}

func (m *RecordingMetrics) Count(name string, delta int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[metricKey(name, tags)] += delta
}

func (m *RecordingMetrics) Timing(name string, d time.Duration, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[metricKey(name, tags)]++
}

// CountOf returns the accumulated count for a metric name with no tags.
func (m *RecordingMetrics) CountOf(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

// CountOfTagged returns the accumulated count for a metric with one tag.
func (m *RecordingMetrics) CountOfTagged(name, tagKey, tagValue string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[metricKey(name, map[string]string{tagKey: tagValue})]
}

func metricKey(name string, tags map[string]string) string {
	if len(tags) == 0 {
		return name
	}
	key := name
	for _, k := range sortedKeys(tags) {
		key += fmt.Sprintf("|%s=%s", k, tags[k])
	}
	return key
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
