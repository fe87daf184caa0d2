package metrics

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"inlet/internal/testutil"
)

func readEvents(t *testing.T, path string) []Event {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening metrics file: %v", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("unmarshaling event line %q: %v", scanner.Text(), err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanning metrics file: %v", err)
	}
	return events
}

func TestSinkWritesEvents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	clock := testutil.FixedClock()
	sink := NewSink(dir, clock)
	if err := sink.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	sink.Count("ledger.ingest", 1, map[string]string{"source": "voice"})
	sink.Count("ledger.export", 2, nil)
	sink.Timing("ledger.dedup.lookup", 42*time.Millisecond, nil)
	sink.Stop()

	path := filepath.Join(dir, "metrics-"+clock.Now().UTC().Format("20060102")+".jsonl")
	events := readEvents(t, path)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	if events[0].Kind != "count" || events[0].Name != "ledger.ingest" || events[0].Value != 1 {
		t.Errorf("event[0] = %+v", events[0])
	}
	if events[0].Tags["source"] != "voice" {
		t.Errorf("event[0] tags = %v", events[0].Tags)
	}
	if events[2].Kind != "timing" || events[2].Value != 42 {
		t.Errorf("event[2] = %+v", events[2])
	}
}

func TestSinkRotatesAtDayBoundary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	clock := testutil.NewStubClock(time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC))
	sink := NewSink(dir, clock)
	if err := sink.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	sink.Count("ledger.ingest", 1, nil)
	clock.Advance(2 * time.Minute)
	sink.Count("ledger.ingest", 1, nil)
	sink.Stop()

	first := readEvents(t, filepath.Join(dir, "metrics-20250310.jsonl"))
	second := readEvents(t, filepath.Join(dir, "metrics-20250311.jsonl"))
	if len(first) != 1 || len(second) != 1 {
		t.Errorf("events split %d/%d across days, want 1/1", len(first), len(second))
	}
}

func TestSinkStopIsIdempotent(t *testing.T) {
	t.Parallel()

	sink := NewSink(t.TempDir(), testutil.FixedClock())
	if err := sink.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	sink.Stop()
	sink.Stop()
}

func TestSinkDropsWhenBufferFull(t *testing.T) {
	t.Parallel()

	// never started, so nothing drains the channel
	sink := NewSink(t.TempDir(), testutil.FixedClock())
	for i := 0; i < bufferSize+10; i++ {
		sink.Count("ledger.ingest", 1, nil)
	}
	if sink.Dropped() != 10 {
		t.Errorf("Dropped() = %d, want 10", sink.Dropped())
	}
}
