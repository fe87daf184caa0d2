// Package metrics implements the ledger's side-channel event sink: a
// daily-rotating, append-only JSONL writer. Events are buffered and
// flushed on an interval by a background goroutine owned by an explicit
// Start/Stop lifecycle; the host application calls Stop from its own
// shutdown sequence. Recording never blocks the caller: when the buffer
// is full events are dropped and counted.
package metrics

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"inlet/internal/ledger"
)

// Event is one metrics record as written to the JSONL file.
type Event struct {
	Time  time.Time         `json:"ts"`
	Kind  string            `json:"kind"` // "count" or "timing"
	Name  string            `json:"name"`
	Value int64             `json:"value"` // delta, or duration in milliseconds
	Tags  map[string]string `json:"tags,omitempty"`
}

const (
	bufferSize    = 1024
	flushInterval = 5 * time.Second
)

// Sink writes metric events to <dir>/metrics-YYYYMMDD.jsonl, rotating
// at UTC day boundaries.
type Sink struct {
	dir   string
	clock ledger.Clock

	events  chan Event
	done    chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
	dropped atomic.Int64

	file *os.File
	w    *bufio.Writer
	day  string
}

// NewSink creates a sink writing under dir. Call Start before recording.
func NewSink(dir string, clock ledger.Clock) *Sink {
	return &Sink{
		dir:    dir,
		clock:  clock,
		events: make(chan Event, bufferSize),
		done:   make(chan struct{}),
	}
}

// Start creates the metrics directory and launches the flush goroutine.
func (s *Sink) Start() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	s.wg.Add(1)
	go s.run()
	return nil
}

// Stop drains buffered events, flushes, and closes the current file.
// Safe to call more than once.
func (s *Sink) Stop() {
	s.stopped.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}

// Dropped returns the number of events discarded because the buffer was full.
func (s *Sink) Dropped() int64 {
	return s.dropped.Load()
}

// Count records a counter increment.
func (s *Sink) Count(name string, delta int64, tags map[string]string) {
	s.record(Event{Time: s.clock.Now().UTC(), Kind: "count", Name: name, Value: delta, Tags: tags})
}

// Timing records a duration in milliseconds.
func (s *Sink) Timing(name string, d time.Duration, tags map[string]string) {
	s.record(Event{Time: s.clock.Now().UTC(), Kind: "timing", Name: name, Value: d.Milliseconds(), Tags: tags})
}

func (s *Sink) record(e Event) {
	select {
	case s.events <- e:
	default:
		s.dropped.Add(1)
	}
}

func (s *Sink) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case e := <-s.events:
			s.write(e)
		case <-ticker.C:
			s.flush()
		case <-s.done:
			// Drain whatever is still buffered before shutting down.
			for {
				select {
				case e := <-s.events:
					s.write(e)
				default:
					s.flush()
					s.closeFile()
					return
				}
			}
		}
	}
}

// write appends one event, rotating the file when the UTC day changed.
// Failures are dropped: metrics must never affect the main control flow.
func (s *Sink) write(e Event) {
	day := e.Time.Format("20060102")
	if s.file == nil || day != s.day {
		s.rotate(day)
	}
	if s.w == nil {
		s.dropped.Add(1)
		return
	}

	line, err := json.Marshal(e)
	if err != nil {
		s.dropped.Add(1)
		return
	}
	s.w.Write(line)
	s.w.WriteByte('\n')
}

func (s *Sink) rotate(day string) {
	s.flush()
	s.closeFile()

	path := filepath.Join(s.dir, "metrics-"+day+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return
	}
	s.file = f
	s.w = bufio.NewWriter(f)
	s.day = day
}

func (s *Sink) flush() {
	if s.w != nil {
		s.w.Flush()
	}
}

func (s *Sink) closeFile() {
	if s.file != nil {
		s.file.Close()
		s.file = nil
		s.w = nil
	}
}

// Compile-time check that Sink implements ledger.MetricsRecorder
var _ ledger.MetricsRecorder = (*Sink)(nil)
