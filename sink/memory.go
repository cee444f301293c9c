package sink

import (
	"sync/atomic"

	"github.com/lixenwraith/fanlog/formatter"
	"github.com/lixenwraith/fanlog/internal/logerr"
)

// Memory keeps copies of every record it receives
type Memory struct {
	base
	records []formatter.Record
	flushes atomic.Uint64
}

// NewMemory creates an empty in-memory sink
func NewMemory(opts ...Option) *Memory {
	s := &Memory{}
	s.init(buildOptions(opts))
	return s
}

// Write stores a deep copy of r
func (s *Memory) Write(r *formatter.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return logerr.Closed("memory write")
	}
	s.records = append(s.records, r.Clone())
	return nil
}

// Flush counts the call
func (s *Memory) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return logerr.Closed("memory flush")
	}
	s.flushes.Add(1)
	return nil
}

// Close marks the sink closed; stored records stay readable
func (s *Memory) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Records returns a snapshot of the stored records
func (s *Memory) Records() []formatter.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]formatter.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Messages returns the Message field of every stored record
func (s *Memory) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.records))
	for i := range s.records {
		out[i] = s.records[i].Message
	}
	return out
}

// Len returns the number of stored records
func (s *Memory) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Flushes returns the number of Flush calls
func (s *Memory) Flushes() uint64 {
	return s.flushes.Load()
}

// Reset drops stored records
func (s *Memory) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}
