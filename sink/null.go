package sink

import (
	"sync/atomic"

	"github.com/lixenwraith/fanlog/formatter"
	"github.com/lixenwraith/fanlog/internal/logerr"
)

// Null discards records, counting writes and bytes
type Null struct {
	base
	writes atomic.Uint64
	bytes  atomic.Uint64
	closed atomic.Bool
}

// NewNull creates a discarding sink
func NewNull(opts ...Option) *Null {
	s := &Null{}
	s.init(buildOptions(opts))
	return s
}

func (s *Null) Write(r *formatter.Record) error {
	if s.closed.Load() {
		return logerr.Closed("null write")
	}
	s.writes.Add(1)
	s.bytes.Add(uint64(len(r.Formatted)))
	return nil
}

func (s *Null) Flush() error {
	if s.closed.Load() {
		return logerr.Closed("null flush")
	}
	return nil
}

func (s *Null) Close() error {
	s.closed.Store(true)
	return nil
}

// Writes returns the number of records received
func (s *Null) Writes() uint64 {
	return s.writes.Load()
}

// Bytes returns the number of formatted bytes received
func (s *Null) Bytes() uint64 {
	return s.bytes.Load()
}
