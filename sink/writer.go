package sink

import (
	"io"
	"os"

	"github.com/lixenwraith/fanlog/formatter"
	"github.com/lixenwraith/fanlog/internal/logerr"
)

// Writer forwards records to an io.Writer it does not own
type Writer struct {
	base
	w io.Writer
}

// NewWriter wraps w
func NewWriter(w io.Writer, opts ...Option) *Writer {
	s := &Writer{w: w}
	s.init(buildOptions(opts))
	return s
}

// Stdout returns a console sink on standard output
func Stdout(opts ...Option) *Writer {
	return NewWriter(os.Stdout, opts...)
}

// Stderr returns a console sink on standard error
func Stderr(opts ...Option) *Writer {
	return NewWriter(os.Stderr, opts...)
}

// Write copies r.Formatted to the underlying writer
func (s *Writer) Write(r *formatter.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return logerr.Closed("writer write")
	}
	if _, err := s.w.Write(r.Formatted); err != nil {
		return s.degrade(logerr.IO("writer write", err, "write failed"))
	}
	s.heal()
	return nil
}

// Flush flushes writers that buffer, such as *bufio.Writer
func (s *Writer) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return logerr.Closed("writer flush")
	}
	if f, ok := s.w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return s.degrade(logerr.IO("writer flush", err, "flush failed"))
		}
	}
	return nil
}

// Close flushes and detaches; the underlying writer is left open
func (s *Writer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if f, ok := s.w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return logerr.IO("writer close", err, "flush failed")
		}
	}
	return nil
}
