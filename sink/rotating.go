package sink

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/fanlog/formatter"
	"github.com/lixenwraith/fanlog/internal/logerr"
)

// RotatingFileConfig holds size-based rotation parameters
type RotatingFileConfig struct {
	Filename   string // Base name; files are "<stem>.<i><ext>"
	MaxSize    int64  // Bytes per file, > 0
	MaxFiles   int    // Files kept, >= 1
	ForceFlush bool   // Flush the buffer after every record
}

// RotatingFile writes to a fixed ring of indexed files, moving to the next index
// when a record would push the current file past MaxSize.
type RotatingFile struct {
	fileSink
	cfg       RotatingFileConfig
	index     int
	rotations atomic.Uint64
}

// RotatingFileName returns the path of the file at index i
func RotatingFileName(filename string, i int) string {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	return stem + "." + strconv.Itoa(i) + ext
}

// NewRotatingFile validates cfg and opens the most recently written index, or index 0
func NewRotatingFile(cfg RotatingFileConfig, opts ...Option) (*RotatingFile, error) {
	if cfg.Filename == "" {
		return nil, logerr.Configf("rotating", "filename must not be empty")
	}
	if cfg.MaxSize <= 0 {
		return nil, logerr.Configf("rotating", "max_size must be positive: %d", cfg.MaxSize)
	}
	if cfg.MaxFiles < 1 {
		return nil, logerr.Configf("rotating", "max_files must be at least 1: %d", cfg.MaxFiles)
	}

	o := buildOptions(opts)
	s := &RotatingFile{cfg: cfg}
	s.init(o)
	s.forceFlush = cfg.ForceFlush

	if err := s.acquireLock(o, cfg.Filename); err != nil {
		return nil, err
	}

	s.index = latestIndex(cfg.Filename, cfg.MaxFiles)
	h, err := openFile(RotatingFileName(cfg.Filename, s.index), false)
	if err != nil {
		_ = s.releaseLock()
		return nil, err
	}
	s.h = h
	return s, nil
}

// latestIndex finds the index with the newest modification time
func latestIndex(filename string, maxFiles int) int {
	latest := 0
	var latestMod time.Time
	for i := 0; i < maxFiles; i++ {
		info, err := os.Stat(RotatingFileName(filename, i))
		if err != nil {
			continue
		}
		if latestMod.IsZero() || info.ModTime().After(latestMod) {
			latest = i
			latestMod = info.ModTime()
		}
	}
	return latest
}

// Write appends r.Formatted, rotating first when the current file is non-empty
// and the record would exceed MaxSize
func (s *RotatingFile) Write(r *formatter.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return logerr.Closed("rotating write")
	}

	n := int64(len(r.Formatted))
	if s.h != nil && s.h.size > 0 && s.h.size+n > s.cfg.MaxSize {
		if err := s.rotate(); err != nil {
			return err
		}
	}
	return s.writePayload(s.currentPath(), r.Formatted)
}

// rotate advances to the next index and truncates it
func (s *RotatingFile) rotate() error {
	next := (s.index + 1) % s.cfg.MaxFiles
	if err := s.switchTo(RotatingFileName(s.cfg.Filename, next), true); err != nil {
		return err
	}
	s.index = next
	s.rotations.Add(1)
	return nil
}

func (s *RotatingFile) currentPath() string {
	return RotatingFileName(s.cfg.Filename, s.index)
}

// Flush writes buffered data and syncs the current file
func (s *RotatingFile) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked("rotating flush")
}

// Close flushes and closes the current file; later calls are no-ops
func (s *RotatingFile) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

// Rotations returns the number of completed rotations
func (s *RotatingFile) Rotations() uint64 {
	return s.rotations.Load()
}

// CurrentFile returns the path being written
func (s *RotatingFile) CurrentFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPath()
}
