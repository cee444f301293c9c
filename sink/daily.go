package sink

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/lixenwraith/fanlog/formatter"
	"github.com/lixenwraith/fanlog/internal/logerr"
)

// DailyFileConfig holds time-of-day rotation parameters
type DailyFileConfig struct {
	Filename   string // Base name; files are "<stem>_YYYY-MM-DD_hh-mm<ext>"
	Hour       int    // 0-23
	Minute     int    // 0-59
	ForceFlush bool
}

// DailyFile starts a new file once per day at Hour:Minute
type DailyFile struct {
	fileSink
	cfg   DailyFileConfig
	clock func() time.Time
	path  string
	next  time.Time
}

// DailyFileName returns the file name for a file opened at t
func DailyFileName(filename string, t time.Time) string {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	return fmt.Sprintf("%s_%04d-%02d-%02d_%02d-%02d%s",
		stem, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), ext)
}

// NextRotation returns the first instant strictly after now at hour:minute in now's location
func NextRotation(now time.Time, hour, minute int) time.Time {
	y, m, d := now.Date()
	t := time.Date(y, m, d, hour, minute, 0, 0, now.Location())
	if t.After(now) {
		return t
	}
	// Rebuilt from the calendar date: a wall time skipped by DST today must not carry over
	return time.Date(y, m, d+1, hour, minute, 0, 0, now.Location())
}

// NewDailyFile validates cfg and opens the file for the current clock time
func NewDailyFile(cfg DailyFileConfig, opts ...Option) (*DailyFile, error) {
	if cfg.Filename == "" {
		return nil, logerr.Configf("daily", "filename must not be empty")
	}
	if cfg.Hour < 0 || cfg.Hour > 23 {
		return nil, logerr.Configf("daily", "rotation hour must be in [0, 23]: %d", cfg.Hour)
	}
	if cfg.Minute < 0 || cfg.Minute > 59 {
		return nil, logerr.Configf("daily", "rotation minute must be in [0, 59]: %d", cfg.Minute)
	}

	o := buildOptions(opts)
	s := &DailyFile{cfg: cfg, clock: o.clock}
	s.init(o)
	s.forceFlush = cfg.ForceFlush

	if err := s.acquireLock(o, cfg.Filename); err != nil {
		return nil, err
	}

	now := s.clock()
	s.path = DailyFileName(cfg.Filename, now)
	h, err := openFile(s.path, false)
	if err != nil {
		_ = s.releaseLock()
		return nil, err
	}
	s.h = h
	s.next = NextRotation(now, cfg.Hour, cfg.Minute)
	return s, nil
}

// Write appends r.Formatted, first switching files if the rotation instant has passed
func (s *DailyFile) Write(r *formatter.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return logerr.Closed("daily write")
	}

	now := s.clock()
	if !now.Before(s.next) {
		s.path = DailyFileName(s.cfg.Filename, now)
		s.next = NextRotation(now, s.cfg.Hour, s.cfg.Minute)
		if err := s.switchTo(s.path, false); err != nil {
			return err
		}
	}
	return s.writePayload(s.path, r.Formatted)
}

// Flush writes buffered data and syncs the current file
func (s *DailyFile) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked("daily flush")
}

// Close flushes and closes the current file; later calls are no-ops
func (s *DailyFile) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

// NextRotationTime returns the instant of the next file switch
func (s *DailyFile) NextRotationTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// CurrentFile returns the path being written
func (s *DailyFile) CurrentFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}
