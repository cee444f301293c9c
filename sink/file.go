package sink

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/lixenwraith/fanlog/internal/logerr"
)

const fileBufferSize = 32 * 1024

// fileHandle is an open log file with a write buffer and size tracking
type fileHandle struct {
	path string
	file *os.File
	w    *bufio.Writer
	size int64 // Bytes written, buffered included
}

// openFile creates parent directories and opens path for appending, or truncated when truncate is set
func openFile(path string, truncate bool) (*fileHandle, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, logerr.IO("open", err, "failed to create log directory '%s'", dir)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if truncate {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, logerr.IO("open", err, "failed to open log file '%s'", path)
	}

	var size int64
	if !truncate {
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, logerr.IO("open", err, "failed to stat log file '%s'", path)
		}
		size = info.Size()
	}

	return &fileHandle{
		path: path,
		file: f,
		w:    bufio.NewWriterSize(f, fileBufferSize),
		size: size,
	}, nil
}

func (h *fileHandle) write(p []byte) error {
	n, err := h.w.Write(p)
	h.size += int64(n)
	return err
}

func (h *fileHandle) flush() error {
	return h.w.Flush()
}

// sync flushes the buffer and commits the file to stable storage
func (h *fileHandle) sync() error {
	if err := h.w.Flush(); err != nil {
		return err
	}
	return h.file.Sync()
}

func (h *fileHandle) close() error {
	flushErr := h.w.Flush()
	closeErr := h.file.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// fileSink holds the open-file state shared by the rotating and daily sinks.
// All methods expect the caller to hold mu.
type fileSink struct {
	base
	h          *fileHandle
	forceFlush bool
	lock       *flock.Flock
}

// acquireLock takes the advisory lock for filename when the option is set
func (s *fileSink) acquireLock(o options, filename string) error {
	if !o.fileLock {
		return nil
	}
	lockPath := filename + ".lock"
	if dir := filepath.Dir(lockPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return logerr.IO("lock", err, "failed to create lock directory '%s'", dir)
		}
	}
	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return logerr.IO("lock", err, "failed to lock '%s'", lockPath)
	}
	if !locked {
		return logerr.Configf("lock", "log file '%s' is locked by another writer", filename)
	}
	s.lock = fl
	return nil
}

func (s *fileSink) releaseLock() error {
	if s.lock == nil {
		return nil
	}
	err := s.lock.Unlock()
	s.lock = nil
	return err
}

// switchTo closes the current file and opens path
func (s *fileSink) switchTo(path string, truncate bool) error {
	var closeErr error
	if s.h != nil {
		closeErr = s.h.close()
		s.h = nil
	}
	h, err := openFile(path, truncate)
	if err != nil {
		return s.degrade(err)
	}
	s.h = h
	if closeErr != nil {
		return s.degrade(logerr.IO("rotate", closeErr, "failed to close previous log file"))
	}
	return nil
}

// writePayload writes p, reopening the file once if the first attempt fails
func (s *fileSink) writePayload(path string, p []byte) error {
	if s.h == nil {
		if err := s.switchTo(path, false); err != nil {
			return err
		}
	}

	err := s.h.write(p)
	if err != nil {
		_ = s.h.close()
		s.h = nil
		h, openErr := openFile(path, false)
		if openErr != nil {
			return s.degrade(logerr.IO("write", err, "write to '%s' failed and reopen failed: %v", path, openErr))
		}
		s.h = h
		if err = s.h.write(p); err != nil {
			return s.degrade(logerr.IO("write", err, "write to '%s' failed after reopen", path))
		}
	}

	if s.forceFlush {
		if err := s.h.flush(); err != nil {
			return s.degrade(logerr.IO("write", err, "flush of '%s' failed", path))
		}
	}
	s.heal()
	return nil
}

func (s *fileSink) flushLocked(op string) error {
	if s.closed {
		return logerr.Closed(op)
	}
	if s.h == nil {
		return nil
	}
	if err := s.h.sync(); err != nil {
		return s.degrade(logerr.IO(op, err, "sync of '%s' failed", s.h.path))
	}
	return nil
}

func (s *fileSink) closeLocked() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var err error
	if s.h != nil {
		if cerr := s.h.close(); cerr != nil {
			err = logerr.IO("close", cerr, "failed to close '%s'", s.h.path)
		}
		s.h = nil
	}
	if lerr := s.releaseLock(); lerr != nil && err == nil {
		err = logerr.IO("close", lerr, "failed to release file lock")
	}
	return err
}
