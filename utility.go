// FILE: lixenwraith/fanlog/utility.go
package log

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/lixenwraith/fanlog/formatter"
	"github.com/lixenwraith/fanlog/internal/logerr"
	"github.com/lixenwraith/fanlog/sink"
)

// fmtErrorf returns a config-kind error with the "log: " prefix
func fmtErrorf(format string, args ...any) error {
	format = strings.TrimPrefix(format, "log: ")
	return &logerr.Error{Kind: logerr.KindConfig, Msg: fmt.Sprintf(format, args...)}
}

// timeoutErrorf returns an io-kind error whose cause is context.DeadlineExceeded
func timeoutErrorf(op, format string, args ...any) error {
	return logerr.IO(op, context.DeadlineExceeded, format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return fmt.Errorf("%v; %w", err1, err2)
}

// combineConfigErrors joins several override errors into one numbered message
func combineConfigErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	var sb strings.Builder
	sb.WriteString("multiple configuration errors:")
	for i, err := range errs {
		// Remove "log: " prefix from individual errors to avoid duplication
		errMsg := strings.TrimPrefix(err.Error(), "log: ")
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, errMsg)
	}
	return fmtErrorf("%s", sb.String())
}

// parseKeyValue splits a "key=value" string
func parseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmtErrorf("invalid format in override string '%s', expected key=value", arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmtErrorf("key cannot be empty in override string '%s'", arg)
	}
	return key, value, nil
}

// goroutineID parses the id from the first line of the current stack: "goroutine 42 [running]:"
func goroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// writeSink calls s.Write, turning a panic into an error
func writeSink(s sink.Sink, r *formatter.Record) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = logerr.IO("write", fmt.Errorf("%v", p), "sink panicked")
		}
	}()
	return s.Write(r)
}

// flushSink calls s.Flush, turning a panic into an error
func flushSink(s sink.Sink) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = logerr.IO("flush", fmt.Errorf("%v", p), "sink panicked")
		}
	}()
	return s.Flush()
}

// safeCall runs fn, turning a panic into an error
func safeCall(fn func()) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmtErrorf("callback panicked: %v", p)
		}
	}()
	fn()
	return nil
}
