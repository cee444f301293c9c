// FILE: lixenwraith/fanlog/compat/gnet.go
package compat

import (
	"fmt"
	"os"
	"time"

	"github.com/panjf2000/gnet/v2/pkg/logging"

	log "github.com/lixenwraith/fanlog"
)

var _ logging.Logger = (*GnetAdapter)(nil)

// GnetAdapter routes gnet engine logs into a fanlog Logger
type GnetAdapter struct {
	logger       *log.Logger
	prefix       string
	flushTimeout time.Duration
	fatalHandler func(msg string)
}

// NewGnetAdapter creates a new gnet-compatible logger adapter
func NewGnetAdapter(logger *log.Logger, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		logger:       logger,
		prefix:       "gnet: ",
		flushTimeout: time.Second,
		fatalHandler: func(string) {
			os.Exit(1)
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler replaces the default os.Exit(1) on Fatalf
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// WithPrefix sets the text prepended to every gnet message
func WithPrefix(prefix string) GnetOption {
	return func(a *GnetAdapter) {
		a.prefix = prefix
	}
}

// WithFatalFlushTimeout bounds the flush performed before the fatal handler runs
func WithFatalFlushTimeout(d time.Duration) GnetOption {
	return func(a *GnetAdapter) {
		a.flushTimeout = d
	}
}

func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.logger.Debugf(a.prefix+format, args...)
}

func (a *GnetAdapter) Infof(format string, args ...any) {
	a.logger.Infof(a.prefix+format, args...)
}

func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.logger.Warnf(a.prefix+format, args...)
}

func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.logger.Errorf(a.prefix+format, args...)
}

// Fatalf logs at critical, flushes, then hands off to the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.logger.Critical(a.prefix + msg)
	_ = a.logger.Flush(a.flushTimeout)

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}
