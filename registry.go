// FILE: lixenwraith/fanlog/registry.go
package log

import (
	"sort"
	"sync"
	"time"

	"github.com/lixenwraith/fanlog/formatter"
	"github.com/lixenwraith/fanlog/internal/logerr"
	"github.com/lixenwraith/fanlog/level"
	"github.com/lixenwraith/fanlog/sink"
)

// Registry tracks loggers by name and applies settings to all of them.
// In async mode every logger it creates shares one dispatcher owned by the registry.
type Registry struct {
	mu         sync.Mutex
	loggers    map[string]*Logger
	level      Level
	formatter  formatter.Formatter // nil means each logger keeps its configured template
	handler    ErrorHandler
	dispatcher *Dispatcher
	closed     bool
}

// NewRegistry creates an empty registry in sync mode
func NewRegistry() *Registry {
	return &Registry{
		loggers: make(map[string]*Logger),
		level:   level.Info,
	}
}

// Register adds an existing logger. Names must be unique.
// The logger keeps its own mode; registry-wide level and formatter are applied to it.
func (r *Registry) Register(l *Logger) error {
	if l == nil {
		return fmtErrorf("cannot register nil logger")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return logerr.Closed("register")
	}
	if _, exists := r.loggers[l.Name()]; exists {
		return fmtErrorf("logger with name '%s' already exists", l.Name())
	}
	r.adopt(l)
	r.loggers[l.Name()] = l
	return nil
}

// Create builds a logger attached to sinks, bound to the shared dispatcher in async mode
func (r *Registry) Create(name string, sinks ...sink.Sink) (*Logger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, logerr.Closed("create")
	}
	if _, exists := r.loggers[name]; exists {
		return nil, fmtErrorf("logger with name '%s' already exists", name)
	}

	l := NewLogger(name, sinks...)
	if r.dispatcher != nil {
		l.bind(r.dispatcher)
	}
	r.adopt(l)
	r.loggers[name] = l
	return l, nil
}

// adopt applies registry-wide settings; caller holds mu
func (r *Registry) adopt(l *Logger) {
	_ = l.SetLevel(r.level)
	if r.formatter != nil {
		l.SetFormatter(r.formatter)
	}
	if r.handler != nil {
		l.SetErrorHandler(r.handler)
	}
}

// Get returns the logger registered under name
func (r *Registry) Get(name string) (*Logger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loggers[name]
	return l, ok
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.loggers))
	for name := range r.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Drop removes and closes the named logger
func (r *Registry) Drop(name string) error {
	r.mu.Lock()
	l, ok := r.loggers[name]
	delete(r.loggers, name)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return l.Close()
}

// DropAll removes and closes every logger
func (r *Registry) DropAll() error {
	r.mu.Lock()
	loggers := r.takeAll()
	r.mu.Unlock()

	var finalErr error
	for _, l := range loggers {
		finalErr = combineErrors(finalErr, l.Close())
	}
	return finalErr
}

// takeAll empties the map; caller holds mu
func (r *Registry) takeAll() []*Logger {
	loggers := make([]*Logger, 0, len(r.loggers))
	for name, l := range r.loggers {
		loggers = append(loggers, l)
		delete(r.loggers, name)
	}
	return loggers
}

// SetLevel sets the level of every current and future logger
func (r *Registry) SetLevel(lvl Level) error {
	if err := level.Check(lvl); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.level = lvl
	for _, l := range r.loggers {
		_ = l.SetLevel(lvl)
	}
	return nil
}

// SetFormatter sets the formatter of every current and future logger
func (r *Registry) SetFormatter(f formatter.Formatter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formatter = f
	for _, l := range r.loggers {
		l.SetFormatter(f)
	}
}

// SetErrorHandler sets the sink error handler of every current and future logger
func (r *Registry) SetErrorHandler(fn ErrorHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handler = fn
	for _, l := range r.loggers {
		l.SetErrorHandler(fn)
	}
}

// SetAsyncMode starts a shared dispatcher for loggers created from now on.
// Returns ErrModeLocked while any logger is registered.
func (r *Registry) SetAsyncMode(cfg DispatcherConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return logerr.Closed("set async mode")
	}
	if len(r.loggers) > 0 {
		return ErrModeLocked
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = r.handler
	}
	d, err := NewDispatcher(cfg)
	if err != nil {
		return err
	}
	if r.dispatcher != nil {
		_ = r.dispatcher.Shutdown()
	}
	r.dispatcher = d
	return nil
}

// SetSyncMode shuts down the shared dispatcher.
// Returns ErrModeLocked while any logger is registered.
func (r *Registry) SetSyncMode() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.loggers) > 0 {
		return ErrModeLocked
	}
	if r.dispatcher == nil {
		return nil
	}
	err := r.dispatcher.Shutdown()
	r.dispatcher = nil
	return err
}

// Dispatcher returns the shared dispatcher, nil in sync mode
func (r *Registry) Dispatcher() *Dispatcher {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dispatcher
}

// Flush flushes every registered logger
func (r *Registry) Flush(timeout time.Duration) error {
	r.mu.Lock()
	loggers := make([]*Logger, 0, len(r.loggers))
	for _, l := range r.loggers {
		loggers = append(loggers, l)
	}
	r.mu.Unlock()

	var finalErr error
	for _, l := range loggers {
		finalErr = combineErrors(finalErr, l.Flush(timeout))
	}
	return finalErr
}

// Shutdown closes every logger, then drains and stops the shared dispatcher.
// The registry refuses new loggers afterwards.
func (r *Registry) Shutdown(timeout ...time.Duration) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	loggers := r.takeAll()
	d := r.dispatcher
	r.dispatcher = nil
	r.mu.Unlock()

	var finalErr error
	for _, l := range loggers {
		finalErr = combineErrors(finalErr, l.Close(timeout...))
	}
	if d != nil {
		finalErr = combineErrors(finalErr, d.Shutdown(timeout...))
	}
	return finalErr
}
