// FILE: lixenwraith/fanlog/builder.go
package log

import (
	"time"

	"github.com/agilira/go-timecache"

	"github.com/lixenwraith/fanlog/formatter"
	"github.com/lixenwraith/fanlog/level"
	"github.com/lixenwraith/fanlog/sink"
)

// New creates a logger from cfg. Console and file sinks described by cfg are created
// and owned by the logger; extra sinks are attached after them and stay open on Close.
// When cfg.Async is set the logger owns a dispatcher built from the dispatcher fields.
func New(cfg *Config, extra ...sink.Sink) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.Clone()

	l := &Logger{name: cfg.Name}
	if cfg.CachedClock {
		l.clock = timecache.NewWithResolution(time.Millisecond)
	}

	owned, err := buildSinks(cfg, l.now)
	if err != nil {
		if l.clock != nil {
			l.clock.Stop()
		}
		return nil, err
	}
	l.ownedSinks = owned
	l.storeSinks(append(append([]sink.Sink(nil), owned...), extra...))

	if cfg.Async {
		d, err := NewDispatcher(cfg.dispatcherConfig())
		if err != nil {
			closeSinks(owned)
			if l.clock != nil {
				l.clock.Stop()
			}
			return nil, err
		}
		l.dispatcher.Store(d)
		l.ownsDispatcher = true
	}

	l.state.StartTime.Store(time.Now())

	l.initMu.Lock()
	defer l.initMu.Unlock()
	if err := l.applyConfig(cfg); err != nil {
		return nil, err
	}
	return l, nil
}

// buildSinks opens the console and file sinks cfg asks for
func buildSinks(cfg *Config, clock func() time.Time) ([]sink.Sink, error) {
	var sinks []sink.Sink

	if cfg.EnableConsole {
		if cfg.ConsoleTarget == "stderr" {
			sinks = append(sinks, sink.Stderr())
		} else {
			sinks = append(sinks, sink.Stdout())
		}
	}

	var opts []sink.Option
	if cfg.FileLock {
		opts = append(opts, sink.WithFileLock())
	}

	switch cfg.FileMode {
	case FileModeRotating:
		s, err := sink.NewRotatingFile(sink.RotatingFileConfig{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeKB * sizeMultiplier,
			MaxFiles:   int(cfg.MaxFiles),
			ForceFlush: cfg.ForceFlush,
		}, opts...)
		if err != nil {
			closeSinks(sinks)
			return nil, err
		}
		sinks = append(sinks, s)

	case FileModeDaily:
		opts = append(opts, sink.WithClock(clock))
		s, err := sink.NewDailyFile(sink.DailyFileConfig{
			Filename:   cfg.File,
			Hour:       int(cfg.RotationHour),
			Minute:     int(cfg.RotationMinute),
			ForceFlush: cfg.ForceFlush,
		}, opts...)
		if err != nil {
			closeSinks(sinks)
			return nil, err
		}
		sinks = append(sinks, s)
	}

	return sinks, nil
}

func closeSinks(sinks []sink.Sink) {
	for _, s := range sinks {
		_ = s.Close()
	}
}

// Builder provides a fluent API for building loggers.
// It wraps a Config and collects extra sinks and callbacks applied at Build.
type Builder struct {
	cfg       *Config
	sinks     []sink.Sink
	formatter formatter.Formatter
	handler   ErrorHandler
	err       error // Accumulate errors for deferred handling
}

// NewBuilder creates a new builder with default values
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build creates a new Logger instance with the specified configuration
func (b *Builder) Build() (*Logger, error) {
	if b.err != nil {
		return nil, b.err
	}

	logger, err := New(b.cfg, b.sinks...)
	if err != nil {
		return nil, err
	}
	if b.formatter != nil {
		logger.SetFormatter(b.formatter)
	}
	if b.handler != nil {
		logger.SetErrorHandler(b.handler)
	}
	return logger, nil
}

// Config returns a copy of the configuration built so far
func (b *Builder) Config() *Config {
	return b.cfg.Clone()
}

// Name sets the logger name
func (b *Builder) Name(name string) *Builder {
	b.cfg.Name = name
	return b
}

// Level sets the minimum level
func (b *Builder) Level(lvl Level) *Builder {
	if b.err != nil {
		return b
	}
	if err := level.Check(lvl); err != nil {
		b.err = err
		return b
	}
	b.cfg.Level = lvl.String()
	return b
}

// LevelString sets the minimum level from a name
func (b *Builder) LevelString(s string) *Builder {
	if b.err != nil {
		return b
	}
	lvl, err := level.Parse(s)
	if err != nil {
		b.err = err
		return b
	}
	b.cfg.Level = lvl.String()
	return b
}

// Format sets the output format
func (b *Builder) Format(format string) *Builder {
	b.cfg.Format = format
	return b
}

// TimestampFormat sets the time layout
func (b *Builder) TimestampFormat(layout string) *Builder {
	b.cfg.TimestampFormat = layout
	return b
}

// ShowGoroutine enables goroutine capture and its output field
func (b *Builder) ShowGoroutine(show bool) *Builder {
	b.cfg.ShowGoroutine = show
	b.cfg.CaptureGoroutine = show
	return b
}

// ShortLevel selects one-letter level names
func (b *Builder) ShortLevel(short bool) *Builder {
	b.cfg.ShortLevel = short
	return b
}

// UTC renders timestamps in UTC
func (b *Builder) UTC(utc bool) *Builder {
	b.cfg.UTC = utc
	return b
}

// Async enables dispatch through an owned dispatcher
func (b *Builder) Async(queueSize int64, policy OverflowPolicy) *Builder {
	b.cfg.Async = true
	b.cfg.QueueSize = queueSize
	b.cfg.OverflowPolicy = policy.String()
	return b
}

// Workers sets the dispatcher worker count
func (b *Builder) Workers(n int64) *Builder {
	b.cfg.Workers = n
	return b
}

// FlushInterval sets the dispatcher periodic flush, 0 disables
func (b *Builder) FlushInterval(d time.Duration) *Builder {
	b.cfg.FlushIntervalMs = d.Milliseconds()
	return b
}

// ShutdownTimeout sets the default drain grace
func (b *Builder) ShutdownTimeout(d time.Duration) *Builder {
	b.cfg.ShutdownTimeoutMs = d.Milliseconds()
	return b
}

// CachedClock switches record timestamps to a millisecond cached clock
func (b *Builder) CachedClock(enable bool) *Builder {
	b.cfg.CachedClock = enable
	return b
}

// HeartbeatInterval sets the heartbeat period, 0 disables
func (b *Builder) HeartbeatInterval(d time.Duration) *Builder {
	b.cfg.HeartbeatIntervalS = int64(d / time.Second)
	return b
}

// Console enables console output to "stdout" or "stderr"
func (b *Builder) Console(target string) *Builder {
	b.cfg.EnableConsole = true
	b.cfg.ConsoleTarget = target
	return b
}

// NoConsole disables console output
func (b *Builder) NoConsole() *Builder {
	b.cfg.EnableConsole = false
	return b
}

// RotatingFile adds a size-rotating file sink
func (b *Builder) RotatingFile(file string, maxSizeKB, maxFiles int64) *Builder {
	b.cfg.FileMode = FileModeRotating
	b.cfg.File = file
	b.cfg.MaxSizeKB = maxSizeKB
	b.cfg.MaxFiles = maxFiles
	return b
}

// DailyFile adds a daily file sink rotating at hour:minute
func (b *Builder) DailyFile(file string, hour, minute int64) *Builder {
	b.cfg.FileMode = FileModeDaily
	b.cfg.File = file
	b.cfg.RotationHour = hour
	b.cfg.RotationMinute = minute
	return b
}

// ForceFlush flushes file sinks after every record
func (b *Builder) ForceFlush(enable bool) *Builder {
	b.cfg.ForceFlush = enable
	return b
}

// FileLock guards file sinks with an advisory lock
func (b *Builder) FileLock(enable bool) *Builder {
	b.cfg.FileLock = enable
	return b
}

// Sink attaches an externally owned sink
func (b *Builder) Sink(s sink.Sink) *Builder {
	if s != nil {
		b.sinks = append(b.sinks, s)
	}
	return b
}

// Formatter replaces the configured template
func (b *Builder) Formatter(f formatter.Formatter) *Builder {
	b.formatter = f
	return b
}

// ErrorHandler sets the sink error receiver
func (b *Builder) ErrorHandler(fn ErrorHandler) *Builder {
	b.handler = fn
	return b
}

// InternalErrorsToStderr toggles stderr diagnostics
func (b *Builder) InternalErrorsToStderr(enable bool) *Builder {
	b.cfg.InternalErrorsToStderr = enable
	return b
}

// Example usage:
// logger, err := log.NewBuilder().
//
//	Name("api").
//	LevelString("debug").
//	Async(4096, log.BlockRetry).
//	RotatingFile("logs/api.log", 10240, 5).
//	Build()
//
// if err == nil {
//
//	 defer logger.Close()
//	 logger.Info("Logger initialized successfully")
//
// }
