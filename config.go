// FILE: lixenwraith/fanlog/config.go
package log

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/lixenwraith/config"

	"github.com/lixenwraith/fanlog/formatter"
	"github.com/lixenwraith/fanlog/level"
)

// Config holds all logger configuration values
type Config struct {
	// Basic settings
	Name   string `toml:"name"`
	Level  string `toml:"level"`  // trace..emerg, off
	Format string `toml:"format"` // "txt", "json", or "raw"

	// Formatting
	TimestampFormat  string `toml:"timestamp_format"`
	ShowTimestamp    bool   `toml:"show_timestamp"`
	ShowLevel        bool   `toml:"show_level"`
	ShowName         bool   `toml:"show_name"`
	ShowGoroutine    bool   `toml:"show_goroutine"`
	ShortLevel       bool   `toml:"short_level"`
	UTC              bool   `toml:"utc"`
	CaptureGoroutine bool   `toml:"capture_goroutine"` // Record the calling goroutine id

	// Dispatcher
	Async             bool   `toml:"async"`
	QueueSize         int64  `toml:"queue_size"`
	OverflowPolicy    string `toml:"overflow_policy"` // "block_retry" or "discard_log_msg"
	Workers           int64  `toml:"workers"`
	FlushIntervalMs   int64  `toml:"flush_interval_ms"` // 0 disables periodic flush
	RetryMinMs        int64  `toml:"retry_min_ms"`
	RetryMaxMs        int64  `toml:"retry_max_ms"`
	ShutdownTimeoutMs int64  `toml:"shutdown_timeout_ms"`

	// Heartbeat and clock
	HeartbeatIntervalS int64 `toml:"heartbeat_interval_s"` // 0 disables
	CachedClock        bool  `toml:"cached_clock"`         // Millisecond-resolution cached timestamps

	// Console output
	EnableConsole bool   `toml:"enable_console"`
	ConsoleTarget string `toml:"console_target"` // "stdout" or "stderr"

	// File output
	FileMode       string `toml:"file_mode"` // "none", "rotating", or "daily"
	File           string `toml:"file"`
	MaxSizeKB      int64  `toml:"max_size_kb"`
	MaxFiles       int64  `toml:"max_files"`
	RotationHour   int64  `toml:"rotation_hour"`
	RotationMinute int64  `toml:"rotation_minute"`
	ForceFlush     bool   `toml:"force_flush"`
	FileLock       bool   `toml:"file_lock"`

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"`
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	Name:   "log",
	Level:  "info",
	Format: "txt",

	TimestampFormat: time.RFC3339Nano,
	ShowTimestamp:   true,
	ShowLevel:       true,
	ShowName:        true,

	Async:             false,
	QueueSize:         defaultQueueSize,
	OverflowPolicy:    "block_retry",
	Workers:           1,
	FlushIntervalMs:   1000,
	RetryMinMs:        int64(defaultRetryMin / time.Millisecond),
	RetryMaxMs:        int64(defaultRetryMax / time.Millisecond),
	ShutdownTimeoutMs: int64(defaultShutdownTimeout / time.Millisecond),

	HeartbeatIntervalS: 0,

	EnableConsole: true,
	ConsoleTarget: "stdout",

	FileMode:       FileModeNone,
	File:           "logs/app.log",
	MaxSizeKB:      10 * sizeMultiplier,
	MaxFiles:       5,
	RotationHour:   0,
	RotationMinute: 0,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads configuration from a TOML file and returns a validated Config.
// Keys are read under prefix, "log." when omitted. A missing file yields the defaults.
func NewConfigFromFile(path string, prefix ...string) (*Config, error) {
	cfg := DefaultConfig()

	keyPrefix := "log."
	if len(prefix) > 0 {
		keyPrefix = prefix[0]
		if keyPrefix != "" && !strings.HasSuffix(keyPrefix, ".") {
			keyPrefix += "."
		}
	}

	loader := config.New()
	if err := loader.RegisterStruct(keyPrefix, *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %v", err)
	}

	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %v", path, err)
	}

	if err := extractConfig(loader, keyPrefix, cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %v", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides keyed by toml tag
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmtErrorf("failed to apply overrides: %v", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// extractConfig copies values found by the loader into cfg
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue
		}

		if err := setFieldValue(v.Field(i), val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}
	return nil
}

// applyOverrides applies a map of overrides to the Config struct
func applyOverrides(cfg *Config, overrides map[string]any) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fieldMap := make(map[string]reflect.Value, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tomlTag := t.Field(i).Tag.Get("toml"); tomlTag != "" {
			fieldMap[tomlTag] = v.Field(i)
		}
	}

	for key, value := range overrides {
		fieldValue, exists := fieldMap[key]
		if !exists {
			return fmt.Errorf("unknown config key: %s", key)
		}
		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		case int32:
			field.SetInt(int64(v))
		case float64:
			if v != float64(int64(v)) {
				return fmt.Errorf("expected integer, got %v", v)
			}
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}
	return nil
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmtErrorf("log name cannot be empty")
	}

	if _, err := level.Parse(c.Level); err != nil {
		return err
	}

	if c.Format != "txt" && c.Format != "json" && c.Format != "raw" {
		return fmtErrorf("invalid format: '%s' (use txt, json, or raw)", c.Format)
	}

	if strings.TrimSpace(c.TimestampFormat) == "" {
		return fmtErrorf("timestamp_format cannot be empty")
	}

	if _, err := ParseOverflowPolicy(c.OverflowPolicy); err != nil {
		return err
	}

	if c.QueueSize <= 0 {
		return fmtErrorf("queue_size must be positive: %d", c.QueueSize)
	}

	if c.Workers < 1 {
		return fmtErrorf("workers must be at least 1: %d", c.Workers)
	}

	if c.FlushIntervalMs < 0 || c.HeartbeatIntervalS < 0 {
		return fmtErrorf("interval settings cannot be negative")
	}

	if c.RetryMinMs <= 0 || c.RetryMaxMs <= 0 || c.ShutdownTimeoutMs <= 0 {
		return fmtErrorf("retry and shutdown timings must be positive")
	}

	if c.RetryMinMs > c.RetryMaxMs {
		return fmtErrorf("retry_min_ms (%d) cannot be greater than retry_max_ms (%d)",
			c.RetryMinMs, c.RetryMaxMs)
	}

	if c.ConsoleTarget != "stdout" && c.ConsoleTarget != "stderr" {
		return fmtErrorf("invalid console_target: '%s' (use stdout or stderr)", c.ConsoleTarget)
	}

	switch c.FileMode {
	case FileModeNone:
	case FileModeRotating:
		if strings.TrimSpace(c.File) == "" {
			return fmtErrorf("file cannot be empty when file_mode is %s", c.FileMode)
		}
		if c.MaxSizeKB <= 0 {
			return fmtErrorf("max_size_kb must be positive: %d", c.MaxSizeKB)
		}
		if c.MaxFiles < 1 {
			return fmtErrorf("max_files must be at least 1: %d", c.MaxFiles)
		}
	case FileModeDaily:
		if strings.TrimSpace(c.File) == "" {
			return fmtErrorf("file cannot be empty when file_mode is %s", c.FileMode)
		}
		if c.RotationHour < 0 || c.RotationHour > 23 || c.RotationMinute < 0 || c.RotationMinute > 59 {
			return fmtErrorf("invalid rotation time %02d:%02d", c.RotationHour, c.RotationMinute)
		}
	default:
		return fmtErrorf("invalid file_mode: '%s' (use none, rotating, or daily)", c.FileMode)
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// newFormatter builds the template described by the formatting fields
func (c *Config) newFormatter() *formatter.Template {
	return formatter.New().
		Type(c.Format).
		TimestampFormat(c.TimestampFormat).
		ShowTimestamp(c.ShowTimestamp).
		ShowLevel(c.ShowLevel).
		ShowName(c.ShowName).
		ShowGoroutine(c.ShowGoroutine).
		ShortLevel(c.ShortLevel).
		UTC(c.UTC)
}

// formattingChanged reports whether any field feeding newFormatter differs
func formattingChanged(old, updated *Config) bool {
	return old.Format != updated.Format ||
		old.TimestampFormat != updated.TimestampFormat ||
		old.ShowTimestamp != updated.ShowTimestamp ||
		old.ShowLevel != updated.ShowLevel ||
		old.ShowName != updated.ShowName ||
		old.ShowGoroutine != updated.ShowGoroutine ||
		old.ShortLevel != updated.ShortLevel ||
		old.UTC != updated.UTC
}

// dispatcherConfig maps the dispatcher fields; Overflow is assumed validated
func (c *Config) dispatcherConfig() DispatcherConfig {
	policy, _ := ParseOverflowPolicy(c.OverflowPolicy)
	return DispatcherConfig{
		QueueSize:       int(c.QueueSize),
		Overflow:        policy,
		Workers:         int(c.Workers),
		FlushInterval:   time.Duration(c.FlushIntervalMs) * time.Millisecond,
		RetryMin:        time.Duration(c.RetryMinMs) * time.Millisecond,
		RetryMax:        time.Duration(c.RetryMaxMs) * time.Millisecond,
		ShutdownTimeout: time.Duration(c.ShutdownTimeoutMs) * time.Millisecond,
	}
}

// configRequiresRebuild reports whether moving from old to updated touches
// fields that are fixed once the logger exists
func configRequiresRebuild(old, updated *Config) bool {
	if old == nil {
		return false
	}
	return old.Name != updated.Name ||
		old.Async != updated.Async ||
		old.QueueSize != updated.QueueSize ||
		old.OverflowPolicy != updated.OverflowPolicy ||
		old.Workers != updated.Workers ||
		old.FlushIntervalMs != updated.FlushIntervalMs ||
		old.RetryMinMs != updated.RetryMinMs ||
		old.RetryMaxMs != updated.RetryMaxMs ||
		old.ShutdownTimeoutMs != updated.ShutdownTimeoutMs ||
		old.CachedClock != updated.CachedClock ||
		old.EnableConsole != updated.EnableConsole ||
		old.ConsoleTarget != updated.ConsoleTarget ||
		old.FileMode != updated.FileMode ||
		old.File != updated.File ||
		old.MaxSizeKB != updated.MaxSizeKB ||
		old.MaxFiles != updated.MaxFiles ||
		old.RotationHour != updated.RotationHour ||
		old.RotationMinute != updated.RotationMinute ||
		old.ForceFlush != updated.ForceFlush ||
		old.FileLock != updated.FileLock
}
