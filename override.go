// FILE: lixenwraith/fanlog/override.go
package log

import (
	"strconv"

	"github.com/lixenwraith/fanlog/level"
)

// ApplyOverride applies "key=value" overrides to a copy of the current configuration,
// then installs it with ApplyConfig. Keys are the Config toml tags.
//
// Example:
//
//	err := logger.ApplyOverride(
//	    "level=debug",
//	    "format=json",
//	    "show_goroutine=true",
//	)
func (l *Logger) ApplyOverride(overrides ...string) error {
	cfg := l.GetConfig()

	var errs []error
	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := applyConfigField(cfg, key, value); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return combineConfigErrors(errs)
	}
	return l.ApplyConfig(cfg)
}

// applyConfigField applies a single key-value override to a Config
func applyConfigField(cfg *Config, key, value string) error {
	switch key {
	// Basic settings
	case "name":
		cfg.Name = value
	case "level":
		// Accept numeric values as well as names
		if n, err := strconv.Atoi(value); err == nil {
			lvl := level.Level(n)
			if err := level.Check(lvl); err != nil {
				return err
			}
			cfg.Level = lvl.String()
		} else {
			lvl, err := level.Parse(value)
			if err != nil {
				return err
			}
			cfg.Level = lvl.String()
		}
	case "format":
		cfg.Format = value

	// Formatting
	case "timestamp_format":
		cfg.TimestampFormat = value
	case "show_timestamp":
		return parseBoolField(key, value, &cfg.ShowTimestamp)
	case "show_level":
		return parseBoolField(key, value, &cfg.ShowLevel)
	case "show_name":
		return parseBoolField(key, value, &cfg.ShowName)
	case "show_goroutine":
		return parseBoolField(key, value, &cfg.ShowGoroutine)
	case "short_level":
		return parseBoolField(key, value, &cfg.ShortLevel)
	case "utc":
		return parseBoolField(key, value, &cfg.UTC)
	case "capture_goroutine":
		return parseBoolField(key, value, &cfg.CaptureGoroutine)

	// Dispatcher
	case "async":
		return parseBoolField(key, value, &cfg.Async)
	case "queue_size":
		return parseIntField(key, value, &cfg.QueueSize)
	case "overflow_policy":
		policy, err := ParseOverflowPolicy(value)
		if err != nil {
			return err
		}
		cfg.OverflowPolicy = policy.String()
	case "workers":
		return parseIntField(key, value, &cfg.Workers)
	case "flush_interval_ms":
		return parseIntField(key, value, &cfg.FlushIntervalMs)
	case "retry_min_ms":
		return parseIntField(key, value, &cfg.RetryMinMs)
	case "retry_max_ms":
		return parseIntField(key, value, &cfg.RetryMaxMs)
	case "shutdown_timeout_ms":
		return parseIntField(key, value, &cfg.ShutdownTimeoutMs)

	// Heartbeat and clock
	case "heartbeat_interval_s":
		return parseIntField(key, value, &cfg.HeartbeatIntervalS)
	case "cached_clock":
		return parseBoolField(key, value, &cfg.CachedClock)

	// Console
	case "enable_console":
		return parseBoolField(key, value, &cfg.EnableConsole)
	case "console_target":
		cfg.ConsoleTarget = value

	// File
	case "file_mode":
		cfg.FileMode = value
	case "file":
		cfg.File = value
	case "max_size_kb":
		return parseIntField(key, value, &cfg.MaxSizeKB)
	case "max_files":
		return parseIntField(key, value, &cfg.MaxFiles)
	case "rotation_hour":
		return parseIntField(key, value, &cfg.RotationHour)
	case "rotation_minute":
		return parseIntField(key, value, &cfg.RotationMinute)
	case "force_flush":
		return parseBoolField(key, value, &cfg.ForceFlush)
	case "file_lock":
		return parseBoolField(key, value, &cfg.FileLock)

	// Internal error handling
	case "internal_errors_to_stderr":
		return parseBoolField(key, value, &cfg.InternalErrorsToStderr)

	default:
		return fmtErrorf("unknown config key in override: %s", key)
	}

	return nil
}

func parseBoolField(key, value string, dst *bool) error {
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return fmtErrorf("invalid boolean value for %s '%s': %v", key, value, err)
	}
	*dst = boolVal
	return nil
}

func parseIntField(key, value string, dst *int64) error {
	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmtErrorf("invalid integer value for %s '%s': %v", key, value, err)
	}
	*dst = intVal
	return nil
}
