package log2what

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplyOverride applies "key=value" overrides to the configuration.
// All overrides are applied to a copy and validated before c is changed,
// so a failing set leaves c untouched.
//
// Example:
//
//	cfg := log2what.DefaultConfig()
//	err := cfg.ApplyOverride(
//	    "directory=/var/log/app",
//	    "level=info",
//	    "max_generations=10",
//	)
func (c *Config) ApplyOverride(overrides ...string) error {
	cfg := c.Clone()

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

	if err := cfg.Validate(); err != nil {
		return err
	}
	*c = *cfg
	return nil
}

// combineConfigErrors combines multiple configuration errors into a single error.
func combineConfigErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	var sb strings.Builder
	sb.WriteString("log2what: multiple configuration errors:")
	for i, err := range errs {
		errMsg := strings.TrimPrefix(err.Error(), "log2what: ")
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, errMsg))
	}
	return fmt.Errorf("%s", sb.String())
}

// applyConfigField applies a single key-value override to a Config
func applyConfigField(cfg *Config, key, value string) error {
	switch key {
	case "module":
		cfg.Module = value
	case "level":
		if _, err := ParseLevel(value); err != nil {
			return fmtErrorf("invalid level value '%s': %w", value, err)
		}
		cfg.Level = value

	case "enable_console":
		return setBool(&cfg.EnableConsole, key, value)
	case "console_target":
		cfg.ConsoleTarget = value

	case "enable_file":
		return setBool(&cfg.EnableFile, key, value)
	case "file_name":
		cfg.FileName = value
	case "directory":
		cfg.Directory = value
	case "max_file_size":
		return setInt(&cfg.MaxFileSize, key, value)
	case "max_generations":
		return setInt(&cfg.MaxGenerations, key, value)
	case "keep_open":
		return setBool(&cfg.KeepOpen, key, value)

	case "enable_trigger":
		return setBool(&cfg.EnableTrigger, key, value)
	case "trigger_level":
		if _, err := ParseLevel(value); err != nil {
			return fmtErrorf("invalid trigger_level value '%s': %w", value, err)
		}
		cfg.TriggerLevel = value
	case "trigger_before":
		return setInt(&cfg.TriggerBefore, key, value)
	case "trigger_after":
		return setInt(&cfg.TriggerAfter, key, value)

	case "enable_archive":
		return setBool(&cfg.EnableArchive, key, value)
	case "archive_path":
		cfg.ArchivePath = value
	case "archive_max_size_mb":
		return setInt(&cfg.ArchiveMaxSizeMB, key, value)
	case "archive_max_backups":
		return setInt(&cfg.ArchiveMaxBackups, key, value)
	case "archive_max_age_days":
		return setInt(&cfg.ArchiveMaxAgeDays, key, value)
	case "archive_compress":
		return setBool(&cfg.ArchiveCompress, key, value)

	case "enable_db":
		return setBool(&cfg.EnableDB, key, value)
	case "db_driver":
		cfg.DBDriver = value
	case "db_url":
		cfg.DBURL = value
	case "db_batch_size":
		return setInt(&cfg.DBBatchSize, key, value)
	case "db_flush_interval_ms":
		return setInt(&cfg.DBFlushIntervalMs, key, value)
	case "db_keep_alive":
		return setBool(&cfg.DBKeepAlive, key, value)

	case "heartbeat_interval_s":
		return setInt(&cfg.HeartbeatIntervalS, key, value)

	case "internal_errors_to_stderr":
		return setBool(&cfg.InternalErrorsToStderr, key, value)

	default:
		return fmtErrorf("unknown configuration key '%s'", key)
	}
	return nil
}

func setBool(dst *bool, key, value string) error {
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return fmtErrorf("invalid boolean value for %s '%s': %w", key, value, err)
	}
	*dst = boolVal
	return nil
}

func setInt(dst *int64, key, value string) error {
	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmtErrorf("invalid integer value for %s '%s': %w", key, value, err)
	}
	*dst = intVal
	return nil
}
