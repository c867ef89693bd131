package log2what

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/lixenwraith/config"
)

// configPrefix is the TOML table holding logger settings
const configPrefix = "log2what."

// Config holds all logger configuration values
type Config struct {
	// Front end
	Module string `toml:"module"` // Module name stamped on every record
	Level  string `toml:"level"`  // Minimum level forwarded: trace, debug, info, warn, error

	// Console output
	EnableConsole bool   `toml:"enable_console"`
	ConsoleTarget string `toml:"console_target"` // "stdout" or "stderr"

	// Rotating file sink
	EnableFile     bool   `toml:"enable_file"`
	FileName       string `toml:"file_name"` // Base name, files are file_name.log.<suffix>
	Directory      string `toml:"directory"`
	MaxFileSize    int64  `toml:"max_file_size"`   // Bytes per generation, <= 1 disables rotation
	MaxGenerations int64  `toml:"max_generations"` // Generations kept, <= 1 disables rotation
	KeepOpen       bool   `toml:"keep_open"`       // Keep the file open after the last handle closes

	// Trigger buffer
	EnableTrigger bool   `toml:"enable_trigger"`
	TriggerLevel  string `toml:"trigger_level"`  // Level that flushes the buffer
	TriggerBefore int64  `toml:"trigger_before"` // Records held before a trigger
	TriggerAfter  int64  `toml:"trigger_after"`  // Records forwarded after a trigger

	// Lumberjack archive stream
	EnableArchive     bool   `toml:"enable_archive"`
	ArchivePath       string `toml:"archive_path"`
	ArchiveMaxSizeMB  int64  `toml:"archive_max_size_mb"`
	ArchiveMaxBackups int64  `toml:"archive_max_backups"`
	ArchiveMaxAgeDays int64  `toml:"archive_max_age_days"`
	ArchiveCompress   bool   `toml:"archive_compress"`

	// Database sink, assembled by callers through Builder.Writer
	EnableDB          bool   `toml:"enable_db"`
	DBDriver          string `toml:"db_driver"`
	DBURL             string `toml:"db_url"`
	DBBatchSize       int64  `toml:"db_batch_size"`        // Rows per insert statement
	DBFlushIntervalMs int64  `toml:"db_flush_interval_ms"` // 0 flushes only on full batch and close
	DBKeepAlive       bool   `toml:"db_keep_alive"`

	// Heartbeat
	HeartbeatIntervalS int64 `toml:"heartbeat_interval_s"` // 0 disables the heartbeat

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"` // Report sink failures on stderr
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	Module: defaultModule,
	Level:  "trace",

	EnableConsole: false,
	ConsoleTarget: "stdout",

	EnableFile:     true,
	FileName:       defaultFileName,
	Directory:      defaultDirectory,
	MaxFileSize:    defaultMaxSize,
	MaxGenerations: defaultMaxGenerations,
	KeepOpen:       false,

	EnableTrigger: false,
	TriggerLevel:  "info",
	TriggerBefore: defaultTriggerBefore,
	TriggerAfter:  defaultTriggerAfter,

	EnableArchive:     false,
	ArchivePath:       "./log/archive.log",
	ArchiveMaxSizeMB:  100,
	ArchiveMaxBackups: 10,
	ArchiveMaxAgeDays: 30,
	ArchiveCompress:   true,

	EnableDB:          false,
	DBDriver:          "sqlite",
	DBURL:             "./log/log2.db",
	DBBatchSize:       100,
	DBFlushIntervalMs: 0,
	DBKeepAlive:       false,

	HeartbeatIntervalS: 0,

	InternalErrorsToStderr: false,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads configuration from the [log2what] table of a TOML file.
// A missing file yields the defaults.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	loader := config.New()
	if err := loader.RegisterStruct(configPrefix, *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}

	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}

	if err := extractConfig(loader, configPrefix, cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies typed overrides
// keyed by their toml names
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmtErrorf("failed to apply overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// extractConfig copies every registered key found by the loader into cfg
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

// applyOverrides sets fields of cfg from a map keyed by toml name
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

// setFieldValue sets a reflect.Value with type conversion for the kinds Config uses
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
		case float64:
			// TOML decoders may hand back whole numbers as floats
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

// Validate clamps size and count limits to their safe minimums and rejects
// values that cannot be interpreted
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Module) == "" {
		c.Module = defaultModule
	}
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}
	if c.ConsoleTarget != "stdout" && c.ConsoleTarget != "stderr" {
		return fmtErrorf("invalid console_target: '%s' (use stdout or stderr)", c.ConsoleTarget)
	}

	if strings.TrimSpace(c.FileName) == "" {
		c.FileName = defaultFileName
	}
	if strings.TrimSpace(c.Directory) == "" {
		c.Directory = defaultDirectory
	}
	if c.MaxFileSize < 1 {
		c.MaxFileSize = 1
	}
	if c.MaxGenerations < 0 {
		c.MaxGenerations = 0
	}

	if _, err := ParseLevel(c.TriggerLevel); err != nil {
		return fmtErrorf("invalid trigger_level: %w", err)
	}
	if c.TriggerBefore < 0 {
		c.TriggerBefore = 0
	}
	if c.TriggerAfter < 0 {
		c.TriggerAfter = 0
	}

	if c.EnableArchive && strings.TrimSpace(c.ArchivePath) == "" {
		return fmtErrorf("archive_path cannot be empty when the archive is enabled")
	}
	if c.ArchiveMaxSizeMB < 0 || c.ArchiveMaxBackups < 0 || c.ArchiveMaxAgeDays < 0 {
		return fmtErrorf("archive limits cannot be negative")
	}

	if c.EnableDB && (strings.TrimSpace(c.DBDriver) == "" || strings.TrimSpace(c.DBURL) == "") {
		return fmtErrorf("db_driver and db_url cannot be empty when the db sink is enabled")
	}
	if c.DBBatchSize < 1 {
		c.DBBatchSize = 1
	}
	if c.DBFlushIntervalMs < 0 {
		c.DBFlushIntervalMs = 0
	}

	if c.HeartbeatIntervalS < 0 {
		return fmtErrorf("heartbeat_interval_s cannot be negative: %d", c.HeartbeatIntervalS)
	}
	return nil
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// LevelValue returns the parsed minimum level, LevelTrace if unparseable
func (c *Config) LevelValue() Level {
	l, err := ParseLevel(c.Level)
	if err != nil {
		return LevelTrace
	}
	return l
}

// FileConfig returns the file sink configuration
func (c *Config) FileConfig() FileConfig {
	return FileConfig{
		Name:           c.FileName,
		Directory:      c.Directory,
		MaxSize:        c.MaxFileSize,
		MaxGenerations: int(c.MaxGenerations),
		KeepOpen:       c.KeepOpen,
	}
}

// TriggerConfig returns the trigger buffer configuration
func (c *Config) TriggerConfig() TriggerConfig {
	mask, err := ParseLevel(c.TriggerLevel)
	if err != nil {
		mask = LevelInfo
	}
	return TriggerConfig{
		Mask:   mask,
		Before: int(c.TriggerBefore),
		After:  int(c.TriggerAfter),
	}
}

// ArchiveConfig returns the lumberjack archive configuration
func (c *Config) ArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		Path:       c.ArchivePath,
		MaxSizeMB:  int(c.ArchiveMaxSizeMB),
		MaxBackups: int(c.ArchiveMaxBackups),
		MaxAgeDays: int(c.ArchiveMaxAgeDays),
		Compress:   c.ArchiveCompress,
	}
}
