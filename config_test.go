package log2what

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "root", cfg.Module)
	assert.Equal(t, LevelTrace, cfg.LevelValue())
	assert.True(t, cfg.EnableFile)
	assert.False(t, cfg.EnableConsole)
	assert.False(t, cfg.EnableTrigger)
	assert.Equal(t, DefaultFileConfig(), cfg.FileConfig())
	assert.Equal(t, DefaultTriggerConfig(), cfg.TriggerConfig())

	// Copies are independent
	cfg.Module = "changed"
	assert.Equal(t, "root", DefaultConfig().Module)
}

func TestNewConfigFromFile(t *testing.T) {
	t.Run("reads the log2what table", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.toml")
		content := `
[log2what]
module = "server"
level = "warn"
file_name = "server"
directory = "/var/log/server"
max_file_size = 4096
max_generations = 7
keep_open = true
enable_trigger = true
trigger_level = "error"
trigger_before = 20
trigger_after = 5
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := NewConfigFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "server", cfg.Module)
		assert.Equal(t, LevelWarn, cfg.LevelValue())
		assert.Equal(t, FileConfig{
			Name:           "server",
			Directory:      "/var/log/server",
			MaxSize:        4096,
			MaxGenerations: 7,
			KeepOpen:       true,
		}, cfg.FileConfig())
		assert.True(t, cfg.EnableTrigger)
		assert.Equal(t, TriggerConfig{Mask: LevelError, Before: 20, After: 5}, cfg.TriggerConfig())

		// Keys absent from the file keep their defaults
		assert.True(t, cfg.EnableFile)
		assert.Equal(t, "stdout", cfg.ConsoleTarget)
	})

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := NewConfigFromFile(filepath.Join(t.TempDir(), "absent.toml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("[log2what]\nlevel = \"loud\"\n"), 0644))
		_, err := NewConfigFromFile(path)
		assert.ErrorContains(t, err, "invalid level string")
	})
}

func TestNewConfigFromDefaults(t *testing.T) {
	cfg, err := NewConfigFromDefaults(map[string]any{
		"module":          "api",
		"max_file_size":   2048,
		"max_generations": float64(4),
		"enable_console":  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "api", cfg.Module)
	assert.Equal(t, int64(2048), cfg.MaxFileSize)
	assert.Equal(t, int64(4), cfg.MaxGenerations)
	assert.True(t, cfg.EnableConsole)

	_, err = NewConfigFromDefaults(map[string]any{"nope": 1})
	assert.ErrorContains(t, err, "unknown config key: nope")

	_, err = NewConfigFromDefaults(map[string]any{"module": 3})
	assert.ErrorContains(t, err, "expected string")

	_, err = NewConfigFromDefaults(map[string]any{"max_generations": 2.5})
	assert.ErrorContains(t, err, "expected integer")

	_, err = NewConfigFromDefaults(map[string]any{"keep_open": "yes"})
	assert.ErrorContains(t, err, "expected bool")
}

func TestConfigValidate(t *testing.T) {
	t.Run("clamps", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Module = " "
		cfg.FileName = ""
		cfg.Directory = ""
		cfg.MaxFileSize = -10
		cfg.MaxGenerations = -1
		cfg.TriggerBefore = -5
		cfg.TriggerAfter = -5
		cfg.DBBatchSize = 0
		cfg.DBFlushIntervalMs = -1

		require.NoError(t, cfg.Validate())
		assert.Equal(t, "root", cfg.Module)
		assert.Equal(t, "root", cfg.FileName)
		assert.Equal(t, "./log/", cfg.Directory)
		assert.Equal(t, int64(1), cfg.MaxFileSize)
		assert.Equal(t, int64(0), cfg.MaxGenerations)
		assert.Equal(t, int64(0), cfg.TriggerBefore)
		assert.Equal(t, int64(0), cfg.TriggerAfter)
		assert.Equal(t, int64(1), cfg.DBBatchSize)
		assert.Equal(t, int64(0), cfg.DBFlushIntervalMs)
	})

	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"level", func(c *Config) { c.Level = "verbose" }, "invalid level string"},
		{"console target", func(c *Config) { c.ConsoleTarget = "file" }, "invalid console_target"},
		{"trigger level", func(c *Config) { c.TriggerLevel = "x" }, "invalid trigger_level"},
		{"archive path", func(c *Config) { c.EnableArchive = true; c.ArchivePath = "" }, "archive_path cannot be empty"},
		{"archive limits", func(c *Config) { c.ArchiveMaxBackups = -1 }, "archive limits cannot be negative"},
		{"db url", func(c *Config) { c.EnableDB = true; c.DBURL = "" }, "db_driver and db_url cannot be empty"},
		{"heartbeat", func(c *Config) { c.HeartbeatIntervalS = -1 }, "heartbeat_interval_s cannot be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}

func TestConfigAccessors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "bogus"
	cfg.TriggerLevel = "bogus"
	assert.Equal(t, LevelTrace, cfg.LevelValue())
	assert.Equal(t, LevelInfo, cfg.TriggerConfig().Mask)

	cfg.ArchivePath = "/tmp/a.log"
	assert.Equal(t, ArchiveConfig{
		Path:       "/tmp/a.log",
		MaxSizeMB:  100,
		MaxBackups: 10,
		MaxAgeDays: 30,
		Compress:   true,
	}, cfg.ArchiveConfig())

	clone := cfg.Clone()
	clone.ArchivePath = "other"
	assert.Equal(t, "/tmp/a.log", cfg.ArchivePath)
}

func TestApplyOverride(t *testing.T) {
	t.Run("sets every kind of value", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.ApplyOverride(
			"module=worker",
			"level=info",
			"enable_console=true",
			"console_target=stderr",
			"directory=/tmp/logs",
			"max_file_size=512",
			"max_generations=3",
			"enable_trigger=true",
			"trigger_level=error",
			"trigger_before=9",
			"enable_db=true",
			"db_url=/tmp/logs/x.db",
			"db_batch_size=10",
			"heartbeat_interval_s=30",
		)
		require.NoError(t, err)
		assert.Equal(t, "worker", cfg.Module)
		assert.Equal(t, LevelInfo, cfg.LevelValue())
		assert.True(t, cfg.EnableConsole)
		assert.Equal(t, "stderr", cfg.ConsoleTarget)
		assert.Equal(t, "/tmp/logs", cfg.Directory)
		assert.Equal(t, int64(512), cfg.MaxFileSize)
		assert.Equal(t, int64(3), cfg.MaxGenerations)
		assert.Equal(t, TriggerConfig{Mask: LevelError, Before: 9, After: 10}, cfg.TriggerConfig())
		assert.True(t, cfg.EnableDB)
		assert.Equal(t, "/tmp/logs/x.db", cfg.DBURL)
		assert.Equal(t, int64(10), cfg.DBBatchSize)
		assert.Equal(t, int64(30), cfg.HeartbeatIntervalS)
	})

	t.Run("single error", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.ApplyOverride("unknown=1")
		assert.EqualError(t, err, "log2what: unknown configuration key 'unknown'")
	})

	t.Run("multiple errors leave config untouched", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.ApplyOverride("module=changed", "max_generations=many", "keep_open=maybe", "broken")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log2what: multiple configuration errors:")
		assert.Contains(t, err.Error(), "\n  1. invalid integer value for max_generations 'many'")
		assert.Contains(t, err.Error(), "\n  2. invalid boolean value for keep_open 'maybe'")
		assert.Contains(t, err.Error(), "\n  3. invalid format in override string 'broken'")
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("validation failure leaves config untouched", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.ApplyOverride("module=changed", "console_target=printer")
		assert.ErrorContains(t, err, "invalid console_target")
		assert.Equal(t, "root", cfg.Module)
	})
}
