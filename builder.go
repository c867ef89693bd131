package log2what

import (
	"io"
	"os"
	"time"
)

// Builder provides a fluent API for assembling a Logger.
// It wraps a Config instance and provides chainable methods for setting values.
// Build composes, from the sinks outwards:
//
//	console, file, archive, extra writers -> MultiWriter
//	  -> TriggerBuffer (if enabled) -> MaskWriter (unless level is trace) -> Logger
type Builder struct {
	cfg      *Config
	err      error // Accumulate errors for deferred handling
	registry *Registry
	console  io.Writer
	extra    []Writer

	trigger *TriggerBuffer
	file    *FileWriter
}

// NewBuilder creates a new builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build validates the configuration and assembles the logger.
// The builder can be reused; every Build opens new handles.
func (b *Builder) Build() (*Logger, error) {
	if b.err != nil {
		return nil, b.err
	}
	cfg := b.cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// The shared default registry keeps its diagnostics setting
	registry := b.registry
	if registry == nil {
		registry = DefaultRegistry()
	} else if cfg.InternalErrorsToStderr {
		registry.SetInternalErrors(os.Stderr)
	}

	var sinks []Writer
	if cfg.EnableConsole {
		out := b.console
		if out == nil {
			out = os.Stdout
			if cfg.ConsoleTarget == "stderr" {
				out = os.Stderr
			}
		}
		sinks = append(sinks, NewStreamWriter(out))
	}

	var fw *FileWriter
	if cfg.EnableFile {
		fw = registry.Open(cfg.FileConfig())
		sinks = append(sinks, fw)
	}

	if cfg.EnableArchive {
		aw, err := NewArchiveWriter(cfg.ArchiveConfig())
		if err != nil {
			_ = NewMultiWriter(sinks...).Close()
			return nil, err
		}
		sinks = append(sinks, aw)
	}

	sinks = append(sinks, b.extra...)
	if len(sinks) == 0 {
		return nil, fmtErrorf("no sink enabled (enable console, file, archive or add a writer)")
	}

	var w Writer = NewMultiWriter(sinks...)
	var tb *TriggerBuffer
	if cfg.EnableTrigger {
		tb = NewTriggerBuffer(w, cfg.TriggerConfig())
		w = tb
	}
	if level := cfg.LevelValue(); level > LevelTrace {
		w = NewMaskWriter(level, w)
	}

	l := NewLogger(cfg.Module, w)
	if cfg.HeartbeatIntervalS > 0 {
		StartHeartbeat(l, registry, time.Duration(cfg.HeartbeatIntervalS)*time.Second)
	}

	// Extra writers now belong to the logger
	b.extra = nil
	b.trigger = tb
	b.file = fw
	return l, nil
}

// TriggerBuffer returns the trigger buffer of the last built logger, nil if disabled
func (b *Builder) TriggerBuffer() *TriggerBuffer {
	return b.trigger
}

// FileWriter returns the file sink of the last built logger, nil if disabled
func (b *Builder) FileWriter() *FileWriter {
	return b.file
}

// Config replaces the whole configuration with a copy of cfg.
func (b *Builder) Config(cfg *Config) *Builder {
	if cfg == nil {
		b.err = fmtErrorf("configuration cannot be nil")
		return b
	}
	b.cfg = cfg.Clone()
	return b
}

// Override applies "key=value" overrides to the configuration.
func (b *Builder) Override(overrides ...string) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.cfg.ApplyOverride(overrides...); err != nil {
		b.err = err
	}
	return b
}

// Registry sets the registry the file sink is opened on.
func (b *Builder) Registry(r *Registry) *Builder {
	b.registry = r
	return b
}

// Writer adds an extra sink, such as a database writer. The built logger owns it.
func (b *Builder) Writer(w Writer) *Builder {
	if w == nil {
		b.err = ErrNilWriter
		return b
	}
	b.extra = append(b.extra, w)
	return b
}

// Module sets the module name.
func (b *Builder) Module(module string) *Builder {
	b.cfg.Module = module
	return b
}

// Level sets the minimum level forwarded.
func (b *Builder) Level(level Level) *Builder {
	b.cfg.Level = level.String()
	return b
}

// LevelString sets the minimum level from a string.
func (b *Builder) LevelString(level string) *Builder {
	if b.err != nil {
		return b
	}
	if _, err := ParseLevel(level); err != nil {
		b.err = err
		return b
	}
	b.cfg.Level = level
	return b
}

// EnableConsole mirrors records to stdout or stderr.
func (b *Builder) EnableConsole(enable bool) *Builder {
	b.cfg.EnableConsole = enable
	return b
}

// ConsoleTarget selects "stdout" or "stderr".
func (b *Builder) ConsoleTarget(target string) *Builder {
	b.cfg.ConsoleTarget = target
	return b
}

// ConsoleOutput sends console records to out instead of stdout or stderr.
func (b *Builder) ConsoleOutput(out io.Writer) *Builder {
	b.console = out
	return b
}

// EnableFile enables the rotating file sink.
func (b *Builder) EnableFile(enable bool) *Builder {
	b.cfg.EnableFile = enable
	return b
}

// FileName sets the base name of the log files.
func (b *Builder) FileName(name string) *Builder {
	b.cfg.FileName = name
	return b
}

// Directory sets the log directory.
func (b *Builder) Directory(dir string) *Builder {
	b.cfg.Directory = dir
	return b
}

// MaxFileSize sets the size of one generation in bytes.
func (b *Builder) MaxFileSize(size int64) *Builder {
	b.cfg.MaxFileSize = size
	return b
}

// MaxGenerations sets the number of generations kept.
func (b *Builder) MaxGenerations(n int) *Builder {
	b.cfg.MaxGenerations = int64(n)
	return b
}

// KeepOpen keeps the file open after the last handle is closed.
func (b *Builder) KeepOpen(keep bool) *Builder {
	b.cfg.KeepOpen = keep
	return b
}

// Trigger enables the trigger buffer with the given mask and window sizes.
func (b *Builder) Trigger(mask Level, before, after int) *Builder {
	b.cfg.EnableTrigger = true
	b.cfg.TriggerLevel = mask.String()
	b.cfg.TriggerBefore = int64(before)
	b.cfg.TriggerAfter = int64(after)
	return b
}

// Archive enables the lumberjack archive stream.
func (b *Builder) Archive(cfg ArchiveConfig) *Builder {
	b.cfg.EnableArchive = true
	b.cfg.ArchivePath = cfg.Path
	b.cfg.ArchiveMaxSizeMB = int64(cfg.MaxSizeMB)
	b.cfg.ArchiveMaxBackups = int64(cfg.MaxBackups)
	b.cfg.ArchiveMaxAgeDays = int64(cfg.MaxAgeDays)
	b.cfg.ArchiveCompress = cfg.Compress
	return b
}

// HeartbeatIntervalS sets the heartbeat interval, 0 disables it.
func (b *Builder) HeartbeatIntervalS(interval int64) *Builder {
	b.cfg.HeartbeatIntervalS = interval
	return b
}

// InternalErrorsToStderr reports sink failures on stderr. It applies to the
// registry set with Registry; the default registry is configured through
// DefaultRegistry().SetInternalErrors.
func (b *Builder) InternalErrorsToStderr(enable bool) *Builder {
	b.cfg.InternalErrorsToStderr = enable
	return b
}

// Example usage:
// logger, err := log2what.NewBuilder().
//
//	Module("server").
//	Directory("/var/log/app").
//	FileName("server").
//	Trigger(log2what.LevelWarn, 200, 20).
//	EnableConsole(true).
//	Build()
//
// if err == nil {
//
//	 defer logger.Close()
//	 logger.Info("started", "port", 8080)
//
// }
