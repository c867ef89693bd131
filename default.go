package log2what

import (
	"sync"
)

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry, created on first use.
// Sinks opened through OpenFile and Builders without an explicit Registry share it.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// New builds a logger for module from the default configuration with
// optional "key=value" overrides
func New(module string, overrides ...string) (*Logger, error) {
	cfg := DefaultConfig()
	if err := cfg.ApplyOverride(overrides...); err != nil {
		return nil, err
	}
	return NewBuilder().Config(cfg).Module(module).Build()
}

// NewFileLogger returns a logger for module writing every level to a rotating
// file on the default registry
func NewFileLogger(module, name, directory string, maxSize int64, maxGenerations int) *Logger {
	return NewLogger(module, OpenFile(name, directory, maxSize, maxGenerations, false))
}

// NewTriggeredLogger returns a logger for module that writes to a rotating file
// on the default registry through a TriggerBuffer with default settings
func NewTriggeredLogger(module, name, directory string) *Logger {
	fw := OpenFile(name, directory, defaultMaxSize, defaultMaxGenerations, false)
	return NewLogger(module, NewTriggerBuffer(fw, DefaultTriggerConfig()))
}
