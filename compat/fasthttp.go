package compat

import (
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/log2what"
)

const fasthttpSource = "source=fasthttp"

// FastHTTPAdapter wraps a log2what.Logger to implement the fasthttp Logger interface
type FastHTTPAdapter struct {
	logger        *log2what.Logger
	defaultLevel  log2what.Level
	levelDetector func(string) (log2what.Level, bool) // Detects the level from message content
}

var _ fasthttp.Logger = (*FastHTTPAdapter)(nil)

// NewFastHTTPAdapter creates a new fasthttp-compatible logger adapter
func NewFastHTTPAdapter(logger *log2what.Logger, opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		logger:        logger,
		defaultLevel:  log2what.LevelInfo,
		levelDetector: DetectLogLevel,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultLevel sets the level used when no level is detected
func WithDefaultLevel(level log2what.Level) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.defaultLevel = level
	}
}

// WithLevelDetector sets a custom function to detect the level from message content
func WithLevelDetector(detector func(string) (log2what.Level, bool)) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.levelDetector = detector
	}
}

// Printf implements fasthttp's Logger interface
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	level := a.defaultLevel
	if a.levelDetector != nil {
		if detected, ok := a.levelDetector(msg); ok {
			level = detected
		}
	}

	a.logger.Log(level, msg, fasthttpSource)
}

// DetectLogLevel guesses the level from keywords in the message.
// It reports false when no keyword matches.
func DetectLogLevel(msg string) (log2what.Level, bool) {
	msgLower := strings.ToLower(msg)

	if strings.Contains(msgLower, "error") ||
		strings.Contains(msgLower, "failed") ||
		strings.Contains(msgLower, "fatal") ||
		strings.Contains(msgLower, "panic") {
		return log2what.LevelError, true
	}

	if strings.Contains(msgLower, "warn") ||
		strings.Contains(msgLower, "deprecated") {
		return log2what.LevelWarn, true
	}

	if strings.Contains(msgLower, "debug") {
		return log2what.LevelDebug, true
	}

	if strings.Contains(msgLower, "trace") {
		return log2what.LevelTrace, true
	}

	return 0, false
}
