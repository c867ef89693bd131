package compat

import (
	"fmt"
	"os"

	"github.com/panjf2000/gnet/v2/pkg/logging"

	"github.com/lixenwraith/log2what"
)

const gnetSource = "source=gnet"

// GnetAdapter wraps a log2what.Logger to implement the gnet logging.Logger interface.
// The formatted message becomes the record comment.
type GnetAdapter struct {
	logger       *log2what.Logger
	fatalHandler func(msg string) // Customizable fatal behavior
}

var _ logging.Logger = (*GnetAdapter)(nil)

// NewGnetAdapter creates a new gnet-compatible logger adapter
func NewGnetAdapter(logger *log2what.Logger, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		logger: logger,
		fatalHandler: func(msg string) {
			os.Exit(1) // Default behavior matches gnet expectations
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// Debugf logs at debug level with printf-style formatting
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.logger.Debug(fmt.Sprintf(format, args...), gnetSource)
}

// Infof logs at info level with printf-style formatting
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.logger.Info(fmt.Sprintf(format, args...), gnetSource)
}

// Warnf logs at warn level with printf-style formatting
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.logger.Warn(fmt.Sprintf(format, args...), gnetSource)
}

// Errorf logs at error level with printf-style formatting
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.logger.Error(fmt.Sprintf(format, args...), gnetSource)
}

// Fatalf logs at error level and triggers the fatal handler.
// Records are written synchronously, so nothing is left to flush.
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.logger.Error(msg, gnetSource, "fatal=true")

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}
