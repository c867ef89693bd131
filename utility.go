package log2what

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNilWriter is returned when a nil Writer is added to a Builder
var ErrNilWriter = errors.New("log2what: writer cannot be nil")

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "log2what: ") {
		format = "log2what: " + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return fmt.Errorf("%v; %w", err1, err2)
}

// parseKeyValue splits a "key=value" string.
func parseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmtErrorf("invalid format in override string '%s', expected key=value", arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmtErrorf("key cannot be empty in override string '%s'", arg)
	}
	return key, value, nil
}

// internalLog writes diagnostics about the library itself, if an output is set
func internalLog(out io.Writer, format string, args ...any) {
	if out == nil {
		return
	}
	if !strings.HasPrefix(format, "log2what: ") {
		format = "log2what: " + format
	}
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	fmt.Fprintf(out, format, args...)
}

// ParseLevel converts a level name or number to a Level.
func ParseLevel(levelStr string) (Level, error) {
	s := strings.ToLower(strings.TrimSpace(levelStr))
	switch s {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= int(LevelTrace) && n <= int(LevelError) {
		return Level(n), nil
	}
	return 0, fmtErrorf("invalid level string: '%s' (use trace, debug, info, warn, error)", levelStr)
}
