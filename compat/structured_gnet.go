package compat

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/panjf2000/gnet/v2/pkg/logging"
)

// keyValuePattern matches "key=%v" or "key: %v" verbs in a format string
var keyValuePattern = regexp.MustCompile(`(\w+)\s*[:=]\s*%[vsdqxXeEfFgGpbcU]`)

// parseFormat splits a printf-style call into a comment and "key=value" data fields.
// Text outside the key verbs becomes the comment. Formats without key verbs, or
// with more key verbs than arguments, are formatted whole into the comment.
func parseFormat(format string, args []any) (string, []any) {
	matches := keyValuePattern.FindAllStringSubmatchIndex(format, -1)
	if len(matches) == 0 || len(matches) > len(args) {
		return fmt.Sprintf(format, args...), nil
	}

	var comment []string
	fields := make([]any, 0, len(matches)+1)
	lastEnd := 0
	for i, match := range matches {
		prefix := strings.TrimSpace(format[lastEnd:match[0]])
		if strings.Contains(strings.ReplaceAll(prefix, "%%", ""), "%") {
			// A verb outside a key pair shifts the argument positions
			return fmt.Sprintf(format, args...), nil
		}
		if prefix != "" {
			comment = append(comment, strings.TrimRight(prefix, ",;"))
		}
		key := format[match[2]:match[3]]
		fields = append(fields, fmt.Sprintf("%s=%v", key, args[i]))
		lastEnd = match[1]
	}

	// Anything after the last key verb consumes the remaining arguments
	if lastEnd < len(format) {
		remaining := fmt.Sprintf(format[lastEnd:], args[len(matches):]...)
		if remaining = strings.TrimSpace(remaining); remaining != "" {
			comment = append(comment, remaining)
		}
	}

	return strings.Join(comment, " "), fields
}

// StructuredGnetAdapter moves "key=%v" pairs of gnet messages into the record data,
// leaving the surrounding text as the comment
type StructuredGnetAdapter struct {
	*GnetAdapter
}

var _ logging.Logger = (*StructuredGnetAdapter)(nil)

// NewStructuredGnetAdapter creates a gnet adapter with structured field extraction
func NewStructuredGnetAdapter(logger *GnetAdapter) *StructuredGnetAdapter {
	return &StructuredGnetAdapter{GnetAdapter: logger}
}

// Debugf logs with structured field extraction
func (a *StructuredGnetAdapter) Debugf(format string, args ...any) {
	comment, fields := parseFormat(format, args)
	a.logger.Debug(comment, append(fields, gnetSource)...)
}

// Infof logs with structured field extraction
func (a *StructuredGnetAdapter) Infof(format string, args ...any) {
	comment, fields := parseFormat(format, args)
	a.logger.Info(comment, append(fields, gnetSource)...)
}

// Warnf logs with structured field extraction
func (a *StructuredGnetAdapter) Warnf(format string, args ...any) {
	comment, fields := parseFormat(format, args)
	a.logger.Warn(comment, append(fields, gnetSource)...)
}

// Errorf logs with structured field extraction
func (a *StructuredGnetAdapter) Errorf(format string, args ...any) {
	comment, fields := parseFormat(format, args)
	a.logger.Error(comment, append(fields, gnetSource)...)
}
