package log2what

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
)

// dumper renders values that have no natural string form.
// Compact, sorted and pointer-free so the same value always yields the same data field.
var dumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// lineLength returns the exact byte length of the encoded line
func lineLength(module, comment, data string) int64 {
	return int64(fixedLineLength + len(module) + len(comment) + len(data))
}

// appendLine encodes one record as
// "2022-07-30 17:02:38.795 TRACE module |%| comment |%| data\n"
func appendLine(buf []byte, level Level, module, comment, data string, timestamp int64) []byte {
	buf = time.Unix(0, timestamp).AppendFormat(buf, lineTimeLayout)
	buf = append(buf, ' ')
	buf = append(buf, level.tag()...)
	buf = append(buf, ' ')
	buf = append(buf, module...)
	buf = append(buf, fieldDelimiter...)
	buf = append(buf, comment...)
	buf = append(buf, fieldDelimiter...)
	buf = append(buf, data...)
	buf = append(buf, '\n')
	return buf
}

// FormatLine returns the encoded line for a record
func FormatLine(level Level, module, comment, data string, timestamp int64) string {
	buf := make([]byte, 0, lineLength(module, comment, data))
	return string(appendLine(buf, level, module, comment, data, resolveTimestamp(timestamp)))
}

// formatData renders logger arguments into the data field, space separated
func formatData(args []any) string {
	switch len(args) {
	case 0:
		return ""
	case 1:
		if s, ok := args[0].(string); ok {
			return s
		}
	}

	buf := make([]byte, 0, 64)
	for i, arg := range args {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = appendValue(buf, arg)
	}
	return string(buf)
}

// appendValue converts a single value to its string representation
func appendValue(buf []byte, v any) []byte {
	switch val := v.(type) {
	case string:
		return append(buf, val...)
	case int:
		return strconv.AppendInt(buf, int64(val), 10)
	case int32:
		return strconv.AppendInt(buf, int64(val), 10)
	case int64:
		return strconv.AppendInt(buf, val, 10)
	case uint:
		return strconv.AppendUint(buf, uint64(val), 10)
	case uint32:
		return strconv.AppendUint(buf, uint64(val), 10)
	case uint64:
		return strconv.AppendUint(buf, val, 10)
	case float32:
		return strconv.AppendFloat(buf, float64(val), 'f', -1, 32)
	case float64:
		return strconv.AppendFloat(buf, val, 'f', -1, 64)
	case bool:
		return strconv.AppendBool(buf, val)
	case nil:
		return append(buf, "nil"...)
	case time.Time:
		return val.AppendFormat(buf, time.RFC3339Nano)
	case time.Duration:
		return append(buf, val.String()...)
	case error:
		return append(buf, val.Error()...)
	case fmt.Stringer:
		return append(buf, val.String()...)
	case []byte:
		return append(buf, val...)
	default:
		// Structs, maps, slices and pointers: spew output collapsed to one line
		var b bytes.Buffer
		dumper.Fdump(&b, val)
		out := bytes.TrimSpace(b.Bytes())
		out = bytes.ReplaceAll(out, []byte{'\n'}, []byte{' '})
		return append(buf, out...)
	}
}
