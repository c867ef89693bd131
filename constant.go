package log2what

// Level is the severity of a record. Higher values are more severe.
type Level int

// Log levels, in increasing severity
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// Size units for file limits
const (
	KB int64 = 1024
	MB       = 1024 * KB
)

// Marker records emitted by a TriggerBuffer around a flushed episode
const (
	MarkerModule       = "buffered_shell"
	MarkerBeginComment = "triggered"
	MarkerEndComment   = "output over"
)

// File naming
const (
	logExtension = ".log"
	// generationSep joins base name and timestamp suffix: name.log.20220730_170238_795
	generationSep = logExtension + "."
	// generationLayout is the seconds part of the suffix, followed by "_mmm"
	generationLayout = "20060102_150405"
	// generationSuffixLen is len("20060102_150405_000")
	generationSuffixLen = len(generationLayout) + 4
)

// Line format
const (
	lineTimeLayout = "2006-01-02 15:04:05.000"
	fieldDelimiter = " |%| "
	// fixedLineLength counts every byte of a line except module, comment and data:
	// timestamp, space, 5-char level, space, two delimiters and the newline
	fixedLineLength = len(lineTimeLayout) + 1 + 5 + 1 + 2*len(fieldDelimiter) + 1
)

// Defaults taken by constructors when a zero value is passed
const (
	defaultFileName       = "root"
	defaultDirectory      = "./log/"
	defaultMaxSize        = MB
	defaultMaxGenerations = 50
	defaultTriggerBefore  = 100
	defaultTriggerAfter   = 10
	defaultModule         = "root"
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "LEVEL"
	}
}

// tag returns the fixed-width form used in log lines
func (l Level) tag() string {
	switch l {
	case LevelInfo:
		return "INFO "
	case LevelWarn:
		return "WARN "
	default:
		return l.String()
	}
}
