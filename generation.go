package log2what

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Generation is one rotated file of a logical log
type Generation struct {
	Name string // file name, e.g. app.log.20220730_170238_795
	Path string // directory joined with Name
	Size int64  // size at listing time, -1 if stat failed
}

// generationName returns the file name for a generation created at t
func generationName(base string, t time.Time) string {
	return base + generationSep + generationSuffix(t)
}

// generationSuffix formats t as YYYYMMDD_HHMMSS_mmm in local time
func generationSuffix(t time.Time) string {
	t = t.Local()
	return fmt.Sprintf("%s_%03d", t.Format(generationLayout), t.Nanosecond()/int(time.Millisecond))
}

// staticFileName is the single file used when rotation is disabled
func staticFileName(base string) string {
	return base + logExtension
}

// isGenerationSuffix reports whether s has exactly the shape
// DDDDDDDD_DDDDDD_DDD (D a decimal digit) and holds a real date and time
func isGenerationSuffix(s string) bool {
	if !hasGenerationShape(s) {
		return false
	}
	_, err := time.ParseInLocation(generationLayout, s[:len(generationLayout)], time.Local)
	return err == nil
}

// hasGenerationShape checks the digit and separator layout of a suffix
func hasGenerationShape(s string) bool {
	if len(s) != generationSuffixLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch i {
		case 8, 15:
			if c != '_' {
				return false
			}
		default:
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}

// IsGenerationName reports whether file is a generation of base.
// Names with an impossible date, such as month 13, are not generations.
func IsGenerationName(base, file string) bool {
	prefix := base + generationSep
	if !strings.HasPrefix(file, prefix) {
		return false
	}
	return isGenerationSuffix(file[len(prefix):])
}

// GenerationTime parses the creation time encoded in a generation file name
func GenerationTime(base, file string) (time.Time, error) {
	if !IsGenerationName(base, file) {
		return time.Time{}, fmtErrorf("'%s' is not a generation of '%s'", file, base)
	}
	suffix := file[len(base)+len(generationSep):]
	t, err := time.ParseInLocation(generationLayout, suffix[:len(generationLayout)], time.Local)
	if err != nil {
		return time.Time{}, fmtErrorf("failed to parse generation time of '%s': %w", file, err)
	}
	var millis int
	for _, c := range suffix[len(generationLayout)+1:] {
		millis = millis*10 + int(c-'0')
	}
	return t.Add(time.Duration(millis) * time.Millisecond), nil
}

// listGenerationNames returns the generation file names of base in dir, oldest first.
// Lexical order of the fixed-width suffix is chronological order.
func listGenerationNames(dir, base string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmtErrorf("failed to read log directory '%s': %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IsGenerationName(base, entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListGenerations returns the generations of base in dir, oldest first
func ListGenerations(dir, base string) ([]Generation, error) {
	names, err := listGenerationNames(dir, base)
	if err != nil {
		return nil, err
	}
	gens := make([]Generation, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		size := int64(-1)
		if info, errStat := os.Stat(path); errStat == nil {
			size = info.Size()
		}
		gens = append(gens, Generation{Name: name, Path: path, Size: size})
	}
	return gens, nil
}

// nextGenerationName returns a name for a new generation that sorts strictly
// after newest (empty if there are none). A clock value in the same millisecond
// as newest, or behind it, is moved to newest plus one millisecond.
func nextGenerationName(base, newest string, t time.Time) string {
	name := generationName(base, t)
	if newest == "" || name > newest {
		return name
	}
	last, err := GenerationTime(base, newest)
	if err != nil {
		// Unreachable for listed names, which all parse
		last = t
	}
	return generationName(base, last.Add(time.Millisecond))
}
