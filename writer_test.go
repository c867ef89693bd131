package log2what

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiWriter(t *testing.T) {
	a, b := &recordingWriter{}, &recordingWriter{err: errors.New("b failed")}
	m := NewMultiWriter(a, nil, b)
	assert.Equal(t, 2, m.Len())

	c := &recordingWriter{}
	m.Append(c).Append(nil)
	assert.Equal(t, 3, m.Len())

	m.Write(LevelInfo, "m", "fan", "out", 0)
	for _, w := range []*recordingWriter{a, b, c} {
		records := w.Records()
		require.Len(t, records, 1)
		assert.Equal(t, "fan", records[0].Comment)
		assert.NotZero(t, records[0].Timestamp)
	}
	assert.Equal(t, a.Records()[0].Timestamp, c.Records()[0].Timestamp, "every sink sees the same timestamp")

	err := m.Close()
	assert.EqualError(t, err, "b failed")
	assert.Equal(t, 1, a.Closed())
	assert.Equal(t, 1, b.Closed())
	assert.Equal(t, 1, c.Closed())
	assert.Equal(t, 0, m.Len())

	m.Write(LevelInfo, "m", "after close", "", 0)
	assert.Len(t, a.Records(), 1)
}

func TestMaskWriter(t *testing.T) {
	out := &recordingWriter{}
	w := NewMaskWriter(LevelWarn, out)
	assert.Equal(t, LevelWarn, w.Mask())

	for _, level := range []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError} {
		w.Write(level, "m", level.String(), "", 1)
	}
	records := out.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "WARN", records[0].Comment)
	assert.Equal(t, "ERROR", records[1].Comment)

	require.NoError(t, w.Close())
	assert.Equal(t, 1, out.Closed())

	empty := NewMaskWriter(LevelInfo, nil)
	empty.Write(LevelError, "m", "dropped", "", 0)
	assert.NoError(t, empty.Close())
}

func TestDiscard(t *testing.T) {
	Discard.Write(LevelError, "m", "gone", "", 0)
	assert.NoError(t, closeWriter(Discard))
}

func TestStreamWriter(t *testing.T) {
	out := &syncBuffer{}
	w := NewStreamWriter(out)
	w.Write(LevelInfo, "m", "c", "d", testTime.UnixNano())
	w.Write(LevelError, "m", "c2", "", testTime.UnixNano())
	assert.Equal(t,
		"2022-07-30 17:02:38.795 INFO  m |%| c |%| d\n"+
			"2022-07-30 17:02:38.795 ERROR m |%| c2 |%| \n",
		out.String())
	assert.NoError(t, w.Close())

	// A nil output discards and stdout is never closed
	NewStreamWriter(nil).Write(LevelInfo, "m", "nowhere", "", 0)
	assert.NoError(t, NewConsoleWriter().Close())
	_, err := os.Stdout.Stat()
	assert.NoError(t, err)
}

func TestArchiveWriter(t *testing.T) {
	_, err := NewArchiveWriter(ArchiveConfig{})
	assert.ErrorContains(t, err, "archive path cannot be empty")

	path := filepath.Join(t.TempDir(), "nested", "archive.log")
	w, err := NewArchiveWriter(ArchiveConfig{Path: path, MaxSizeMB: 1, MaxBackups: 2})
	require.NoError(t, err)

	w.Write(LevelWarn, "arch", "kept", "", testTime.UnixNano())
	require.NoError(t, w.Close())

	content := readFile(t, path)
	assert.Equal(t, "2022-07-30 17:02:38.795 WARN  arch |%| kept |%| \n", content)
	assert.False(t, strings.Contains(content, "\n\n"))
}
