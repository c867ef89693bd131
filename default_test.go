package log2what

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	assert.Same(t, DefaultRegistry(), DefaultRegistry())
}

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := New("svc", "directory="+tmpDir, "file_name=svc", "level=info")
	require.NoError(t, err)

	logger.Debug("masked")
	logger.Info("kept")
	require.NoError(t, logger.Close())

	names := generationNames(t, tmpDir, "svc")
	require.Len(t, names, 1)
	content := readFile(t, filepath.Join(tmpDir, names[0]))
	assert.NotContains(t, content, "masked")
	assert.Contains(t, content, " INFO  svc |%| kept |%| \n")

	_, err = New("svc", "level=loud")
	assert.Error(t, err)
}

func TestNewFileLogger(t *testing.T) {
	tmpDir := t.TempDir()
	logger := NewFileLogger("files", "plain", tmpDir, 1, 1)
	logger.Trace("static file")
	require.NoError(t, logger.Close())

	content := readFile(t, filepath.Join(tmpDir, "plain.log"))
	assert.Contains(t, content, " TRACE files |%| static file |%| \n")
}

func TestNewTriggeredLogger(t *testing.T) {
	tmpDir := t.TempDir()
	logger := NewTriggeredLogger("job", "triggered", tmpDir)

	tb, ok := logger.Writer().(*TriggerBuffer)
	require.True(t, ok)
	assert.Equal(t, LevelInfo, tb.mask)

	logger.Debug("context")
	logger.Info("trigger")
	require.NoError(t, logger.Close())

	names := generationNames(t, tmpDir, "triggered")
	require.Len(t, names, 1)
	lines := strings.Split(strings.TrimSuffix(readFile(t, filepath.Join(tmpDir, names[0])), "\n"), "\n")
	require.Len(t, lines, 3, "begin marker, context and trigger; the window is still open at close")
	assert.Contains(t, lines[0], " INFO  buffered_shell |%| triggered |%| ")
	assert.Contains(t, lines[1], " DEBUG job |%| context |%| ")
	assert.Contains(t, lines[2], " INFO  job |%| trigger |%| ")
}
