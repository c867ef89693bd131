package log2what

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGenerationName(t *testing.T) {
	tests := []struct {
		file string
		want bool
	}{
		{"app.log.20220730_170238_795", true},
		{"app.log.00010101_000000_000", true},
		{"app.log.00000000_000000_000", false},
		{"app.log.99999999_999999_999", false},
		{"app.log.20221301_000000_000", false},
		{"app.log.20220230_000000_000", false},
		{"app.log.20220730_240000_000", false},
		{"app.log", false},
		{"app.log.", false},
		{"app.log.20220730_170238", false},
		{"app.log.20220730_170238_7950", false},
		{"app.log.20220730-170238-795", false},
		{"app.log.2022073a_170238_795", false},
		{"app.log.20220730_170238_795.gz", false},
		{"other.log.20220730_170238_795", false},
		{"xapp.log.20220730_170238_795", false},
		{"app.log.log.20220730_170238_795", false},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			assert.Equal(t, tt.want, IsGenerationName("app", tt.file))
		})
	}
}

func TestGenerationTime(t *testing.T) {
	name := generationName("app", testTime)
	assert.Equal(t, "app.log.20220730_170238_795", name)

	parsed, err := GenerationTime("app", name)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(testTime), "got %v", parsed)

	_, err = GenerationTime("app", "app.log")
	assert.ErrorContains(t, err, "is not a generation of 'app'")
}

func TestGenerationSuffixTruncatesToMillis(t *testing.T) {
	ts := time.Date(2023, 1, 2, 3, 4, 5, 6_999_999, time.Local)
	assert.Equal(t, "20230102_030405_006", generationSuffix(ts))
}

func TestNextGenerationName(t *testing.T) {
	newest := "app.log.20220730_170238_795"

	tests := []struct {
		name   string
		newest string
		now    time.Time
		want   string
	}{
		{"no generations", "", testTime, "app.log.20220730_170238_795"},
		{"clock ahead", newest, testTime.Add(2 * time.Second), "app.log.20220730_170240_795"},
		{"same millisecond", newest, testTime.Add(500 * time.Microsecond), "app.log.20220730_170238_796"},
		{"clock behind", newest, testTime.Add(-time.Hour), "app.log.20220730_170238_796"},
		{"millisecond carry", "app.log.20220730_170238_999", testTime, "app.log.20220730_170239_000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextGenerationName("app", tt.newest, tt.now)
			assert.Equal(t, tt.want, got)
			if tt.newest != "" {
				assert.Greater(t, got, tt.newest)
			}
		})
	}
}

func TestListGenerations(t *testing.T) {
	tmpDir := t.TempDir()
	files := map[string]string{
		"app.log.20220730_170238_795":   "bb",
		"app.log.20220101_000000_000":   "a",
		"app.log.20221231_235959_999":   "ccc",
		"app.log":                       "static",
		"app.log.backup":                "x",
		"other.log.20220730_170238_795": "x",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "app.log.20230101_000000_000"), 0755))

	gens, err := ListGenerations(tmpDir, "app")
	require.NoError(t, err)
	assert.Equal(t, []Generation{
		{Name: "app.log.20220101_000000_000", Path: filepath.Join(tmpDir, "app.log.20220101_000000_000"), Size: 1},
		{Name: "app.log.20220730_170238_795", Path: filepath.Join(tmpDir, "app.log.20220730_170238_795"), Size: 2},
		{Name: "app.log.20221231_235959_999", Path: filepath.Join(tmpDir, "app.log.20221231_235959_999"), Size: 3},
	}, gens)
}

func TestListGenerationsMissingDirectory(t *testing.T) {
	gens, err := ListGenerations(filepath.Join(t.TempDir(), "missing"), "app")
	assert.NoError(t, err)
	assert.Empty(t, gens)
}
