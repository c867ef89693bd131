package metrics

import (
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/log2what"
	"github.com/lixenwraith/log2what/dbwriter"
)

// gather returns metric values keyed by name and sink label
func gather(t *testing.T, c prometheus.Collector) map[string]map[string]float64 {
	t.Helper()
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	families, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]map[string]float64)
	for _, mf := range families {
		values := make(map[string]float64)
		for _, m := range mf.GetMetric() {
			values[sinkOf(m)] = valueOf(mf, m)
		}
		out[mf.GetName()] = values
	}
	return out
}

func sinkOf(m *dto.Metric) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == "sink" {
			return lp.GetValue()
		}
	}
	return ""
}

func valueOf(mf *dto.MetricFamily, m *dto.Metric) float64 {
	if mf.GetType() == dto.MetricType_COUNTER {
		return m.GetCounter().GetValue()
	}
	return m.GetGauge().GetValue()
}

func TestCollectorFileAndTrigger(t *testing.T) {
	dir := t.TempDir()
	r := log2what.NewRegistry()
	defer r.Close()

	fw := r.Open(log2what.FileConfig{Name: "app", Directory: dir, MaxSize: log2what.MB, MaxGenerations: 5})
	tb := log2what.NewTriggerBuffer(fw, log2what.TriggerConfig{Mask: log2what.LevelError, Before: 2, After: 0})
	defer tb.Close()

	tb.Write(log2what.LevelDebug, "m", "one", "", 0)
	tb.Write(log2what.LevelDebug, "m", "two", "", 0)
	tb.Write(log2what.LevelDebug, "m", "three", "", 0)
	tb.Write(log2what.LevelError, "m", "boom", "", 0)

	c := NewCollector().AddRegistry("main", r).AddTriggerBuffer("main", tb)
	got := gather(t, c)

	assert.Equal(t, 1.0, got["log2what_file_opens_total"]["main"])
	assert.Equal(t, 1.0, got["log2what_file_active_entries"]["main"])
	// two buffered, trigger, two markers
	assert.Equal(t, 5.0, got["log2what_file_records_written_total"]["main"])
	assert.Equal(t, 0.0, got["log2what_file_records_dropped_total"]["main"])

	assert.Equal(t, 1.0, got["log2what_trigger_episodes_total"]["main"])
	assert.Equal(t, 3.0, got["log2what_trigger_forwarded_total"]["main"])
	assert.Equal(t, 1.0, got["log2what_trigger_evicted_total"]["main"])
	assert.Equal(t, 0.0, got["log2what_trigger_pending"]["main"])
}

func TestCollectorDB(t *testing.T) {
	cfg := dbwriter.DefaultConfig()
	cfg.URL = filepath.Join(t.TempDir(), "log2.db")
	cfg.BatchSize = 2

	w, err := dbwriter.NewRegistry().Open(cfg)
	require.NoError(t, err)
	defer w.Close()

	w.Write(log2what.LevelInfo, "m", "a", "", 0)
	w.Write(log2what.LevelInfo, "m", "b", "", 0)
	w.Write(log2what.LevelInfo, "m", "c", "", 0)

	got := gather(t, NewCollector().AddDB("sqlite", w))
	assert.Equal(t, 2.0, got["log2what_db_rows_inserted_total"]["sqlite"])
	assert.Equal(t, 0.0, got["log2what_db_rows_dropped_total"]["sqlite"])
	assert.Equal(t, 1.0, got["log2what_db_pending"]["sqlite"])
}

func TestCollectorEmpty(t *testing.T) {
	got := gather(t, NewCollector())
	assert.Empty(t, got)
}
