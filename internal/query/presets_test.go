package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetRange(t *testing.T) {
	now := time.Date(2024, 2, 14, 15, 4, 5, 0, time.UTC)
	date := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		preset     Preset
		start, end time.Time
	}{
		{PresetAll, time.Time{}, time.Time{}},
		{PresetToday, date(2, 14), date(2, 14)},
		{Preset7d, date(2, 8), date(2, 14)},
		{Preset30d, date(1, 16), date(2, 14)},
		{PresetMonth, date(2, 1), date(2, 29)},
	}
	for _, tt := range tests {
		start, end := tt.preset.Range(now)
		assert.True(t, tt.start.Equal(start), "%s start %s", tt.preset, start)
		assert.True(t, tt.end.Equal(end), "%s end %s", tt.preset, end)
	}
}

func TestParsePreset(t *testing.T) {
	p, err := ParsePreset("")
	require.NoError(t, err)
	assert.Equal(t, PresetAll, p)

	p, err = ParsePreset("7D")
	require.NoError(t, err)
	assert.Equal(t, Preset7d, p)

	_, err = ParsePreset("yesterday")
	assert.Error(t, err)
}
