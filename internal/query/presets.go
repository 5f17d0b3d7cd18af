package query

import (
	"fmt"
	"strings"
	"time"
)

// Preset names a canned report date range.
type Preset string

const (
	PresetAll   Preset = "all"
	PresetToday Preset = "today"
	Preset7d    Preset = "7d"
	Preset30d   Preset = "30d"
	PresetMonth Preset = "month"
)

// ParsePreset accepts a preset name; empty means PresetAll.
func ParsePreset(s string) (Preset, error) {
	p := Preset(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "":
		return PresetAll, nil
	case PresetAll, PresetToday, Preset7d, Preset30d, PresetMonth:
		return p, nil
	}
	return "", fmt.Errorf("unknown preset %q", s)
}

// Range expands the preset into a start and end day relative to now, in
// now's location. Both are zero for PresetAll. End is a day; filters extend
// it to the end of that day.
func (p Preset) Range(now time.Time) (start, end time.Time) {
	today := StartOfDay(now)
	switch p {
	case PresetToday:
		return today, today
	case Preset7d:
		return today.AddDate(0, 0, -6), today
	case Preset30d:
		return today.AddDate(0, 0, -29), today
	case PresetMonth:
		y, m, _ := today.Date()
		first := time.Date(y, m, 1, 0, 0, 0, 0, today.Location())
		return first, first.AddDate(0, 1, -1)
	}
	return time.Time{}, time.Time{}
}
