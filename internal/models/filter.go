package models

import "fmt"

type Preset string

const (
	PresetToday     Preset = "today"
	PresetWeek      Preset = "week"
	PresetMonth     Preset = "month"
	PresetLastMonth Preset = "last_month"
	PresetAll       Preset = "all"
	PresetCustom    Preset = "custom"
)

// DateFilter is what the presentation layer sends: a preset, or explicit
// YYYY-MM-DD bounds.
type DateFilter struct {
	Preset    Preset `json:"preset"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

func ParsePreset(s string) (Preset, error) {
	switch p := Preset(s); p {
	case PresetToday, PresetWeek, PresetMonth, PresetLastMonth, PresetAll, PresetCustom:
		return p, nil
	case "":
		return PresetMonth, nil
	default:
		return "", fmt.Errorf("unknown preset %q", s)
	}
}

// MissingDatePolicy decides what a record without a creation or update
// timestamp is treated as.
type MissingDatePolicy string

const (
	MissingDateAbsent MissingDatePolicy = "absent"
	MissingDateNow    MissingDatePolicy = "now"
)
