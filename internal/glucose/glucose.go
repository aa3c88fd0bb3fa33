// Package glucose classifies readings and projects them along the reported
// trend.
package glucose

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Range thresholds in mg/dL.
const (
	LowThreshold  = 70
	HighThreshold = 180
)

// Range is where a value falls relative to the target range.
type Range int

const (
	InRange Range = iota
	Low
	High
)

// Classify returns the range for value.
func Classify(value int) Range {
	switch {
	case value < LowThreshold:
		return Low
	case value > HighThreshold:
		return High
	default:
		return InRange
	}
}

func (r Range) String() string {
	switch r {
	case Low:
		return "low"
	case High:
		return "high"
	default:
		return "in range"
	}
}

// Trend is the direction reported alongside a reading.
type Trend int

const (
	TrendNone Trend = iota
	TrendDoubleUp
	TrendSingleUp
	TrendFortyFiveUp
	TrendFlat
	TrendFortyFiveDown
	TrendSingleDown
	TrendDoubleDown
	TrendNotComputable
	TrendRateOutOfRange
)

var trendNames = []string{
	"None", "DoubleUp", "SingleUp", "FortyFiveUp", "Flat",
	"FortyFiveDown", "SingleDown", "DoubleDown", "NotComputable", "RateOutOfRange",
}

var trendArrows = []string{"", "↑↑", "↑", "↗", "→", "↘", "↓", "↓↓", "?", "-"}

// Approximate rate of change per trend, in mg/dL per minute.
var trendRates = []float64{0, 3, 2.5, 1.5, 0, -1.5, -2.5, -3, 0, 0}

// ParseTrend maps a service trend name to a Trend. Unknown names map to
// TrendNone.
func ParseTrend(name string) Trend {
	for i, n := range trendNames {
		if strings.EqualFold(n, name) {
			return Trend(i)
		}
	}
	return TrendNone
}

func (t Trend) valid() bool {
	return t >= TrendNone && int(t) < len(trendNames)
}

func (t Trend) String() string {
	if !t.valid() {
		return trendNames[TrendNone]
	}
	return trendNames[t]
}

// Arrow returns a short arrow glyph for the trend.
func (t Trend) Arrow() string {
	if !t.valid() {
		return ""
	}
	return trendArrows[t]
}

// RatePerMinute is the approximate mg/dL change per minute.
func (t Trend) RatePerMinute() float64 {
	if !t.valid() {
		return 0
	}
	return trendRates[t]
}

// MarshalJSON encodes the trend by name.
func (t Trend) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts either the trend name or its numeric code; the
// service has used both.
func (t *Trend) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*t = ParseTrend(name)
		return nil
	}

	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("trend: %w", err)
	}

	*t = Trend(code)
	if !t.valid() {
		*t = TrendNone
	}
	return nil
}

// MarshalYAML encodes the trend by name.
func (t Trend) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// Projection is an estimate of a future value.
type Projection struct {
	// Value is the projected reading in mg/dL.
	Value int
	// Range is the classification of the projected value.
	Range Range
	// Horizon is how far ahead the projection looks.
	Horizon time.Duration
}

// Project extends value along trend for horizon. Trends without a rate
// project the current value.
func Project(value int, trend Trend, horizon time.Duration) Projection {
	projected := value + int(trend.RatePerMinute()*horizon.Minutes())
	if projected < 0 {
		projected = 0
	}

	return Projection{
		Value:   projected,
		Range:   Classify(projected),
		Horizon: horizon,
	}
}

// Indicator returns a short status string for the projection.
func (p Projection) Indicator() string {
	switch p.Range {
	case Low:
		return "heading low"
	case High:
		return "heading high"
	default:
		return "steady"
	}
}
