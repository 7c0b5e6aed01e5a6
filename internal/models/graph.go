package models

import "time"

// GraphInterval selects the time-bucket granularity for graph series.
type GraphInterval string

const (
	IntervalDay   GraphInterval = "D"
	IntervalWeek  GraphInterval = "W"
	IntervalMonth GraphInterval = "M"
	IntervalYear  GraphInterval = "Y"
)

// ParseGraphInterval maps the query parameter onto an interval, defaulting
// to daily buckets.
func ParseGraphInterval(raw string) (GraphInterval, bool) {
	switch GraphInterval(raw) {
	case IntervalDay, IntervalWeek, IntervalMonth, IntervalYear:
		return GraphInterval(raw), true
	case "":
		return IntervalDay, true
	}
	return IntervalDay, false
}

// SeriesPoint is one charted point. X is the bucket start in UTC.
type SeriesPoint struct {
	X time.Time `json:"x"`
	Y float64   `json:"y"`
}

// Series is a named ordered sequence of points.
type Series struct {
	Name string        `json:"name"`
	Data []SeriesPoint `json:"data"`
}

// Graph is the JSON contract consumed by the client-side charting widget.
type Graph struct {
	Series     []Series `json:"series"`
	XAxisTitle string   `json:"xaxisTitle"`
	YAxisTitle string   `json:"yaxisTitle"`
	YAxisMax   *float64 `json:"yaxisMax,omitempty"`
}
