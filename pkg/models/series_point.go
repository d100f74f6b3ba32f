package models

import "time"

// SeriesPoint is one point on a cumulative-progress-over-time curve.
type SeriesPoint struct {
	Date       time.Time `json:"date"`
	Cumulative float64   `json:"cumulative"`
}
