package models

// ClampedResult reports the outcome of a progress update. Requested is
// the delta the caller asked for, Applied the delta that made it into
// the ledger after clamping to [0,100], and Value the stored percentage
// after the update.
type ClampedResult struct {
	Requested float64 `json:"requested"`
	Applied   float64 `json:"applied"`
	Value     float64 `json:"value"`
}

// Clamped reports whether part of the requested delta was discarded.
func (r ClampedResult) Clamped() bool {
	return r.Applied != r.Requested
}
