package models

import "time"

// LogEntry is a single record in a user's append-only progress history.
// Delta holds the change that was actually applied to the ledger, which
// may be smaller than what the user requested when clamping kicked in.
type LogEntry struct {
	Date    time.Time `json:"date"`
	SheetID string    `json:"sheet_id"`
	Module  string    `json:"module"`
	Delta   float64   `json:"delta"`
	Comment string    `json:"comment"`
}
