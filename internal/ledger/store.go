package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/example/sheetbot/internal/catalog"
	"github.com/example/sheetbot/internal/eventlog"
	"github.com/example/sheetbot/pkg/models"
)

// Store owns the progress ledger: userID -> sheetID -> module ->
// percentage. All mutation goes through UpdateProgress and the store is
// the single writer; a mutex keeps the background persist job from
// serializing a half-applied update.
type Store struct {
	mu      sync.Mutex
	path    string
	catalog *catalog.Catalog
	events  *eventlog.Log
	data    map[int64]map[string]map[string]float64
}

// New creates a store persisting to path. Events are appended to the
// given log alongside every mutation.
func New(path string, cat *catalog.Catalog, events *eventlog.Log) *Store {
	return &Store{
		path:    path,
		catalog: cat,
		events:  events,
		data:    make(map[int64]map[string]map[string]float64),
	}
}

// NormalizeSheet canonicalizes a sheet identifier. Sheets are numbered,
// so anything that does not parse as a non-negative integer is
// rejected with ErrInvalidSheet.
func NormalizeSheet(sheet string) (string, error) {
	n, err := strconv.Atoi(sheet)
	if err != nil || n < 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidSheet, sheet)
	}
	return strconv.Itoa(n), nil
}

// Load replaces the in-memory ledger with the durable snapshot. A
// missing snapshot yields an empty ledger; an unreadable one yields a
// *CorruptSnapshotError and leaves the current state untouched.
func (s *Store) Load() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.mu.Lock()
		s.data = make(map[int64]map[string]map[string]float64)
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return &CorruptSnapshotError{Path: s.path, Err: err}
	}

	data, err := decodeSnapshot(raw)
	if err != nil {
		return &CorruptSnapshotError{Path: s.path, Err: err}
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// UpdateProgress applies a signed delta to one ledger cell, clamping
// the stored value to [0,100], and appends the applied change to the
// user's event log. The returned result carries both the requested and
// the applied delta so callers can tell the user when clamping
// truncated the update.
func (s *Store) UpdateProgress(userID int64, sheetID, module string, delta float64, comment string) (models.ClampedResult, error) {
	if !s.catalog.IsValid(module) {
		return models.ClampedResult{}, fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	sheetID, err := NormalizeSheet(sheetID)
	if err != nil {
		return models.ClampedResult{}, err
	}

	s.mu.Lock()
	sheets, ok := s.data[userID]
	if !ok {
		sheets = make(map[string]map[string]float64)
		s.data[userID] = sheets
	}
	cells, ok := sheets[sheetID]
	if !ok {
		// A fresh sheet starts every catalog module at zero so
		// exports and leaderboards see a full row.
		cells = make(map[string]float64, s.catalog.Len())
		for _, m := range s.catalog.All() {
			cells[m] = 0
		}
		sheets[sheetID] = cells
	}

	current := cells[module]
	applied := clamp(current+delta, 0, 100)
	cells[module] = applied
	s.mu.Unlock()

	result := models.ClampedResult{
		Requested: delta,
		Applied:   applied - current,
		Value:     applied,
	}

	entry := models.LogEntry{
		Date:    time.Now(),
		SheetID: sheetID,
		Module:  module,
		Delta:   result.Applied,
		Comment: comment,
	}
	if err := s.events.Append(userID, entry); err != nil {
		// The ledger mutation stands; history is best-effort but the
		// failure must surface.
		return result, fmt.Errorf("progress stored but history append failed: %w", err)
	}
	return result, nil
}

// UserProgress returns a deep copy of the user's sheets, empty (never
// nil) when the user has no entries.
func (s *Store) UserProgress(userID int64) map[string]map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]map[string]float64)
	for sheetID, cells := range s.data[userID] {
		row := make(map[string]float64, len(cells))
		for m, v := range cells {
			row[m] = v
		}
		out[sheetID] = row
	}
	return out
}

// Users returns every user ID in the ledger, ascending.
func (s *Store) Users() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Persist writes the full ledger to the snapshot file. The write goes
// through a temp file and a rename, so a crashed write never leaves a
// partial snapshot for the next Load.
func (s *Store) Persist() error {
	s.mu.Lock()
	raw, err := encodeSnapshot(s.data)
	s.mu.Unlock()
	if err != nil {
		return &PersistenceError{Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return &PersistenceError{Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &PersistenceError{Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Path: s.path, Err: err}
	}
	return nil
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}

// encodeSnapshot and decodeSnapshot own the serialization boundary:
// user IDs are int64 in memory and decimal strings on the wire.

func encodeSnapshot(data map[int64]map[string]map[string]float64) ([]byte, error) {
	wire := make(map[string]map[string]map[string]float64, len(data))
	for id, sheets := range data {
		wire[strconv.FormatInt(id, 10)] = sheets
	}
	return json.Marshal(wire)
}

func decodeSnapshot(raw []byte) (map[int64]map[string]map[string]float64, error) {
	var wire map[string]map[string]map[string]float64
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}
	data := make(map[int64]map[string]map[string]float64, len(wire))
	for key, sheets := range wire {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad user id key %q: %w", key, err)
		}
		if sheets == nil {
			sheets = make(map[string]map[string]float64)
		}
		data[id] = sheets
	}
	return data, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
