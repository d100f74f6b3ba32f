package eventlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/sheetbot/pkg/models"
)

// timeLayout is the timestamp format used inside the CSV files.
const timeLayout = "2006-01-02 15:04:05"

// header is the column row written at the top of every new log file.
var header = []string{"Date", "Sheet Number", "Module", "Progress", "Comment"}

// Log manages the per-user append-only progress histories. Each user
// gets one CSV file named <userID>_logs.csv under the log directory.
// Files are only ever appended to, so concurrent readers see a stable
// prefix.
type Log struct {
	dir string
}

// New returns a Log writing into dir, creating it if needed.
func New(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create event log directory: %w", err)
	}
	return &Log{dir: dir}, nil
}

// Path returns the log file path for a user. The file may not exist
// yet.
func (l *Log) Path(userID int64) string {
	return filepath.Join(l.dir, fmt.Sprintf("%d_logs.csv", userID))
}

// Append adds one record to the user's history, creating the file with
// a header row on first write.
func (l *Log) Append(userID int64, e models.LogEntry) error {
	path := l.Path(userID)
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log for user %d: %w", userID, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to write log header for user %d: %w", userID, err)
		}
	}
	record := []string{
		e.Date.Format(timeLayout),
		e.SheetID,
		e.Module,
		strconv.FormatFloat(e.Delta, 'f', -1, 64),
		e.Comment,
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("failed to append log record for user %d: %w", userID, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush log for user %d: %w", userID, err)
	}
	return nil
}

// Read returns the user's full history in file order. A user without a
// log file has an empty history, not an error.
func (l *Log) Read(userID int64) ([]models.LogEntry, error) {
	f, err := os.Open(l.Path(userID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open log for user %d: %w", userID, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	// Comments may contain commas; the csv package handles quoting,
	// but tolerate ragged rows from hand-edited files.
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read log for user %d: %w", userID, err)
	}

	var entries []models.LogEntry
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && rec[0] == header[0] {
			continue // header row
		}
		if len(rec) < 4 {
			continue
		}
		date, err := time.Parse(timeLayout, rec[0])
		if err != nil {
			return nil, fmt.Errorf("bad timestamp %q in log for user %d: %w", rec[0], userID, err)
		}
		delta, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("bad progress value %q in log for user %d: %w", rec[3], userID, err)
		}
		entry := models.LogEntry{
			Date:    date,
			SheetID: rec[1],
			Module:  rec[2],
			Delta:   delta,
		}
		if len(rec) > 4 {
			entry.Comment = rec[4]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Users returns the IDs of every user with a log file, ascending.
func (l *Log) Users() ([]int64, error) {
	dirEntries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list event log directory: %w", err)
	}
	var ids []int64
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, "_logs.csv") {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(name, "_logs.csv"), 10, 64)
		if err != nil {
			continue // unrelated file
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
