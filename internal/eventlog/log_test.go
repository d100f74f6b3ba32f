package eventlog

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/sheetbot/pkg/models"
)

func entryAt(date time.Time, sheet, module string, delta float64, comment string) models.LogEntry {
	return models.LogEntry{Date: date, SheetID: sheet, Module: module, Delta: delta, Comment: comment}
}

func TestAppendCreatesFileWithHeader(t *testing.T) {
	l, err := New(t.TempDir())
	require.NoError(t, err)

	date := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	require.NoError(t, l.Append(7, entryAt(date, "1", "Network Science", 25, "q1 done")))

	raw, err := os.ReadFile(l.Path(7))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Sheet Number,Module,Progress,Comment", lines[0])
	assert.Equal(t, "2025-01-15 10:30:00,1,Network Science,25,q1 done", lines[1])
}

func TestAppendDoesNotRepeatHeader(t *testing.T) {
	l, err := New(t.TempDir())
	require.NoError(t, err)

	date := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, l.Append(7, entryAt(date, "1", "A", 10, "")))
	require.NoError(t, l.Append(7, entryAt(date.Add(time.Hour), "1", "A", 5, "")))

	raw, err := os.ReadFile(l.Path(7))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(raw), "Date,Sheet Number"))
}

func TestAppendReadRoundTrip(t *testing.T) {
	l, err := New(t.TempDir())
	require.NoError(t, err)

	date := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	in := []models.LogEntry{
		entryAt(date, "1", "Analysis 2", 12.5, "with, a comma"),
		entryAt(date.Add(2*time.Hour), "2", "Groups and Rings", -4, ""),
	}
	for _, e := range in {
		require.NoError(t, l.Append(3, e))
	}

	out, err := l.Read(3)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, in[0].Date, out[0].Date)
	assert.Equal(t, "Analysis 2", out[0].Module)
	assert.Equal(t, 12.5, out[0].Delta)
	assert.Equal(t, "with, a comma", out[0].Comment)
	assert.Equal(t, -4.0, out[1].Delta)
}

func TestReadMissingFile(t *testing.T) {
	l, err := New(t.TempDir())
	require.NoError(t, err)

	entries, err := l.Read(404)
	assert.NoError(t, err)
	assert.Nil(t, entries)
}

func TestUsersScansLogDirectory(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir)
	require.NoError(t, err)

	date := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, l.Append(20, entryAt(date, "1", "A", 5, "")))
	require.NoError(t, l.Append(3, entryAt(date, "1", "A", 5, "")))
	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(dir+"/progress_data.json", []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(dir+"/notes_logs.csv", []byte("x"), 0644))

	ids, err := l.Users()
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 20}, ids)
}
