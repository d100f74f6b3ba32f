package eventlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/sheetbot/pkg/models"
)

var (
	day1 = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
	now  = time.Date(2025, 1, 20, 15, 0, 0, 0, time.UTC)
)

func TestCumulativeGroupsByDate(t *testing.T) {
	entries := []models.LogEntry{
		entryAt(day1.Add(9*time.Hour), "1", "A", 20, ""),
		entryAt(day1.Add(18*time.Hour), "1", "A", 10, ""),
		entryAt(day2.Add(12*time.Hour), "2", "B", 5, ""),
	}

	points := Cumulative(entries, SeriesFilter{Now: now})
	require.Len(t, points, 4)

	// Synthetic zero start, the two daily sums, synthetic "now" tail.
	assert.Equal(t, models.SeriesPoint{Date: day1, Cumulative: 0}, points[0])
	assert.Equal(t, models.SeriesPoint{Date: day1, Cumulative: 30}, points[1])
	assert.Equal(t, models.SeriesPoint{Date: day2, Cumulative: 35}, points[2])
	assert.Equal(t, models.SeriesPoint{Date: now, Cumulative: 35}, points[3])
}

func TestCumulativeIsMonotonicForNonNegativeDeltas(t *testing.T) {
	entries := []models.LogEntry{
		entryAt(day2, "1", "A", 7, ""),
		entryAt(day1, "1", "A", 3, ""),
		entryAt(day1.Add(time.Hour), "2", "B", 0, ""),
		entryAt(day2.Add(time.Hour), "3", "A", 11, ""),
	}

	points := Cumulative(entries, SeriesFilter{Now: now})
	for i := 1; i < len(points); i++ {
		assert.GreaterOrEqual(t, points[i].Cumulative, points[i-1].Cumulative)
		assert.False(t, points[i].Date.Before(points[i-1].Date))
	}
}

func TestCumulativeSheetFilter(t *testing.T) {
	entries := []models.LogEntry{
		entryAt(day1, "1", "A", 20, ""),
		entryAt(day1, "2", "A", 50, ""),
		entryAt(day2, "3", "A", 5, ""),
	}

	points := Cumulative(entries, SeriesFilter{Sheets: []string{"1", "3"}, Now: now})
	require.Len(t, points, 4)
	assert.Equal(t, 20.0, points[1].Cumulative)
	assert.Equal(t, 25.0, points[2].Cumulative)
}

func TestCumulativeModuleFilter(t *testing.T) {
	entries := []models.LogEntry{
		entryAt(day1, "1", "A", 20, ""),
		entryAt(day1, "1", "B", 50, ""),
	}

	points := Cumulative(entries, SeriesFilter{Module: "B", Now: now})
	require.Len(t, points, 3)
	assert.Equal(t, 50.0, points[1].Cumulative)
}

func TestCumulativeStartDateFilter(t *testing.T) {
	entries := []models.LogEntry{
		entryAt(day1, "1", "A", 20, ""),
		entryAt(day2, "1", "A", 5, ""),
	}

	points := Cumulative(entries, SeriesFilter{Start: day2, Now: now})
	require.Len(t, points, 3)
	assert.Equal(t, models.SeriesPoint{Date: day2, Cumulative: 0}, points[0])
	assert.Equal(t, models.SeriesPoint{Date: day2, Cumulative: 5}, points[1])
}

func TestCumulativeEmptyAfterFilter(t *testing.T) {
	entries := []models.LogEntry{
		entryAt(day1, "1", "A", 20, ""),
	}

	assert.Nil(t, Cumulative(entries, SeriesFilter{Module: "B", Now: now}))
	assert.Nil(t, Cumulative(nil, SeriesFilter{Now: now}))
}

func TestAllSeriesOmitsFilteredOutUsers(t *testing.T) {
	l, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, l.Append(1, entryAt(day1, "1", "A", 20, "")))
	require.NoError(t, l.Append(2, entryAt(day1, "1", "B", 30, "")))

	all, err := l.AllSeries(SeriesFilter{Module: "A", Now: now})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Contains(t, all, int64(1))
}
