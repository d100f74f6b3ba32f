package eventlog

import (
	"sort"
	"time"

	"github.com/example/sheetbot/pkg/models"
)

// SeriesFilter restricts which history records contribute to a
// cumulative curve. Zero values mean "no filter". Now anchors the
// trailing synthetic point and defaults to the wall clock.
type SeriesFilter struct {
	Sheets []string
	Module string
	Start  time.Time
	Now    time.Time
}

func (f SeriesFilter) matches(e models.LogEntry) bool {
	if len(f.Sheets) > 0 {
		found := false
		for _, s := range f.Sheets {
			if e.SheetID == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Module != "" && e.Module != f.Module {
		return false
	}
	if !f.Start.IsZero() && e.Date.Before(f.Start) {
		return false
	}
	return true
}

// Cumulative rebuilds a progress-over-time curve from history records.
// Deltas are summed per calendar day, then accumulated in chronological
// order. The curve is padded with a zero point at the first date and a
// flat point at "now" so plots start on the axis and extend to the
// present. Returns nil when no records survive the filter.
func Cumulative(entries []models.LogEntry, f SeriesFilter) []models.SeriesPoint {
	perDay := make(map[time.Time]float64)
	for _, e := range entries {
		if !f.matches(e) {
			continue
		}
		day := e.Date.Truncate(24 * time.Hour)
		perDay[day] += e.Delta
	}
	if len(perDay) == 0 {
		return nil
	}

	days := make([]time.Time, 0, len(perDay))
	for d := range perDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}

	points := make([]models.SeriesPoint, 0, len(days)+2)
	points = append(points, models.SeriesPoint{Date: days[0], Cumulative: 0})
	var running float64
	for _, d := range days {
		running += perDay[d]
		points = append(points, models.SeriesPoint{Date: d, Cumulative: running})
	}
	points = append(points, models.SeriesPoint{Date: now, Cumulative: running})
	return points
}

// AllSeries builds one cumulative curve per user with history. Users
// whose history is emptied by the filter are omitted.
func (l *Log) AllSeries(f SeriesFilter) (map[int64][]models.SeriesPoint, error) {
	ids, err := l.Users()
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]models.SeriesPoint)
	for _, id := range ids {
		entries, err := l.Read(id)
		if err != nil {
			return nil, err
		}
		if points := Cumulative(entries, f); points != nil {
			out[id] = points
		}
	}
	return out, nil
}
