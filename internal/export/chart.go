package export

import (
	"fmt"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/example/sheetbot/pkg/models"
)

// UserSeries is one user's cumulative curve with a display name for
// the chart legend.
type UserSeries struct {
	Name   string
	Points []models.SeriesPoint
}

// RaceChart renders the cumulative-progress race as a PNG line chart,
// one line per user.
func RaceChart(w io.Writer, series []UserSeries) error {
	if len(series) == 0 {
		return fmt.Errorf("no series to plot")
	}

	chartSeries := make([]chart.Series, 0, len(series))
	for _, s := range series {
		xs := make([]time.Time, len(s.Points))
		ys := make([]float64, len(s.Points))
		for i, p := range s.Points {
			xs[i] = p.Date
			ys[i] = p.Cumulative
		}
		chartSeries = append(chartSeries, chart.TimeSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
		})
	}

	graph := chart.Chart{
		Title:  "Progress Race",
		Width:  1000,
		Height: 600,
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Cumulative Progress (%)",
		},
		Series: chartSeries,
	}
	graph.Elements = []chart.Renderable{chart.LegendThin(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render race chart: %w", err)
	}
	return nil
}
