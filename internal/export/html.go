package export

import (
	"fmt"
	"html/template"
	"io"
)

// heatmapTemplate renders the progress grid as a standalone HTML
// document with one colored cell per (sheet, module) value.
const heatmapTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid black; text-align: center; padding: 8px; }
</style>
</head>
<body>
<h2>{{.Title}}</h2>
<table>
<tr><th></th>{{range .Modules}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr><th>Sheet {{.Sheet}}</th>{{range .Cells}}<td style="background-color: {{.Color}}">{{.Value}}</td>{{end}}</tr>
{{end}}</table>
</body>
</html>
`

var heatmapTmpl = template.Must(template.New("heatmap").Parse(heatmapTemplate))

type heatmapCell struct {
	Value int
	Color template.CSS
}

type heatmapRow struct {
	Sheet string
	Cells []heatmapCell
}

type heatmapView struct {
	Title   string
	Modules []string
	Rows    []heatmapRow
}

// Heatmap writes the grid produced by the aggregation engine as an
// HTML document. Row order follows sheetIDs and column order follows
// modules, exactly as given.
func Heatmap(w io.Writer, title string, sheetIDs, modules []string, grid [][]int) error {
	if len(grid) != len(sheetIDs) {
		return fmt.Errorf("grid has %d rows for %d sheets", len(grid), len(sheetIDs))
	}
	view := heatmapView{Title: title, Modules: modules}
	for i, sheetID := range sheetIDs {
		if len(grid[i]) != len(modules) {
			return fmt.Errorf("grid row %d has %d cells for %d modules", i, len(grid[i]), len(modules))
		}
		row := heatmapRow{Sheet: sheetID}
		for _, v := range grid[i] {
			row.Cells = append(row.Cells, heatmapCell{Value: v, Color: cellColor(v)})
		}
		view.Rows = append(view.Rows, row)
	}
	return heatmapTmpl.Execute(w, view)
}

// cellColor maps a percentage to a warm-to-cool gradient: 0 is red,
// 100 is blue, matching the reversed coolwarm palette the exports have
// always used.
func cellColor(v int) template.CSS {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	t := float64(v) / 100

	// Endpoints of the gradient.
	const (
		warmR, warmG, warmB = 0xb4, 0x04, 0x26 // #b40426
		coolR, coolG, coolB = 0x3b, 0x4c, 0xc0 // #3b4cc0
	)
	r := int(float64(warmR) + t*float64(coolR-warmR))
	g := int(float64(warmG) + t*float64(coolG-warmG))
	b := int(float64(warmB) + t*float64(coolB-warmB))
	return template.CSS(fmt.Sprintf("#%02x%02x%02x", r, g, b))
}
