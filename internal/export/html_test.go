package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeatmapRendersGrid(t *testing.T) {
	var buf bytes.Buffer
	err := Heatmap(&buf, "Progress Heatmap",
		[]string{"1", "2"},
		[]string{"Analysis 2", "Network Science"},
		[][]int{{40, 0}, {100, 55}},
	)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "<h2>Progress Heatmap</h2>")
	assert.Contains(t, html, "<th>Analysis 2</th>")
	assert.Contains(t, html, "<th>Network Science</th>")
	assert.Contains(t, html, "<th>Sheet 1</th>")
	assert.Contains(t, html, "<th>Sheet 2</th>")
	assert.Contains(t, html, ">40</td>")
	assert.Contains(t, html, ">100</td>")
}

func TestHeatmapRejectsMismatchedGrid(t *testing.T) {
	var buf bytes.Buffer

	err := Heatmap(&buf, "t", []string{"1"}, []string{"A"}, [][]int{{1}, {2}})
	assert.Error(t, err)

	err = Heatmap(&buf, "t", []string{"1"}, []string{"A", "B"}, [][]int{{1}})
	assert.Error(t, err)
}

func TestHeatmapEscapesModuleNames(t *testing.T) {
	var buf bytes.Buffer
	err := Heatmap(&buf, "t", []string{"1"}, []string{"<script>"}, [][]int{{5}})
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "<script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}

func TestCellColorEndpoints(t *testing.T) {
	assert.Equal(t, "#b40426", string(cellColor(0)))
	assert.Equal(t, "#3b4cc0", string(cellColor(100)))
	// Out-of-range values clamp instead of producing bad colors.
	assert.Equal(t, "#b40426", string(cellColor(-5)))
	assert.Equal(t, "#3b4cc0", string(cellColor(120)))
}

func TestHeatmapWorkbookWrites(t *testing.T) {
	var buf bytes.Buffer
	err := HeatmapWorkbook(&buf, []string{"1"}, []string{"A", "B"}, [][]int{{40, 20}})
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())
	// xlsx files are zip archives.
	assert.Equal(t, "PK", buf.String()[:2])
}
