package ledger

import (
	"math"
	"sort"

	"github.com/example/sheetbot/pkg/models"
)

// LeaderboardFilter narrows a leaderboard to one sheet and/or one
// module. Empty fields mean no filter.
type LeaderboardFilter struct {
	Sheet  string
	Module string
}

// Leaderboard ranks every ledger user by total points, descending.
// Totals depend on the filter:
//
//	no filter:      sum of every cell the user has
//	sheet only:     sum of that sheet's row
//	module only:    sum of that module across all sheets
//	sheet + module: the single cell value
//
// Ties are broken by ascending user ID, which keeps the ordering
// stable across runs.
func (s *Store) Leaderboard(f LeaderboardFilter) []models.LeaderboardEntry {
	ids := s.Users()

	s.mu.Lock()
	entries := make([]models.LeaderboardEntry, 0, len(ids))
	for _, id := range ids {
		sheets := s.data[id]
		var total float64
		switch {
		case f.Sheet != "" && f.Module != "":
			total = sheets[f.Sheet][f.Module]
		case f.Sheet != "":
			for _, v := range sheets[f.Sheet] {
				total += v
			}
		case f.Module != "":
			for _, cells := range sheets {
				total += cells[f.Module]
			}
		default:
			for _, cells := range sheets {
				for _, v := range cells {
					total += v
				}
			}
		}
		entries = append(entries, models.LeaderboardEntry{UserID: id, Points: total})
	}
	s.mu.Unlock()

	// Input is already in ascending user-ID order; a stable sort keeps
	// that as the tie-break.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Points > entries[j].Points
	})
	return entries
}

// HeatmapTable builds a sheet-by-module grid of rounded percentages
// for one user. Rows follow sheetIDs and columns follow modules
// exactly as given, duplicates and omissions included; cells without
// progress are 0.
func (s *Store) HeatmapTable(userID int64, sheetIDs, modules []string) [][]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheets := s.data[userID]
	grid := make([][]int, len(sheetIDs))
	for i, sheetID := range sheetIDs {
		row := make([]int, len(modules))
		for j, module := range modules {
			row[j] = int(math.Round(sheets[sheetID][module]))
		}
		grid[i] = row
	}
	return grid
}
