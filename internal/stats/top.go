// Package stats contains statistics calculations and reporting.
package stats

import (
	"sort"

	"github.com/verte-zerg/pomo/internal/model"
)

// TopDays returns the n days with the most working time.
func TopDays(days []model.DayTotal, n int) []model.DayTotal {
	if n <= 0 || len(days) == 0 {
		return nil
	}
	items := make([]model.DayTotal, len(days))
	copy(items, days)
	sort.Slice(items, func(i, j int) bool {
		if items[i].WorkingSecs == items[j].WorkingSecs {
			return items[i].Date.Before(items[j].Date)
		}
		return items[i].WorkingSecs > items[j].WorkingSecs
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}
