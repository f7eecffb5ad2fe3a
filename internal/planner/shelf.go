package planner

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Placement is a packed unit with the floor position of its front-left corner.
type Placement struct {
	Unit Unit
	X    decimal.Decimal
	Y    decimal.Decimal
}

// PackShelf places units row by row into a binWidth × binDepth floor, largest footprint first.
// Units that do not fit the floor or the remaining depth are returned as leftovers in the order
// they were tried.
func PackShelf(units []Unit, binWidth, binDepth decimal.Decimal) ([]Placement, []Unit) {
	sorted := append([]Unit(nil), units...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Oriented.Footprint().GreaterThan(sorted[j].Oriented.Footprint())
	})

	var (
		packed   []Placement
		leftover []Unit
		xUsed    = decimal.Zero
		yUsed    = decimal.Zero
		rowDepth = decimal.Zero
	)
	for _, u := range sorted {
		w, d := u.Oriented.Width, u.Oriented.Depth
		if w.GreaterThan(binWidth) || d.GreaterThan(binDepth) {
			leftover = append(leftover, u)
			continue
		}

		if xUsed.Add(w).LessThanOrEqual(binWidth) {
			packed = append(packed, Placement{Unit: u, X: xUsed, Y: yUsed})
			xUsed = xUsed.Add(w)
			rowDepth = decimal.Max(rowDepth, d)
			continue
		}

		if yUsed.Add(rowDepth).Add(d).LessThanOrEqual(binDepth) {
			yUsed = yUsed.Add(rowDepth)
			packed = append(packed, Placement{Unit: u, X: decimal.Zero, Y: yUsed})
			xUsed = w
			rowDepth = d
			continue
		}

		leftover = append(leftover, u)
	}
	return packed, leftover
}
