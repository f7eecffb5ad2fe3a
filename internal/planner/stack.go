package planner

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MergeStacks pairs each base with at most one top and returns the resulting unit list.
//
// Bases are units that accept something on top, widest footprint first. Tops are stackable
// units, smallest footprint first. A base takes the first unused top whose footprint fits inside
// its own and whose combined height stays within maxHeight. Output keeps input order; a merged
// stack takes the position of its base.
func MergeStacks(units []Unit, maxHeight decimal.Decimal) []Unit {
	var bases, tops []int
	for i, u := range units {
		if u.CanStackOnTop {
			bases = append(bases, i)
		}
		if u.Stackable {
			tops = append(tops, i)
		}
	}
	sort.SliceStable(bases, func(a, b int) bool {
		return units[bases[a]].Oriented.Footprint().GreaterThan(units[bases[b]].Oriented.Footprint())
	})
	sort.SliceStable(tops, func(a, b int) bool {
		return units[tops[a]].Oriented.Footprint().LessThan(units[tops[b]].Oriented.Footprint())
	})

	partner := make([]int, len(units))
	for i := range partner {
		partner[i] = -1
	}
	consumed := make([]bool, len(units))
	isBase := make([]bool, len(units))

	for _, b := range bases {
		if consumed[b] {
			continue
		}
		base := units[b].Oriented
		for _, t := range tops {
			if t == b || consumed[t] || isBase[t] {
				continue
			}
			top := units[t].Oriented
			if top.Width.GreaterThan(base.Width) || top.Depth.GreaterThan(base.Depth) {
				continue
			}
			if base.Height.Add(top.Height).GreaterThan(maxHeight) {
				continue
			}
			partner[b] = t
			consumed[t] = true
			isBase[b] = true
			break
		}
	}

	out := make([]Unit, 0, len(units))
	for i, u := range units {
		if consumed[i] {
			continue
		}
		if partner[i] < 0 {
			out = append(out, u)
			continue
		}
		out = append(out, stackOf(u, units[partner[i]]))
	}
	return out
}

func stackOf(base, top Unit) Unit {
	dims := Dims{
		Width:  base.Oriented.Width,
		Depth:  base.Oriented.Depth,
		Height: base.Oriented.Height.Add(top.Oriented.Height),
	}
	return Unit{
		ID:          base.ID + "+" + top.ID,
		FurnitureID: base.FurnitureID,
		Raw:         dims,
		Oriented:    dims,
		Rotation:    base.Rotation,
		Rotations:   []string{DefaultRotation},
		Members:     []Unit{base, top},
	}
}
