package planner

import "github.com/shopspring/decimal"

// Bounds is a truck interior in centimetres.
type Bounds struct {
	Width  decimal.Decimal
	Depth  decimal.Decimal
	Height decimal.Decimal
}

// Orient picks the rotation of u that fits b with the smallest footprint, then the smallest
// height. The first listed code wins a full tie. When nothing fits, u is returned unchanged
// and ok is false.
func Orient(u Unit, b Bounds) (Unit, bool) {
	var (
		best     Dims
		bestCode string
		found    bool
	)
	for _, code := range u.Rotations {
		d := u.Raw.Permute(code)
		if d.Height.GreaterThan(b.Height) || d.Width.GreaterThan(b.Width) || d.Depth.GreaterThan(b.Depth) {
			continue
		}
		if !found || better(d, best) {
			best, bestCode, found = d, code, true
		}
	}
	if !found {
		return u, false
	}

	u.Oriented = best
	u.Rotation = bestCode
	return u, true
}

func better(candidate, current Dims) bool {
	switch candidate.Footprint().Cmp(current.Footprint()) {
	case -1:
		return true
	case 1:
		return false
	}
	return candidate.Height.LessThan(current.Height)
}
