package planner

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultRotation keeps the item upright with its own width and depth as footprint.
const DefaultRotation = "WDH"

var cm3PerCBM = decimal.NewFromInt(1_000_000)

// Dims is a width × depth footprint with a height, in centimetres.
type Dims struct {
	Width  decimal.Decimal
	Depth  decimal.Decimal
	Height decimal.Decimal
}

// Footprint is the floor area in cm².
func (d Dims) Footprint() decimal.Decimal {
	return d.Width.Mul(d.Depth)
}

// CBM is the volume in cubic metres.
func (d Dims) CBM() decimal.Decimal {
	return d.Width.Mul(d.Depth).Mul(d.Height).Div(cm3PerCBM)
}

// Permute applies a rotation code. Letters pick the raw axis for width, depth and height in turn.
func (d Dims) Permute(code string) Dims {
	axis := func(c byte) decimal.Decimal {
		switch c {
		case 'W':
			return d.Width
		case 'D':
			return d.Depth
		default:
			return d.Height
		}
	}
	return Dims{Width: axis(code[0]), Depth: axis(code[1]), Height: axis(code[2])}
}

// Unit is one packable thing: a furniture item, a standard box or a merged stack of two units.
type Unit struct {
	ID          string
	FurnitureID string

	// Raw holds the packed dimensions as normalised; Oriented the rotation chosen for a truck.
	Raw      Dims
	Oriented Dims
	Rotation string

	Stackable     bool
	CanStackOnTop bool
	Rotations     []string

	// Members lists the base and top of a merged stack; empty for plain units.
	Members []Unit
}

// Merged reports whether u is a virtual stack built by MergeStacks.
func (u Unit) Merged() bool {
	return len(u.Members) > 0
}

// CBM returns the unit volume. Merged stacks report the sum of their members.
func (u Unit) CBM() decimal.Decimal {
	if !u.Merged() {
		return u.Raw.CBM()
	}
	total := decimal.Zero
	for _, m := range u.Members {
		total = total.Add(m.CBM())
	}
	return total
}

// Flatten expands merged stacks back into their plain members.
func Flatten(units []Unit) []Unit {
	out := make([]Unit, 0, len(units))
	for _, u := range units {
		if u.Merged() {
			out = append(out, Flatten(u.Members)...)
			continue
		}
		out = append(out, u)
	}
	return out
}

// Describe renders a unit id for logs; merged stacks show their members.
func (u Unit) Describe() string {
	if !u.Merged() {
		return u.ID
	}
	ids := make([]string, len(u.Members))
	for i, m := range u.Members {
		ids[i] = m.Describe()
	}
	return strings.Join(ids, "+")
}

// TotalCBM sums the volume of units, rounded to 0.01 m³.
func TotalCBM(units []Unit) decimal.Decimal {
	total := decimal.Zero
	for _, u := range units {
		total = total.Add(u.CBM())
	}
	return round2(total)
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func round1(d decimal.Decimal) decimal.Decimal {
	return d.Round(1)
}
