package planner

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eugenenazirov/move-estimator/internal/policy"
)

// Item is one inventory entry with packed dimensions (raw size plus padding on both sides).
type Item struct {
	FurnitureID      string
	WidthCm          decimal.Decimal
	DepthCm          decimal.Decimal
	HeightCm         decimal.Decimal
	Stackable        bool
	CanStackOnTop    bool
	Rotations        []string
	NeedsDisassembly bool
}

// BoxPolicy is the slice of the policy snapshot the normalizer reads.
type BoxPolicy interface {
	MatchBoxRule(area int) (policy.BoxRule, error)
	BoxFurniture() (policy.Furniture, error)
}

// NormalizerInput carries everything Normalize needs for one planning run.
type NormalizerInput struct {
	Items  []Item
	Area   int
	Policy BoxPolicy
}

// Normalized is the flat unit list plus the box rule that produced the box units.
type Normalized struct {
	Units     []Unit
	BoxCount  int
	BoxRule   policy.BoxRule
	ItemCount int
}

// BoxesDescription renders the box quantity for quotes.
func (n Normalized) BoxesDescription() string {
	if n.BoxRule.Note != "" {
		return fmt.Sprintf("%d boxes (%s)", n.BoxCount, n.BoxRule.Note)
	}
	return fmt.Sprintf("%d boxes", n.BoxCount)
}

// Normalize converts items and the area-derived box quantity into packable units.
// Item units come first in input order, followed by the identical box units.
// Any area is accepted; whether it is covered is up to the box rules.
func Normalize(in NormalizerInput) (Normalized, error) {
	if len(in.Items) == 0 {
		return Normalized{}, fmt.Errorf("%w: item list is empty", ErrInvalidInput)
	}
	if in.Policy == nil {
		return Normalized{}, fmt.Errorf("%w: box policy is required", ErrInvalidInput)
	}

	rule, err := in.Policy.MatchBoxRule(in.Area)
	if err != nil {
		return Normalized{}, err
	}

	units := make([]Unit, 0, len(in.Items)+rule.BoxCount())
	for i, item := range in.Items {
		u, err := itemUnit(fmt.Sprintf("item-%d", i+1), item)
		if err != nil {
			return Normalized{}, fmt.Errorf("items[%d]: %w", i, err)
		}
		units = append(units, u)
	}

	count := rule.BoxCount()
	if count > 0 {
		ref, err := in.Policy.BoxFurniture()
		if err != nil {
			return Normalized{}, err
		}
		box := BoxItem(ref)
		for i := 0; i < count; i++ {
			u, err := itemUnit(fmt.Sprintf("box-%d", i+1), box)
			if err != nil {
				return Normalized{}, fmt.Errorf("reference box: %w", err)
			}
			units = append(units, u)
		}
	}

	return Normalized{Units: units, BoxCount: count, BoxRule: rule, ItemCount: len(in.Items)}, nil
}

// BoxItem inflates the reference box by its own padding on both sides.
func BoxItem(ref policy.Furniture) Item {
	pad := ref.Padding().Mul(decimal.NewFromInt(2))
	return Item{
		FurnitureID:   ref.ID,
		WidthCm:       decimal.NewFromInt(int64(ref.WidthCm)).Add(pad),
		DepthCm:       decimal.NewFromInt(int64(ref.DepthCm)).Add(pad),
		HeightCm:      decimal.NewFromInt(int64(ref.HeightCm)).Add(pad),
		Stackable:     ref.Stackable,
		CanStackOnTop: ref.CanStackOnTop,
		Rotations:     ref.Rotations,
	}
}

func itemUnit(id string, item Item) (Unit, error) {
	if !item.WidthCm.IsPositive() || !item.DepthCm.IsPositive() || !item.HeightCm.IsPositive() {
		return Unit{}, fmt.Errorf("%w: dimensions must be positive (%s×%s×%s)",
			ErrInvalidInput, item.WidthCm, item.DepthCm, item.HeightCm)
	}

	rotations := item.Rotations
	if len(rotations) == 0 {
		rotations = []string{DefaultRotation}
	}
	for _, code := range rotations {
		if !policy.ValidRotation(code) {
			return Unit{}, fmt.Errorf("%w: unknown rotation code %q", ErrInvalidInput, code)
		}
	}

	raw := Dims{Width: item.WidthCm, Depth: item.DepthCm, Height: item.HeightCm}
	return Unit{
		ID:            id,
		FurnitureID:   item.FurnitureID,
		Raw:           raw,
		Oriented:      raw,
		Rotation:      DefaultRotation,
		Stackable:     item.Stackable,
		CanStackOnTop: item.CanStackOnTop,
		Rotations:     append([]string(nil), rotations...),
	}, nil
}
