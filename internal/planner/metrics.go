package planner

import (
	"github.com/shopspring/decimal"

	"github.com/eugenenazirov/move-estimator/internal/policy"
)

var hundred = decimal.NewFromInt(100)

// TruckLoad is the reported utilisation of one truck in the selected combination.
type TruckLoad struct {
	Type          policy.TruckType
	InnerWidthCm  int
	InnerDepthCm  int
	InnerHeightCm int
	CapacityCBM   decimal.Decimal
	LoadCBM       decimal.Decimal
	LoadFactorPct decimal.Decimal
	RemainingCBM  decimal.Decimal
	Placements    []Placement
}

// LoadPlan is the physical side of an estimate.
type LoadPlan struct {
	Trucks           []TruckLoad
	TotalCBM         decimal.Decimal
	TruckCapacityCBM decimal.Decimal
	RecommendedTon   decimal.Decimal
	BoxesCount       int
	BoxesDescription string
	Attempts         []Attempt
}

// TruckTypes lists the selected truck types in combination order.
func (lp LoadPlan) TruckTypes() []policy.TruckType {
	out := make([]policy.TruckType, len(lp.Trucks))
	for i, t := range lp.Trucks {
		out[i] = t.Type
	}
	return out
}

// BuildLoadPlan assigns volume to trucks greedily in combination order. Each truck reports
// min(remaining volume, capacity) regardless of which units the shelf packer placed in it.
func BuildLoadPlan(sel Selection, norm Normalized) LoadPlan {
	plan := LoadPlan{
		Trucks:           make([]TruckLoad, 0, len(sel.Candidate.Trucks)),
		TotalCBM:         sel.TotalCBM,
		TruckCapacityCBM: sel.Candidate.CapacityCBM(),
		RecommendedTon:   decimal.Zero,
		BoxesCount:       norm.BoxCount,
		BoxesDescription: norm.BoxesDescription(),
		Attempts:         sel.Attempts,
	}

	remaining := sel.TotalCBM
	for i, spec := range sel.Candidate.Trucks {
		capacity := capacityOf(spec)
		load := decimal.Min(remaining, capacity)
		remaining = remaining.Sub(load)

		tl := TruckLoad{
			Type:          spec.Type,
			InnerWidthCm:  spec.InnerWidthCm,
			InnerDepthCm:  spec.InnerDepthCm,
			InnerHeightCm: spec.InnerHeightCm,
			CapacityCBM:   capacity,
			LoadCBM:       load,
			LoadFactorPct: LoadFactor(load, capacity),
			RemainingCBM:  capacity.Sub(load),
		}
		if i < len(sel.Loads) {
			tl.Placements = sel.Loads[i]
		}
		plan.Trucks = append(plan.Trucks, tl)
		plan.RecommendedTon = plan.RecommendedTon.Add(spec.Type.Tonnage())
	}
	return plan
}

// LoadFactor is load/capacity as a percentage rounded to one decimal. Zero capacity yields 0.
func LoadFactor(load, capacity decimal.Decimal) decimal.Decimal {
	if !capacity.IsPositive() {
		return decimal.Zero
	}
	return round1(load.Div(capacity).Mul(hundred))
}
