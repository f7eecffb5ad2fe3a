package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/eugenenazirov/move-estimator/internal/planner"
	"github.com/eugenenazirov/move-estimator/internal/policy"
)

// SectionKey identifies a quote section. Sections are always emitted in the order declared here.
type SectionKey string

const (
	SectionBase     SectionKey = "BASE"
	SectionLadder   SectionKey = "LADDER"
	SectionStairs   SectionKey = "STAIRS"
	SectionDistance SectionKey = "DISTANCE"
	SectionSpecial  SectionKey = "SPECIAL"
)

// Scope tells which part of the move a line belongs to.
type Scope string

const (
	ScopeNone    Scope = ""
	ScopeOrigin  Scope = "ORIGIN"
	ScopeDest    Scope = "DEST"
	ScopeSpecial Scope = "SPECIAL"
)

// Line is one itemised amount inside a section.
type Line struct {
	Scope       Scope
	FurnitureID string
	Quantity    int
	Amount      int64
	Description string
}

// Section groups lines under a fee category. When Lines is non-empty Amount equals their sum.
type Section struct {
	Key         SectionKey
	Title       string
	Amount      int64
	Description string
	Lines       []Line
}

// Quote is the priced side of an estimate.
type Quote struct {
	TotalAmount      int64
	SpecialItemCount int
	Sections         []Section
}

// Section returns the section for key if it was emitted.
func (q Quote) Section(key SectionKey) (Section, bool) {
	for _, s := range q.Sections {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}

// Endpoint describes access at the origin or destination.
type Endpoint struct {
	Floor       int
	HasElevator bool
	UseLadder   bool
}

// PricingContext carries everything one pricing run reads besides the rule tables.
type PricingContext struct {
	Plan        planner.LoadPlan
	Items       []planner.Item
	MoveType    policy.MoveType
	Origin      Endpoint
	Destination *Endpoint
	DistanceKm  decimal.Decimal
}

// Rules is the slice of the policy snapshot the pricing engine reads.
type Rules interface {
	BaseFee(move policy.MoveType, t policy.TruckType) (policy.BaseFee, error)
	HasLadderGroup(group policy.TruckType) bool
	MatchLadderFee(group policy.TruckType, floor int) (policy.LadderFee, bool)
	TopLadderFee(group policy.TruckType) (policy.LadderFee, bool)
	MatchStairsFee(floor int) (policy.StairsFee, bool)
	DistanceFee(t policy.TruckType) (policy.DistanceFee, bool)
	HighestDistanceFee() (policy.DistanceFee, bool)
	SpecialFee(furnitureID string) (policy.SpecialFee, bool)
}
