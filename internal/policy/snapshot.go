package policy

import (
	"fmt"
	"time"
)

// BoxFurnitureID is the catalog row used as the reference moving box.
const BoxFurnitureID = "box"

// DefaultCombinations is the candidate catalog used when a snapshot does not configure one.
// Order is priority: single trucks smallest first, then two- and three-truck combinations.
var DefaultCombinations = [][]TruckType{
	{Truck1T},
	{Truck2_5T},
	{Truck5T},
	{Truck6T},
	{Truck7_5T},
	{Truck10T},
	{Truck5T, Truck1T},
	{Truck5T, Truck2_5T},
	{Truck5T, Truck5T},
	{Truck10T, Truck1T},
	{Truck10T, Truck2_5T},
	{Truck10T, Truck5T},
	{Truck10T, Truck10T},
	{Truck5T, Truck5T, Truck1T},
	{Truck5T, Truck5T, Truck2_5T},
	{Truck5T, Truck5T, Truck5T},
	{Truck10T, Truck10T, Truck5T},
	{Truck10T, Truck10T, Truck10T},
}

// Snapshot is one consistent version of every policy table.
type Snapshot struct {
	Version      string        `yaml:"version"`
	TruckSpecs   []TruckSpec   `yaml:"truck_specs"`
	Combinations [][]TruckType `yaml:"truck_combinations"`
	BoxRules     []BoxRule     `yaml:"box_rules"`
	BaseFees     []BaseFee     `yaml:"base_fees"`
	LadderFees   []LadderFee   `yaml:"ladder_fees"`
	StairsFees   []StairsFee   `yaml:"stairs_fees"`
	DistanceFees []DistanceFee `yaml:"distance_fees"`
	SpecialFees  []SpecialFee  `yaml:"special_fees"`
	Furniture    []Furniture   `yaml:"furniture"`

	LoadedAt time.Time `yaml:"-"`
}

// TruckSpec returns the active spec for t.
func (s *Snapshot) TruckSpec(t TruckType) (TruckSpec, bool) {
	for _, spec := range s.TruckSpecs {
		if spec.Type == t && spec.IsActive() {
			return spec, true
		}
	}
	return TruckSpec{}, false
}

// ActiveTruckSpecs returns the active specs in table order.
func (s *Snapshot) ActiveTruckSpecs() []TruckSpec {
	out := make([]TruckSpec, 0, len(s.TruckSpecs))
	for _, spec := range s.TruckSpecs {
		if spec.IsActive() {
			out = append(out, spec)
		}
	}
	return out
}

// CombinationCatalog returns the ordered candidate combinations.
func (s *Snapshot) CombinationCatalog() [][]TruckType {
	src := s.Combinations
	if len(src) == 0 {
		src = DefaultCombinations
	}
	out := make([][]TruckType, len(src))
	for i, combo := range src {
		out[i] = append([]TruckType(nil), combo...)
	}
	return out
}

// MatchBoxRule finds the active rule whose closed interval covers area.
func (s *Snapshot) MatchBoxRule(area int) (BoxRule, error) {
	for _, r := range s.BoxRules {
		if r.IsActive() && r.AreaMin <= area && area <= r.AreaMax {
			return r, nil
		}
	}
	return BoxRule{}, fmt.Errorf("%w: no box rule covers area %d", ErrMissingRule, area)
}

// BaseFee returns the active base fee for the move and truck type.
func (s *Snapshot) BaseFee(move MoveType, t TruckType) (BaseFee, error) {
	for _, f := range s.BaseFees {
		if f.IsActive() && f.MoveType == move && f.TruckType == t {
			return f, nil
		}
	}
	return BaseFee{}, fmt.Errorf("%w: no base fee for %s/%s", ErrMissingRule, move, t)
}

// HasLadderGroup reports whether any active ladder fee exists for group.
func (s *Snapshot) HasLadderGroup(group TruckType) bool {
	for _, f := range s.LadderFees {
		if f.IsActive() && f.Group == group {
			return true
		}
	}
	return false
}

// MatchLadderFee returns the narrowest active floor range in group containing floor.
func (s *Snapshot) MatchLadderFee(group TruckType, floor int) (LadderFee, bool) {
	var best LadderFee
	found := false
	for _, f := range s.LadderFees {
		if !f.IsActive() || f.Group != group || floor < f.FloorFrom || floor > f.FloorTo {
			continue
		}
		if !found || f.FloorTo-f.FloorFrom < best.FloorTo-best.FloorFrom {
			best = f
			found = true
		}
	}
	return best, found
}

// TopLadderFee returns the active rule with the largest FloorTo in group.
func (s *Snapshot) TopLadderFee(group TruckType) (LadderFee, bool) {
	var best LadderFee
	found := false
	for _, f := range s.LadderFees {
		if !f.IsActive() || f.Group != group {
			continue
		}
		if !found || f.FloorTo > best.FloorTo {
			best = f
			found = true
		}
	}
	return best, found
}

// MatchStairsFee returns the narrowest active floor range containing floor.
func (s *Snapshot) MatchStairsFee(floor int) (StairsFee, bool) {
	var best StairsFee
	found := false
	for _, f := range s.StairsFees {
		if !f.IsActive() || floor < f.FloorFrom || floor > f.FloorTo {
			continue
		}
		if !found || f.FloorTo-f.FloorFrom < best.FloorTo-best.FloorFrom {
			best = f
			found = true
		}
	}
	return best, found
}

// DistanceFee returns the active distance rule for t.
func (s *Snapshot) DistanceFee(t TruckType) (DistanceFee, bool) {
	for _, f := range s.DistanceFees {
		if f.IsActive() && f.TruckType == t {
			return f, true
		}
	}
	return DistanceFee{}, false
}

// HighestDistanceFee returns the active rule with the largest per-unit amount.
// Ties go to the higher ranked truck type.
func (s *Snapshot) HighestDistanceFee() (DistanceFee, bool) {
	var best DistanceFee
	found := false
	for _, f := range s.DistanceFees {
		if !f.IsActive() {
			continue
		}
		if !found ||
			f.PerUnitAmount > best.PerUnitAmount ||
			(f.PerUnitAmount == best.PerUnitAmount && f.TruckType.Rank() > best.TruckType.Rank()) {
			best = f
			found = true
		}
	}
	return best, found
}

// SpecialFee returns the active surcharge for a furniture id.
func (s *Snapshot) SpecialFee(furnitureID string) (SpecialFee, bool) {
	for _, f := range s.SpecialFees {
		if f.IsActive() && f.FurnitureID == furnitureID {
			return f, true
		}
	}
	return SpecialFee{}, false
}

// FurnitureByID returns the catalog row for id.
func (s *Snapshot) FurnitureByID(id string) (Furniture, bool) {
	for _, f := range s.Furniture {
		if f.ID == id {
			return f, true
		}
	}
	return Furniture{}, false
}

// BoxFurniture returns the reference moving box row.
func (s *Snapshot) BoxFurniture() (Furniture, error) {
	f, ok := s.FurnitureByID(BoxFurnitureID)
	if !ok {
		return Furniture{}, fmt.Errorf("%w: reference box %q not in furniture catalog", ErrMissingRule, BoxFurnitureID)
	}
	return f, nil
}

// FurnitureList returns a copy of the furniture catalog.
func (s *Snapshot) FurnitureList() []Furniture {
	out := make([]Furniture, len(s.Furniture))
	copy(out, s.Furniture)
	return out
}
