package policy

import (
	"github.com/shopspring/decimal"
)

// TruckType identifies a truck class. Values follow the policy tables ("2_5T" is 2.5 tonnes).
type TruckType string

const (
	Truck1T   TruckType = "1T"
	Truck2_5T TruckType = "2_5T"
	Truck5T   TruckType = "5T"
	Truck6T   TruckType = "6T"
	Truck7_5T TruckType = "7_5T"
	Truck10T  TruckType = "10T"
)

// truckTypes is ordered by rank.
var truckTypes = []TruckType{Truck1T, Truck2_5T, Truck5T, Truck6T, Truck7_5T, Truck10T}

var nominalTonnage = map[TruckType]decimal.Decimal{
	Truck1T:   decimal.NewFromInt(1),
	Truck2_5T: decimal.RequireFromString("2.5"),
	Truck5T:   decimal.NewFromInt(5),
	Truck6T:   decimal.NewFromInt(6),
	Truck7_5T: decimal.RequireFromString("7.5"),
	Truck10T:  decimal.NewFromInt(10),
}

// TruckTypes returns every known truck type, smallest first.
func TruckTypes() []TruckType {
	out := make([]TruckType, len(truckTypes))
	copy(out, truckTypes)
	return out
}

// Valid reports whether t is a known truck type.
func (t TruckType) Valid() bool {
	_, ok := nominalTonnage[t]
	return ok
}

// Rank orders truck types by nominal tonnage. Unknown types rank -1.
func (t TruckType) Rank() int {
	for i, tt := range truckTypes {
		if tt == t {
			return i
		}
	}
	return -1
}

// Tonnage returns the nominal tonnage, zero for unknown types.
func (t TruckType) Tonnage() decimal.Decimal {
	if v, ok := nominalTonnage[t]; ok {
		return v
	}
	return decimal.Zero
}

// Label renders the type for humans ("2.5T" instead of "2_5T").
func (t TruckType) Label() string {
	return t.Tonnage().String() + "T"
}

// MaxTruckType returns the highest ranked type among types; ok is false when types is empty.
func MaxTruckType(types []TruckType) (TruckType, bool) {
	var best TruckType
	found := false
	for _, t := range types {
		if !found || t.Rank() > best.Rank() {
			best = t
			found = true
		}
	}
	return best, found
}

// MoveType distinguishes a plain move from a full packing service.
type MoveType string

const (
	MoveGeneral MoveType = "GENERAL"
	MovePacking MoveType = "PACKING"
)

// Valid reports whether m is a known move type.
func (m MoveType) Valid() bool {
	return m == MoveGeneral || m == MovePacking
}

// rotationCodes lists the permutations of W, D and H. The first two letters are the footprint.
var rotationCodes = map[string]struct{}{
	"WDH": {}, "WHD": {}, "DWH": {}, "DHW": {}, "HWD": {}, "HDW": {},
}

// ValidRotation reports whether code is one of the six axis permutations.
func ValidRotation(code string) bool {
	_, ok := rotationCodes[code]
	return ok
}

// Status carries the active flag shared by all policy rows. A missing flag means active.
type Status struct {
	Active *bool `yaml:"active,omitempty"`
}

// IsActive reports whether the row takes part in lookups.
func (s Status) IsActive() bool {
	return s.Active == nil || *s.Active
}

// TruckSpec describes the interior of a truck body.
type TruckSpec struct {
	Type          TruckType `yaml:"type"`
	Name          string    `yaml:"name"`
	BodyType      string    `yaml:"body_type"`
	InnerWidthCm  int       `yaml:"inner_width_cm"`
	InnerDepthCm  int       `yaml:"inner_depth_cm"`
	InnerHeightCm int       `yaml:"inner_height_cm"`
	Status        `yaml:",inline"`
}

// CapacityCBM is the geometric interior volume in cubic metres.
func (s TruckSpec) CapacityCBM() decimal.Decimal {
	return decimal.NewFromInt(int64(s.InnerWidthCm)).
		Mul(decimal.NewFromInt(int64(s.InnerDepthCm))).
		Mul(decimal.NewFromInt(int64(s.InnerHeightCm))).
		Div(decimal.NewFromInt(1_000_000))
}

// BoxRule maps a closed area interval to a standard moving box quantity.
type BoxRule struct {
	AreaMin  int    `yaml:"area_min"`
	AreaMax  int    `yaml:"area_max"`
	BoxesMin int    `yaml:"boxes_min"`
	BoxesAvg int    `yaml:"boxes_avg"`
	BoxesMax int    `yaml:"boxes_max"`
	Note     string `yaml:"note"`
	Status   `yaml:",inline"`
}

// BoxCount is the quantity charged for the rule. The average column is the configured default.
func (r BoxRule) BoxCount() int {
	return r.BoxesAvg
}

// BaseFee is the fixed fee for a move type and representative truck type.
type BaseFee struct {
	MoveType        MoveType  `yaml:"move_type"`
	TruckType       TruckType `yaml:"truck_type"`
	Amount          int64     `yaml:"amount"`
	IncludedWorkers int       `yaml:"included_workers"`
	Note            string    `yaml:"note"`
	Status          `yaml:",inline"`
}

// LadderFee is the ladder-truck fee for a truck group and floor range.
type LadderFee struct {
	Group     TruckType `yaml:"group"`
	FloorFrom int       `yaml:"floor_from"`
	FloorTo   int       `yaml:"floor_to"`
	Amount    int64     `yaml:"amount"`
	Status    `yaml:",inline"`
}

// StairsFee is the per-floor carrying fee for a floor range.
type StairsFee struct {
	FloorFrom      int   `yaml:"floor_from"`
	FloorTo        int   `yaml:"floor_to"`
	PerFloorAmount int64 `yaml:"per_floor_amount"`
	Status         `yaml:",inline"`
}

// DistanceFee charges PerUnitAmount for every started UnitKm beyond BaseKm.
type DistanceFee struct {
	TruckType     TruckType `yaml:"truck_type"`
	BaseKm        int       `yaml:"base_km"`
	UnitKm        int       `yaml:"unit_km"`
	PerUnitAmount int64     `yaml:"per_unit_amount"`
	Status        `yaml:",inline"`
}

// SpecialFee is the surcharge per special item of a furniture kind.
type SpecialFee struct {
	FurnitureID string `yaml:"furniture_id"`
	Description string `yaml:"description"`
	UnitAmount  int64  `yaml:"unit_amount"`
	Status      `yaml:",inline"`
}

// Furniture is a catalog row: reference dimensions plus packing and stacking rules.
type Furniture struct {
	ID               string   `yaml:"id"`
	SensorClass      *int     `yaml:"sensor_class,omitempty"`
	Name             string   `yaml:"name"`
	Category         string   `yaml:"category"`
	WidthCm          int      `yaml:"width_cm"`
	DepthCm          int      `yaml:"depth_cm"`
	HeightCm         int      `yaml:"height_cm"`
	PaddingCm        float64  `yaml:"padding_cm"`
	NeedsDisassembly bool     `yaml:"needs_disassembly"`
	Stackable        bool     `yaml:"stackable"`
	CanStackOnTop    bool     `yaml:"can_stack_on_top"`
	Rotations        []string `yaml:"rotations"`
}

// Padding returns the packing padding as a decimal.
func (f Furniture) Padding() decimal.Decimal {
	return decimal.NewFromFloat(f.PaddingCm)
}
