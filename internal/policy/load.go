package policy

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default_policy.yaml
var defaultPolicy []byte

// Default returns the policy tables bundled with the binary.
func Default() (*Snapshot, error) {
	snap, err := Load(bytes.NewReader(defaultPolicy))
	if err != nil {
		return nil, fmt.Errorf("load default policy: %w", err)
	}
	return snap, nil
}

// LoadFile reads and validates a YAML policy document from path.
func LoadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open policy file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load decodes a YAML policy document and validates it.
func Load(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: parse YAML: %w", ErrInvalidSnapshot, err)
	}
	if err := Validate(&snap); err != nil {
		return nil, err
	}
	snap.LoadedAt = time.Now().UTC()
	return &snap, nil
}

// Validate checks table-level invariants the engine relies on.
func Validate(s *Snapshot) error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	seenTrucks := make(map[TruckType]struct{}, len(s.TruckSpecs))
	for i, spec := range s.TruckSpecs {
		if !spec.Type.Valid() {
			add("truck_specs[%d]: unknown truck type %q", i, spec.Type)
		}
		if _, dup := seenTrucks[spec.Type]; dup {
			add("truck_specs[%d]: duplicate truck type %q", i, spec.Type)
		}
		seenTrucks[spec.Type] = struct{}{}
		if spec.InnerWidthCm <= 0 || spec.InnerDepthCm <= 0 || spec.InnerHeightCm <= 0 {
			add("truck_specs[%d]: interior dimensions must be positive", i)
		}
	}

	for i, combo := range s.Combinations {
		if len(combo) == 0 || len(combo) > 3 {
			add("truck_combinations[%d]: must list between 1 and 3 trucks", i)
		}
		for _, t := range combo {
			if !t.Valid() {
				add("truck_combinations[%d]: unknown truck type %q", i, t)
			}
		}
	}

	for i, r := range s.BoxRules {
		if r.AreaMin > r.AreaMax {
			add("box_rules[%d]: area_min %d exceeds area_max %d", i, r.AreaMin, r.AreaMax)
		}
		if r.BoxesMin > r.BoxesAvg || r.BoxesAvg > r.BoxesMax || r.BoxesMin < 0 {
			add("box_rules[%d]: boxes_avg must lie within boxes_min..boxes_max", i)
		}
		if !r.IsActive() {
			continue
		}
		for j := i + 1; j < len(s.BoxRules); j++ {
			o := s.BoxRules[j]
			if o.IsActive() && r.AreaMin <= o.AreaMax && o.AreaMin <= r.AreaMax {
				add("box_rules[%d]: area interval overlaps box_rules[%d]", i, j)
			}
		}
	}

	seenBase := make(map[string]struct{}, len(s.BaseFees))
	for i, f := range s.BaseFees {
		if !f.MoveType.Valid() || !f.TruckType.Valid() {
			add("base_fees[%d]: unknown move or truck type", i)
		}
		key := string(f.MoveType) + "/" + string(f.TruckType)
		if _, dup := seenBase[key]; dup && f.IsActive() {
			add("base_fees[%d]: duplicate key %s", i, key)
		}
		if f.IsActive() {
			seenBase[key] = struct{}{}
		}
		if f.Amount < 0 {
			add("base_fees[%d]: amount must not be negative", i)
		}
	}

	for i, f := range s.LadderFees {
		if !f.Group.Valid() {
			add("ladder_fees[%d]: unknown truck group %q", i, f.Group)
		}
		if f.FloorFrom > f.FloorTo {
			add("ladder_fees[%d]: floor_from exceeds floor_to", i)
		}
		if f.Amount < 0 {
			add("ladder_fees[%d]: amount must not be negative", i)
		}
	}

	for i, f := range s.StairsFees {
		if f.FloorFrom > f.FloorTo {
			add("stairs_fees[%d]: floor_from exceeds floor_to", i)
		}
		if f.PerFloorAmount < 0 {
			add("stairs_fees[%d]: per_floor_amount must not be negative", i)
		}
	}

	for i, f := range s.DistanceFees {
		if !f.TruckType.Valid() {
			add("distance_fees[%d]: unknown truck type %q", i, f.TruckType)
		}
		if f.UnitKm <= 0 {
			add("distance_fees[%d]: unit_km must be positive", i)
		}
		if f.BaseKm < 0 || f.PerUnitAmount < 0 {
			add("distance_fees[%d]: base_km and per_unit_amount must not be negative", i)
		}
	}

	seenFurniture := make(map[string]struct{}, len(s.Furniture))
	seenSensor := make(map[int]string, len(s.Furniture))
	for i, f := range s.Furniture {
		if f.ID == "" {
			add("furniture[%d]: id is empty", i)
		}
		if _, dup := seenFurniture[f.ID]; dup {
			add("furniture[%d]: duplicate id %q", i, f.ID)
		}
		seenFurniture[f.ID] = struct{}{}
		if f.SensorClass != nil {
			if other, dup := seenSensor[*f.SensorClass]; dup {
				add("furniture[%d]: sensor class %d already mapped to %q", i, *f.SensorClass, other)
			}
			seenSensor[*f.SensorClass] = f.ID
		}
		if f.WidthCm <= 0 || f.DepthCm <= 0 || f.HeightCm <= 0 {
			add("furniture[%d]: dimensions must be positive", i)
		}
		if f.PaddingCm < 0 || f.PaddingCm > 10 {
			add("furniture[%d]: padding_cm must be within 0..10", i)
		}
		for _, code := range f.Rotations {
			if !ValidRotation(code) {
				add("furniture[%d]: unknown rotation code %q", i, code)
			}
		}
	}

	for i, f := range s.SpecialFees {
		if _, ok := seenFurniture[f.FurnitureID]; !ok {
			add("special_fees[%d]: furniture %q not in catalog", i, f.FurnitureID)
		}
		if f.UnitAmount < 0 {
			add("special_fees[%d]: unit_amount must not be negative", i)
		}
	}

	if len(s.BoxRules) > 0 {
		if _, ok := seenFurniture[BoxFurnitureID]; !ok {
			add("furniture: reference box %q is required when box rules are configured", BoxFurnitureID)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, errors.Join(problems...))
	}
	return nil
}
