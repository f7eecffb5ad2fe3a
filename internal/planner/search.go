package planner

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eugenenazirov/move-estimator/internal/policy"
)

// Rejection reasons recorded for candidates that were not selected.
const (
	RejectUnavailableTruck = "unavailable_truck"
	RejectCapacity         = "capacity"
	RejectPacking          = "packing"
)

// TruckPolicy resolves active truck specs and the ordered combination catalog.
type TruckPolicy interface {
	TruckSpec(t policy.TruckType) (policy.TruckSpec, bool)
	CombinationCatalog() [][]policy.TruckType
}

// CombinationCandidate is one catalog entry resolved against the truck spec table.
type CombinationCandidate struct {
	Types  []policy.TruckType
	Trucks []policy.TruckSpec
}

// CapacityCBM sums the geometric capacity of every truck, rounded to 0.01 m³.
func (c CombinationCandidate) CapacityCBM() decimal.Decimal {
	total := decimal.Zero
	for _, t := range c.Trucks {
		total = total.Add(capacityOf(t))
	}
	return total
}

// Label renders the combination as "5T+2.5T".
func (c CombinationCandidate) Label() string {
	return comboLabel(c.Types)
}

// Attempt records the outcome of one catalog entry.
type Attempt struct {
	Trucks   []policy.TruckType
	Selected bool
	Reason   string
	Detail   string
}

// Selection is the first combination that passed both checks.
type Selection struct {
	Candidate CombinationCandidate
	// Loads holds the shelf placements per truck, in combination order.
	Loads    [][]Placement
	TotalCBM decimal.Decimal
	Attempts []Attempt
}

// Planner runs the combination search. It holds no per-run state and is safe for concurrent use.
type Planner struct {
	logger *zap.Logger
}

// New creates a Planner. A nil logger disables logging.
func New(logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{logger: logger}
}

// Search walks the catalog in order and returns the first combination whose total capacity
// covers the unit volume and whose trucks, filled in listed order, pack every unit.
func (p *Planner) Search(units []Unit, trucks TruckPolicy) (Selection, error) {
	if len(units) == 0 {
		return Selection{}, fmt.Errorf("%w: nothing to plan", ErrInvalidInput)
	}

	total := TotalCBM(units)
	var attempts []Attempt

	for _, types := range trucks.CombinationCatalog() {
		candidate, missing := resolve(types, trucks)
		if missing != "" {
			attempts = append(attempts, p.reject(types, RejectUnavailableTruck,
				fmt.Sprintf("no active spec for %s", missing)))
			continue
		}

		capacity := candidate.CapacityCBM()
		if capacity.LessThan(total) {
			attempts = append(attempts, p.reject(types, RejectCapacity,
				fmt.Sprintf("capacity %s m³ below load %s m³", capacity.StringFixed(2), total.StringFixed(2))))
			continue
		}

		loads, detail := packCombination(units, candidate.Trucks)
		if detail != "" {
			attempts = append(attempts, p.reject(types, RejectPacking, detail))
			continue
		}

		attempts = append(attempts, Attempt{Trucks: types, Selected: true})
		p.logger.Debug("combination selected",
			zap.String("combination", candidate.Label()),
			zap.String("total_cbm", total.StringFixed(2)),
			zap.Int("attempts", len(attempts)),
		)
		return Selection{Candidate: candidate, Loads: loads, TotalCBM: total, Attempts: attempts}, nil
	}

	return Selection{Attempts: attempts}, fmt.Errorf("%w: %d units totalling %s m³, %d candidates tried",
		ErrNoFeasibleCombination, len(units), total.StringFixed(2), len(attempts))
}

func (p *Planner) reject(types []policy.TruckType, reason, detail string) Attempt {
	p.logger.Debug("combination rejected",
		zap.String("combination", comboLabel(types)),
		zap.String("reason", reason),
		zap.String("detail", detail),
	)
	return Attempt{Trucks: types, Reason: reason, Detail: detail}
}

func resolve(types []policy.TruckType, trucks TruckPolicy) (CombinationCandidate, policy.TruckType) {
	specs := make([]policy.TruckSpec, 0, len(types))
	for _, t := range types {
		spec, ok := trucks.TruckSpec(t)
		if !ok {
			return CombinationCandidate{}, t
		}
		specs = append(specs, spec)
	}
	return CombinationCandidate{Types: types, Trucks: specs}, ""
}

// packCombination fills trucks in order. It returns a non-empty detail when the combination fails.
func packCombination(units []Unit, trucks []policy.TruckSpec) ([][]Placement, string) {
	loads := make([][]Placement, len(trucks))
	remaining := Flatten(units)

	for i, truck := range trucks {
		if len(remaining) == 0 {
			break
		}
		b := boundsOf(truck)

		var oriented, deferred []Unit
		for _, u := range remaining {
			if o, ok := Orient(u, b); ok {
				oriented = append(oriented, o)
			} else {
				deferred = append(deferred, u)
			}
		}

		packed, leftover := PackShelf(MergeStacks(oriented, b.Height), b.Width, b.Depth)
		if len(packed) == 0 {
			return nil, fmt.Sprintf("truck %d (%s) placed none of %d remaining units",
				i+1, truck.Type.Label(), len(remaining))
		}
		loads[i] = packed
		remaining = append(Flatten(leftover), deferred...)
	}

	if len(remaining) > 0 {
		return nil, fmt.Sprintf("%d units left over after the last truck", len(remaining))
	}
	return loads, ""
}

func boundsOf(t policy.TruckSpec) Bounds {
	return Bounds{
		Width:  decimal.NewFromInt(int64(t.InnerWidthCm)),
		Depth:  decimal.NewFromInt(int64(t.InnerDepthCm)),
		Height: decimal.NewFromInt(int64(t.InnerHeightCm)),
	}
}

func capacityOf(t policy.TruckSpec) decimal.Decimal {
	return round2(t.CapacityCBM())
}

func comboLabel(types []policy.TruckType) string {
	labels := make([]string, len(types))
	for i, t := range types {
		labels[i] = t.Label()
	}
	return strings.Join(labels, "+")
}
