package pricing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/eugenenazirov/move-estimator/internal/planner"
	"github.com/eugenenazirov/move-estimator/internal/policy"
)

// ConditionalDisassembly lists furniture charged only when the item needs disassembly.
var ConditionalDisassembly = map[string]struct{}{
	"refrigerator_lg":       {},
	"air_conditioner_wall":  {},
	"air_conditioner_stand": {},
	"bed_stone":             {},
	"hanger_module":         {},
}

var sectionTitles = map[SectionKey]string{
	SectionBase:     "Base fee",
	SectionLadder:   "Ladder truck",
	SectionStairs:   "Stairs carrying",
	SectionDistance: "Distance",
	SectionSpecial:  "Special items",
}

// Price evaluates every section for ctx against rules and returns the quote.
func Price(ctx PricingContext, rules Rules) (Quote, error) {
	truck, ok := policy.MaxTruckType(ctx.Plan.TruckTypes())
	if !ok {
		return Quote{}, fmt.Errorf("%w: load plan has no trucks", planner.ErrInvalidInput)
	}
	if !ctx.MoveType.Valid() {
		return Quote{}, fmt.Errorf("%w: unknown move type %q", planner.ErrInvalidInput, ctx.MoveType)
	}
	if ctx.DistanceKm.IsNegative() {
		return Quote{}, fmt.Errorf("%w: distance must not be negative", planner.ErrInvalidInput)
	}

	base, err := baseSection(ctx.MoveType, truck, rules)
	if err != nil {
		return Quote{}, err
	}
	sections := []Section{base}

	ladder := newSection(SectionLadder)
	stairs := newSection(SectionStairs)
	endpoints := []struct {
		scope Scope
		ep    *Endpoint
	}{
		{ScopeOrigin, &ctx.Origin},
		{ScopeDest, ctx.Destination},
	}
	for _, e := range endpoints {
		if e.ep == nil {
			continue
		}
		key, line, err := accessLine(e.scope, *e.ep, truck, rules)
		if err != nil {
			return Quote{}, err
		}
		if line.Amount == 0 {
			continue
		}
		if key == SectionLadder {
			ladder.add(line)
		} else {
			stairs.add(line)
		}
	}
	for _, s := range []Section{ladder, stairs} {
		if len(s.Lines) > 0 {
			sections = append(sections, s)
		}
	}

	dist, err := distanceSection(ctx.DistanceKm, truck, rules)
	if err != nil {
		return Quote{}, err
	}
	sections = append(sections, dist)

	special, count := specialSection(ctx.Items, rules)
	if len(special.Lines) > 0 {
		sections = append(sections, special)
	}

	q := Quote{SpecialItemCount: count, Sections: sections}
	for _, s := range sections {
		q.TotalAmount += s.Amount
	}
	return q, nil
}

func newSection(key SectionKey) Section {
	return Section{Key: key, Title: sectionTitles[key]}
}

func (s *Section) add(l Line) {
	s.Lines = append(s.Lines, l)
	s.Amount += l.Amount
}

func baseSection(move policy.MoveType, truck policy.TruckType, rules Rules) (Section, error) {
	fee, err := rules.BaseFee(move, truck)
	if err != nil {
		return Section{}, err
	}

	s := newSection(SectionBase)
	s.Amount = fee.Amount
	if fee.Note != "" {
		s.Description = fmt.Sprintf("%s %s base (%s)", truck.Label(), move, fee.Note)
	} else {
		s.Description = fmt.Sprintf("%s %s base, %d workers included", truck.Label(), move, fee.IncludedWorkers)
	}
	return s, nil
}

// accessLine prices one endpoint. A zero amount means nothing is charged.
func accessLine(scope Scope, ep Endpoint, truck policy.TruckType, rules Rules) (SectionKey, Line, error) {
	if ep.Floor <= 1 {
		return "", Line{}, nil
	}

	switch {
	case ep.UseLadder:
		group := LadderGroup(truck)
		if !rules.HasLadderGroup(group) {
			group = policy.Truck5T
		}
		fee, ok := rules.MatchLadderFee(group, ep.Floor)
		note := ""
		if !ok {
			fee, ok = rules.TopLadderFee(group)
			if !ok {
				return "", Line{}, fmt.Errorf("%w: no ladder fee for group %s", policy.ErrMissingRule, group.Label())
			}
			note = fmt.Sprintf("; floor %d outside configured ranges, billed at floors %d-%d", ep.Floor, fee.FloorFrom, fee.FloorTo)
		}
		return SectionLadder, Line{
			Scope:       scope,
			Amount:      fee.Amount,
			Description: fmt.Sprintf("%s floor %d, ladder truck (%s group)%s", scopeName(scope), ep.Floor, group.Label(), note),
		}, nil

	case ep.HasElevator:
		return "", Line{}, nil

	default:
		fee, ok := rules.MatchStairsFee(ep.Floor)
		if !ok {
			return "", Line{}, fmt.Errorf("%w: no stairs fee for floor %d", policy.ErrMissingRule, ep.Floor)
		}
		floors := int64(ep.Floor - 1)
		return SectionStairs, Line{
			Scope:       scope,
			Quantity:    int(floors),
			Amount:      fee.PerFloorAmount * floors,
			Description: fmt.Sprintf("%s floor %d by stairs, %d floors × %d", scopeName(scope), ep.Floor, floors, fee.PerFloorAmount),
		}, nil
	}
}

// LadderGroup collapses types below 5T into the 5T bucket.
func LadderGroup(t policy.TruckType) policy.TruckType {
	if t.Rank() < policy.Truck5T.Rank() {
		return policy.Truck5T
	}
	return t
}

func scopeName(s Scope) string {
	if s == ScopeDest {
		return "Destination"
	}
	return "Origin"
}

func distanceSection(km decimal.Decimal, truck policy.TruckType, rules Rules) (Section, error) {
	var (
		fee policy.DistanceFee
		ok  bool
	)
	if truck.Rank() >= policy.Truck7_5T.Rank() {
		fee, ok = rules.HighestDistanceFee()
	} else {
		fee, ok = rules.DistanceFee(truck)
	}
	if !ok {
		return Section{}, fmt.Errorf("%w: no distance fee for %s", policy.ErrMissingRule, truck.Label())
	}

	s := newSection(SectionDistance)
	units := BillableUnits(km, fee)
	s.Amount = units * fee.PerUnitAmount
	if units == 0 {
		s.Description = fmt.Sprintf("%s km within base %d km", km.String(), fee.BaseKm)
	} else {
		billedTo := int64(fee.BaseKm) + units*int64(fee.UnitKm)
		s.Description = fmt.Sprintf("%s km billed to %d km: %d × %d km at %d",
			km.String(), billedTo, units, fee.UnitKm, fee.PerUnitAmount)
	}
	return s, nil
}

// BillableUnits counts started unit_km steps beyond base_km. The base boundary is inclusive.
func BillableUnits(km decimal.Decimal, fee policy.DistanceFee) int64 {
	base := decimal.NewFromInt(int64(fee.BaseKm))
	if km.LessThanOrEqual(base) || fee.UnitKm <= 0 {
		return 0
	}
	return km.Sub(base).Div(decimal.NewFromInt(int64(fee.UnitKm))).Ceil().IntPart()
}

func specialSection(items []planner.Item, rules Rules) (Section, int) {
	type tally struct{ all, disassembly int }
	counts := make(map[string]*tally)
	for _, it := range items {
		if it.FurnitureID == "" {
			continue
		}
		c, ok := counts[it.FurnitureID]
		if !ok {
			c = &tally{}
			counts[it.FurnitureID] = c
		}
		c.all++
		if it.NeedsDisassembly {
			c.disassembly++
		}
	}

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	s := newSection(SectionSpecial)
	total := 0
	for _, id := range ids {
		fee, ok := rules.SpecialFee(id)
		if !ok {
			continue
		}
		charged := counts[id].all
		if _, conditional := ConditionalDisassembly[id]; conditional {
			charged = counts[id].disassembly
		}
		if charged == 0 {
			continue
		}
		desc := fee.Description
		if desc == "" {
			desc = id
		}
		s.add(Line{
			Scope:       ScopeSpecial,
			FurnitureID: id,
			Quantity:    charged,
			Amount:      fee.UnitAmount * int64(charged),
			Description: fmt.Sprintf("%s × %d", desc, charged),
		})
		total += charged
	}
	return s, total
}
