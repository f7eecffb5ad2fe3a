package pricing

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/eugenenazirov/move-estimator/internal/planner"
	"github.com/eugenenazirov/move-estimator/internal/policy"
)

func rules() *policy.Snapshot {
	return &policy.Snapshot{
		BaseFees: []policy.BaseFee{
			{MoveType: policy.MoveGeneral, TruckType: policy.Truck1T, Amount: 250000, IncludedWorkers: 2},
			{MoveType: policy.MoveGeneral, TruckType: policy.Truck5T, Amount: 600000, IncludedWorkers: 3},
			{MoveType: policy.MovePacking, TruckType: policy.Truck5T, Amount: 1100000, Note: "3 movers + 1 packer"},
			{MoveType: policy.MoveGeneral, TruckType: policy.Truck10T, Amount: 1100000, IncludedWorkers: 5},
		},
		LadderFees: []policy.LadderFee{
			{Group: policy.Truck5T, FloorFrom: 2, FloorTo: 5, Amount: 120000},
			{Group: policy.Truck5T, FloorFrom: 6, FloorTo: 10, Amount: 150000},
		},
		StairsFees: []policy.StairsFee{
			{FloorFrom: 2, FloorTo: 10, PerFloorAmount: 10000},
		},
		DistanceFees: []policy.DistanceFee{
			{TruckType: policy.Truck1T, BaseKm: 20, UnitKm: 10, PerUnitAmount: 5000},
			{TruckType: policy.Truck5T, BaseKm: 20, UnitKm: 10, PerUnitAmount: 5000},
			{TruckType: policy.Truck7_5T, BaseKm: 20, UnitKm: 10, PerUnitAmount: 9000},
		},
		SpecialFees: []policy.SpecialFee{
			{FurnitureID: "piano_upright", Description: "Upright piano", UnitAmount: 150000},
			{FurnitureID: "refrigerator_lg", Description: "Large refrigerator", UnitAmount: 50000},
		},
	}
}

func planOf(types ...policy.TruckType) planner.LoadPlan {
	var plan planner.LoadPlan
	for _, t := range types {
		plan.Trucks = append(plan.Trucks, planner.TruckLoad{Type: t})
	}
	return plan
}

func baseContext() PricingContext {
	return PricingContext{
		Plan:       planOf(policy.Truck5T),
		MoveType:   policy.MoveGeneral,
		Origin:     Endpoint{Floor: 1},
		DistanceKm: decimal.NewFromInt(10),
	}
}

func mustPrice(t *testing.T, ctx PricingContext) Quote {
	t.Helper()

	q, err := Price(ctx, rules())
	if err != nil {
		t.Fatalf("Price returned error: %v", err)
	}
	return q
}

func TestBaseSectionUsesLargestTruck(t *testing.T) {
	t.Parallel()

	ctx := baseContext()
	ctx.Plan = planOf(policy.Truck1T, policy.Truck5T)

	q := mustPrice(t, ctx)
	base, ok := q.Section(SectionBase)
	if !ok {
		t.Fatal("expected BASE section")
	}
	if base.Amount != 600000 || len(base.Lines) != 0 {
		t.Fatalf("unexpected base section %+v", base)
	}
	if base.Description != "5T GENERAL base, 3 workers included" {
		t.Fatalf("unexpected description %q", base.Description)
	}

	ctx.MoveType = policy.MovePacking
	q = mustPrice(t, ctx)
	base, _ = q.Section(SectionBase)
	if base.Description != "5T PACKING base (3 movers + 1 packer)" {
		t.Fatalf("unexpected description %q", base.Description)
	}
}

func TestStairsFee(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		floor int
		want  int64
	}{
		{name: "GroundFloor", floor: 1, want: 0},
		{name: "SecondFloor", floor: 2, want: 10000},
		{name: "FifthFloor", floor: 5, want: 40000},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := baseContext()
			ctx.Origin = Endpoint{Floor: tt.floor}
			q := mustPrice(t, ctx)

			stairs, ok := q.Section(SectionStairs)
			if tt.want == 0 {
				if ok {
					t.Fatalf("expected no STAIRS section, got %+v", stairs)
				}
				return
			}
			if !ok || stairs.Amount != tt.want {
				t.Fatalf("expected stairs %d, got %+v", tt.want, stairs)
			}
			if stairs.Lines[0].Scope != ScopeOrigin {
				t.Fatalf("expected origin scope, got %s", stairs.Lines[0].Scope)
			}
		})
	}
}

func TestLadderFee(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		floor    int
		want     int64
		wantNote bool
	}{
		{name: "GroundFloorIgnoresLadder", floor: 1, want: 0},
		{name: "ExactRange", floor: 7, want: 150000},
		{name: "AboveTopRangeFallsBack", floor: 14, want: 150000, wantNote: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := baseContext()
			ctx.Plan = planOf(policy.Truck1T)
			ctx.Origin = Endpoint{Floor: tt.floor, UseLadder: true}
			q := mustPrice(t, ctx)

			ladder, ok := q.Section(SectionLadder)
			if tt.want == 0 {
				if ok {
					t.Fatalf("expected no LADDER section, got %+v", ladder)
				}
				return
			}
			if !ok || ladder.Amount != tt.want {
				t.Fatalf("expected ladder %d, got %+v", tt.want, ladder)
			}
			desc := ladder.Lines[0].Description
			hasNote := strings.Contains(desc, "outside configured ranges")
			if hasNote != tt.wantNote {
				t.Fatalf("advisory note mismatch in %q", desc)
			}
		})
	}
}

func TestAccessMergesEndpoints(t *testing.T) {
	t.Parallel()

	ctx := baseContext()
	ctx.Origin = Endpoint{Floor: 3, UseLadder: true}
	ctx.Destination = &Endpoint{Floor: 4, UseLadder: true}

	q := mustPrice(t, ctx)
	ladder, ok := q.Section(SectionLadder)
	if !ok || len(ladder.Lines) != 2 || ladder.Amount != 240000 {
		t.Fatalf("expected origin+destination ladder lines, got %+v", ladder)
	}
	if ladder.Lines[0].Scope != ScopeOrigin || ladder.Lines[1].Scope != ScopeDest {
		t.Fatalf("unexpected scopes %s, %s", ladder.Lines[0].Scope, ladder.Lines[1].Scope)
	}

	ctx.Destination = &Endpoint{Floor: 9, HasElevator: true}
	q = mustPrice(t, ctx)
	ladder, _ = q.Section(SectionLadder)
	if len(ladder.Lines) != 1 {
		t.Fatalf("elevator endpoint must not add a line, got %+v", ladder)
	}
}

func TestLadderMissingGroupIsFatal(t *testing.T) {
	t.Parallel()

	snap := rules()
	snap.LadderFees = nil

	ctx := baseContext()
	ctx.Origin = Endpoint{Floor: 3, UseLadder: true}
	if _, err := Price(ctx, snap); !errors.Is(err, policy.ErrMissingRule) {
		t.Fatalf("expected ErrMissingRule, got %v", err)
	}
}

func TestStairsMissingRangeIsFatal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*policy.Snapshot, *PricingContext)
	}{
		{
			name: "FloorAboveConfiguredRanges",
			mutate: func(_ *policy.Snapshot, ctx *PricingContext) {
				ctx.Destination = &Endpoint{Floor: 11}
			},
		},
		{
			name: "NoStairsRules",
			mutate: func(snap *policy.Snapshot, ctx *PricingContext) {
				snap.StairsFees = nil
				ctx.Origin = Endpoint{Floor: 3}
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			snap := rules()
			ctx := baseContext()
			tt.mutate(snap, &ctx)

			q, err := Price(ctx, snap)
			if !errors.Is(err, policy.ErrMissingRule) {
				t.Fatalf("expected ErrMissingRule, got %v", err)
			}
			if q.TotalAmount != 0 || len(q.Sections) != 0 || q.SpecialItemCount != 0 {
				t.Fatalf("expected an empty quote on failure, got %+v", q)
			}
		})
	}
}

func TestDistanceFee(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		km   string
		want int64
	}{
		{name: "AtBase", km: "20", want: 0},
		{name: "AtBaseWithFraction", km: "20.0", want: 0},
		{name: "PartialUnitRoundsUp", km: "35", want: 10000},
		{name: "JustOverBase", km: "20.1", want: 5000},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := baseContext()
			ctx.DistanceKm = decimal.RequireFromString(tt.km)
			q := mustPrice(t, ctx)

			dist, ok := q.Section(SectionDistance)
			if !ok {
				t.Fatal("DISTANCE section must always be present")
			}
			if dist.Amount != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, dist.Amount)
			}
		})
	}
}

func TestDistanceHeavyTrucksUseHighestFee(t *testing.T) {
	t.Parallel()

	ctx := baseContext()
	ctx.Plan = planOf(policy.Truck10T)
	ctx.DistanceKm = decimal.NewFromInt(30)

	q := mustPrice(t, ctx)
	dist, _ := q.Section(SectionDistance)
	if dist.Amount != 9000 {
		t.Fatalf("expected highest configured per-unit fee, got %d", dist.Amount)
	}

	snap := rules()
	snap.DistanceFees = snap.DistanceFees[:1]
	ctx.Plan = planOf(policy.Truck5T)
	if _, err := Price(ctx, snap); !errors.Is(err, policy.ErrMissingRule) {
		t.Fatalf("expected ErrMissingRule for missing distance rule, got %v", err)
	}
}

func TestSpecialFee(t *testing.T) {
	t.Parallel()

	ctx := baseContext()
	ctx.Items = []planner.Item{
		{FurnitureID: "refrigerator_lg", NeedsDisassembly: false},
		{FurnitureID: "refrigerator_lg", NeedsDisassembly: false},
		{FurnitureID: "piano_upright"},
		{FurnitureID: "chair"},
	}

	q := mustPrice(t, ctx)
	special, ok := q.Section(SectionSpecial)
	if !ok {
		t.Fatal("expected SPECIAL section for the piano")
	}
	if len(special.Lines) != 1 || special.Lines[0].FurnitureID != "piano_upright" {
		t.Fatalf("conditional furniture without disassembly must not be charged, got %+v", special.Lines)
	}
	if q.SpecialItemCount != 1 || special.Amount != 150000 {
		t.Fatalf("unexpected special totals count=%d amount=%d", q.SpecialItemCount, special.Amount)
	}

	ctx.Items[1].NeedsDisassembly = true
	q = mustPrice(t, ctx)
	special, _ = q.Section(SectionSpecial)
	if q.SpecialItemCount != 2 || special.Amount != 200000 {
		t.Fatalf("expected one refrigerator charged, got count=%d amount=%d", q.SpecialItemCount, special.Amount)
	}
	if special.Lines[0].FurnitureID != "piano_upright" || special.Lines[1].FurnitureID != "refrigerator_lg" {
		t.Fatalf("lines must be ordered by furniture id, got %+v", special.Lines)
	}
}

func TestTotalAndDeterminism(t *testing.T) {
	t.Parallel()

	ctx := baseContext()
	ctx.Origin = Endpoint{Floor: 3}
	ctx.Destination = &Endpoint{Floor: 4, UseLadder: true}
	ctx.DistanceKm = decimal.NewFromInt(35)
	ctx.Items = []planner.Item{{FurnitureID: "piano_upright"}, {FurnitureID: "refrigerator_lg", NeedsDisassembly: true}}

	first := mustPrice(t, ctx)
	second := mustPrice(t, ctx)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("pricing must be deterministic:\n%+v\n%+v", first, second)
	}

	var sum int64
	keys := make([]SectionKey, 0, len(first.Sections))
	for _, s := range first.Sections {
		sum += s.Amount
		keys = append(keys, s.Key)
	}
	if sum != first.TotalAmount {
		t.Fatalf("total %d does not match section sum %d", first.TotalAmount, sum)
	}
	// 600000 base + 120000 ladder + 20000 stairs + 10000 distance + 200000 special
	if first.TotalAmount != 950000 {
		t.Fatalf("unexpected total %d", first.TotalAmount)
	}
	want := []SectionKey{SectionBase, SectionLadder, SectionStairs, SectionDistance, SectionSpecial}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("unexpected section order %v", keys)
	}
}

func TestPriceRejectsInvalidContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*PricingContext)
		wantErr error
	}{
		{name: "NoTrucks", mutate: func(c *PricingContext) { c.Plan = planner.LoadPlan{} }, wantErr: planner.ErrInvalidInput},
		{name: "NegativeDistance", mutate: func(c *PricingContext) { c.DistanceKm = decimal.NewFromInt(-1) }, wantErr: planner.ErrInvalidInput},
		{name: "UnknownMoveType", mutate: func(c *PricingContext) { c.MoveType = "STORAGE" }, wantErr: planner.ErrInvalidInput},
		{name: "MissingBaseFee", mutate: func(c *PricingContext) { c.Plan = planOf(policy.Truck2_5T) }, wantErr: policy.ErrMissingRule},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := baseContext()
			tt.mutate(&ctx)
			if _, err := Price(ctx, rules()); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
