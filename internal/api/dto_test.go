package api

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/eugenenazirov/move-estimator/internal/planner"
	"github.com/eugenenazirov/move-estimator/internal/policy"
)

func TestLoadPlanResponseUsesFixedScale(t *testing.T) {
	t.Parallel()

	plan := planner.LoadPlan{
		Trucks: []planner.TruckLoad{{
			Type:          policy.Truck5T,
			CapacityCBM:   decimal.NewFromInt(15),
			LoadCBM:       decimal.RequireFromString("10.5"),
			LoadFactorPct: decimal.NewFromInt(70),
			RemainingCBM:  decimal.RequireFromString("4.5"),
		}},
		TotalCBM:         decimal.RequireFromString("10.5"),
		TruckCapacityCBM: decimal.NewFromInt(15),
		RecommendedTon:   decimal.NewFromInt(5),
	}

	out, err := json.Marshal(newLoadPlanResponse(plan))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(out)
	for _, want := range []string{
		`"total_cbm":10.50`,
		`"truck_capacity_cbm":15.00`,
		`"recommended_ton":5.0`,
		`"capacity_cbm":15.00`,
		`"load_cbm":10.50`,
		`"load_factor_pct":70.0`,
		`"remaining_cbm":4.50`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in %s", want, body)
		}
	}
}
