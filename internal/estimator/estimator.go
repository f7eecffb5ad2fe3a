// Package estimator runs the full planning and pricing pipeline over one policy snapshot.
package estimator

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eugenenazirov/move-estimator/internal/planner"
	"github.com/eugenenazirov/move-estimator/internal/policy"
	"github.com/eugenenazirov/move-estimator/internal/pricing"
)

// Input is one estimate request with items already resolved to packed dimensions.
type Input struct {
	Items       []planner.Item
	Area        int
	MoveType    policy.MoveType
	Origin      pricing.Endpoint
	Destination *pricing.Endpoint
	DistanceKm  decimal.Decimal
}

// Result is the complete outcome of one estimate.
type Result struct {
	PolicyVersion string
	LoadPlan      planner.LoadPlan
	Quote         pricing.Quote
}

// Engine glues normalisation, combination search, load metrics and pricing.
type Engine struct {
	planner *planner.Planner
	logger  *zap.Logger
}

// New creates an Engine. A nil logger disables logging.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{planner: planner.New(logger.Named("planner")), logger: logger}
}

// Estimate plans and prices in against snap. Either a full result or an error is returned.
func (e *Engine) Estimate(in Input, snap *policy.Snapshot) (Result, error) {
	if snap == nil {
		return Result{}, policy.ErrNilSnapshot
	}

	norm, err := planner.Normalize(planner.NormalizerInput{Items: in.Items, Area: in.Area, Policy: snap})
	if err != nil {
		return Result{}, fmt.Errorf("normalize items: %w", err)
	}

	sel, err := e.planner.Search(norm.Units, snap)
	if err != nil {
		return Result{}, fmt.Errorf("select trucks: %w", err)
	}
	plan := planner.BuildLoadPlan(sel, norm)

	quote, err := pricing.Price(pricing.PricingContext{
		Plan:        plan,
		Items:       in.Items,
		MoveType:    in.MoveType,
		Origin:      in.Origin,
		Destination: in.Destination,
		DistanceKm:  in.DistanceKm,
	}, snap)
	if err != nil {
		return Result{}, fmt.Errorf("price estimate: %w", err)
	}

	e.logger.Debug("estimate computed",
		zap.String("policy_version", snap.Version),
		zap.Int("items", norm.ItemCount),
		zap.Int("boxes", norm.BoxCount),
		zap.String("total_cbm", plan.TotalCBM.StringFixed(2)),
		zap.Int64("total_amount", quote.TotalAmount),
	)

	return Result{PolicyVersion: snap.Version, LoadPlan: plan, Quote: quote}, nil
}
