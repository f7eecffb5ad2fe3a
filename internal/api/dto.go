package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eugenenazirov/move-estimator/internal/estimator"
	"github.com/eugenenazirov/move-estimator/internal/planner"
	"github.com/eugenenazirov/move-estimator/internal/policy"
	"github.com/eugenenazirov/move-estimator/internal/pricing"
	"github.com/eugenenazirov/move-estimator/internal/store"
)

// maxExpandedItems caps the inventory size after quantities are expanded.
const maxExpandedItems = 1000

type estimateRequest struct {
	Area               int              `json:"area" validate:"gte=0"`
	MoveType           string           `json:"move_type" validate:"required,oneof=GENERAL PACKING"`
	Items              []itemRequest    `json:"items" validate:"required,min=1,max=500,dive"`
	Origin             endpointRequest  `json:"origin"`
	Destination        *endpointRequest `json:"destination,omitempty" validate:"omitempty"`
	DistanceKm         *decimal.Decimal `json:"distance_km,omitempty"`
	OriginAddress      string           `json:"origin_address,omitempty" validate:"max=300"`
	DestinationAddress string           `json:"destination_address,omitempty" validate:"max=300"`
}

type itemRequest struct {
	FurnitureID      string   `json:"furniture_id,omitempty" validate:"required_without=SensorClass"`
	SensorClass      *int     `json:"sensor_class,omitempty" validate:"omitempty,gte=0"`
	WidthCm          *float64 `json:"width_cm,omitempty" validate:"omitempty,gt=0,lte=2000"`
	DepthCm          *float64 `json:"depth_cm,omitempty" validate:"omitempty,gt=0,lte=2000"`
	HeightCm         *float64 `json:"height_cm,omitempty" validate:"omitempty,gt=0,lte=2000"`
	Quantity         int      `json:"quantity,omitempty" validate:"gte=0,lte=200"`
	NeedsDisassembly *bool    `json:"needs_disassembly,omitempty"`
}

type endpointRequest struct {
	Floor       int  `json:"floor" validate:"gte=-10,lte=200"`
	HasElevator bool `json:"has_elevator"`
	UseLadder   bool `json:"use_ladder"`
}

func (e endpointRequest) toEndpoint() pricing.Endpoint {
	return pricing.Endpoint{Floor: e.Floor, HasElevator: e.HasElevator, UseLadder: e.UseLadder}
}

type estimateResponse struct {
	EstimateID    string           `json:"estimate_id"`
	PolicyVersion string           `json:"policy_version"`
	CreatedAt     time.Time        `json:"created_at"`
	LoadPlan      loadPlanResponse `json:"load_plan"`
	Pricing       pricingResponse  `json:"pricing"`
	Summary       summaryResponse  `json:"summary"`
}

type loadPlanResponse struct {
	Trucks           []truckResponse   `json:"trucks"`
	TotalCBM         json.Number       `json:"total_cbm"`
	TruckCapacityCBM json.Number       `json:"truck_capacity_cbm"`
	RecommendedTon   json.Number       `json:"recommended_ton"`
	BoxesCount       int               `json:"boxes_count"`
	BoxesDescription string            `json:"boxes_description"`
	Attempts         []attemptResponse `json:"attempts"`
}

type truckResponse struct {
	Type          policy.TruckType `json:"type"`
	Label         string           `json:"label"`
	CapacityCBM   json.Number      `json:"capacity_cbm"`
	LoadCBM       json.Number      `json:"load_cbm"`
	LoadFactorPct json.Number      `json:"load_factor_pct"`
	RemainingCBM  json.Number      `json:"remaining_cbm"`
	InnerWidthCm  int              `json:"inner_w_cm"`
	InnerDepthCm  int              `json:"inner_d_cm"`
	InnerHeightCm int              `json:"inner_h_cm"`
	PackedUnits   int              `json:"packed_units"`
}

type attemptResponse struct {
	Trucks   []policy.TruckType `json:"trucks"`
	Selected bool               `json:"selected"`
	Reason   string             `json:"reason,omitempty"`
	Detail   string             `json:"detail,omitempty"`
}

type pricingResponse struct {
	TotalAmount      int64             `json:"total_amount"`
	SpecialItemCount int               `json:"special_item_count"`
	Sections         []sectionResponse `json:"sections"`
}

type sectionResponse struct {
	Key         pricing.SectionKey `json:"key"`
	Title       string             `json:"title"`
	Amount      int64              `json:"amount"`
	Description string             `json:"description,omitempty"`
	Lines       []lineResponse     `json:"lines"`
}

type lineResponse struct {
	Scope       pricing.Scope `json:"scope,omitempty"`
	FurnitureID string        `json:"furniture_id,omitempty"`
	Quantity    int           `json:"quantity,omitempty"`
	Amount      int64         `json:"amount"`
	Description string        `json:"description"`
}

type summaryResponse struct {
	MoveType         policy.MoveType    `json:"move_type"`
	Area             int                `json:"area"`
	ItemCount        int                `json:"item_count"`
	Origin           endpointRequest    `json:"origin"`
	Destination      *endpointRequest   `json:"destination,omitempty"`
	DistanceKm       json.Number        `json:"distance_km"`
	SelectedTrucks   []policy.TruckType `json:"selected_trucks"`
	RecommendedTon   json.Number        `json:"recommended_ton"`
	SpecialItemCount int                `json:"special_item_count"`
	TotalAmount      int64              `json:"total_amount"`
}

// Volumes are rendered with two decimals, percentages and tons with one.
func cbm(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func percent(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(1))
}

func tons(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(1))
}

func newLoadPlanResponse(plan planner.LoadPlan) loadPlanResponse {
	resp := loadPlanResponse{
		Trucks:           make([]truckResponse, 0, len(plan.Trucks)),
		TotalCBM:         cbm(plan.TotalCBM),
		TruckCapacityCBM: cbm(plan.TruckCapacityCBM),
		RecommendedTon:   tons(plan.RecommendedTon),
		BoxesCount:       plan.BoxesCount,
		BoxesDescription: plan.BoxesDescription,
		Attempts:         make([]attemptResponse, 0, len(plan.Attempts)),
	}
	for _, t := range plan.Trucks {
		packed := 0
		for _, p := range t.Placements {
			packed += len(planner.Flatten([]planner.Unit{p.Unit}))
		}
		resp.Trucks = append(resp.Trucks, truckResponse{
			Type:          t.Type,
			Label:         t.Type.Label(),
			CapacityCBM:   cbm(t.CapacityCBM),
			LoadCBM:       cbm(t.LoadCBM),
			LoadFactorPct: percent(t.LoadFactorPct),
			RemainingCBM:  cbm(t.RemainingCBM),
			InnerWidthCm:  t.InnerWidthCm,
			InnerDepthCm:  t.InnerDepthCm,
			InnerHeightCm: t.InnerHeightCm,
			PackedUnits:   packed,
		})
	}
	for _, a := range plan.Attempts {
		resp.Attempts = append(resp.Attempts, attemptResponse{
			Trucks:   a.Trucks,
			Selected: a.Selected,
			Reason:   a.Reason,
			Detail:   a.Detail,
		})
	}
	return resp
}

func newPricingResponse(q pricing.Quote) pricingResponse {
	resp := pricingResponse{
		TotalAmount:      q.TotalAmount,
		SpecialItemCount: q.SpecialItemCount,
		Sections:         make([]sectionResponse, 0, len(q.Sections)),
	}
	for _, s := range q.Sections {
		sec := sectionResponse{
			Key:         s.Key,
			Title:       s.Title,
			Amount:      s.Amount,
			Description: s.Description,
			Lines:       make([]lineResponse, 0, len(s.Lines)),
		}
		for _, l := range s.Lines {
			sec.Lines = append(sec.Lines, lineResponse(l))
		}
		resp.Sections = append(resp.Sections, sec)
	}
	return resp
}

// newRecord maps a response onto the persistence record.
func newRecord(resp estimateResponse, payload []byte) store.Record {
	rec := store.Record{
		ID:               resp.EstimateID,
		PolicyVersion:    resp.PolicyVersion,
		MoveType:         string(resp.Summary.MoveType),
		Area:             resp.Summary.Area,
		DistanceKm:       resp.Summary.DistanceKm.String(),
		TotalCBM:         resp.LoadPlan.TotalCBM.String(),
		TotalAmount:      resp.Pricing.TotalAmount,
		SpecialItemCount: resp.Pricing.SpecialItemCount,
		Payload:          payload,
		CreatedAt:        resp.CreatedAt,
	}
	for _, t := range resp.Summary.SelectedTrucks {
		rec.Trucks = append(rec.Trucks, string(t))
	}
	for _, s := range resp.Pricing.Sections {
		sec := store.Section{Key: string(s.Key), Title: s.Title, Amount: s.Amount, Description: s.Description}
		for _, l := range s.Lines {
			sec.Lines = append(sec.Lines, store.Line{
				Scope:       string(l.Scope),
				FurnitureID: l.FurnitureID,
				Quantity:    l.Quantity,
				Amount:      l.Amount,
				Description: l.Description,
			})
		}
		rec.Sections = append(rec.Sections, sec)
	}
	return rec
}

func newEstimateResponse(id string, createdAt time.Time, req estimateRequest, in estimator.Input, res estimator.Result) estimateResponse {
	return estimateResponse{
		EstimateID:    id,
		PolicyVersion: res.PolicyVersion,
		CreatedAt:     createdAt,
		LoadPlan:      newLoadPlanResponse(res.LoadPlan),
		Pricing:       newPricingResponse(res.Quote),
		Summary: summaryResponse{
			MoveType:         in.MoveType,
			Area:             in.Area,
			ItemCount:        len(in.Items),
			Origin:           req.Origin,
			Destination:      req.Destination,
			DistanceKm:       json.Number(in.DistanceKm.String()),
			SelectedTrucks:   res.LoadPlan.TruckTypes(),
			RecommendedTon:   tons(res.LoadPlan.RecommendedTon),
			SpecialItemCount: res.Quote.SpecialItemCount,
			TotalAmount:      res.Quote.TotalAmount,
		},
	}
}

type policyResponse struct {
	Version      string               `json:"version"`
	LoadedAt     time.Time            `json:"loaded_at"`
	TruckSpecs   []truckSpecResponse  `json:"truck_specs"`
	Combinations [][]policy.TruckType `json:"combinations"`
}

type truckSpecResponse struct {
	Type          policy.TruckType `json:"type"`
	Label         string           `json:"label"`
	Name          string           `json:"name,omitempty"`
	InnerWidthCm  int              `json:"inner_w_cm"`
	InnerDepthCm  int              `json:"inner_d_cm"`
	InnerHeightCm int              `json:"inner_h_cm"`
	CapacityCBM   json.Number      `json:"capacity_cbm"`
}

func newPolicyResponse(snap *policy.Snapshot) policyResponse {
	resp := policyResponse{
		Version:      snap.Version,
		LoadedAt:     snap.LoadedAt,
		Combinations: snap.CombinationCatalog(),
	}
	for _, spec := range snap.ActiveTruckSpecs() {
		resp.TruckSpecs = append(resp.TruckSpecs, truckSpecResponse{
			Type:          spec.Type,
			Label:         spec.Type.Label(),
			Name:          spec.Name,
			InnerWidthCm:  spec.InnerWidthCm,
			InnerDepthCm:  spec.InnerDepthCm,
			InnerHeightCm: spec.InnerHeightCm,
			CapacityCBM:   cbm(spec.CapacityCBM()),
		})
	}
	return resp
}

type reloadResponse struct {
	Version         string    `json:"version"`
	PreviousVersion string    `json:"previous_version"`
	LoadedAt        time.Time `json:"loaded_at"`
	Message         string    `json:"message"`
}

type furnitureResponse struct {
	ID               string   `json:"id"`
	SensorClass      *int     `json:"sensor_class,omitempty"`
	Name             string   `json:"name"`
	Category         string   `json:"category,omitempty"`
	WidthCm          int      `json:"width_cm"`
	DepthCm          int      `json:"depth_cm"`
	HeightCm         int      `json:"height_cm"`
	PaddingCm        float64  `json:"padding_cm"`
	NeedsDisassembly bool     `json:"needs_disassembly"`
	Stackable        bool     `json:"stackable"`
	CanStackOnTop    bool     `json:"can_stack_on_top"`
	Rotations        []string `json:"rotations"`
}

func newFurnitureResponse(f policy.Furniture) furnitureResponse {
	return furnitureResponse{
		ID:               f.ID,
		SensorClass:      f.SensorClass,
		Name:             f.Name,
		Category:         f.Category,
		WidthCm:          f.WidthCm,
		DepthCm:          f.DepthCm,
		HeightCm:         f.HeightCm,
		PaddingCm:        f.PaddingCm,
		NeedsDisassembly: f.NeedsDisassembly,
		Stackable:        f.Stackable,
		CanStackOnTop:    f.CanStackOnTop,
		Rotations:        f.Rotations,
	}
}
