package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eugenenazirov/move-estimator/internal/catalog"
	"github.com/eugenenazirov/move-estimator/internal/distance"
	"github.com/eugenenazirov/move-estimator/internal/estimator"
	"github.com/eugenenazirov/move-estimator/internal/planner"
	"github.com/eugenenazirov/move-estimator/internal/policy"
	"github.com/eugenenazirov/move-estimator/internal/store"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const maxRequestBytes = 1 << 20

// EstimateRepository persists finished estimates.
type EstimateRepository interface {
	SaveEstimate(ctx context.Context, rec store.Record) error
	GetEstimate(ctx context.Context, id string) (store.Record, error)
}

// PolicyLoader reads a fresh policy snapshot for reloads.
type PolicyLoader func() (*policy.Snapshot, error)

// Handler wires the estimator, policy store, furniture catalog and persistence into HTTP handlers.
type Handler struct {
	policies  *policy.Store
	catalog   *catalog.Cache
	engine    *estimator.Engine
	estimates EstimateRepository
	distances distance.Provider
	reload    PolicyLoader
	validator *requestValidator
	logger    *zap.Logger

	clock func() time.Time
	newID func() string
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithIDGenerator overrides estimate id generation, primarily for tests.
func WithIDGenerator(gen func() string) HandlerOption {
	return func(h *Handler) {
		h.newID = gen
	}
}

// WithEstimateRepository sets where finished estimates are stored.
func WithEstimateRepository(repo EstimateRepository) HandlerOption {
	return func(h *Handler) {
		h.estimates = repo
	}
}

// WithDistanceProvider enables address-based distance resolution.
func WithDistanceProvider(p distance.Provider) HandlerOption {
	return func(h *Handler) {
		h.distances = p
	}
}

// WithPolicyLoader enables POST /api/policy/reload.
func WithPolicyLoader(load PolicyLoader) HandlerOption {
	return func(h *Handler) {
		h.reload = load
	}
}

// WithHandlerLogger sets the logger used for handler events.
func WithHandlerLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(policies *policy.Store, furniture *catalog.Cache, engine *estimator.Engine, opts ...HandlerOption) *Handler {
	h := &Handler{
		policies:  policies,
		catalog:   furniture,
		engine:    engine,
		estimates: store.NewMemory(),
		validator: newRequestValidator(),
		logger:    zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:        "ok",
		Timestamp:     h.clock(),
		PolicyVersion: h.policies.Current().Version,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, newPolicyResponse(h.policies.Current()))
}

func (h *Handler) handleReloadPolicy(w http.ResponseWriter, r *http.Request) {
	if h.reload == nil {
		writeError(w, http.StatusConflict, "Reload unavailable", "no policy source is configured")
		return
	}

	next, err := h.reload()
	if err != nil {
		if errors.Is(err, policy.ErrInvalidSnapshot) {
			writeError(w, http.StatusUnprocessableEntity, "Invalid policy", err.Error(),
				"Fix the policy file; the previous snapshot stays in effect")
			return
		}
		writeInternalError(w, err)
		return
	}

	prev, err := h.policies.Swap(next)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	h.catalog.Invalidate()

	h.logger.Info("policy reloaded",
		zap.String("version", next.Version),
		zap.String("previous_version", prev.Version),
		zap.String("request_id", requestIDFromContext(r.Context())),
	)

	writeJSON(w, http.StatusOK, reloadResponse{
		Version:         next.Version,
		PreviousVersion: prev.Version,
		LoadedAt:        next.LoadedAt,
		Message:         "Policy reloaded successfully",
	})
}

func (h *Handler) handleFurniture(w http.ResponseWriter, r *http.Request) {
	furniture := h.catalog.For(h.policies.Current())
	raw := strings.TrimSpace(r.URL.Query().Get("sensor_class"))
	if raw == "" {
		rows := furniture.List()
		resp := make([]furnitureResponse, 0, len(rows))
		for _, f := range rows {
			resp = append(resp, newFurnitureResponse(f))
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	class, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "sensor_class must be an integer")
		return
	}
	f, err := furniture.BySensorClass(class)
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newFurnitureResponse(f))
}

// requestError carries an HTTP status and the client-facing error body.
type requestError struct {
	status     int
	message    string
	details    string
	suggestion string
	cause      error
}

func (e *requestError) Error() string {
	return e.message + ": " + e.details
}

func (e *requestError) Unwrap() error {
	return e.cause
}

func (h *Handler) handleCreateEstimate(w http.ResponseWriter, r *http.Request) {
	resp, err := h.evaluate(r.Context(), http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		h.writeEstimateError(w, err)
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if err := h.estimates.SaveEstimate(r.Context(), newRecord(resp, payload)); err != nil {
		writeInternalError(w, fmt.Errorf("save estimate: %w", err))
		return
	}

	h.logger.Info("estimate created",
		zap.String("estimate_id", resp.EstimateID),
		zap.String("policy_version", resp.PolicyVersion),
		zap.Strings("trucks", resp.LoadPlan.truckLabels()),
		zap.Int64("total_amount", resp.Pricing.TotalAmount),
		zap.String("request_id", requestIDFromContext(r.Context())),
	)

	writeRawJSON(w, http.StatusCreated, payload)
}

// Quote evaluates one JSON estimate request without persisting it and returns
// the indented response document.
func (h *Handler) Quote(ctx context.Context, body io.Reader) ([]byte, error) {
	resp, err := h.evaluate(ctx, body)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(resp, "", "  ")
}

func (h *Handler) evaluate(ctx context.Context, body io.Reader) (estimateResponse, error) {
	var req estimateRequest
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return estimateResponse{}, &requestError{status: http.StatusBadRequest, message: "Invalid request", details: "unable to parse JSON payload", cause: err}
	}
	if err := h.validator.Struct(req); err != nil {
		return estimateResponse{}, &requestError{status: http.StatusBadRequest, message: "Invalid request", details: err.Error(), cause: err}
	}

	snap := h.policies.Current()
	in, err := h.buildInput(ctx, req, h.catalog.For(snap))
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrUnknownFurniture), errors.Is(err, distance.ErrUnknownRoute), errors.Is(err, planner.ErrInvalidInput):
			return estimateResponse{}, &requestError{status: http.StatusBadRequest, message: "Invalid request", details: err.Error(), cause: err}
		default:
			return estimateResponse{}, err
		}
	}

	start := time.Now()
	res, err := h.engine.Estimate(in, snap)
	if err != nil {
		switch {
		case errors.Is(err, planner.ErrInvalidInput):
			return estimateResponse{}, &requestError{status: http.StatusBadRequest, message: "Invalid request", details: err.Error(), cause: err}
		case errors.Is(err, planner.ErrNoFeasibleCombination):
			return estimateResponse{}, &requestError{
				status:     http.StatusUnprocessableEntity,
				message:    "No feasible truck combination",
				details:    err.Error(),
				suggestion: "Split the move into several trips or reduce the inventory",
				cause:      err,
			}
		case errors.Is(err, policy.ErrMissingRule):
			h.logger.Error("policy rule missing", zap.String("policy_version", snap.Version), zap.Error(err))
			return estimateResponse{}, &requestError{status: http.StatusInternalServerError, message: "Policy misconfigured", details: err.Error(), cause: err}
		default:
			return estimateResponse{}, err
		}
	}
	h.logger.Debug("estimate evaluated",
		zap.String("policy_version", res.PolicyVersion),
		zap.Duration("elapsed", time.Since(start)),
	)

	return newEstimateResponse(h.newID(), h.clock(), req, in, res), nil
}

func (h *Handler) writeEstimateError(w http.ResponseWriter, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		if reqErr.suggestion != "" {
			writeError(w, reqErr.status, reqErr.message, reqErr.details, reqErr.suggestion)
			return
		}
		writeError(w, reqErr.status, reqErr.message, reqErr.details)
		return
	}
	writeInternalError(w, err)
}

func (h *Handler) handleGetEstimate(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "estimate id is required")
		return
	}

	rec, err := h.estimates.GetEstimate(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Not found", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, rec.Payload)
}

// buildInput resolves catalog rows from furniture, expands quantities and settles the distance.
func (h *Handler) buildInput(ctx context.Context, req estimateRequest, furniture *catalog.View) (estimator.Input, error) {
	in := estimator.Input{
		Area:     req.Area,
		MoveType: policy.MoveType(req.MoveType),
		Origin:   req.Origin.toEndpoint(),
	}
	if req.Destination != nil {
		dest := req.Destination.toEndpoint()
		in.Destination = &dest
	}

	for i, item := range req.Items {
		f, err := resolveFurniture(furniture, item)
		if err != nil {
			return estimator.Input{}, fmt.Errorf("items[%d]: %w", i, err)
		}
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		if len(in.Items)+qty > maxExpandedItems {
			return estimator.Input{}, fmt.Errorf("%w: more than %d items", planner.ErrInvalidInput, maxExpandedItems)
		}
		built := catalog.BuildItem(f, catalog.Dimensions{
			WidthCm:  optionalDecimal(item.WidthCm),
			DepthCm:  optionalDecimal(item.DepthCm),
			HeightCm: optionalDecimal(item.HeightCm),
		}, item.NeedsDisassembly)
		for n := 0; n < qty; n++ {
			in.Items = append(in.Items, built)
		}
	}

	km, err := h.resolveDistance(ctx, req)
	if err != nil {
		return estimator.Input{}, err
	}
	in.DistanceKm = km
	return in, nil
}

func resolveFurniture(furniture *catalog.View, item itemRequest) (policy.Furniture, error) {
	if item.FurnitureID != "" {
		return furniture.Furniture(item.FurnitureID)
	}
	return furniture.BySensorClass(*item.SensorClass)
}

func (h *Handler) resolveDistance(ctx context.Context, req estimateRequest) (decimal.Decimal, error) {
	if req.DistanceKm != nil {
		if req.DistanceKm.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: distance_km must not be negative", planner.ErrInvalidInput)
		}
		return *req.DistanceKm, nil
	}
	if req.OriginAddress == "" || req.DestinationAddress == "" {
		return decimal.Zero, fmt.Errorf("%w: distance_km or both addresses are required", planner.ErrInvalidInput)
	}
	if h.distances == nil {
		return decimal.Zero, fmt.Errorf("%w: address lookup is not configured, send distance_km", planner.ErrInvalidInput)
	}
	return h.distances.DistanceKm(ctx, req.OriginAddress, req.DestinationAddress)
}

func optionalDecimal(v *float64) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v)
}

func (lp loadPlanResponse) truckLabels() []string {
	out := make([]string, len(lp.Trucks))
	for i, t := range lp.Trucks {
		out[i] = t.Label
	}
	return out
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type healthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	PolicyVersion string    `json:"policy_version"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRawJSON(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
