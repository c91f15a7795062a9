package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/freshcart/pricing-admin/app/respond"
	"github.com/freshcart/pricing-admin/models"
	"github.com/freshcart/pricing-admin/pricing"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "pricing-http").Logger()

type PopulationProvider interface {
	ComputeRangePopulations(ctx context.Context, ranges []pricing.PriceRange) (*pricing.Populations, error)
}

type MarkupApplier interface {
	ApplyMarkup(ctx context.Context, adjustments []pricing.RangeAdjustment) (*pricing.ApplyResult, error)
}

type DiscountApplier interface {
	ApplyDiscount(ctx context.Context, adjustments []pricing.RangeAdjustment) (*pricing.ApplyResult, error)
}

type BundleMarkupApplier interface {
	ApplyBundleMarkup(ctx context.Context, percentage decimal.Decimal) (*pricing.BundleResult, error)
}

type HistoryProvider interface {
	ListPriceChangesByRun(ctx context.Context, runID uuid.UUID) ([]models.PriceChange, error)
}

// Providers groups the collaborators of PricingHandler.
type Providers struct {
	Populations  PopulationProvider
	Markup       MarkupApplier
	Discount     DiscountApplier
	BundleMarkup BundleMarkupApplier
	History      HistoryProvider
}

type PricingHandler struct {
	p       Providers
	presets []pricing.PriceRange
}

func NewPricingHandler(p Providers, presets []pricing.PriceRange) *PricingHandler {
	return &PricingHandler{p: p, presets: presets}
}

// --- Request / response shapes ---

type rangeInput struct {
	MinValue   *decimal.Decimal `json:"minValue"`
	MaxValue   *decimal.Decimal `json:"maxValue"`
	Label      string           `json:"label,omitempty"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
}

type rangesRequest struct {
	Ranges []rangeInput `json:"ranges"`
}

type RangePopulation struct {
	MinValue     float64 `json:"minValue"`
	MaxValue     float64 `json:"maxValue"`
	Label        string  `json:"label,omitempty"`
	ProductCount int     `json:"productCount"`
}

type PopulationsResponse struct {
	TotalProducts int               `json:"totalProducts"`
	Overlapping   bool              `json:"overlapping"`
	Ranges        []RangePopulation `json:"ranges"`
}

type ApplyResponse struct {
	RunID        string `json:"runId"`
	UpdatedCount int    `json:"updatedCount"`
}

type BundleWarning struct {
	BundleID          uint   `json:"bundleId"`
	MissingProductIDs []uint `json:"missingProductIds"`
	Reason            string `json:"reason"`
}

type BundleMarkupResponse struct {
	RunID            string          `json:"runId"`
	UpdatedCount     int             `json:"updatedCount"`
	SkippedBundleIDs []uint          `json:"skippedBundleIds"`
	Warnings         []BundleWarning `json:"warnings"`
}

type PriceChange struct {
	ProductID     uint      `json:"productId"`
	Operation     string    `json:"operation"`
	Percentage    float64   `json:"percentage"`
	PreviousPrice float64   `json:"previousPrice"`
	NewPrice      float64   `json:"newPrice"`
	ChangedAt     time.Time `json:"changedAt"`
}

type RunChangesResponse struct {
	RunID   string        `json:"runId"`
	Changes []PriceChange `json:"changes"`
}

// --- Handlers ---

func (h *PricingHandler) HandlePopulations(w http.ResponseWriter, r *http.Request) {
	var req rangesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if len(req.Ranges) == 0 {
		respond.Error(w, http.StatusBadRequest, "At least one range is required")
		return
	}

	ranges := make([]pricing.PriceRange, len(req.Ranges))
	for i, in := range req.Ranges {
		if in.MinValue == nil || in.MaxValue == nil {
			respond.Error(w, http.StatusBadRequest, "Missing minValue or maxValue")
			return
		}
		ranges[i] = pricing.PriceRange{MinValue: *in.MinValue, MaxValue: *in.MaxValue, Label: in.Label}
	}

	h.writePopulations(w, r, ranges)
}

// HandlePresets reports populations for the configured default ranges.
func (h *PricingHandler) HandlePresets(w http.ResponseWriter, r *http.Request) {
	h.writePopulations(w, r, h.presets)
}

func (h *PricingHandler) writePopulations(w http.ResponseWriter, r *http.Request, ranges []pricing.PriceRange) {
	pop, err := h.p.Populations.ComputeRangePopulations(r.Context(), ranges)
	if err != nil {
		writePricingError(w, err)
		return
	}

	resp := PopulationsResponse{
		TotalProducts: pop.TotalProducts,
		Overlapping:   pop.Overlapping(),
		Ranges:        make([]RangePopulation, len(pop.Ranges)),
	}
	for i, rp := range pop.Ranges {
		resp.Ranges[i] = RangePopulation{
			MinValue:     rp.Range.MinValue.InexactFloat64(),
			MaxValue:     rp.Range.MaxValue.InexactFloat64(),
			Label:        rp.Range.Label,
			ProductCount: rp.ProductCount,
		}
	}
	respond.JSON(w, http.StatusOK, resp)
}

func (h *PricingHandler) HandleMarkup(w http.ResponseWriter, r *http.Request) {
	adjustments, ok := decodeAdjustments(w, r)
	if !ok {
		return
	}
	res, err := h.p.Markup.ApplyMarkup(r.Context(), adjustments)
	if err != nil {
		writePricingError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, ApplyResponse{RunID: res.RunID.String(), UpdatedCount: res.UpdatedCount})
}

func (h *PricingHandler) HandleDiscount(w http.ResponseWriter, r *http.Request) {
	adjustments, ok := decodeAdjustments(w, r)
	if !ok {
		return
	}
	res, err := h.p.Discount.ApplyDiscount(r.Context(), adjustments)
	if err != nil {
		writePricingError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, ApplyResponse{RunID: res.RunID.String(), UpdatedCount: res.UpdatedCount})
}

func (h *PricingHandler) HandleBundleMarkup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Percentage *decimal.Decimal `json:"percentage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Percentage == nil {
		respond.Error(w, http.StatusBadRequest, "Missing percentage")
		return
	}

	res, err := h.p.BundleMarkup.ApplyBundleMarkup(r.Context(), *req.Percentage)
	if err != nil {
		writePricingError(w, err)
		return
	}

	resp := BundleMarkupResponse{
		RunID:            res.RunID.String(),
		UpdatedCount:     res.UpdatedCount,
		SkippedBundleIDs: res.SkippedBundleIDs,
		Warnings:         make([]BundleWarning, len(res.Warnings)),
	}
	if resp.SkippedBundleIDs == nil {
		resp.SkippedBundleIDs = []uint{}
	}
	for i, wn := range res.Warnings {
		resp.Warnings[i] = BundleWarning{BundleID: wn.BundleID, MissingProductIDs: wn.MissingProductIDs, Reason: wn.Reason}
	}
	respond.JSON(w, http.StatusOK, resp)
}

func (h *PricingHandler) HandleRunChanges(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid run id")
		return
	}

	changes, err := h.p.History.ListPriceChangesByRun(r.Context(), runID)
	if err != nil {
		logger.Error().Err(err).Str("run_id", runID.String()).Msg("failed to list price changes")
		respond.Error(w, http.StatusInternalServerError, "Failed to retrieve price changes")
		return
	}

	resp := RunChangesResponse{RunID: runID.String(), Changes: make([]PriceChange, len(changes))}
	for i, c := range changes {
		resp.Changes[i] = PriceChange{
			ProductID:     c.ProductID,
			Operation:     c.Operation,
			Percentage:    c.Percentage.InexactFloat64(),
			PreviousPrice: c.PreviousPrice.InexactFloat64(),
			NewPrice:      c.NewPrice.InexactFloat64(),
			ChangedAt:     c.CreatedAt,
		}
	}
	respond.JSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func decodeAdjustments(w http.ResponseWriter, r *http.Request) ([]pricing.RangeAdjustment, bool) {
	var req rangesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}
	if len(req.Ranges) == 0 {
		respond.Error(w, http.StatusBadRequest, "At least one range is required")
		return nil, false
	}

	out := make([]pricing.RangeAdjustment, len(req.Ranges))
	for i, in := range req.Ranges {
		if in.MinValue == nil || in.MaxValue == nil || in.Percentage == nil {
			respond.Error(w, http.StatusBadRequest, "Missing minValue, maxValue or percentage")
			return nil, false
		}
		out[i] = pricing.RangeAdjustment{
			Range:      pricing.PriceRange{MinValue: *in.MinValue, MaxValue: *in.MaxValue, Label: in.Label},
			Percentage: *in.Percentage,
		}
	}
	return out, true
}

func writePricingError(w http.ResponseWriter, err error) {
	var partial *pricing.PartialApplyFailure
	switch {
	case errors.As(err, &partial):
		logger.Error().Err(err).Str("run_id", partial.RunID.String()).Msg("pricing run partially applied")
		body := map[string]interface{}{
			"error":        err.Error(),
			"runId":        partial.RunID.String(),
			"updatedCount": partial.UpdatedCount,
		}
		if partial.Operation == pricing.OperationBundleMarkup {
			body["committedBundleIds"] = partial.CommittedBundleIDs
			body["failedBundleId"] = partial.FailedBundleID
		} else {
			body["completedRanges"] = partial.CompletedRanges
			body["failedRange"] = partial.FailedRange
		}
		respond.JSON(w, http.StatusInternalServerError, body)
	case errors.Is(err, pricing.ErrInvalidRange), errors.Is(err, pricing.ErrInvalidPercentage):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pricing.ErrCatalogUnavailable), errors.Is(err, pricing.ErrBundleStoreUnavailable):
		logger.Error().Err(err).Msg("pricing store unavailable")
		respond.Error(w, http.StatusServiceUnavailable, "Pricing data is temporarily unavailable")
	default:
		logger.Error().Err(err).Msg("pricing request failed")
		respond.Error(w, http.StatusInternalServerError, "Pricing request failed")
	}
}
