package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/freshcart/pricing-admin/models"
	"github.com/freshcart/pricing-admin/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRunID = uuid.MustParse("7c1d2e3f-4a5b-4c6d-8e7f-9a0b1c2d3e4f")

// --- Mock Providers ---

type MockEngine struct {
	Populations *pricing.Populations
	Apply       *pricing.ApplyResult
	Bundle      *pricing.BundleResult
	Changes     []models.PriceChange
	Err         error

	// Fields to capture call arguments
	lastRanges      []pricing.PriceRange
	lastAdjustments []pricing.RangeAdjustment
	lastPercentage  decimal.Decimal
	lastRunID       uuid.UUID
	markupCalls     int
	discountCalls   int
}

func (m *MockEngine) ComputeRangePopulations(ctx context.Context, ranges []pricing.PriceRange) (*pricing.Populations, error) {
	m.lastRanges = ranges
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Populations, nil
}

func (m *MockEngine) ApplyMarkup(ctx context.Context, adjustments []pricing.RangeAdjustment) (*pricing.ApplyResult, error) {
	m.markupCalls++
	m.lastAdjustments = adjustments
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Apply, nil
}

func (m *MockEngine) ApplyDiscount(ctx context.Context, adjustments []pricing.RangeAdjustment) (*pricing.ApplyResult, error) {
	m.discountCalls++
	m.lastAdjustments = adjustments
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Apply, nil
}

func (m *MockEngine) ApplyBundleMarkup(ctx context.Context, percentage decimal.Decimal) (*pricing.BundleResult, error) {
	m.lastPercentage = percentage
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Bundle, nil
}

func (m *MockEngine) ListPriceChangesByRun(ctx context.Context, runID uuid.UUID) ([]models.PriceChange, error) {
	m.lastRunID = runID
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Changes, nil
}

func newHandler(m *MockEngine, presets []pricing.PriceRange) *PricingHandler {
	return NewPricingHandler(Providers{
		Populations:  m,
		Markup:       m,
		Discount:     m,
		BundleMarkup: m,
		History:      m,
	}, presets)
}

func post(handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	res := httptest.NewRecorder()
	handler(res, req)
	return res
}

func TestHandlePopulations(t *testing.T) {
	mock := &MockEngine{
		Populations: &pricing.Populations{
			TotalProducts:       3,
			OverlappingProducts: 1,
			Ranges: []pricing.RangePopulation{
				{Range: pricing.PriceRange{MinValue: decimal.Zero, MaxValue: decimal.NewFromInt(10), Label: "budget"}, ProductCount: 2},
				{Range: pricing.PriceRange{MinValue: decimal.NewFromInt(5), MaxValue: decimal.NewFromInt(20)}, ProductCount: 2},
			},
		},
	}
	h := newHandler(mock, nil)

	// Act
	res := post(h.HandlePopulations, "/admin/pricing/ranges/populations",
		`{"ranges":[{"minValue":0,"maxValue":10,"label":"budget"},{"minValue":"5","maxValue":"20"}]}`)

	// Assert
	require.Equal(t, http.StatusOK, res.Code)

	var body PopulationsResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, 3, body.TotalProducts)
	assert.True(t, body.Overlapping)
	require.Len(t, body.Ranges, 2)
	assert.Equal(t, "budget", body.Ranges[0].Label)
	assert.Equal(t, 10.0, body.Ranges[0].MaxValue)
	assert.Equal(t, 2, body.Ranges[1].ProductCount)

	require.Len(t, mock.lastRanges, 2)
	assert.True(t, mock.lastRanges[1].MinValue.Equal(decimal.NewFromInt(5)))
	assert.True(t, mock.lastRanges[1].MaxValue.Equal(decimal.NewFromInt(20)))
}

func TestHandlePopulationsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{name: "Malformed JSON", body: `{"ranges":`, msg: "Invalid JSON body"},
		{name: "No ranges", body: `{"ranges":[]}`, msg: "At least one range is required"},
		{name: "Missing bound", body: `{"ranges":[{"minValue":1}]}`, msg: "Missing minValue or maxValue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockEngine{}
			h := newHandler(mock, nil)

			res := post(h.HandlePopulations, "/admin/pricing/ranges/populations", tt.body)

			assert.Equal(t, http.StatusBadRequest, res.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
			assert.Equal(t, tt.msg, body["error"])
			assert.Nil(t, mock.lastRanges)
		})
	}
}

func TestHandlePresets(t *testing.T) {
	presets := []pricing.PriceRange{
		{MinValue: decimal.Zero, MaxValue: decimal.NewFromInt(5), Label: "under 5"},
	}
	mock := &MockEngine{
		Populations: &pricing.Populations{
			TotalProducts: 4,
			Ranges:        []pricing.RangePopulation{{Range: presets[0], ProductCount: 1}},
		},
	}
	h := newHandler(mock, presets)

	req := httptest.NewRequest(http.MethodGet, "/admin/pricing/ranges/presets", nil)
	res := httptest.NewRecorder()
	h.HandlePresets(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, presets, mock.lastRanges)

	var body PopulationsResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.False(t, body.Overlapping)
	assert.Equal(t, "under 5", body.Ranges[0].Label)
}

func TestHandleMarkupAndDiscount(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		handler  func(h *PricingHandler) http.HandlerFunc
		markup   int
		discount int
	}{
		{
			name:    "Markup",
			path:    "/admin/pricing/markup",
			handler: func(h *PricingHandler) http.HandlerFunc { return h.HandleMarkup },
			markup:  1,
		},
		{
			name:     "Discount",
			path:     "/admin/pricing/discount",
			handler:  func(h *PricingHandler) http.HandlerFunc { return h.HandleDiscount },
			discount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			mock := &MockEngine{Apply: &pricing.ApplyResult{RunID: testRunID, UpdatedCount: 3}}
			h := newHandler(mock, nil)

			// Act
			res := post(tt.handler(h), tt.path,
				`{"ranges":[{"minValue":0,"maxValue":9.99,"percentage":15},{"minValue":10,"maxValue":20,"percentage":"12.5"}]}`)

			// Assert
			require.Equal(t, http.StatusOK, res.Code)
			assert.Equal(t, tt.markup, mock.markupCalls)
			assert.Equal(t, tt.discount, mock.discountCalls)

			var body ApplyResponse
			require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
			assert.Equal(t, testRunID.String(), body.RunID)
			assert.Equal(t, 3, body.UpdatedCount)

			require.Len(t, mock.lastAdjustments, 2)
			assert.True(t, mock.lastAdjustments[0].Range.MaxValue.Equal(decimal.RequireFromString("9.99")))
			assert.True(t, mock.lastAdjustments[1].Percentage.Equal(decimal.RequireFromString("12.5")))
		})
	}
}

func TestHandleMarkupMissingPercentage(t *testing.T) {
	mock := &MockEngine{}
	h := newHandler(mock, nil)

	res := post(h.HandleMarkup, "/admin/pricing/markup", `{"ranges":[{"minValue":0,"maxValue":10}]}`)

	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, 0, mock.markupCalls)
}

func TestPricingErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "Invalid range",
			err:        fmt.Errorf("range 0: %w", pricing.ErrInvalidRange),
			wantStatus: http.StatusBadRequest,
			wantError:  "range 0: " + pricing.ErrInvalidRange.Error(),
		},
		{
			name:       "Invalid percentage",
			err:        pricing.ErrInvalidPercentage,
			wantStatus: http.StatusBadRequest,
			wantError:  pricing.ErrInvalidPercentage.Error(),
		},
		{
			name:       "Catalog unavailable",
			err:        fmt.Errorf("%w: connection refused", pricing.ErrCatalogUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "Pricing data is temporarily unavailable",
		},
		{
			name:       "Unexpected error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Pricing request failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockEngine{Err: tt.err}
			h := newHandler(mock, nil)

			res := post(h.HandleMarkup, "/admin/pricing/markup", `{"ranges":[{"minValue":0,"maxValue":10,"percentage":5}]}`)

			assert.Equal(t, tt.wantStatus, res.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestPartialFailureResponse(t *testing.T) {
	t.Run("Range run", func(t *testing.T) {
		mock := &MockEngine{Err: &pricing.PartialApplyFailure{
			Operation:       pricing.OperationDiscount,
			RunID:           testRunID,
			CompletedRanges: 1,
			FailedRange:     1,
			UpdatedCount:    4,
			Cause:           errors.New("deadlock detected"),
		}}
		h := newHandler(mock, nil)

		res := post(h.HandleDiscount, "/admin/pricing/discount", `{"ranges":[{"minValue":0,"maxValue":10,"percentage":5}]}`)

		require.Equal(t, http.StatusInternalServerError, res.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
		assert.Equal(t, testRunID.String(), body["runId"])
		assert.Equal(t, 1.0, body["completedRanges"])
		assert.Equal(t, 1.0, body["failedRange"])
		assert.Equal(t, 4.0, body["updatedCount"])
		assert.NotContains(t, body, "failedBundleId")
	})

	t.Run("Bundle run", func(t *testing.T) {
		mock := &MockEngine{Err: &pricing.PartialApplyFailure{
			Operation:          pricing.OperationBundleMarkup,
			RunID:              testRunID,
			CommittedBundleIDs: []uint{1, 2},
			FailedBundleID:     3,
			UpdatedCount:       2,
			Cause:              errors.New("timeout"),
		}}
		h := newHandler(mock, nil)

		res := post(h.HandleBundleMarkup, "/admin/pricing/bundles/markup", `{"percentage":15}`)

		require.Equal(t, http.StatusInternalServerError, res.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
		assert.Equal(t, []interface{}{1.0, 2.0}, body["committedBundleIds"])
		assert.Equal(t, 3.0, body["failedBundleId"])
		assert.NotContains(t, body, "completedRanges")
	})
}

func TestHandleBundleMarkup(t *testing.T) {
	mock := &MockEngine{Bundle: &pricing.BundleResult{
		RunID:            testRunID,
		UpdatedCount:     2,
		SkippedBundleIDs: []uint{9},
		Warnings: []pricing.BundleWarning{
			{BundleID: 4, MissingProductIDs: []uint{77}, Reason: "member products not found"},
		},
	}}
	h := newHandler(mock, nil)

	res := post(h.HandleBundleMarkup, "/admin/pricing/bundles/markup", `{"percentage":"15"}`)

	require.Equal(t, http.StatusOK, res.Code)
	assert.True(t, mock.lastPercentage.Equal(decimal.NewFromInt(15)))

	var body BundleMarkupResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, 2, body.UpdatedCount)
	assert.Equal(t, []uint{9}, body.SkippedBundleIDs)
	require.Len(t, body.Warnings, 1)
	assert.Equal(t, []uint{77}, body.Warnings[0].MissingProductIDs)
}

func TestHandleBundleMarkupEmptyResult(t *testing.T) {
	mock := &MockEngine{Bundle: &pricing.BundleResult{RunID: testRunID}}
	h := newHandler(mock, nil)

	res := post(h.HandleBundleMarkup, "/admin/pricing/bundles/markup", `{"percentage":0}`)

	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"runId":"`+testRunID.String()+`","updatedCount":0,"skippedBundleIds":[],"warnings":[]}`, res.Body.String())
}

func TestHandleBundleMarkupMissingPercentage(t *testing.T) {
	h := newHandler(&MockEngine{}, nil)

	res := post(h.HandleBundleMarkup, "/admin/pricing/bundles/markup", `{}`)

	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestHandleRunChanges(t *testing.T) {
	changedAt := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	t.Run("Lists changes for the run", func(t *testing.T) {
		mock := &MockEngine{Changes: []models.PriceChange{
			{
				RunID:         testRunID,
				Operation:     "markup",
				ProductID:     12,
				Percentage:    decimal.NewFromInt(10),
				PreviousPrice: decimal.RequireFromString("4.00"),
				NewPrice:      decimal.RequireFromString("4.40"),
				CreatedAt:     changedAt,
			},
		}}
		h := newHandler(mock, nil)

		req := httptest.NewRequest(http.MethodGet, "/admin/pricing/runs/"+testRunID.String()+"/changes", nil)
		req.SetPathValue("id", testRunID.String())
		res := httptest.NewRecorder()
		h.HandleRunChanges(res, req)

		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, testRunID, mock.lastRunID)

		var body RunChangesResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
		require.Len(t, body.Changes, 1)
		assert.Equal(t, uint(12), body.Changes[0].ProductID)
		assert.Equal(t, 4.4, body.Changes[0].NewPrice)
		assert.True(t, changedAt.Equal(body.Changes[0].ChangedAt))
	})

	t.Run("Rejects malformed run id", func(t *testing.T) {
		mock := &MockEngine{}
		h := newHandler(mock, nil)

		req := httptest.NewRequest(http.MethodGet, "/admin/pricing/runs/nope/changes", nil)
		req.SetPathValue("id", "nope")
		res := httptest.NewRecorder()
		h.HandleRunChanges(res, req)

		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, uuid.Nil, mock.lastRunID)
	})

	t.Run("Repository error", func(t *testing.T) {
		mock := &MockEngine{Err: errors.New("db down")}
		h := newHandler(mock, nil)

		req := httptest.NewRequest(http.MethodGet, "/admin/pricing/runs/"+testRunID.String()+"/changes", nil)
		req.SetPathValue("id", testRunID.String())
		res := httptest.NewRecorder()
		h.HandleRunChanges(res, req)

		assert.Equal(t, http.StatusInternalServerError, res.Code)
	})
}
