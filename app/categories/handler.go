package categories

import (
	"context"
	"net/http"

	"github.com/freshcart/pricing-admin/app/respond"
	"github.com/freshcart/pricing-admin/models"
	"github.com/shopspring/decimal"
)

// CategoryResponse describes an aisle and the original-price span of its
// products, used to choose price bands before a run.
type CategoryResponse struct {
	Code             string   `json:"code"`
	Name             string   `json:"name"`
	ProductCount     int64    `json:"productCount"`
	MinOriginalPrice *float64 `json:"minOriginalPrice"`
	MaxOriginalPrice *float64 `json:"maxOriginalPrice"`
}

type CategoryProvider interface {
	ListCategorySummaries(ctx context.Context) ([]models.CategorySummary, error)
}

type CategoryHandler struct {
	repo CategoryProvider
}

func NewCategoryHandler(r CategoryProvider) *CategoryHandler {
	return &CategoryHandler{repo: r}
}

func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.repo.ListCategorySummaries(r.Context())
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}

	response := make([]CategoryResponse, len(summaries))
	for i, s := range summaries {
		response[i] = CategoryResponse{
			Code:             s.Code,
			Name:             s.Name,
			ProductCount:     s.ProductCount,
			MinOriginalPrice: nullablePrice(s.MinOriginalPrice),
			MaxOriginalPrice: nullablePrice(s.MaxOriginalPrice),
		}
	}

	respond.JSON(w, http.StatusOK, response)
}

func nullablePrice(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}
