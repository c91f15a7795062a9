package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/freshcart/pricing-admin/app/respond"
	"github.com/freshcart/pricing-admin/models"
	"github.com/shopspring/decimal"
)

// historyLimit caps the price changes returned with a product.
const historyLimit = 20

type Response struct {
	Total    int       `json:"total"`
	Products []Product `json:"products"`
}

type Category struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Product struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	OriginalPrice float64  `json:"originalPrice"`
	CurrentPrice  float64  `json:"currentPrice"`
	Category      Category `json:"category"`
}

type PriceChange struct {
	RunID         string    `json:"runId"`
	Operation     string    `json:"operation"`
	Percentage    float64   `json:"percentage"`
	PreviousPrice float64   `json:"previousPrice"`
	NewPrice      float64   `json:"newPrice"`
	ChangedAt     time.Time `json:"changedAt"`
}

type ProductDetail struct {
	Product
	PriceHistory []PriceChange `json:"priceHistory"`
}

type ProductProvider interface {
	GetFilteredProducts(ctx context.Context, offset, limit int, filters models.ProductFilters) ([]models.Product, int64, error)
	GetByCode(ctx context.Context, code string) (*models.Product, error)
	ListPriceChangesByProduct(ctx context.Context, productID uint, limit int) ([]models.PriceChange, error)
}

// CatalogHandler serves the admin product listing used to inspect which
// products a price range covers before and after a pricing run.
type CatalogHandler struct {
	repo ProductProvider
}

func NewCatalogHandler(r ProductProvider) *CatalogHandler {
	return &CatalogHandler{
		repo: r,
	}
}

func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	// Parse pagination query params
	offset := 0
	limit := 10

	if oStr := r.URL.Query().Get("offset"); oStr != "" {
		if o, err := strconv.Atoi(oStr); err == nil && o >= 0 {
			offset = o
		}
	}

	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil {
			if l < 1 {
				limit = 1
			} else if l > 100 {
				limit = 100
			} else {
				limit = l
			}
		}
	}

	// Parse filters
	filters := models.ProductFilters{
		CategoryCode:     r.URL.Query().Get("category"),
		MinOriginalPrice: decimalParam(r, "min_price"),
		MaxOriginalPrice: decimalParam(r, "max_price"),
	}

	res, total, err := h.repo.GetFilteredProducts(r.Context(), offset, limit, filters)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to get products")
		return
	}

	products := make([]Product, len(res))
	for i, p := range res {
		products[i] = toProduct(p)
	}

	respond.JSON(w, http.StatusOK, Response{
		Total:    int(total),
		Products: products,
	})
}

func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	product, err := h.repo.GetByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			respond.Error(w, http.StatusNotFound, "Product not found")
			return
		}
		respond.Error(w, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}

	changes, err := h.repo.ListPriceChangesByProduct(r.Context(), product.ID, historyLimit)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "Failed to retrieve price history")
		return
	}

	history := make([]PriceChange, len(changes))
	for i, c := range changes {
		history[i] = toPriceChange(c)
	}

	respond.JSON(w, http.StatusOK, ProductDetail{
		Product:      toProduct(*product),
		PriceHistory: history,
	})
}

func toProduct(p models.Product) Product {
	return Product{
		Code:          p.Code,
		Name:          p.Name,
		OriginalPrice: p.OriginalPrice.InexactFloat64(),
		CurrentPrice:  p.CurrentPrice.InexactFloat64(),
		Category: Category{
			Code: p.Category.Code,
			Name: p.Category.Name,
		},
	}
}

func toPriceChange(c models.PriceChange) PriceChange {
	return PriceChange{
		RunID:         c.RunID.String(),
		Operation:     c.Operation,
		Percentage:    c.Percentage.InexactFloat64(),
		PreviousPrice: c.PreviousPrice.InexactFloat64(),
		NewPrice:      c.NewPrice.InexactFloat64(),
		ChangedAt:     c.CreatedAt,
	}
}

// decimalParam returns nil for a missing, malformed or negative value.
func decimalParam(r *http.Request, key string) *decimal.Decimal {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil || v.IsNegative() {
		return nil
	}
	return &v
}
