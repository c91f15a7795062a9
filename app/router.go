package app

import (
	"net/http"
	"os"
	"time"

	"github.com/freshcart/pricing-admin/app/catalog"
	"github.com/freshcart/pricing-admin/app/categories"
	"github.com/freshcart/pricing-admin/app/pricing"
	"github.com/freshcart/pricing-admin/app/respond"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "http").Logger()

func NewRouter(
	catalogHandler *catalog.CatalogHandler,
	categoryHandler *categories.CategoryHandler,
	pricingHandler *pricing.PricingHandler,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// --- Affected-product preview ---
	mux.HandleFunc("GET /admin/products", catalogHandler.HandleGet)
	mux.HandleFunc("GET /admin/products/{code}", catalogHandler.HandleGetProduct)
	mux.HandleFunc("GET /admin/categories", categoryHandler.HandleGetAll)

	// --- Pricing runs ---
	mux.HandleFunc("POST /admin/pricing/ranges/populations", pricingHandler.HandlePopulations)
	mux.HandleFunc("GET /admin/pricing/ranges/presets", pricingHandler.HandlePresets)
	mux.HandleFunc("POST /admin/pricing/markup", pricingHandler.HandleMarkup)
	mux.HandleFunc("POST /admin/pricing/discount", pricingHandler.HandleDiscount)
	mux.HandleFunc("POST /admin/pricing/bundles/markup", pricingHandler.HandleBundleMarkup)
	mux.HandleFunc("GET /admin/pricing/runs/{id}/changes", pricingHandler.HandleRunChanges)

	return logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
