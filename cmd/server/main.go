package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/freshcart/pricing-admin/app"
	"github.com/freshcart/pricing-admin/app/catalog"
	"github.com/freshcart/pricing-admin/app/categories"
	apppricing "github.com/freshcart/pricing-admin/app/pricing"
	"github.com/freshcart/pricing-admin/config"
	"github.com/freshcart/pricing-admin/events"
	"github.com/freshcart/pricing-admin/models"
	"github.com/freshcart/pricing-admin/pricing"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "server").Logger()

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := models.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	presets, err := config.LoadRangePresets(cfg.RangesFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load range presets")
	}

	opts := []pricing.Option{pricing.WithRoundingPlaces(cfg.RoundingPlaces)}
	var closers []io.Closer
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.EventsTopic))
		closers = append(closers, publisher)
		opts = append(opts, pricing.WithNotifier(publisher))
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.EventsTopic).Msg("publishing pricing runs")
	}

	products := models.NewProductsRepository(db)
	bundles := models.NewBundlesRepository(db)

	pricingHandler := apppricing.NewPricingHandler(apppricing.Providers{
		Populations:  pricing.NewRangeCatalog(products),
		Markup:       pricing.NewMarkupEngine(products, opts...),
		Discount:     pricing.NewDiscountEngine(products, opts...),
		BundleMarkup: pricing.NewBundleMarkupEngine(bundles, products, opts...),
		History:      products,
	}, presets)

	router := app.NewRouter(
		catalog.NewCatalogHandler(products),
		categories.NewCategoryHandler(models.NewCategoriesRepository(db)),
		pricingHandler,
	)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("addr", srv.Addr).Int("presets", len(presets)).Msg("server starting")
	if err := serve(ctx, srv, closers...); err != nil {
		logger.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

// serve runs srv until ctx is done or the listener fails, then shuts it down
// and closes closers in order. Closers run after in-flight requests finish.
func serve(ctx context.Context, srv *http.Server, closers ...io.Closer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	listenErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		listenErr <- err
		cancel()
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	shutdownErr := srv.Shutdown(shutdownCtx)

	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error().Err(err).Msg("close")
		}
	}

	if err := <-listenErr; err != nil {
		return err
	}
	return shutdownErr
}
