package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/beautycare/backend/config"
	httpDelivery "github.com/beautycare/backend/internal/delivery/http"
	"github.com/beautycare/backend/internal/domain"
	"github.com/beautycare/backend/internal/infrastructure/analytics"
	"github.com/beautycare/backend/internal/infrastructure/cartstore"
	"github.com/beautycare/backend/internal/infrastructure/catalog"
	"github.com/beautycare/backend/internal/infrastructure/profilestore"
	"github.com/beautycare/backend/internal/infrastructure/shade"
	"github.com/beautycare/backend/internal/usecase"
	"github.com/beautycare/backend/internal/worker"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.LogLevel)
	log.Info().
		Str("env", cfg.Server.Environment).
		Str("persistence", cfg.Cart.Persistence).
		Bool("redirect_mode", cfg.Partner.RedirectBase != "").
		Msg("Starting beautycare backend v1.0.0")

	// 3. Shades and catalog. A catalog that does not load is fatal.
	shades, err := shade.NewNormalizer(cfg.Catalog.ShadeMapPath, cfg.Catalog.ShadeNeighborsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Shade normalizer initialization failed")
	}

	catalogStore := catalog.NewStore(cfg.Catalog.CatalogPath, shades)
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = catalogStore.Reload(loadCtx)
	loadCancel()
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Catalog.CatalogPath).Msg("Catalog load failed")
	}

	// 4. Persistence
	carts, closeCarts, err := newCartStore(cfg.Cart)
	if err != nil {
		log.Fatal().Err(err).Msg("Cart store initialization failed")
	}
	defer closeCarts.Close()
	profiles := profilestore.NewMemoryStore()

	// 5. Analytics
	sink, stats, closeSink := newAnalyticsSink(cfg.Analytics)
	defer closeSink.Close()
	events := usecase.NewEventPublisher(sink, time.Now)

	// 6. Use cases
	selector := usecase.NewSelector(catalogStore, shades, events, usecase.SelectorConfig{
		PartnerCode:  cfg.Partner.PartnerCode,
		RedirectBase: cfg.Partner.RedirectBase,
		Weights:      weightsFrom(cfg.Scoring),
	})
	cartService := usecase.NewCartService(carts, catalogStore, profiles, shades, selector.Scorer(), events, usecase.CartConfig{
		PartnerCode:     cfg.Partner.PartnerCode,
		RedirectBase:    cfg.Partner.RedirectBase,
		MaxAlternatives: cfg.Cart.MaxAlternatives,
	})
	profileBuilder := usecase.NewProfileBuilder(profiles, events)

	// 7. Router
	var summarizer domain.EventSummarizer
	if stats != nil {
		summarizer = stats
	}
	handler := httpDelivery.NewHandler(profileBuilder, selector, cartService, catalogStore, summarizer)
	router := httpDelivery.SetupRouter(cfg, handler)

	// 8. Workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.NewCatalogWatcher(catalogStore, cfg.Catalog.ReloadInterval).Start(ctx)

	// 9. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 10. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

func setupLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var nopCloser = closerFunc(func() error { return nil })

// newCartStore picks the cart backend named by cart.persistence
func newCartStore(cfg config.CartConfig) (domain.CartStore, io.Closer, error) {
	switch cfg.Persistence {
	case config.PersistenceFile:
		store, err := cartstore.NewFileStore(cfg.FileDir)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("dir", cfg.FileDir).Msg("Cart persistence: file")
		return store, nopCloser, nil
	case config.PersistenceExternal:
		store, err := cartstore.NewRedisStore(cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msg("Cart persistence: redis")
		return store, store, nil
	default:
		store := cartstore.NewMemoryStore(cfg.TTL)
		log.Info().Dur("ttl", cfg.TTL).Msg("Cart persistence: memory")
		return store, store, nil
	}
}

// newAnalyticsSink always logs and aggregates events, and additionally ships
// them to Kafka when brokers are configured. The aggregator is nil when
// analytics is disabled.
func newAnalyticsSink(cfg config.AnalyticsConfig) (domain.AnalyticsSink, *analytics.Aggregator, io.Closer) {
	if !cfg.Enabled {
		log.Info().Msg("Analytics disabled")
		return analytics.Noop{}, nil, nopCloser
	}
	stats := analytics.NewAggregator(cfg.SummaryRetention, cfg.SummaryMaxEvents)
	if len(cfg.KafkaBrokers) == 0 {
		return analytics.Multi{analytics.NewLogSink(), stats}, stats, nopCloser
	}

	kafkaSink := analytics.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.BufferSize)
	log.Info().
		Strs("brokers", cfg.KafkaBrokers).
		Str("topic", cfg.KafkaTopic).
		Msg("Analytics publishing to Kafka")
	return analytics.Multi{analytics.NewLogSink(), stats, kafkaSink}, stats, closerFunc(func() error {
		err := kafkaSink.Close()
		log.Info().
			Int64("dropped", kafkaSink.Dropped()).
			Int64("failed", kafkaSink.Failed()).
			Msg("Analytics sink closed")
		return err
	})
}

func weightsFrom(s config.ScoringConfig) usecase.Weights {
	return usecase.Weights{
		UndertoneMatch:    s.UndertoneMatch,
		UndertoneConflict: s.UndertoneConflict,
		Season:            s.Season,
		Depth:             s.Depth,
		Concern:           s.Concern,
		InStock:           s.InStock,
		Preference:        s.Preference,
	}
}
