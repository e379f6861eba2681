package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"flyergen/internal/adapter/repo"
	"flyergen/internal/generate"
	"flyergen/internal/http/handlers"
	httpapi "flyergen/internal/http/httpapi"
	"flyergen/internal/infra"
	"flyergen/internal/infra/credentials"
	"flyergen/internal/infra/geoip"
	"flyergen/internal/middleware"
	"flyergen/internal/prompt"
	"flyergen/internal/providers/fal"
	"flyergen/internal/providers/huggingface"
	"flyergen/internal/providers/ideogram"
	"flyergen/internal/providers/image"
	"flyergen/internal/providers/stability"
	"flyergen/internal/storage"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	sqlRunner := infra.NewSQLRunner(dbpool, logger)
	credStore := credentials.NewStore(sqlRunner)

	// GeoIP is optional; without a database, locale detection falls back to
	// request headers.
	countryResolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip unavailable, using header-only locale detection")
	}
	var countryLookup middleware.CountryLookup
	if countryResolver != nil {
		countryLookup = countryResolver.CountryCode
	}

	store, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize object storage")
	}
	urlCache := storage.NewURLCache(store, logger, storage.CacheOptions{
		TTL:           cfg.URLCacheTTL,
		SweepInterval: cfg.URLCacheSweep,
	})
	defer urlCache.Close()

	fragmentRepo := repo.NewFragmentRepository(sqlRunner)
	assetRepo := repo.NewFlyerAssetRepository(sqlRunner)

	ideogramClient := ideogram.NewClient(ideogram.Options{
		APIKey: cfg.IdeogramAPIKey,
		Logger: &logger,
	})
	falClient := fal.NewClient(fal.Options{
		APIKey: cfg.FalAPIKey,
		Model:  cfg.FalModel,
		Logger: &logger,
	})
	hfClient := huggingface.NewClient(huggingface.Options{
		APIKey: cfg.HuggingFaceAPIKey,
		Model:  cfg.HuggingFaceModel,
		Logger: &logger,
	})
	stabilityClient := stability.NewClient(stability.Options{
		APIKey: cfg.StabilityAPIKey,
		Logger: &logger,
	})

	source := image.NewSource(map[image.ProviderID]image.Settings{
		image.ProviderIdeogram:    {Enabled: cfg.IdeogramEnabled, APIKey: cfg.IdeogramAPIKey, Priority: cfg.IdeogramPriority},
		image.ProviderFal:         {Enabled: cfg.FalEnabled, APIKey: cfg.FalAPIKey, Priority: cfg.FalPriority},
		image.ProviderHuggingFace: {Enabled: cfg.HuggingFaceEnabled, APIKey: cfg.HuggingFaceAPIKey, Priority: cfg.HuggingFacePriority},
		image.ProviderStability:   {Enabled: cfg.StabilityEnabled, APIKey: cfg.StabilityAPIKey, Priority: cfg.StabilityPriority},
	}, image.ProviderID(cfg.DefaultProvider))

	clients := map[image.ProviderID]handlers.KeyUpdater{
		image.ProviderIdeogram:    ideogramClient,
		image.ProviderFal:         falClient,
		image.ProviderHuggingFace: hfClient,
		image.ProviderStability:   stabilityClient,
	}
	overlayStoredTokens(ctx, credStore, source, clients, logger)

	registry := image.NewRegistry(source,
		image.NewIdeogramGenerator(ideogramClient),
		image.NewFalGenerator(falClient),
		image.NewHuggingFaceGenerator(hfClient),
		image.NewStabilityGenerator(stabilityClient),
	)

	assembler := prompt.NewAssembler(fragmentRepo, cfg.BasePrompt, logger)
	service := generate.NewService(registry, assembler, store, assetRepo, logger)

	app := &handlers.App{
		Logger:          logger,
		Generator:       service,
		Assets:          assetRepo,
		Fragments:       fragmentRepo,
		URLs:            urlCache,
		Registry:        registry,
		Source:          source,
		Credentials:     credStore,
		Clients:         clients,
		SignedURLExpiry: cfg.SignedURLExpiry,
	}

	routerOpts := httpapi.Options{
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   "en",
		CountryLookup:   countryLookup,
	}
	if cfg.StorageBackend == "filesystem" {
		routerOpts.StaticDir = cfg.StorageDir
	}
	router := httpapi.NewRouter(app, routerOpts)

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func buildStore(ctx context.Context, cfg *infra.Config, logger infra.Logger) (storage.ObjectStore, error) {
	if cfg.StorageBackend == "r2" {
		r2, err := storage.NewR2Store(storage.R2Options{
			Endpoint:  cfg.R2Endpoint,
			AccessKey: cfg.R2AccessKeyID,
			SecretKey: cfg.R2SecretAccessKey,
			Bucket:    cfg.R2Bucket,
			UseSSL:    cfg.R2UseSSL,
		})
		if err != nil {
			return nil, err
		}
		ensureCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := r2.EnsureBucket(ensureCtx); err != nil {
			return nil, err
		}
		logger.Info().Str("bucket", cfg.R2Bucket).Msg("object storage ready")
		return r2, nil
	}
	return storage.NewFileStore(cfg.StorageDir, cfg.StorageBaseURL)
}

// overlayStoredTokens applies database-stored provider tokens over the
// environment configuration before the registry is built.
func overlayStoredTokens(ctx context.Context, store *credentials.Store, source *image.Source, clients map[image.ProviderID]handlers.KeyUpdater, logger infra.Logger) {
	for id, client := range clients {
		token, err := store.Token(ctx, string(id))
		if err != nil {
			logger.Warn().Err(err).Str("provider", string(id)).Msg("stored token lookup failed")
			continue
		}
		if token == "" {
			continue
		}
		source.SetAPIKey(id, token)
		client.SetAPIKey(token)
	}
}
