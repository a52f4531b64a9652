package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	_ "userflow-service/docs"
	"userflow-service/internal/auth"
	"userflow-service/internal/config"
	"userflow-service/internal/conversion"
	"userflow-service/internal/extraction"
	"userflow-service/internal/handlers"
	"userflow-service/internal/imaging"
	"userflow-service/internal/logging"
	"userflow-service/internal/metrics"
	"userflow-service/internal/models"
	"userflow-service/internal/repository"
	"userflow-service/internal/services"
	"userflow-service/internal/services/cache"
	"userflow-service/internal/services/caches"
	"userflow-service/internal/storage"
	"userflow-service/internal/vision"
)

const (
	analysisMemoryBytes = 32 * 1024 * 1024
	analysisDiskBytes   = 256 * 1024 * 1024
	cacheSweepInterval  = 10 * time.Minute
)

// @title User Flow Library API
// @version 1.0
// @BasePath /api
func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}
	cfg := InitConfig()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	m := metrics.New(prometheus.DefaultRegisterer)

	db := ConnectDatabase(cfg)
	repos := repository.NewRepositories(db)

	var blobs services.BlobStore
	if cfg.StorageConfigured() {
		blobs = InitMinIOStore(ctx, cfg)
	} else {
		log.Warn().Msg("object storage not configured, screenshot uploads disabled")
	}

	var (
		verifier  auth.Verifier
		directory auth.UserDirectory
		orgs      auth.OrganizationCreator
	)
	if cfg.ClerkConfigured() {
		clerk := auth.NewClerk(cfg.ClerkSecretKey)
		verifier, directory, orgs = clerk, clerk, clerk
	} else {
		log.Warn().Msg("identity provider not configured, all requests are anonymous")
	}

	var webhooks services.SignatureVerifier
	if cfg.WebhookConfigured() {
		wv, err := auth.NewWebhookVerifier(cfg.ClerkWebhookSecret)
		if err != nil {
			log.Fatal().Err(err).Msg("webhook verifier initialization failed")
		}
		webhooks = wv
	}

	var visionClient services.VisionClient
	if cfg.OpenAIConfigured() {
		visionClient = vision.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel,
			vision.WithBaseURL(cfg.OpenAIBaseURL),
			vision.WithObserver(m),
		)
	}

	analysisCache, closeCache := InitAnalysisCache(ctx, cfg)
	defer closeCache()

	compiler := conversion.NewTypstCompiler(cfg.TypstBinary)
	if !compiler.Available() {
		log.Warn().Str("binary", cfg.TypstBinary).Msg("typst not found, PDF export disabled")
	}

	projectService := services.NewProjectService(repos)
	flowService := services.NewFlowService(repos)
	screenService := services.NewScreenService(repos, services.ScreenServiceConfig{
		Store: blobs,
		Encoding: imaging.Options{
			MaxDimension: cfg.ImageMaxDimension,
			MinDimension: cfg.ImageMinDimension,
			MaxBytes:     cfg.ImageMaxBytes,
			MaxPixels:    cfg.ImageMaxPixels,
		},
		UploadMaxBytes: cfg.UploadMaxBytes,
		ImportLimits: extraction.Limits{
			MaxFiles:     cfg.ImportMaxFiles,
			MaxFileBytes: cfg.UploadMaxBytes,
		},
		Recorder: m,
	})
	commentService := services.NewCommentService(repos, directory)
	hotspotService := services.NewHotspotService(repos)
	analysisService := services.NewAnalysisService(repos, visionClient, analysisCache, m)
	exportService := services.NewExportService(repos, blobs, compiler)
	organizationService := services.NewOrganizationService(orgs, webhooks)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    int(cfg.ImportMaxBytes),
	})
	app.Use(handlers.RequestLogger(m))
	app.Use(auth.Middleware(verifier))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"database": db != nil,
			"storage":  blobs != nil,
			"vision":   visionClient != nil,
		})
	})

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)
	handlers.RegisterRoutes(api, handlers.Handlers{
		Projects:      handlers.NewProjectHandler(projectService, flowService, exportService, cfg.PublicBaseURL),
		Flows:         handlers.NewFlowHandler(flowService, screenService),
		Screens:       handlers.NewScreenHandler(screenService, commentService, hotspotService, analysisService),
		Comments:      handlers.NewCommentHandler(commentService),
		Hotspots:      handlers.NewHotspotHandler(hotspotService),
		Analysis:      handlers.NewAnalysisHandler(analysisService),
		Cache:         handlers.NewCacheHandler(analysisService),
		Organizations: handlers.NewOrganizationHandler(organizationService),
	}, db != nil)

	for _, r := range app.GetRoutes(true) {
		log.Debug().Str("method", r.Method).Str("path", r.Path).Msg("registered route")
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.AppPort).Msg("server listening")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}

func InitConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}
	return cfg
}

// ConnectDatabase opens and migrates the database. It returns nil when the
// database is not configured; the affected routes then answer 500.
func ConnectDatabase(cfg *config.Config) *gorm.DB {
	if !cfg.DatabaseConfigured() {
		log.Warn().Msg("database not configured")
		return nil
	}
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	return db
}

func InitMinIOStore(ctx context.Context, cfg *config.Config) *storage.MinioStore {
	client, err := storage.NewMinioClient(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("MinIO client initialization failed")
	}
	return storage.NewMinioStore(client, cfg)
}

// InitAnalysisCache builds the read-through chain memory, disk, Redis. The
// disk and Redis tiers are optional.
func InitAnalysisCache(ctx context.Context, cfg *config.Config) (*cache.Chain, func()) {
	mem := caches.NewMemoryCache(analysisMemoryBytes, cfg.AnalysisCacheTTL, cacheSweepInterval)
	layers := []cache.CacheLayer{mem}
	closers := []func(){mem.Close}

	if cfg.AnalysisCacheDir != "" {
		disk, err := caches.NewFileSystemCache(cfg.AnalysisCacheDir, analysisDiskBytes, cfg.AnalysisCacheTTL, cacheSweepInterval)
		if err != nil {
			log.Warn().Err(err).Str("dir", cfg.AnalysisCacheDir).Msg("disk cache disabled")
		} else {
			layers = append(layers, disk)
			closers = append(closers, disk.Close)
		}
	}

	if cfg.RedisConfigured() {
		client, err := storage.NewRedisClient(ctx, cfg.RedisHost, cfg.RedisPort)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, analysis cache is local only")
		} else {
			layers = append(layers, caches.NewRedisCache(client, "userflow:", cfg.AnalysisCacheTTL))
			closers = append(closers, func() { _ = client.Close() })
		}
	}

	return cache.NewChain(layers...), func() {
		for _, c := range closers {
			c()
		}
	}
}
