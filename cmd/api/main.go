package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/resume-evaluator/internal/bootstrap"
	"alfredoptarigan/resume-evaluator/internal/config"
	"alfredoptarigan/resume-evaluator/internal/handlers"
	"alfredoptarigan/resume-evaluator/internal/logger"
	"alfredoptarigan/resume-evaluator/internal/repositories"
	"alfredoptarigan/resume-evaluator/internal/services"
)

func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		zl.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	analysisRepo, docRepo := initStores(cfg, zl)

	storageService, err := initStorage(ctx, cfg)
	if err != nil {
		zl.Fatal("failed to initialize storage", zap.Error(err))
	}
	if err := storageService.EnsureReady(ctx); err != nil {
		zl.Fatal("storage not ready", zap.Error(err))
	}

	providers, err := bootstrap.NewProviders(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to initialize model provider", zap.Error(err))
	}

	guidance, err := bootstrap.NewGuidance(cfg, providers.Embedder, zl)
	if err != nil {
		zl.Warn("guidance retrieval disabled", zap.Error(err))
		guidance = nil
	}

	pipeline := bootstrap.NewPipeline(cfg, providers.Text, guidance, analysisRepo, zl)
	jobAnalyzer := bootstrap.NewJobAnalyzer(cfg, providers.Text, zl)
	resumeAnalyzer := bootstrap.NewResumeAnalyzer(cfg, providers.Text, zl)

	notifier := services.NewNoopNotifier()
	if cfg.Notify.RabbitMQURL != "" {
		notifier, err = services.NewAMQPNotifier(cfg.Notify.RabbitMQURL, cfg.Notify.Exchange, zl)
		if err != nil {
			zl.Fatal("failed to initialize notifier", zap.Error(err))
		}
	}
	defer notifier.Close()

	worker := services.NewWorker(
		analysisRepo,
		pipeline,
		notifier,
		services.RetryPolicy{
			MaxAttempts:  cfg.Worker.RetryMaxAttempts,
			InitialDelay: cfg.Worker.RetryInitialDelay,
		},
		cfg.Worker.Concurrency,
		zl,
	)
	worker.Start(ctx)

	uploadHandler := handlers.NewUploadHandler(
		docRepo,
		storageService,
		services.NewTextExtractor(),
		resumeAnalyzer,
		cfg.Storage.MaxFileSize,
		zl,
	)
	evaluateHandler := handlers.NewEvaluationHandler(
		pipeline,
		docRepo,
		worker,
		cfg.Server.RequestTimeout,
	)
	resultHandler := handlers.NewResultHandler(pipeline)
	jobHandler := handlers.NewJobHandler(jobAnalyzer)
	resumeHandler := handlers.NewResumeHandler(docRepo, resumeAnalyzer, jobAnalyzer)

	app := fiber.New(fiber.Config{
		AppName:      "Resume Evaluator API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 30*time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize),
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"provider": providers.Text.Name(),
			"store":    cfg.Store.Backend,
			"guidance": guidance != nil,
			"time":     time.Now(),
		})
	})

	api.Post("/upload-resume", uploadHandler.HandleUpload)
	api.Get("/documents/:id", uploadHandler.HandleGetDocument)
	api.Get("/documents/:id/file", uploadHandler.HandleGetDocumentFile)
	api.Post("/evaluate-resume", evaluateHandler.HandleEvaluate)
	api.Post("/analyses", evaluateHandler.HandleSubmit)
	api.Get("/analyses/:id", resultHandler.HandleGetResult)
	api.Post("/analyze-job-description", jobHandler.HandleAnalyze)
	api.Post("/compare-resume-job", resumeHandler.HandleCompare)
	api.Post("/quick-resume-rating", resumeHandler.HandleQuickRating)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Resume Evaluator API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/upload-resume",
				"GET /api/v1/documents/:id",
				"GET /api/v1/documents/:id/file",
				"POST /api/v1/evaluate-resume",
				"POST /api/v1/analyses",
				"GET /api/v1/analyses/:id",
				"POST /api/v1/analyze-job-description",
				"POST /api/v1/compare-resume-job",
				"POST /api/v1/quick-resume-rating",
			},
		})
	})

	go func() {
		<-ctx.Done()
		zl.Info("shutting down server")
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			zl.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zl.Info("server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		zl.Fatal("failed to start server", zap.Error(err))
	}
}

func initStores(cfg *config.Config, zl *zap.Logger) (repositories.AnalysisRepository, repositories.DocumentRepository) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		db, err := config.InitDatabase(cfg, zl)
		if err != nil {
			zl.Fatal("failed to initialize database", zap.Error(err))
		}
		return repositories.NewAnalysisRepository(db), repositories.NewDocumentRepository(db)
	case config.StoreRedis:
		client, err := config.InitRedis(cfg, zl)
		if err != nil {
			zl.Fatal("failed to initialize redis", zap.Error(err))
		}
		return repositories.NewRedisAnalysisRepository(client, cfg.Redis.TTL), repositories.NewMemoryDocumentRepository()
	default:
		zl.Info("using in-memory analysis store; results do not survive restart")
		return repositories.NewMemoryAnalysisRepository(), repositories.NewMemoryDocumentRepository()
	}
}

func initStorage(ctx context.Context, cfg *config.Config) (services.StorageService, error) {
	if cfg.Storage.Backend == config.StorageS3 {
		return services.NewS3StorageService(ctx, services.S3Options{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
	}
	return services.NewLocalStorageService(cfg.Storage.UploadPath), nil
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
