package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/hexlabs-dev/assess-go-api/internal/config"
	"github.com/hexlabs-dev/assess-go-api/internal/database"
	"github.com/hexlabs-dev/assess-go-api/internal/handler"
	"github.com/hexlabs-dev/assess-go-api/internal/middleware"
	"github.com/hexlabs-dev/assess-go-api/internal/models"
	"github.com/hexlabs-dev/assess-go-api/internal/repository"
	"github.com/hexlabs-dev/assess-go-api/internal/router"
	"github.com/hexlabs-dev/assess-go-api/internal/service"
	"github.com/hexlabs-dev/assess-go-api/pkg/ai"
	cloud "github.com/hexlabs-dev/assess-go-api/pkg/cloudinary"
	"github.com/hexlabs-dev/assess-go-api/pkg/extract"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Module{},
		&models.Student{},
		&models.Assignment{},
		&models.Submission{},
		&models.ReferenceSolution{},
		&models.StudentSubmissionMirror{},
		&models.ProjectAssignmentRecord{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, grading events disabled")
		} else {
			defer natsConn.Drain()
		}
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	grader, err := buildGrader(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create ai grader: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	moduleRepo := repository.NewModuleRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	referenceRepo := repository.NewReferenceSolutionRepository(db)
	mirrorRepo := repository.NewMirrorRepository(db)

	extractor := extract.NewPDFExtractor(logger)
	suggest := extract.RandomScoreSuggester(rand.New(rand.NewSource(time.Now().UnixNano())))

	events := service.NewNATSGradingPublisher(natsConn, "", logger)
	reconciler := service.NewSubmissionReconciler(submissionRepo, mirrorRepo, events, logger)

	referenceService := service.NewReferenceIngestService(referenceRepo, assignmentRepo, submissionRepo, extractor, uploader, suggest, validate, logger)
	gradingService := service.NewAIGradingService(submissionRepo, assignmentRepo, referenceRepo, grader, reconciler, cfg.GradingTimeout, logger)
	listService := service.NewSubmissionListService(submissionRepo, studentRepo, assignmentRepo, moduleRepo, referenceRepo, mirrorRepo, redisClient, cfg.ListCacheTTL, logger)

	referenceHandler := handler.NewReferenceHandler(referenceService, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, logger)
	listHandler := handler.NewSubmissionListHandler(listService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    12 * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ReferenceHandler:      referenceHandler,
		GradingHandler:        gradingHandler,
		SubmissionListHandler: listHandler,
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildGrader(cfg config.Config, logger zerolog.Logger) (ai.Grader, error) {
	switch cfg.AIProvider {
	case "anthropic":
		return ai.NewAnthropicGrader(ai.AnthropicConfig{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.AIModel,
			Logger: logger,
		})
	default:
		return ai.NewOpenAIGrader(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.AIModel,
			Logger: logger,
		})
	}
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
