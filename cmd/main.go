package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/LOGQS/coursegen-backend/internal/clients/gcp"
	"github.com/LOGQS/coursegen-backend/internal/clients/redis"
	"github.com/LOGQS/coursegen-backend/internal/db"
	"github.com/LOGQS/coursegen-backend/internal/handlers"
	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/observability"
	"github.com/LOGQS/coursegen-backend/internal/repos"
	"github.com/LOGQS/coursegen-backend/internal/server"
	"github.com/LOGQS/coursegen-backend/internal/services"
	"github.com/LOGQS/coursegen-backend/internal/session"
	"github.com/LOGQS/coursegen-backend/internal/sse"
	"github.com/LOGQS/coursegen-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing (no-op unless OTEL_ENABLED)
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "coursegen-backend",
		Environment: os.Getenv("APP_ENV"),
	})
	if shutdownOTel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(ctx)
		}()
	}

	// Database (archival only; generation runs fine without it)
	var runRepo repos.GenerationRunRepo
	dbService, err := db.NewService(log)
	if err != nil {
		log.Warn("Database init failed, run archival disabled", "error", err)
	} else {
		if err := dbService.AutoMigrateAll(); err != nil {
			log.Warn("Auto migration failed, run archival disabled", "error", err)
		} else {
			runRepo = repos.NewGenerationRunRepo(dbService.DB(), log)
		}
	}

	// SSE
	log.Info("Setting up SSE hub now...")
	sseHub := sse.NewSSEHub(log)

	emitters := []services.SSEEmitter{&services.HubEmitter{Hub: sseHub}}
	sseBus, err := redis.NewSSEBus(log)
	if err != nil {
		log.Warn("Redis SSE bus unavailable, events stay local", "error", err)
	} else {
		emitters = append(emitters, &services.RedisEmitter{Bus: sseBus})
		if err := sseBus.StartForwarder(context.Background(), func(m sse.SSEMessage) {
			sseHub.Broadcast(m)
		}); err != nil {
			log.Warn("Could not start redis SSE forwarder", "error", err)
		}
	}
	notifier := services.NewGenerationNotifier(&services.MultiEmitter{Emitters: emitters})

	// Services
	log.Info("Setting up Services from main...")
	openaiClient, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Error("Could not init OpenAIClient", "error", err)
		os.Exit(1)
	}
	visionClient, err := gcp.NewVision(log)
	if err != nil {
		log.Warn("Could not init Vision client, image scoring disabled", "error", err)
	}
	speechClient, err := gcp.NewSpeech(log)
	if err != nil {
		log.Warn("Could not init Speech client, transcription disabled", "error", err)
	}

	registry := session.NewRegistry(log)
	store := services.NewFileStore(log)
	themes := services.NewThemeService(log)
	structureGen := services.NewStructureGenerator(log, openaiClient)
	planner := services.NewPlanBuilder(log, openaiClient)
	slideGen := services.NewSlideContentGenerator(log, openaiClient)
	imageResolver := services.NewImageResolver(log, openaiClient, visionClient)
	presentationBuilder := services.NewPresentationBuilder(log)
	previewRenderer := services.NewSlidePreviewRenderer(log)
	audioSynth := services.NewAudioSynthesizer(log, openaiClient)

	generationService := services.NewGenerationService(
		log,
		registry,
		notifier,
		structureGen,
		planner,
		slideGen,
		imageResolver,
		presentationBuilder,
		previewRenderer,
		audioSynth,
		store,
		themes,
		runRepo,
	)

	// Handlers
	log.Info("Setting up handlers from main...")
	generationHandler := handlers.NewGenerationHandler(generationService, registry)
	courseHandler := handlers.NewCourseHandler(store)
	speechHandler := handlers.NewSpeechHandler(speechClient)
	sseHandler := handlers.NewSSEHandler(sseHub)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		GenerationHandler: generationHandler,
		CourseHandler:     courseHandler,
		SpeechHandler:     speechHandler,
		SSEHandler:        sseHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
