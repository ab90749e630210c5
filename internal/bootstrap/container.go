package bootstrap

import (
	"log"
	"os"
	"strings"

	"ai-studybot-be/internal/config"
	"ai-studybot-be/internal/controller"
	"ai-studybot-be/internal/pkg/logger"
	"ai-studybot-be/internal/repository/contract"
	"ai-studybot-be/internal/repository/implementation"
	"ai-studybot-be/internal/service"
	"ai-studybot-be/pkg/extract"
	"ai-studybot-be/pkg/gemini"
	"ai-studybot-be/pkg/telegram"
)

type Container struct {
	// Controllers
	BotController controller.IBotController

	// Exposed for graceful shutdown in main.go
	Logger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. State Storage
	// Redis when configured, local files otherwise. Both are re-read on
	// every update, so either backend gives the same conversation behavior.
	var stateRepo contract.IStateRepository
	if cfg.App.RedisURL != "" {
		redisRepo, err := implementation.NewRedisStateRepository(cfg.App.RedisURL, sysLogger)
		if err != nil {
			log.Fatalf("[FATAL] Failed to connect to Redis: %v", err)
		}
		stateRepo = redisRepo
		log.Printf("[INFO] Using State Storage: REDIS")
	} else {
		stateRepo = implementation.NewFileStateRepository(cfg.State.Dir, sysLogger)
		log.Printf("[INFO] Using State Storage: FILE (%s)", cfg.State.Dir)
	}

	// 3. Infrastructure Clients
	extractorRegistry := extract.NewRegistry(sysLogger)
	log.Printf("[INFO] Supported document formats: %s", strings.Join(extractorRegistry.Extensions(), ", "))
	geminiClient := gemini.NewClient(cfg.Ai.GeminiAPIKeys, cfg.Ai.GeminiModel, sysLogger)
	botClient := telegram.NewClient(cfg.Telegram.BotToken)

	if err := os.MkdirAll(cfg.Library.UploadDir, 0o755); err != nil {
		log.Fatalf("[FATAL] Failed to create upload directory: %v", err)
	}

	// 4. Services
	answerService := service.NewAnswerService(stateRepo, extractorRegistry, geminiClient, botClient, sysLogger)
	conversationService := service.NewConversationService(
		botClient,
		stateRepo,
		answerService,
		extractorRegistry,
		cfg.Library.BooksDir,
		cfg.Library.UploadDir,
		sysLogger,
	)

	// 5. Controllers
	botController := controller.NewBotController(conversationService, sysLogger)

	return &Container{
		BotController: botController,
		Logger:        sysLogger,
	}
}
