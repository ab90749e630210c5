package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Telegram TelegramConfig
	Ai       AIConfig
	Library  LibraryConfig
	State    StateConfig
}

type AppConfig struct {
	Port        string
	Environment string
	LogFilePath string
	RedisURL    string
}

type TelegramConfig struct {
	BotToken string
	// WebhookSecret, when set, must match the secret token header Telegram
	// attaches to webhook requests. Empty disables the check.
	WebhookSecret string
}

type AIConfig struct {
	// GeminiAPIKeys is tried in order; the first key is the primary one.
	GeminiAPIKeys []string
	GeminiModel   string
}

type LibraryConfig struct {
	BooksDir  string
	UploadDir string
}

type StateConfig struct {
	Dir string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Port:        getEnv("APP_PORT", "3000"),
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "app.log"),
			RedisURL:    getEnv("REDIS_URL", ""),
		},
		Telegram: TelegramConfig{
			BotToken:      getEnv("TELEGRAM_TOKEN", ""),
			WebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
		},
		Ai: AIConfig{
			GeminiAPIKeys: getEnvAsList("GEMINI_API_KEYS"),
			GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		},
		Library: LibraryConfig{
			BooksDir:  getEnv("BOOKS_DIR", "books"),
			UploadDir: getEnv("UPLOAD_DIR", os.TempDir()),
		},
		State: StateConfig{
			Dir: getEnv("STATE_DIR", "/tmp/bot_states"),
		},
	}

	// Both credentials are required; degraded operation is not supported.
	if cfg.Telegram.BotToken == "" {
		log.Fatal("[FATAL] TELEGRAM_TOKEN is not set")
	}
	if len(cfg.Ai.GeminiAPIKeys) == 0 {
		log.Fatal("[FATAL] GEMINI_API_KEYS is not set")
	}
	log.Printf("[INFO] Loaded %d Gemini API key(s)", len(cfg.Ai.GeminiAPIKeys))

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma-separated env var, dropping empty entries.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
