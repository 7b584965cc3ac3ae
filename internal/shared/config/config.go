package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	LocalStoreDir   string
	DatabaseURL     string
	Env             string
	LogLevel        string
	LogPretty       bool

	// Generative extraction capability (optional; pattern fallback covers absence).
	LLMProvider string
	LLMModel    string

	// Speech recognition capability.
	TranscribeModel  string
	TranscribeLocale string

	// Notification channel. Empty recipient means the channel is unconfigured.
	MailRecipient string
	MailOutboxDir string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	for _, path := range []string{".env", "cmd/.env"} {
		_ = godotenv.Load(path)
	}

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:             getEnv("PORT", "8080"),
		CORSAllowOrigin:  splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		LocalStoreDir:    getEnv("LOCAL_STORE_DIR", "./data"),
		DatabaseURL:      dbURL,
		Env:              env,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogPretty:        env == "dev" || env == "local",
		LLMProvider:      getEnv("LLM_PROVIDER", "openai"),
		LLMModel:         getEnv("LLM_MODEL", ""),
		TranscribeModel:  getEnv("TRANSCRIBE_MODEL", "whisper-1"),
		TranscribeLocale: getEnv("TRANSCRIBE_LOCALE", "fr-FR"),
		MailRecipient:    getEnv("MAIL_RECIPIENT", ""),
		MailOutboxDir:    getEnv("MAIL_OUTBOX_DIR", ""),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
