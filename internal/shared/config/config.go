package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	CORSAllowOrigin []string

	DatabaseURL    string
	LedgerBackend  string
	MongoURI       string
	MongoDatabase  string
	RedisURL       string
	ChatRatePerMin float64
	ChatBurst      int

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	AssetBaseURL    string

	ChatAPIKey   string
	ChatBaseURL  string
	ChatModel    string
	ImageAPIKey  string
	ImageBaseURL string
	ImageModel   string
	LLMTimeout   time.Duration

	StripeWebhookSecret string
	StripePricePro      string
	StripePriceProMax   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	ledger := normalizeLedgerBackend(getEnv("LEDGER_BACKEND", ""), dbURL)

	if env == "production" && ledger == "memory" {
		log.Printf("LEDGER_BACKEND=memory in production; usage will not survive restarts")
	}

	chatKey := getEnv("CHAT_API_KEY", os.Getenv("OPENAI_API_KEY"))

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		DatabaseURL:    dbURL,
		LedgerBackend:  ledger,
		MongoURI:       getEnv("MONGO_URI", ""),
		MongoDatabase:  getEnv("MONGO_DATABASE", "assistant"),
		RedisURL:       getEnv("REDIS_URL", ""),
		ChatRatePerMin: getFloat("CHAT_RATE_PER_MIN", 20),
		ChatBurst:      getInt("CHAT_BURST", 10),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		AssetBaseURL:    strings.TrimRight(getEnv("ASSET_BASE_URL", "/api/v1/assets"), "/"),

		ChatAPIKey:   chatKey,
		ChatBaseURL:  getEnv("CHAT_BASE_URL", ""),
		ChatModel:    getEnv("CHAT_MODEL", "gpt-4o-mini"),
		ImageAPIKey:  getEnv("IMAGE_API_KEY", chatKey),
		ImageBaseURL: getEnv("IMAGE_BASE_URL", ""),
		ImageModel:   getEnv("IMAGE_MODEL", "dall-e-3"),
		LLMTimeout:   time.Duration(getInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,

		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePricePro:      getEnv("STRIPE_PRICE_PRO", ""),
		StripePriceProMax:   getEnv("STRIPE_PRICE_PRO_MAX", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", ""),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
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

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

// normalizeLedgerBackend picks postgres when a database is configured and no
// explicit backend is set.
func normalizeLedgerBackend(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "mongo", "mongodb":
		return "mongo"
	case "memory":
		return "memory"
	}
	if dbURL != "" {
		return "postgres"
	}
	return "memory"
}
