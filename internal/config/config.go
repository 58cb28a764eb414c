package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Storage    StorageConfig
	Gemini     GeminiConfig
	ElevenLabs ElevenLabsConfig
	Qdrant     QdrantConfig
	Auth       AuthConfig
	Pricing    PricingConfig
	Retry      RetryConfig
	Reconciler ReconcilerConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	PublicURL string
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

type StorageConfig struct {
	Driver      string
	UploadPath  string
	MaxFileSize int64
	S3          S3Config
}

type S3Config struct {
	Region         string
	AccessKey      string
	SecretKey      string
	BaseEndpoint   string
	FilesBucket    string
	PicturesBucket string
	URLExpiry      time.Duration
}

type GeminiConfig struct {
	APIKey     string
	Model      string
	EmbedModel string
}

type ElevenLabsConfig struct {
	APIKey  string
	BaseURL string
	VoiceID string
	ModelID string
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Enabled    bool
}

type AuthConfig struct {
	JWTSecret string
}

type PricingConfig struct {
	Base  float64
	PerKB float64
	Min   float64
	Max   float64
}

type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

type ReconcilerConfig struct {
	Interval               time.Duration
	Grace                  time.Duration
	MaxTranslationAttempts int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	port := getEnv("PORT", "3000")

	return &Config{
		Server: ServerConfig{
			Port:      port,
			Env:       getEnv("ENV", "development"),
			PublicURL: strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:"+port), "/"),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", "postgres"),
			DBName:     getEnv("DB_NAME", "language_for_you"),
			SQLitePath: getEnv("SQLITE_PATH", "./language_for_you.db"),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
			UploadPath:  getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
			S3: S3Config{
				Region:         getEnv("S3_REGION", "us-east-1"),
				AccessKey:      getEnv("S3_ACCESS_KEY", ""),
				SecretKey:      getEnv("S3_SECRET_KEY", ""),
				BaseEndpoint:   getEnv("S3_BASE_ENDPOINT", ""),
				FilesBucket:    getEnv("S3_FILES_BUCKET", "shared_files"),
				PicturesBucket: getEnv("S3_PICTURES_BUCKET", "profile_pictures"),
				URLExpiry:      getEnvAsDuration("S3_URL_EXPIRY", "15m"),
			},
		},
		Gemini: GeminiConfig{
			APIKey:     getEnv("GEMINI_API_KEY", ""),
			Model:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbedModel: getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:  getEnv("ELEVENLABS_API_KEY", ""),
			BaseURL: getEnv("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
			VoiceID: getEnv("ELEVENLABS_VOICE_ID", "EXAVITQu4vr4xnSDxMaL"),
			ModelID: getEnv("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", ""),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "translation_memory"),
			Enabled:    getEnvAsBool("TM_ENABLED", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Pricing: PricingConfig{
			Base:  getEnvAsFloat("PRICE_BASE", 100),
			PerKB: getEnvAsFloat("PRICE_PER_KB", 0.5),
			Min:   getEnvAsFloat("PRICE_MIN", 100),
			Max:   getEnvAsFloat("PRICE_MAX", 999),
		},
		Retry: RetryConfig{
			MaxAttempts:  getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			InitialDelay: getEnvAsDuration("RETRY_INITIAL_DELAY", "2s"),
		},
		Reconciler: ReconcilerConfig{
			Interval:               getEnvAsDuration("RECONCILE_INTERVAL", "5m"),
			Grace:                  getEnvAsDuration("RECONCILE_GRACE", "10m"),
			MaxTranslationAttempts: getEnvAsInt("TRANSLATION_MAX_ATTEMPTS", 5),
		},
	}
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.Database.Driver)
	}

	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.S3.FilesBucket == "" || c.Storage.S3.PicturesBucket == "" {
			return fmt.Errorf("S3_FILES_BUCKET and S3_PICTURES_BUCKET are required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER: %s", c.Storage.Driver)
	}

	if c.Pricing.Min <= 0 || c.Pricing.Max < c.Pricing.Min {
		return fmt.Errorf("invalid pricing bounds: min=%.2f max=%.2f", c.Pricing.Min, c.Pricing.Max)
	}

	return nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
