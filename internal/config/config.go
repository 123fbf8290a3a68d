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

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	StorageLocal = "local"
	StorageS3    = "s3"

	// MaxGenerationTokens bounds every per-stage budget; no supported model
	// generates more in one response.
	MaxGenerationTokens = 65536
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	LLM      LLMConfig
	Gemini   GeminiConfig
	OpenAI   OpenAIConfig
	Qdrant   QdrantConfig
	Storage  StorageConfig
	S3       S3Config
	Worker   WorkerConfig
	Notify   NotifyConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	RequestTimeout time.Duration
}

type LogConfig struct {
	JSON  bool
	Debug bool
}

type StoreConfig struct {
	Backend string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// LLMConfig carries the per-stage generation budgets.
type LLMConfig struct {
	Provider              string
	Timeout               time.Duration
	SkillMaxTokens        int32
	EvaluationMaxTokens   int32
	RatingMaxTokens       int32
	EvaluationTemperature float32
	RatingTemperature     float32
	IncludeImprovedResume bool
}

type GeminiConfig struct {
	APIKey     string
	Model      string
	EmbedModel string
}

// OpenAIConfig.MaxOutputTokens caps every stage budget for the chosen model;
// gpt-4o stops at 16384.
type OpenAIConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	MaxOutputTokens int32
}

// QdrantConfig is optional; an empty URL disables guideline retrieval.
type QdrantConfig struct {
	URL           string
	APIKey        string
	Collection    string
	GuidanceLimit int
}

type StorageConfig struct {
	Backend     string
	UploadPath  string
	MaxFileSize int64
}

type S3Config struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

type WorkerConfig struct {
	Concurrency       int
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
}

// NotifyConfig is optional; an empty URL disables status events.
type NotifyConfig struct {
	RabbitMQURL string
	Exchange    string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "3000"),
			Env:            getEnv("ENV", "development"),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", "5m"),
		},
		Log: LogConfig{
			JSON:  getEnvAsBool("LOG_JSON", false),
			Debug: getEnvAsBool("LOG_DEBUG", false),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "resume_evaluator"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("REDIS_TTL", "24h"),
		},
		LLM: LLMConfig{
			Provider:              strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
			Timeout:               getEnvAsDuration("PROVIDER_TIMEOUT", "120s"),
			SkillMaxTokens:        int32(getEnvAsInt("SKILL_MAX_TOKENS", 4096)),
			EvaluationMaxTokens:   int32(getEnvAsInt("EVALUATION_MAX_TOKENS", 16384)),
			RatingMaxTokens:       int32(getEnvAsInt("RATING_MAX_TOKENS", 32768)),
			EvaluationTemperature: getEnvAsFloat32("EVALUATION_TEMPERATURE", 0),
			RatingTemperature:     getEnvAsFloat32("RATING_TEMPERATURE", 0.2),
			IncludeImprovedResume: getEnvAsBool("RATING_INCLUDE_IMPROVED_RESUME", true),
		},
		Gemini: GeminiConfig{
			APIKey:     getEnv("GEMINI_API_KEY", ""),
			Model:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbedModel: getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
		},
		OpenAI: OpenAIConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			Model:           getEnv("OPENAI_MODEL", "gpt-4o"),
			BaseURL:         getEnv("OPENAI_BASE_URL", ""),
			MaxOutputTokens: int32(getEnvAsInt("OPENAI_MAX_OUTPUT_TOKENS", 16384)),
		},
		Qdrant: QdrantConfig{
			URL:           getEnv("QDRANT_URL", ""),
			APIKey:        getEnv("QDRANT_API_KEY", ""),
			Collection:    getEnv("QDRANT_COLLECTION", "resume_guidelines"),
			GuidanceLimit: getEnvAsInt("GUIDANCE_LIMIT", 4),
		},
		Storage: StorageConfig{
			Backend:     strings.ToLower(getEnv("STORAGE_BACKEND", StorageLocal)),
			UploadPath:  getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
		},
		S3: S3Config{
			Bucket:    getEnv("S3_BUCKET", ""),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			Region:    getEnv("S3_REGION", "auto"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
		},
		Worker: WorkerConfig{
			Concurrency:       getEnvAsInt("WORKER_CONCURRENCY", 3),
			RetryMaxAttempts:  getEnvAsInt("RETRY_MAX_ATTEMPTS", 1),
			RetryInitialDelay: getEnvAsDuration("RETRY_INITIAL_DELAY", "2s"),
		},
		Notify: NotifyConfig{
			RabbitMQURL: getEnv("RABBITMQ_URL", ""),
			Exchange:    getEnv("RABBITMQ_EXCHANGE", "analysis_updates"),
		},
	}
}

// Validate reports configuration that would make the service unusable.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini:
		if strings.TrimSpace(c.Gemini.APIKey) == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider %q", c.LLM.Provider)
		}
	case ProviderOpenAI:
		if strings.TrimSpace(c.OpenAI.APIKey) == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider %q", c.LLM.Provider)
		}
		if err := checkBudget("OPENAI_MAX_OUTPUT_TOKENS", c.OpenAI.MaxOutputTokens); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}

	switch c.Store.Backend {
	case StoreMemory, StoreRedis, StorePostgres:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}

	switch c.Storage.Backend {
	case StorageLocal:
	case StorageS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for storage backend %q", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}

	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}

	budgets := []struct {
		key   string
		value int32
	}{
		{"SKILL_MAX_TOKENS", c.LLM.SkillMaxTokens},
		{"EVALUATION_MAX_TOKENS", c.LLM.EvaluationMaxTokens},
		{"RATING_MAX_TOKENS", c.LLM.RatingMaxTokens},
	}
	for _, b := range budgets {
		if err := checkBudget(b.key, b.value); err != nil {
			return err
		}
	}

	return nil
}

func checkBudget(key string, value int32) error {
	if value <= 0 || value > MaxGenerationTokens {
		return fmt.Errorf("%s must be between 1 and %d, got %d", key, MaxGenerationTokens, value)
	}
	return nil
}

// GuidanceEnabled reports whether Qdrant retrieval can run. Embeddings come
// from Gemini, so a Gemini key is needed even when OpenAI generates text.
func (c *Config) GuidanceEnabled() bool {
	return c.Qdrant.URL != "" && c.Gemini.APIKey != ""
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 32); err == nil {
		return float32(value)
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
