package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration read from environment variables.
type Config struct {
	Port string `envconfig:"PORT" default:"8080"`
	Env  string `envconfig:"ENV" default:"dev"`

	DatabaseURL string `envconfig:"DATABASE_URL"`

	CORSAllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:5173"`

	ObjectStoreType string `envconfig:"OBJECT_STORE" default:"local"`
	LocalStoreDir   string `envconfig:"LOCAL_STORE_DIR" default:"./data/uploads"`

	S3Region    string `envconfig:"S3_REGION"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Prefix    string `envconfig:"S3_PREFIX" default:"papers/"`
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`

	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"52428800"`

	EmbeddingProvider   string `envconfig:"EMBEDDING_PROVIDER" default:""`
	OllamaBaseURL       string `envconfig:"OLLAMA_BASE_URL" default:"http://localhost:11434"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"nomic-embed-text"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"768"`

	ChunkSize int `envconfig:"CHUNK_SIZE" default:"1200"`

	WorkerPollSchedule string `envconfig:"WORKER_POLL_SCHEDULE" default:"@every 30s"`
	ReaperSchedule     string `envconfig:"REAPER_SCHEDULE" default:"@every 5m"`
	ProcessingTimeout  string `envconfig:"PROCESSING_TIMEOUT" default:"30m"`
	WorkerBatchSize    int    `envconfig:"WORKER_BATCH_SIZE" default:"5"`
}

// Load reads configuration from the environment, best-effort loading a local
// .env file first for dev convenience.
func Load() (Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, err
	}
	c.Env = normalizeEnv(c.Env)
	c.ObjectStoreType = strings.ToLower(strings.TrimSpace(c.ObjectStoreType))
	return c, nil
}

// DevLike reports whether the environment tolerates missing infrastructure
// (falls back to in-memory repositories).
func (c Config) DevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
