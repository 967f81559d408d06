package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port               string
	CORSAllowOrigin    []string
	ObjectStoreType    string
	LocalStoreDir      string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	SSEKMSKeyID        string
	DatabaseURL        string
	Env                string
	ModelDir           string
	TrainingSnapshot   string
	ModelRegistryPath  string
	MaxUploadMB        int
	SQSQueueURL        string
	WorkerPollInterval int
	WorkerConcurrency  int
	VisibilitySeconds  int
	ShutdownSeconds    int
}

// Load reads configuration from .env files, an optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing order of precedence.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	file, err := loadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Printf("config file ignored: %v", err)
	}
	return fromEnv(file)
}

func fromEnv(file fileConfig) Config {
	env := normalizeEnv(getEnv("ENV", def(file.Env, "dev")))
	dbURL := getEnv("DATABASE_URL", file.Database.URL)

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	origins := def(strings.Join(file.Server.CORSAllowOrigins, ","), "http://localhost:5173")
	modelDir := getEnv("CV_MODEL_DIR", def(file.Model.Dir, "./ai_models"))

	return Config{
		Port:               getEnv("PORT", def(file.Server.Port, "8080")),
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", origins)),
		ObjectStoreType:    normalizeStoreType(getEnv("OBJECT_STORE", def(file.Storage.Type, "local"))),
		LocalStoreDir:      getEnv("LOCAL_STORE_DIR", def(file.Storage.LocalDir, "./data")),
		AWSRegion:          getEnv("AWS_REGION", file.Storage.Region),
		S3Bucket:           getEnv("S3_BUCKET", file.Storage.Bucket),
		S3Prefix:           getEnv("S3_PREFIX", file.Storage.Prefix),
		SSEKMSKeyID:        getEnv("SSE_KMS_KEY_ID", file.Storage.KMSKeyID),
		DatabaseURL:        dbURL,
		Env:                env,
		ModelDir:           modelDir,
		TrainingSnapshot:   getEnv("CV_TRAINING_SNAPSHOT", def(file.Model.Snapshot, "./data/training_data.csv")),
		ModelRegistryPath:  getEnv("CV_MODEL_REGISTRY", def(file.Model.Registry, filepath.Join(modelDir, "registry.db"))),
		MaxUploadMB:        getEnvInt("MAX_UPLOAD_MB", defInt(file.Server.MaxUploadMB, 10)),
		SQSQueueURL:        getEnv("SQS_QUEUE_URL", file.Worker.QueueURL),
		WorkerPollInterval: getEnvInt("WORKER_POLL_SECONDS", defInt(file.Worker.PollSeconds, 5)),
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", defInt(file.Worker.Concurrency, 4)),
		VisibilitySeconds:  getEnvInt("SQS_VISIBILITY_TIMEOUT_SECONDS", defInt(file.Worker.VisibilitySeconds, 1200)),
		ShutdownSeconds:    getEnvInt("WORKER_SHUTDOWN_TIMEOUT_SECONDS", defInt(file.Worker.ShutdownSeconds, 30)),
	}
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			log.Printf("load %s: %v", path, err)
		}
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		log.Printf("config %s invalid int %q", key, raw)
		return def
	}
	return val
}

func def(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}

func defInt(val, fallback int) int {
	if val <= 0 {
		return fallback
	}
	return val
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
