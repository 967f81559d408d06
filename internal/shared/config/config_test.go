package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CV_MODEL_DIR", "")
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")

	cfg := fromEnv(fileConfig{})
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %s", cfg.Env)
	}
	if cfg.ModelRegistryPath != filepath.Join("./ai_models", "registry.db") {
		t.Fatalf("unexpected registry path %s", cfg.ModelRegistryPath)
	}
	if cfg.MaxUploadMB != 10 {
		t.Fatalf("expected 10MB upload limit, got %d", cfg.MaxUploadMB)
	}
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("env: staging\nserver:\n  port: \"9090\"\nmodel:\n  dir: /models\nstorage:\n  type: s3\n  bucket: cvs\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")
	t.Setenv("ENV", "")
	t.Setenv("CV_MODEL_DIR", "")
	t.Setenv("OBJECT_STORE", "")
	t.Setenv("S3_BUCKET", "")

	cfg := Load()
	if cfg.Port != "7070" {
		t.Fatalf("expected env to override port, got %s", cfg.Port)
	}
	if cfg.Env != "staging" {
		t.Fatalf("expected env from file, got %s", cfg.Env)
	}
	if cfg.ModelDir != "/models" {
		t.Fatalf("expected model dir from file, got %s", cfg.ModelDir)
	}
	if cfg.ObjectStoreType != "s3" || cfg.S3Bucket != "cvs" {
		t.Fatalf("expected s3 store from file, got %s/%s", cfg.ObjectStoreType, cfg.S3Bucket)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := loadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWorkerSettings(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "")
	t.Setenv("SQS_VISIBILITY_TIMEOUT_SECONDS", "")
	t.Setenv("WORKER_SHUTDOWN_TIMEOUT_SECONDS", "bogus")

	var file fileConfig
	file.Worker.Concurrency = 8
	cfg := fromEnv(file)
	if cfg.WorkerConcurrency != 8 {
		t.Fatalf("expected concurrency from file, got %d", cfg.WorkerConcurrency)
	}
	if cfg.VisibilitySeconds != 1200 || cfg.ShutdownSeconds != 30 {
		t.Fatalf("unexpected defaults visibility=%d shutdown=%d", cfg.VisibilitySeconds, cfg.ShutdownSeconds)
	}

	t.Setenv("WORKER_CONCURRENCY", "2")
	if cfg := fromEnv(file); cfg.WorkerConcurrency != 2 {
		t.Fatalf("expected env override, got %d", cfg.WorkerConcurrency)
	}
}
