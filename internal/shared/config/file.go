package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the optional YAML config file. Every field is optional;
// environment variables take precedence over values set here.
type fileConfig struct {
	Env    string `yaml:"env"`
	Server struct {
		Port             string   `yaml:"port"`
		CORSAllowOrigins []string `yaml:"cors_allow_origins"`
		MaxUploadMB      int      `yaml:"max_upload_mb"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Storage struct {
		Type     string `yaml:"type"`
		LocalDir string `yaml:"local_dir"`
		Region   string `yaml:"region"`
		Bucket   string `yaml:"bucket"`
		Prefix   string `yaml:"prefix"`
		KMSKeyID string `yaml:"kms_key_id"`
	} `yaml:"storage"`
	Model struct {
		Dir      string `yaml:"dir"`
		Snapshot string `yaml:"snapshot"`
		Registry string `yaml:"registry"`
	} `yaml:"model"`
	Worker struct {
		QueueURL          string `yaml:"queue_url"`
		PollSeconds       int    `yaml:"poll_seconds"`
		Concurrency       int    `yaml:"concurrency"`
		VisibilitySeconds int    `yaml:"visibility_seconds"`
		ShutdownSeconds   int    `yaml:"shutdown_seconds"`
	} `yaml:"worker"`
}

func loadFile(path string) (fileConfig, error) {
	var cfg fileConfig
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
