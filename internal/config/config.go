// Package config loads pipeline settings from the environment and queue
// definitions from YAML or JSON files.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/fpang/weekly-asset-pipeline/internal/provider"
)

// Config holds settings read from the environment.
type Config struct {
	FALKey         string
	GeminiAPIKey   string
	APIKeySSMParam string

	ProviderBaseURL string
	Timeout         time.Duration
	CostThreshold   float64
	OutputDir       string

	Mirror MirrorConfig
}

// MirrorConfig selects where finished runs are uploaded. An empty Bucket
// disables mirroring; a non-empty Endpoint selects the MinIO client.
type MirrorConfig struct {
	Bucket    string
	Prefix    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Enabled reports whether a bucket is configured.
func (m MirrorConfig) Enabled() bool {
	return m.Bucket != ""
}

// LoadDotEnv loads .env and .env.local when present. Variables already set
// in the process environment win.
func LoadDotEnv() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Failed to load env file")
			continue
		}
		log.Debug().Str("file", name).Msg("Loaded env file")
	}
}

// Load reads the environment and applies defaults.
func Load() Config {
	return Config{
		FALKey:          strings.TrimSpace(os.Getenv("FAL_KEY")),
		GeminiAPIKey:    strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		APIKeySSMParam:  strings.TrimSpace(os.Getenv("ASSETGEN_API_KEY_SSM_PARAM")),
		ProviderBaseURL: getEnv("ASSETGEN_PROVIDER_BASE_URL", provider.DefaultBaseURL),
		Timeout:         time.Second * time.Duration(getEnvInt("ASSETGEN_TIMEOUT_SECONDS", 120)),
		CostThreshold:   getEnvFloat("ASSETGEN_COST_THRESHOLD", 0.20),
		OutputDir:       getEnv("ASSETGEN_OUTPUT_DIR", "output"),
		Mirror: MirrorConfig{
			Bucket:    strings.TrimSpace(os.Getenv("ASSETGEN_S3_BUCKET")),
			Prefix:    getEnv("ASSETGEN_S3_PREFIX", "weekly-assets"),
			Endpoint:  strings.TrimSpace(os.Getenv("ASSETGEN_S3_ENDPOINT")),
			Region:    getEnv("ASSETGEN_S3_REGION", "us-east-1"),
			AccessKey: firstNonEmpty(os.Getenv("ASSETGEN_S3_ACCESS_KEY"), os.Getenv("MINIO_ROOT_USER")),
			SecretKey: firstNonEmpty(os.Getenv("ASSETGEN_S3_SECRET_KEY"), os.Getenv("MINIO_ROOT_PASSWORD")),
			UseSSL:    getEnvBool("ASSETGEN_S3_USE_SSL", true),
		},
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && i > 0 {
			return i
		}
		log.Warn().Str("key", key).Str("value", v).Msg("Ignoring invalid integer setting")
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f > 0 {
			return f
		}
		log.Warn().Str("key", key).Str("value", v).Msg("Ignoring invalid number setting")
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
