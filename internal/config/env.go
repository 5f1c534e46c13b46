package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	StorageDir   string
	OCRPollEvery time.Duration
	OCRMaxWait   time.Duration
	Port         string
}

// LoadConfig loads the environment variables and returns the config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("S3_BUCKET_NAME", "docuflow-docs"),
		StorageDir:   getEnv("STORAGE_DIR", "./storage"),
		OCRPollEvery: getEnvDuration("OCR_POLL_INTERVAL", time.Second),
		OCRMaxWait:   getEnvDuration("OCR_MAX_WAIT", 10*time.Minute),
		Port:         getEnv("PORT", "8080"),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// DocumentsPath is the root folder of per-source-type document subfolders.
func (c *Config) DocumentsPath() string {
	return filepath.Join(c.StorageDir, "documents")
}

// VectorCachePath holds one {digest}.json per cached document.
func (c *Config) VectorCachePath() string {
	return filepath.Join(c.StorageDir, "vector-cache")
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}
