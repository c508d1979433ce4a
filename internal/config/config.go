package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	S3Bucket    string
	AWSRegion   string
	S3Endpoint  string
	// S3PublicURL replaces the virtual-hosted bucket URL in stored cover
	// links, e.g. a CDN or a LocalStack endpoint.
	S3PublicURL string
	RabbitMQURL string

	JWTSecret          string
	TokenTTL           time.Duration
	AdminEmails        []string
	CORSAllowedOrigins []string
}

func Load() *Config {
	loadDotenv()

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", "sqlite:journal.db"),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3PublicURL:        getEnv("S3_PUBLIC_URL", ""),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		TokenTTL:           getDuration("TOKEN_TTL", 24*time.Hour),
		AdminEmails:        getList("ADMIN_EMAILS"),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS"),
	}
}

// ClientConfig is what the admin CLI needs to reach a running API.
type ClientConfig struct {
	APIURL string
	Token  string
}

func LoadClient() *ClientConfig {
	loadDotenv()

	return &ClientConfig{
		APIURL: getEnv("JOURNAL_API_URL", "http://localhost:8080"),
		Token:  getEnv("JOURNAL_TOKEN", ""),
	}
}

func loadDotenv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Default().Warn("loading .env failed", "error", err)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Default().Warn("invalid duration, using default", "key", key, "value", value)
		return fallback
	}
	return d
}

// getList splits a comma-separated variable, dropping blanks.
func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
