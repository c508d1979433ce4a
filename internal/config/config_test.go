package config

import (
	"slices"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "AWS_REGION", "TOKEN_TTL", "ADMIN_EMAILS", "CORS_ALLOWED_ORIGINS", "S3_BUCKET"} {
		t.Setenv(key, "")
	}
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DatabaseURL != "sqlite:journal.db" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.AWSRegion != "us-east-1" {
		t.Errorf("AWSRegion = %q", cfg.AWSRegion)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v", cfg.TokenTTL)
	}
	if cfg.AdminEmails != nil || cfg.S3Bucket != "" {
		t.Errorf("unexpected values: %+v", cfg)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("ADMIN_EMAILS", " boss@example.com, ,editor@example.com ")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://journal.example.com")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.TokenTTL != 90*time.Minute {
		t.Errorf("TokenTTL = %v", cfg.TokenTTL)
	}
	if !slices.Equal(cfg.AdminEmails, []string{"boss@example.com", "editor@example.com"}) {
		t.Errorf("AdminEmails = %v", cfg.AdminEmails)
	}
	if !slices.Equal(cfg.CORSAllowedOrigins, []string{"https://journal.example.com"}) {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("TOKEN_TTL", "soon")
	if got := Load().TokenTTL; got != 24*time.Hour {
		t.Errorf("TokenTTL = %v", got)
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("JOURNAL_API_URL", "")
	t.Setenv("JOURNAL_TOKEN", "abc")
	cfg := LoadClient()
	if cfg.APIURL != "http://localhost:8080" || cfg.Token != "abc" {
		t.Errorf("got %+v", cfg)
	}
}
