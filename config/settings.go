package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultApiBaseURL     = "https://api.specd.in/sundarienterprises/index.php"
	defaultUploadsBaseURL = "https://api.specd.in/sundarienterprises/uploads"
)

func init() {
	// Load env from .env
	godotenv.Load()
}

// ApiBaseURL is the remote backend every console operation is forwarded to.
//
// Set via env:
// - API_BASE_URL=https://api.example.com/index.php
func ApiBaseURL() string {
	v := strings.TrimSpace(os.Getenv("API_BASE_URL"))
	if v == "" {
		v = defaultApiBaseURL
	}
	return strings.TrimRight(v, "/")
}

// UploadsBaseURL is where check-in photos are served from.
func UploadsBaseURL() string {
	v := strings.TrimSpace(os.Getenv("UPLOADS_BASE_URL"))
	if v == "" {
		v = defaultUploadsBaseURL
	}
	return strings.TrimRight(v, "/")
}

// ApiRateLimitPerMin paces outbound calls to the backend.
func ApiRateLimitPerMin() int {
	return intFromEnv("API_RATE_LIMIT_PER_MIN", 600)
}

func ApiTimeout() time.Duration {
	return time.Duration(intFromEnv("API_TIMEOUT_SECONDS", 30)) * time.Second
}

func DashboardRefreshInterval() time.Duration {
	return time.Duration(intFromEnv("DASHBOARD_REFRESH_MINUTES", 5)) * time.Minute
}

func SessionLifespan() time.Duration {
	return time.Duration(intFromEnv("SESSION_HOUR_LIFESPAN", 12)) * time.Hour
}

func CacheLifespan() time.Duration {
	return time.Duration(intFromEnv("CACHE_LIFESPAN_SECONDS", 300)) * time.Second
}

// ArchiveCheckinPhotos copies composed check-in photos to the storage bucket.
//
// Set via env:
// - ARCHIVE_CHECKIN_PHOTOS=true
func ArchiveCheckinPhotos() bool {
	return EnvBool("ARCHIVE_CHECKIN_PHOTOS") && strings.TrimSpace(os.Getenv("GCS_BUCKET")) != ""
}

func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}

func EnvBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// DashboardUserId is the backend user the shared dashboard poller reads as.
func DashboardUserId() string {
	v := strings.TrimSpace(os.Getenv("DASHBOARD_USER_ID"))
	if v == "" {
		return "1"
	}
	return v
}

// InstanceId names this console process on the invalidation bus.
func InstanceId() string {
	if v := strings.TrimSpace(os.Getenv("INSTANCE_ID")); v != "" {
		return v
	}
	host, _ := os.Hostname()
	return host
}
