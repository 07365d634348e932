// Package config provides centralized default values for Focal Point
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseFloat(valStr, 64); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%g (default: %g)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

// DatasetConfig holds the fixed sync tuning for one dataset. Values are
// resolved once at boot from the environment and never change afterwards.
type DatasetConfig struct {
	CacheMaxAge      time.Duration // persisted blob older than this is treated as absent
	ActivationDelay  time.Duration // wait before opening a live subscription after a cache hit
	Cooldown         time.Duration // minimum gap between processed deliveries
	HydrationTimeout time.Duration // no first batch within this window becomes an error
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Auth
	JWTSecret     string
	TokenLifetime time.Duration
	TenantAESKey  string

	// Additional CORS origins beyond the localhost defaults
	ExtraAllowedOrigins []string

	// Persistent cache store
	CacheStorePath   string
	CacheKeyPrefix   string
	CacheBlobVersion string

	// Remote document store
	RemoteFeedURL      string
	ReportArchiveURL   string
	ReportArchiveToken string
	ReportArchivePath  string

	// Sessions remote query window
	SessionsWindowPast   time.Duration
	SessionsWindowFuture time.Duration

	// Per-dataset sync tuning
	Sessions  DatasetConfig
	Personnel DatasetConfig
	TimeOff   DatasetConfig
	Reports   DatasetConfig

	// SSE Configuration
	SSEChannelBuffer            int
	SSEHeartbeatIntervalSeconds int

	// Remote store billing rate used for the metrics cost estimate
	ReadCostPerMillion float64

	// Tenant registry
	TenantRegistryPath string

	// Logging
	LogDirectory    string
	LogToFile       bool
	LogJSON         bool
	SlowSyncWarning time.Duration
)

func datasetConfig(prefix string, maxAge time.Duration) DatasetConfig {
	return DatasetConfig{
		CacheMaxAge:      getEnvDuration(prefix+"_CACHE_MAX_AGE", maxAge),
		ActivationDelay:  getEnvDuration(prefix+"_ACTIVATION_DELAY", 5*time.Second),
		Cooldown:         getEnvDuration(prefix+"_COOLDOWN", 2*time.Second),
		HydrationTimeout: getEnvDuration(prefix+"_HYDRATION_TIMEOUT", 30*time.Second),
	}
}

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	// Write timeout stays disabled so SSE streams are not cut off.
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 0)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Auth
	JWTSecret = getEnvString("JWT_SECRET", "focal-point-dev-secret")
	TokenLifetime = getEnvDuration("TOKEN_LIFETIME", 30*24*time.Hour)
	TenantAESKey = getEnvString("TENANT_AES_KEY", "focal-point-dev-key-32-bytes!!!!")

	if origins := getEnvString("EXTRA_ALLOWED_ORIGINS", ""); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				ExtraAllowedOrigins = append(ExtraAllowedOrigins, origin)
			}
		}
	}

	// Persistent cache store
	CacheStorePath = getEnvString("CACHE_STORE_PATH", "data/cache.db")
	CacheKeyPrefix = getEnvString("CACHE_KEY_PREFIX", "focalpoint")
	CacheBlobVersion = getEnvString("CACHE_BLOB_VERSION", "1.3")

	// Remote document store
	RemoteFeedURL = getEnvString("REMOTE_FEED_URL", "ws://localhost:9090/feed")
	ReportArchiveURL = getEnvString("REPORT_ARCHIVE_URL", "")
	ReportArchiveToken = getEnvString("REPORT_ARCHIVE_TOKEN", "")
	ReportArchivePath = getEnvString("REPORT_ARCHIVE_PATH", "data/report_archive.db")

	// Sessions remote query window
	SessionsWindowPast = getEnvDuration("SESSIONS_WINDOW_PAST", 30*24*time.Hour)
	SessionsWindowFuture = getEnvDuration("SESSIONS_WINDOW_FUTURE", 90*24*time.Hour)

	// Per-dataset sync tuning
	Sessions = datasetConfig("SESSIONS", 2*time.Hour)
	Personnel = datasetConfig("PERSONNEL", 24*time.Hour)
	TimeOff = datasetConfig("TIMEOFF", 2*time.Hour)
	Reports = datasetConfig("REPORTS", 6*time.Hour)

	// SSE Configuration
	SSEChannelBuffer = getEnvInt("SSE_CHANNEL_BUFFER", 10)
	SSEHeartbeatIntervalSeconds = getEnvInt("SSE_HEARTBEAT_INTERVAL_SECONDS", 30)

	// Remote store billing rate used for the metrics cost estimate
	ReadCostPerMillion = getEnvFloat("READ_COST_PER_MILLION", 0.36)

	// Tenant registry
	TenantRegistryPath = getEnvString("TENANT_REGISTRY_PATH", "data/tenants.json")

	// Logging
	LogDirectory = getEnvString("LOG_DIRECTORY", "logs")
	LogToFile = getEnvBool("LOG_TO_FILE", false)
	LogJSON = getEnvBool("LOG_JSON", true)
	SlowSyncWarning = getEnvDuration("SLOW_SYNC_WARNING", 250*time.Millisecond)
}
