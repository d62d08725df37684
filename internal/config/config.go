package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	Password string
	DBPath   string

	LogDirectory    string
	LogLevel        string
	StaticDirectory string

	BackendURL          string        // detection backend REST API (/start, /stop, /config)
	BackendWebsocketURL string        // live statistics stream
	BackendAPIKey       string        // optional X-API-Key header
	BackendTimeout      time.Duration

	TelemetryRetry         time.Duration // delay between reconnect attempts
	TelemetryBufferLimit   int           // snapshots kept in memory before a flush
	TelemetryFlushInterval int           // seconds between flushes to the database

	CameraDevice string            // gocv capture device, empty disables local capture
	CamerasPort  int               // UDP port for network cameras
	CameraNames  map[string]string // camera IP -> display name
	CameraFPS    int

	MetricsEnabled bool
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	// a missing .env is normal in production
	_ = godotenv.Load()

	return &Config{
		Port:                   getEnvAsInt("PORT", 8080),
		Password:               getEnv("PASSWORD", "garage"),
		DBPath:                 getEnv("DB_PATH", filepath.Join(".", "data", "garage.db")),
		LogDirectory:           getEnv("LOG_DIR", filepath.Join(".", "logs")),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		StaticDirectory:        getEnv("STATIC_DIR", "static"),
		BackendURL:             getEnv("BACKEND_URL", "http://localhost:8000"),
		BackendWebsocketURL:    getEnv("BACKEND_WS_URL", "ws://localhost:8001"),
		BackendAPIKey:          getEnv("BACKEND_API_KEY", ""),
		BackendTimeout:         getEnvAsDuration("BACKEND_TIMEOUT", 5*time.Second),
		TelemetryRetry:         getEnvAsDuration("TELEMETRY_RETRY", 5*time.Second),
		TelemetryBufferLimit:   getEnvAsInt("TELEMETRY_BUFFER_LIMIT", 60),
		TelemetryFlushInterval: getEnvAsInt("TELEMETRY_FLUSH_INTERVAL", 30),
		CameraDevice:           getEnv("CAMERA_DEVICE", ""),
		CamerasPort:            getEnvAsInt("CAMERAS_PORT", 9000),
		CameraNames:            getEnvAsMap("CAMERA_NAMES", map[string]string{}),
		CameraFPS:              getEnvAsInt("CAMERA_FPS", 30),
		MetricsEnabled:         getEnvAsBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsMap parses "ip=name,ip=name" pairs.
func getEnvAsMap(key string, defaultValue map[string]string) map[string]string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	result := make(map[string]string)
	for _, pair := range strings.Split(value, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			continue
		}
		result[k] = v
	}
	return result
}
