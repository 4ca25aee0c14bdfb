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
	Port            int
	Password        string
	LogDirectory    string
	StaticDirectory string
	MaxUploadMB     int64

	HistoryBackend string // sqlite, redis or memory
	DBPath         string
	RedisURL       string
	HistoryKey     string

	Recognizer            string // local or remote
	RemoteRecognizerURL   string
	RemoteRecognizerToken string
	RemoteTimeout         time.Duration

	SegmentOnThreshold float64
	Invert             bool // dark digits on a light panel
	UseCLAHE           bool
	RowSplitMode       string // median or gap
	MaxImageDimension  int    // 0 keeps the original size

	CaptureDirectory     string // empty disables archiving unreadable photos
	CaptureBufferLimit   int
	CaptureFlushInterval time.Duration

	TrendK               float64
	TrendMinAbsThreshold float64
	TrendMinPoints       int
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:            getEnvAsInt("PORT", 8080),
		Password:        getEnv("PASSWORD", "bpmonitor"),
		LogDirectory:    getEnv("LOG_DIR", filepath.Join(".", "logs")),
		StaticDirectory: getEnv("STATIC_DIR", "static"),
		MaxUploadMB:     getEnvAsInt64("MAX_UPLOAD_MB", 10),

		HistoryBackend: strings.ToLower(getEnv("HISTORY_BACKEND", "sqlite")),
		DBPath:         getEnv("DB_PATH", filepath.Join(".", "data", "history.db")),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		HistoryKey:     getEnv("HISTORY_KEY", "bp_history_v1"),

		Recognizer:            strings.ToLower(getEnv("RECOGNIZER", "local")),
		RemoteRecognizerURL:   getEnv("REMOTE_RECOGNIZER_URL", ""),
		RemoteRecognizerToken: getEnv("REMOTE_RECOGNIZER_TOKEN", ""),
		RemoteTimeout:         time.Duration(getEnvAsInt("REMOTE_RECOGNIZER_TIMEOUT_SEC", 20)) * time.Second,

		SegmentOnThreshold: getEnvAsFloat("SEGMENT_ON_THRESHOLD", 0.45),
		Invert:             getEnvAsBool("INVERT", true),
		UseCLAHE:           getEnvAsBool("CLAHE", true),
		RowSplitMode:       strings.ToLower(getEnv("ROW_SPLIT_MODE", "median")),
		MaxImageDimension:  getEnvAsInt("MAX_IMAGE_DIM", 0),

		CaptureDirectory:     getEnv("CAPTURE_DIR", ""),
		CaptureBufferLimit:   getEnvAsInt("CAPTURE_BUFFER_LIMIT", 10),
		CaptureFlushInterval: time.Duration(getEnvAsInt("CAPTURE_FLUSH_SEC", 30)) * time.Second,

		TrendK:               getEnvAsFloat("TREND_K", 3.0),
		TrendMinAbsThreshold: getEnvAsFloat("TREND_MIN_ABS_THRESHOLD", 8),
		TrendMinPoints:       getEnvAsInt("TREND_MIN_POINTS", 5),
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
