package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend selects where the paid queue is persisted.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; DATABASE_URL is required only when the
// postgres backend is selected.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Queue store
	StoreBackend    string
	QueueFile       string
	StoreRetries    int
	StoreRetryDelay time.Duration

	// Database (postgres backend only)
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Catalog and playback
	CatalogFile    string
	PlayerCommand  string
	PlayerArgs     []string
	NowPlayingFile string
	PlayLogFile    string

	// Engine
	PollInterval    time.Duration
	RotationEnabled bool

	// Submission rate limit: maximum requests per second (0 = unlimited)
	SubmitRateLimit int
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		StoreBackend:    getEnv("STORE_BACKEND", BackendFile),
		QueueFile:       getEnv("QUEUE_FILE", "paid_playlist.json"),
		StoreRetries:    getInt("STORE_RETRIES", 5),
		StoreRetryDelay: getDuration("STORE_RETRY_DELAY", 10*time.Millisecond),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 2)),

		CatalogFile:    getEnv("CATALOG_FILE", "catalog.json"),
		PlayerCommand:  getEnv("PLAYER_COMMAND", "cvlc"),
		PlayerArgs:     getList("PLAYER_ARGS", []string{"--play-and-exit"}),
		NowPlayingFile: getEnv("NOW_PLAYING_FILE", "now_playing.txt"),
		PlayLogFile:    getEnv("PLAY_LOG_FILE", "play_history.log"),

		PollInterval:    getDuration("POLL_INTERVAL", 2*time.Second),
		RotationEnabled: getBool("ROTATION_ENABLED", true),

		SubmitRateLimit: getInt("SUBMIT_RATE_LIMIT", 5),
	}

	switch cfg.StoreBackend {
	case BackendFile:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q (want %s or %s)",
			cfg.StoreBackend, BackendFile, BackendPostgres)
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getList(key string, defaultVal []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Fields(v)
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultVal
}
