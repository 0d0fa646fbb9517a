// Package config loads runtime settings from an optional local .env file
// and SENTINEL_-prefixed environment variables. Every setting has a
// built-in default; a missing variable is never an error.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Prefix namespaces every environment variable this process reads.
const Prefix = "SENTINEL_"

// Config holds every tunable the engine reads at startup.
type Config struct {
	RedisURL     string
	RedisChannel string
	RedisLogKey  string

	PacerInterval         time.Duration
	EdgarInterval         time.Duration
	FmcsaInterval         time.Duration
	CourtListenerInterval time.Duration

	PacerBaseURL         string
	EdgarBaseURL         string
	FmcsaBaseURL         string
	CourtListenerBaseURL string

	UserAgent string

	DedupExpectedItems    uint
	DedupFPRate           float64
	DedupRotationInterval time.Duration
	DedupCacheCapacity    int

	BreakerFailureThreshold int
	BreakerResetTimeout     time.Duration
	BreakerSuccessThreshold int

	MetricsPort int

	MinConfidence float64

	LogLevel string
}

// Load reads an optional .env file from the working directory, then the
// environment, falling back to the built-in default for anything unset.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		RedisURL:     getString("REDIS_URL", "redis://localhost:6379"),
		RedisChannel: getString("REDIS_CHANNEL", "freight:signals"),
		RedisLogKey:  getString("REDIS_LOG_KEY", "freight:signals:log"),

		PacerInterval:         getDuration("PACER_POLL_INTERVAL", 60*time.Second),
		EdgarInterval:         getDuration("EDGAR_POLL_INTERVAL", 120*time.Second),
		FmcsaInterval:         getDuration("FMCSA_POLL_INTERVAL", 300*time.Second),
		CourtListenerInterval: getDuration("COURTLISTENER_POLL_INTERVAL", 180*time.Second),

		PacerBaseURL:         getString("PACER_BASE_URL", "https://ecf.uscourts.gov"),
		EdgarBaseURL:         getString("EDGAR_BASE_URL", "https://efts.sec.gov"),
		FmcsaBaseURL:         getString("FMCSA_BASE_URL", "https://mobile.fmcsa.dot.gov/qc/services"),
		CourtListenerBaseURL: getString("COURTLISTENER_BASE_URL", "https://www.courtlistener.com"),

		UserAgent: getString("USER_AGENT", "freightsignal-sentinel/1.0 ops@freightsignal.example"),

		DedupExpectedItems:    uint(getInt("DEDUP_EXPECTED_ITEMS", 100000)),
		DedupFPRate:           getFloat("DEDUP_FP_RATE", 0.01),
		DedupRotationInterval: getDuration("DEDUP_ROTATION_INTERVAL", 24*time.Hour),
		DedupCacheCapacity:    getInt("DEDUP_CACHE_CAPACITY", 10000),

		BreakerFailureThreshold: getInt("BREAKER_FAILURE_THRESHOLD", 5),
		BreakerResetTimeout:     getDuration("BREAKER_RESET_TIMEOUT", 60*time.Second),
		BreakerSuccessThreshold: getInt("BREAKER_SUCCESS_THRESHOLD", 2),

		MetricsPort: getInt("METRICS_PORT", 9090),

		MinConfidence: getFloat("MIN_CONFIDENCE", 0.3),

		LogLevel: getString("LOG_LEVEL", "info"),
	}
}

func getString(key, def string) string {
	if v := os.Getenv(Prefix + key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(Prefix + key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v := os.Getenv(Prefix + key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(Prefix + key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Bare numbers are treated as seconds so .env files can say
		// SENTINEL_PACER_POLL_INTERVAL=60 without a unit suffix.
		if n, nerr := strconv.Atoi(v); nerr == nil {
			return time.Duration(n) * time.Second
		}
		return def
	}
	return d
}
