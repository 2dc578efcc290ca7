// Package config loads the batch engine's configuration surface (spec.md §6)
// from the environment, following the teacher's .env-then-environment
// precedence (github.com/joho/godotenv), with a CLI-supplied data directory
// override taking the highest precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the batch engine's full configuration surface.
type Config struct {
	// Ambient
	DataDir  string
	Port     int
	DevMode  bool
	LogLevel string

	// Market-data provider
	AlphaVantageAPIKeys string
	ProviderBatchSize   int
	ProviderTimeoutSecs int

	// Object storage (R2) for backup/restore
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string

	// Batch engine tunables — names match spec.md §6 verbatim.
	BatchV2Enabled                      bool
	MarketBetaWindowDays                int
	MinRegressionDays                   int
	SpreadWindowDays                    int
	SpreadMinDays                       int
	BetaCap                             float64
	BetaConfidence                      float64
	RidgeLambda                         float64
	CorrelationWindowDays               int
	CorrMinPairObs                      int
	StressCorrClampMin                  float64
	StressCorrClampMax                  float64
	SnapshotPlaceholderGraceHours       int
	OrchestratorMaxPortfolioConcurrency int
}

// Load reads configuration from a ".env" file (if present) and the process
// environment. An optional positional dataDir argument, if non-empty,
// overrides TRADER_DATA_DIR / DATA_DIR.
func Load(dataDirOverride ...string) (*Config, error) {
	_ = godotenv.Load() // optional; missing .env is not an error

	dataDir := getEnv("TRADER_DATA_DIR", getEnv("DATA_DIR", "/home/arduino/data"))
	for _, override := range dataDirOverride {
		if override != "" {
			dataDir = override
		}
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Config{
		DataDir:  absDataDir,
		Port:     getEnvInt("GO_PORT", 8001),
		DevMode:  getEnvBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AlphaVantageAPIKeys: getEnv("ALPHAVANTAGE_API_KEYS", ""),
		ProviderBatchSize:   getEnvInt("PROVIDER_BATCH_SIZE", 50),
		ProviderTimeoutSecs: getEnvInt("PROVIDER_TIMEOUT_SECONDS", 30),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),

		BatchV2Enabled:                      getEnvBool("BATCH_V2_ENABLED", true),
		MarketBetaWindowDays:                getEnvInt("MARKET_BETA_WINDOW_DAYS", 90),
		MinRegressionDays:                   getEnvInt("MIN_REGRESSION_DAYS", 60),
		SpreadWindowDays:                    getEnvInt("SPREAD_WINDOW_DAYS", 180),
		SpreadMinDays:                       getEnvInt("SPREAD_MIN_DAYS", 60),
		BetaCap:                             getEnvFloat("BETA_CAP", 5.0),
		BetaConfidence:                      getEnvFloat("BETA_CONFIDENCE", 0.10),
		RidgeLambda:                         getEnvFloat("RIDGE_LAMBDA", 1.0),
		CorrelationWindowDays:               getEnvInt("CORRELATION_WINDOW_DAYS", 90),
		CorrMinPairObs:                      getEnvInt("CORR_MIN_PAIR_OBS", 30),
		StressCorrClampMin:                  getEnvFloat("STRESS_CORR_CLAMP_MIN", -0.95),
		StressCorrClampMax:                  getEnvFloat("STRESS_CORR_CLAMP_MAX", 0.95),
		SnapshotPlaceholderGraceHours:       getEnvInt("SNAPSHOT_PLACEHOLDER_GRACE_HOURS", 1),
		OrchestratorMaxPortfolioConcurrency: getEnvInt("ORCHESTRATOR_MAX_PORTFOLIO_CONCURRENCY", 8),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return fallback
	}
	return b
}
