package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// MinMerchantCacheTTL and MaxMerchantCacheTTL bound the configurable
	// aggregated-merchant cache TTL. Values outside the range are rejected,
	// never clamped.
	MinMerchantCacheTTL = 60 * time.Second
	MaxMerchantCacheTTL = 86400 * time.Second

	DefaultMerchantCacheTTL  = 3600 * time.Second
	DefaultMerchantCacheSize = 1024
)

var (
	ErrMissingWaveAPIKey  = errors.New("missing_wave_api_key")
	ErrInvalidCacheTTL    = errors.New("invalid_merchant_cache_ttl")
	ErrInvalidCacheSize   = errors.New("invalid_merchant_cache_size")
	ErrInvalidRetryBudget = errors.New("invalid_retry_budget")
)

// WaveConfig carries credentials and tunables for the Wave provider API.
type WaveConfig struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
}

// MerchantConfig controls aggregated-merchant resolution.
type MerchantConfig struct {
	Enabled             bool
	AutoCreate          bool
	DefaultName         string
	DefaultBusinessType string
	CacheTTL            time.Duration
	CacheSize           int
}

// TracingConfig configures the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

type Config struct {
	Environment    string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	APIKey         string
	DatabaseDSN    string
	Wave           WaveConfig
	Merchant       MerchantConfig
	Tracing        TracingConfig
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// Load reads configuration from the environment. A local .env file is
// honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:    getEnv("WAVEPAY_ENV", "development"),
		ServiceName:    getEnv("WAVEPAY_SERVICE_NAME", "wavepay"),
		ServiceVersion: getEnv("WAVEPAY_SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("WAVEPAY_HTTP_ADDR", ":8080"),
		APIKey:         os.Getenv("WAVEPAY_API_KEY"),
		DatabaseDSN:    os.Getenv("WAVEPAY_DATABASE_DSN"),
		Wave: WaveConfig{
			BaseURL:     getEnv("WAVE_BASE_URL", "https://api.wave.com"),
			APIKey:      os.Getenv("WAVE_API_KEY"),
			Timeout:     getEnvDuration("WAVE_TIMEOUT", 30*time.Second),
			MaxAttempts: getEnvInt("WAVE_MAX_ATTEMPTS", 3),
		},
		Merchant: MerchantConfig{
			Enabled:             getEnvBool("WAVE_AGGREGATED_MERCHANT_ENABLED", true),
			AutoCreate:          getEnvBool("WAVE_AGGREGATED_MERCHANT_AUTO_CREATE", false),
			DefaultName:         getEnv("WAVE_AGGREGATED_MERCHANT_DEFAULT_NAME", "ecommerce"),
			DefaultBusinessType: getEnv("WAVE_AGGREGATED_MERCHANT_DEFAULT_BUSINESS_TYPE", "other"),
			CacheTTL:            getEnvDuration("WAVE_AGGREGATED_MERCHANT_CACHE_TTL", DefaultMerchantCacheTTL),
			CacheSize:           getEnvInt("WAVE_AGGREGATED_MERCHANT_CACHE_SIZE", DefaultMerchantCacheSize),
		},
		Tracing: TracingConfig{
			Enabled:          getEnvBool("WAVEPAY_TRACING_ENABLED", false),
			ExporterEndpoint: os.Getenv("WAVEPAY_TRACING_ENDPOINT"),
			ExporterProtocol: getEnv("WAVEPAY_TRACING_PROTOCOL", "grpc"),
			SamplingRatio:    getEnvFloat("WAVEPAY_TRACING_SAMPLING_RATIO", 1.0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects out-of-range values instead of silently adjusting them.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Wave.APIKey) == "" {
		return ErrMissingWaveAPIKey
	}
	if c.Merchant.CacheTTL < MinMerchantCacheTTL || c.Merchant.CacheTTL > MaxMerchantCacheTTL {
		return fmt.Errorf("%w: %s not in [%s, %s]", ErrInvalidCacheTTL, c.Merchant.CacheTTL, MinMerchantCacheTTL, MaxMerchantCacheTTL)
	}
	if c.Merchant.CacheSize <= 0 {
		return ErrInvalidCacheSize
	}
	if c.Wave.MaxAttempts <= 0 {
		return ErrInvalidRetryBudget
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(raw); err == nil {
		return parsed
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
