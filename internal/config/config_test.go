package config

import (
	"errors"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Wave: WaveConfig{
			APIKey:      "sk_test_abc",
			MaxAttempts: 3,
		},
		Merchant: MerchantConfig{
			CacheTTL:  DefaultMerchantCacheTTL,
			CacheSize: DefaultMerchantCacheSize,
		},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRequiresWaveKey(t *testing.T) {
	cfg := validConfig()
	cfg.Wave.APIKey = "  "
	if err := cfg.Validate(); !errors.Is(err, ErrMissingWaveAPIKey) {
		t.Fatalf("expected missing api key error, got %v", err)
	}
}

func TestValidateRejectsOutOfRangeTTL(t *testing.T) {
	for _, ttl := range []time.Duration{30 * time.Second, 0, 90000 * time.Second} {
		cfg := validConfig()
		cfg.Merchant.CacheTTL = ttl
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidCacheTTL) {
			t.Fatalf("ttl %s: expected ErrInvalidCacheTTL, got %v", ttl, err)
		}
	}
}

func TestValidateAcceptsTTLBounds(t *testing.T) {
	for _, ttl := range []time.Duration{MinMerchantCacheTTL, MaxMerchantCacheTTL} {
		cfg := validConfig()
		cfg.Merchant.CacheTTL = ttl
		if err := cfg.Validate(); err != nil {
			t.Fatalf("ttl %s: expected valid, got %v", ttl, err)
		}
	}
}

func TestValidateRejectsZeroRetryBudget(t *testing.T) {
	cfg := validConfig()
	cfg.Wave.MaxAttempts = 0
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidRetryBudget) {
		t.Fatalf("expected ErrInvalidRetryBudget, got %v", err)
	}
}
