package config

import (
	"os"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:    HTTPConfig{Port: 8090},
		Cache:   CacheConfig{Driver: "none"},
		Gateway: GatewayConfig{Mode: ModeAuto},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_InvalidGatewayMode(t *testing.T) {
	cfg := validConfig()
	cfg.Gateway.Mode = "sometimes"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid gateway mode")
	}
}

func TestValidate_PrimaryOnlyRequiresAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.Gateway.Mode = ModePrimaryOnly

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error: primary_only without api key")
	}

	cfg.Embedding.Provider.APIKey = "test-key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error with api key set: %v", err)
	}
}

func TestValidate_MissingCacheAddrs(t *testing.T) {
	for _, driver := range []string{"redis", "valkey"} {
		t.Run(driver, func(t *testing.T) {
			cfg := validConfig()
			cfg.Cache.Driver = driver

			if err := cfg.Validate(); err == nil {
				t.Fatal("expected error for missing cache addrs")
			}

			cfg.Cache.Addrs = []string{"localhost:6379"}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error with addrs set: %v", err)
			}
		})
	}
}

func TestValidate_UnknownCacheDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Driver = "memcached"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown cache driver")
	}
}

func TestValidate_BudgetActions(t *testing.T) {
	for _, action := range []string{"", "warn", "reject"} {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding.Provider.Budget.Action = action

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}

	cfg := validConfig()
	cfg.Embedding.Provider.Budget.Action = "explode"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid budget action")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Cache.Driver != "none" {
		t.Errorf("expected cache driver \"none\", got %q", cfg.Cache.Driver)
	}
	if cfg.Gateway.Mode != ModeAuto {
		t.Errorf("expected gateway mode %q, got %q", ModeAuto, cfg.Gateway.Mode)
	}
	if cfg.Embedding.Provider.Model != "text-embedding-3-small" {
		t.Errorf("unexpected default model %q", cfg.Embedding.Provider.Model)
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("EMBEDGATE_TEST_VAR", "secret")
	defer os.Unsetenv("EMBEDGATE_TEST_VAR")

	got := string(expandEnvVars([]byte("key: ${EMBEDGATE_TEST_VAR}")))
	if got != "key: secret" {
		t.Errorf("expected substitution, got %q", got)
	}

	got = string(expandEnvVars([]byte("key: ${EMBEDGATE_UNSET_VAR:-fallback}")))
	if got != "key: fallback" {
		t.Errorf("expected default value, got %q", got)
	}
}
