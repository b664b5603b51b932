package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		MongoURI:           DefaultMongoURI,
		MongoDatabaseName:  DefaultMongoDatabaseName,
		MongoConnTimeout:   DefaultMongoConnTimeout,
		Port:               DefaultPort,
		StorageDriver:      StorageMongo,
		RateLimitRequests:  DefaultRateLimitRequests,
		RateLimitWindow:    DefaultRateLimitWindow,
		RequestTimeout:     DefaultRequestTimeout,
		IdempotencyTTL:     DefaultIdempotencyTTL,
		MaxRequestSize:     DefaultMaxRequestSize,
		ReadTimeout:        DefaultReadTimeout,
		WriteTimeout:       DefaultWriteTimeout,
		IdleTimeout:        DefaultIdleTimeout,
		ShutdownTimeout:    DefaultShutdownTimeout,
		ScopeLockTimeout:   DefaultScopeLockTimeout,
		ScopeLockTTL:       DefaultScopeLockTTL,
		FareRatePerUnit:    DefaultFareRatePerUnit,
		MaxSeatsPerBooking: DefaultMaxSeatsPerBooking,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "memory driver ignores mongo settings", mutate: func(c *Config) {
			c.StorageDriver = StorageMemory
			c.MongoURI = ""
		}},
		{name: "bad port", mutate: func(c *Config) { c.Port = "0" }, wantErr: "Port"},
		{name: "unknown driver", mutate: func(c *Config) { c.StorageDriver = "redis" }, wantErr: "StorageDriver"},
		{name: "bad mongo uri", mutate: func(c *Config) { c.MongoURI = "postgres://x" }, wantErr: "MongoURI"},
		{name: "lock ttl below timeout", mutate: func(c *Config) {
			c.ScopeLockTimeout = 10 * time.Second
			c.ScopeLockTTL = time.Second
		}, wantErr: "ScopeLockTTL"},
		{name: "zero lock timeout", mutate: func(c *Config) { c.ScopeLockTimeout = 0 }, wantErr: "ScopeLockTimeout"},
		{name: "negative fare rate", mutate: func(c *Config) { c.FareRatePerUnit = -1 }, wantErr: "FareRatePerUnit"},
		{name: "zero max seats", mutate: func(c *Config) { c.MaxSeatsPerBooking = 0 }, wantErr: "MaxSeatsPerBooking"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:secret@db:27017/railbook")
	if strings.Contains(got, "secret") || strings.Contains(got, "admin") {
		t.Errorf("credentials leaked: %s", got)
	}
	if !strings.HasPrefix(got, "mongodb://***:***@") {
		t.Errorf("unexpected redaction: %s", got)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv(EnvScopeLockTimeout, "250ms")
	t.Setenv(EnvFareRatePerUnit, "2.5")
	t.Setenv(EnvEventsEnabled, "true")
	t.Setenv(EnvMaxSeatsPerBooking, "not-a-number")

	if got := getEnvDuration(EnvScopeLockTimeout, time.Second); got != 250*time.Millisecond {
		t.Errorf("duration = %s", got)
	}
	if got := getEnvFloat(EnvFareRatePerUnit, 1); got != 2.5 {
		t.Errorf("float = %g", got)
	}
	if got := getEnvBool(EnvEventsEnabled, false); !got {
		t.Error("bool should be true")
	}
	if got := getEnvNum(EnvMaxSeatsPerBooking, 6); got != 6 {
		t.Errorf("invalid number should fall back, got %d", got)
	}
}

func TestNormalizePagination(t *testing.T) {
	if got := NormalizePaginationLimit(0); got != 10 {
		t.Errorf("limit 0 -> %d", got)
	}
	if got := NormalizePaginationLimit(1000); got != DefaultPaginationLimit {
		t.Errorf("limit 1000 -> %d", got)
	}
	if got := NormalizeOffset(-5); got != 0 {
		t.Errorf("offset -5 -> %d", got)
	}
}
