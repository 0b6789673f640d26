package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	// Empty values fail to parse and fall back for the typed getters.
	for _, key := range []string{"REDIS_ADDR", "LOAN_SINGLE_OUTSTANDING", "CORS_ALLOWED_ORIGINS", "ADMIN_ACCESS_KEY"} {
		t.Setenv(key, "")
	}
	t.Setenv("API_PORT", "8080")
	t.Setenv("STORE_DRIVER", "postgres")

	cfg := Load()

	assert.Same(t, cfg, AppConfig)
	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Empty(t, cfg.RedisAddr)
	assert.True(t, cfg.LoanSingleOutstanding)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.AdminAccessKey)
	assert.Contains(t, cfg.DBConnStr, "sslmode=")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("LOAN_SINGLE_OUTSTANDING", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("ADMIN_ACCESS_KEY", "open sesame")

	cfg := Load()

	assert.Equal(t, "9090", cfg.APIPort)
	assert.Equal(t, []byte("s3cret"), cfg.JWTKey)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.False(t, cfg.LoanSingleOutstanding)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "open sesame", cfg.AdminAccessKey)
}

func TestGetEnvAsIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	assert.Equal(t, 3, getEnvAsInt("REDIS_DB", 3))
}
