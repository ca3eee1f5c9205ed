package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PORT", "9090")
	t.Setenv("STORE", "memory")
	t.Setenv("EVENTS_BACKEND", "none")
	t.Setenv("VENDOR_JWT_SECRET", "")
	t.Setenv("CUSTOMER_JWT_SECRET", "")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("STRICT_ORDER_TRANSITIONS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.True(t, cfg.StrictTransitions)
	assert.NotEmpty(t, cfg.VendorSecret)
	assert.NotEqual(t, cfg.VendorSecret, cfg.CustomerSecret)
}

func TestLoadRejectsUnknownBackends(t *testing.T) {
	t.Setenv("STORE", "postgres")
	_, err := Load()
	assert.ErrorContains(t, err, "STORE")

	t.Setenv("STORE", "memory")
	t.Setenv("EVENTS_BACKEND", "kafka")
	_, err = Load()
	assert.ErrorContains(t, err, "EVENTS_BACKEND")
}

func TestProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORE", "memory")
	t.Setenv("EVENTS_BACKEND", "none")
	t.Setenv("VENDOR_JWT_SECRET", "")
	t.Setenv("CUSTOMER_JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}
