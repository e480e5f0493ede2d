package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetEnv(t, "SALON_APP_PORT", "SALON_BLOB_DRIVER", "SALON_BLOB_LOCAL_DIR", "SALON_UPLOAD_MAX_BYTES",
		"SALON_JWT_EXPIRATION_HOURS", "SALON_SEED_ADMIN_EMAIL", "SALON_SEED_ADMIN_PASSWORD")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, BlobDriverLocal, cfg.Blob.Driver)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxBytes)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL())
	assert.False(t, cfg.Seed.Enabled())
}

func TestLoadRejectsGCSWithoutBucket(t *testing.T) {
	t.Setenv("SALON_BLOB_DRIVER", BlobDriverGCS)
	t.Setenv("SALON_BLOB_GCS_BUCKET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SALON_BLOB_GCS_BUCKET")
}

func TestConnectionStringPrefersDSN(t *testing.T) {
	db := DBConfig{DSN: "postgres://u:p@h/db", Host: "ignored"}
	assert.Equal(t, "postgres://u:p@h/db", db.ConnectionString())

	db = DBConfig{Host: "db", Port: 5432, User: "salon", Password: "pw", Name: "salon", SSLMode: "disable", TimeZone: "UTC"}
	assert.Equal(t, "host=db user=salon password=pw dbname=salon port=5432 sslmode=disable TimeZone=UTC", db.ConnectionString())
}

func TestSeedEnabledRequiresEmailAndPassword(t *testing.T) {
	assert.False(t, SeedConfig{AdminEmail: "a@b.c"}.Enabled())
	assert.True(t, SeedConfig{AdminEmail: "a@b.c", AdminPassword: "secret"}.Enabled())
}
