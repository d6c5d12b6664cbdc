package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{"PORT", "PRESET_BACKEND", "PRESET_FILE", "DATABASE_URL", "NATS_URL", "NATS_BUCKET", "JWT_SECRET"}

// clearEnv unsets every config variable for the test, restoring them after.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func missing(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(missing(t))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, BackendFile, cfg.Backend)
	assert.Equal(t, "/data/presets.json", cfg.PresetFile)
	assert.Equal(t, "presets", cfg.NATSBucket)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoadRequiresSecret(t *testing.T) {
	clearEnv(t)
	_, err := Load(missing(t))
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := "JWT_SECRET=from-file\nPRESET_BACKEND=postgres\nDATABASE_URL=postgres://localhost/presets?sslmode=disable\nPORT=9000\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, BackendPostgres, cfg.Backend)
	assert.Equal(t, "postgres://localhost/presets?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, "9000", cfg.Port)
}

func TestEnvironmentWinsOverFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "from-env")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWTSecret)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"PRESET_BACKEND": "redis"}},
		{"postgres without dsn", map[string]string{"PRESET_BACKEND": "postgres"}},
		{"non-numeric port", map[string]string{"PORT": "http"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("JWT_SECRET", "s3cret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(missing(t))
			assert.Error(t, err)
		})
	}
}
