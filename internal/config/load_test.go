package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validConfig = `{
  "version": "v1",
  "bridge": {
    "baseURL": "https://bridge.example.com",
    "addr": ":8080",
    "allowedOrigins": ["https://app.example.com"],
    "signingSecret": {"$env": "BRIDGE_SIGNING_SECRET"},
    "serviceTokenHashes": ["$2a$10$abcdefghijklmnopqrstuv"],
    "tokenTtl": "30m",
    "pendingTtl": "10m",
    "sweepInterval": "2m"
  }
}`

func TestLoadValidConfig(t *testing.T) {
	t.Setenv("BRIDGE_SIGNING_SECRET", "test-signing-secret-at-least-32-bytes!!")

	cfg, err := Load(writeConfigFile(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "https://bridge.example.com", cfg.Bridge.BaseURL)
	assert.Equal(t, ":8080", cfg.Bridge.Addr)
	assert.Equal(t, Secret("test-signing-secret-at-least-32-bytes!!"), cfg.Bridge.SigningSecret)
	assert.Equal(t, 30*time.Minute, cfg.Bridge.TokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.Bridge.PendingTTL)
	assert.Equal(t, 2*time.Minute, cfg.Bridge.SweepInterval)
	assert.Equal(t, StorageKindMemory, cfg.Bridge.Storage)
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("BRIDGE_SIGNING_SECRET", "test-signing-secret-at-least-32-bytes!!")

	cfg, err := Load(writeConfigFile(t, `{
  "version": "v1",
  "bridge": {
    "baseURL": "https://bridge.example.com",
    "addr": ":8080",
    "signingSecret": {"$env": "BRIDGE_SIGNING_SECRET"}
  }
}`))
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.Bridge.TokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.Bridge.PendingTTL)
	assert.Equal(t, 5*time.Minute, cfg.Bridge.SweepInterval)
	assert.Equal(t, StorageKindMemory, cfg.Bridge.Storage)
	assert.Equal(t, "bridge_pending_sessions", cfg.Bridge.FirestoreCollection)
}

func TestLoadRejectsInlineSecrets(t *testing.T) {
	_, err := Load(writeConfigFile(t, `{
  "version": "v1",
  "bridge": {
    "baseURL": "https://bridge.example.com",
    "addr": ":8080",
    "signingSecret": "hardcoded-secret-value-32-bytes-long!!!"
  }
}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment variable reference")
}

func TestLoadRejectsMissingEnvVar(t *testing.T) {
	_, err := Load(writeConfigFile(t, `{
  "version": "v1",
  "bridge": {
    "baseURL": "https://bridge.example.com",
    "addr": ":8080",
    "signingSecret": {"$env": "BRIDGE_TEST_UNSET_VAR"}
  }
}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BRIDGE_TEST_UNSET_VAR")
}

func TestLoadRejectsMissingSigningSecret(t *testing.T) {
	_, err := Load(writeConfigFile(t, `{
  "version": "v1",
  "bridge": {
    "baseURL": "https://bridge.example.com",
    "addr": ":8080"
  }
}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signingSecret is required")
}

func TestLoadRejectsShortSigningSecret(t *testing.T) {
	t.Setenv("BRIDGE_SIGNING_SECRET", "short")

	_, err := Load(writeConfigFile(t, `{
  "version": "v1",
  "bridge": {
    "baseURL": "https://bridge.example.com",
    "addr": ":8080",
    "signingSecret": {"$env": "BRIDGE_SIGNING_SECRET"}
  }
}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 bytes")
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	_, err := Load(writeConfigFile(t, `{"version": "v999", "bridge": {}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config version")
}

func TestLoadFirestoreStorageRequirements(t *testing.T) {
	t.Setenv("BRIDGE_SIGNING_SECRET", "test-signing-secret-at-least-32-bytes!!")
	t.Setenv("BRIDGE_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")

	t.Run("requires gcpProject", func(t *testing.T) {
		_, err := Load(writeConfigFile(t, `{
  "version": "v1",
  "bridge": {
    "baseURL": "https://bridge.example.com",
    "addr": ":8080",
    "signingSecret": {"$env": "BRIDGE_SIGNING_SECRET"},
    "encryptionKey": {"$env": "BRIDGE_ENCRYPTION_KEY"},
    "storage": "firestore"
  }
}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gcpProject is required")
	})

	t.Run("requires encryptionKey", func(t *testing.T) {
		_, err := Load(writeConfigFile(t, `{
  "version": "v1",
  "bridge": {
    "baseURL": "https://bridge.example.com",
    "addr": ":8080",
    "signingSecret": {"$env": "BRIDGE_SIGNING_SECRET"},
    "storage": "firestore",
    "gcpProject": "my-project"
  }
}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "encryptionKey is required")
	})

	t.Run("valid firestore config", func(t *testing.T) {
		cfg, err := Load(writeConfigFile(t, `{
  "version": "v1",
  "bridge": {
    "baseURL": "https://bridge.example.com",
    "addr": ":8080",
    "signingSecret": {"$env": "BRIDGE_SIGNING_SECRET"},
    "encryptionKey": {"$env": "BRIDGE_ENCRYPTION_KEY"},
    "storage": "firestore",
    "gcpProject": "my-project"
  }
}`))
		require.NoError(t, err)
		assert.Equal(t, StorageKindFirestore, cfg.Bridge.Storage)
		assert.Equal(t, "my-project", cfg.Bridge.GCPProject)
	})
}

func TestLoadGoogleConfig(t *testing.T) {
	t.Setenv("BRIDGE_SIGNING_SECRET", "test-signing-secret-at-least-32-bytes!!")
	t.Setenv("GOOGLE_CLIENT_SECRET", "google-secret")

	cfg, err := Load(writeConfigFile(t, `{
  "version": "v1",
  "bridge": {
    "baseURL": "https://bridge.example.com",
    "addr": ":8080",
    "signingSecret": {"$env": "BRIDGE_SIGNING_SECRET"},
    "google": {
      "clientId": "client-id.apps.googleusercontent.com",
      "clientSecret": {"$env": "GOOGLE_CLIENT_SECRET"},
      "redirectUri": "https://bridge.example.com/oauth/callback",
      "allowedDomains": ["example.com"]
    }
  }
}`))
	require.NoError(t, err)
	require.NotNil(t, cfg.Bridge.Google)
	assert.Equal(t, "client-id.apps.googleusercontent.com", cfg.Bridge.Google.ClientID)
	assert.Equal(t, Secret("google-secret"), cfg.Bridge.Google.ClientSecret)
	assert.Equal(t, []string{"example.com"}, cfg.Bridge.Google.AllowedDomains)
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("sensitive-value")
	assert.Equal(t, "***", s.String())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `"***"`, string(data))

	empty := Secret("")
	assert.Equal(t, "", empty.String())
}
