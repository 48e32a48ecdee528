package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/traino/session-bridge/internal/pending"
	"github.com/traino/session-bridge/internal/transfer"
)

// Load loads and processes the config with immediate env var resolution
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		return Config{}, fmt.Errorf("parsing config JSON: %w", err)
	}

	version, ok := rawConfig["version"].(string)
	if !ok {
		return Config{}, fmt.Errorf("config version is required")
	}
	if !strings.HasPrefix(version, "v1") {
		return Config{}, fmt.Errorf("unsupported config version: %s", version)
	}

	if err := validateRawConfig(rawConfig); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	// Parse into the typed Config struct; the custom UnmarshalJSON
	// methods resolve env vars immediately
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&config.Bridge)

	if err := ValidateConfig(&config); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validateRawConfig validates the config structure before environment
// resolution, so that secrets pasted inline are rejected even when their
// env vars happen to be set
func validateRawConfig(rawConfig map[string]any) error {
	bridge, ok := rawConfig["bridge"].(map[string]any)
	if !ok {
		return fmt.Errorf("bridge section is required")
	}

	secrets := []string{"signingSecret", "encryptionKey"}
	for _, name := range secrets {
		value, exists := bridge[name]
		if !exists {
			continue
		}
		if _, isString := value.(string); isString {
			return fmt.Errorf("%s must use environment variable reference for security", name)
		}
		if refMap, isMap := value.(map[string]any); isMap {
			if _, hasEnv := refMap["$env"]; !hasEnv {
				return fmt.Errorf("%s must use {\"$env\": \"VAR_NAME\"} format", name)
			}
		}
	}

	if google, ok := bridge["google"].(map[string]any); ok {
		if value, exists := google["clientSecret"]; exists {
			if _, isString := value.(string); isString {
				return fmt.Errorf("google.clientSecret must use environment variable reference for security")
			}
		}
	}

	return nil
}

func applyDefaults(b *BridgeConfig) {
	if b.TokenTTL <= 0 {
		b.TokenTTL = transfer.DefaultTokenTTL
	}
	if b.PendingTTL <= 0 {
		b.PendingTTL = pending.DefaultTTL
	}
	if b.SweepInterval <= 0 {
		b.SweepInterval = pending.DefaultSweepInterval
	}
	if b.Storage == "" {
		b.Storage = StorageKindMemory
	}
	if b.FirestoreCollection == "" {
		b.FirestoreCollection = "bridge_pending_sessions"
	}
}

// ValidateConfig validates the resolved configuration
func ValidateConfig(config *Config) error {
	b := &config.Bridge

	if b.BaseURL == "" {
		return fmt.Errorf("bridge.baseURL is required")
	}
	if b.Addr == "" {
		return fmt.Errorf("bridge.addr is required")
	}

	// A missing signing secret must stop the process at startup, never
	// fall through to issuing unverifiable tokens
	if b.SigningSecret == "" {
		return fmt.Errorf("bridge.signingSecret is required")
	}
	if len(b.SigningSecret) < 32 {
		return fmt.Errorf("bridge.signingSecret must be at least 32 bytes, got %d", len(b.SigningSecret))
	}

	switch b.Storage {
	case StorageKindMemory:
	case StorageKindFirestore:
		if b.GCPProject == "" {
			return fmt.Errorf("bridge.gcpProject is required when using firestore storage")
		}
		if b.EncryptionKey == "" {
			return fmt.Errorf("bridge.encryptionKey is required when using firestore storage")
		}
	default:
		return fmt.Errorf("unsupported storage kind: %s", b.Storage)
	}

	if b.EncryptionKey != "" && len(b.EncryptionKey) != 32 {
		return fmt.Errorf("bridge.encryptionKey must be exactly 32 bytes, got %d", len(b.EncryptionKey))
	}

	if g := b.Google; g != nil {
		if g.ClientID == "" {
			return fmt.Errorf("bridge.google.clientId is required")
		}
		if g.ClientSecret == "" {
			return fmt.Errorf("bridge.google.clientSecret is required")
		}
		if g.RedirectURI == "" {
			return fmt.Errorf("bridge.google.redirectUri is required")
		}
	}

	return nil
}
