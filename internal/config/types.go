package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// StorageKind selects the pending session registry backend
type StorageKind string

const (
	StorageKindMemory    StorageKind = "memory"
	StorageKindFirestore StorageKind = "firestore"
)

// GoogleConfig configures the external-browser Google OAuth flow
type GoogleConfig struct {
	ClientID       string   `json:"clientId"`
	ClientSecret   Secret   `json:"clientSecret"`
	RedirectURI    string   `json:"redirectUri"`
	AllowedDomains []string `json:"allowedDomains,omitempty"`
}

// BridgeConfig is the resolved service configuration
type BridgeConfig struct {
	BaseURL        string   `json:"baseURL"`
	Addr           string   `json:"addr"`
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`

	// SigningSecret signs transfer tokens and OAuth state
	SigningSecret Secret `json:"signingSecret"`

	// EncryptionKey protects session tokens persisted to Firestore.
	// Required for firestore storage, unused for memory.
	EncryptionKey Secret `json:"encryptionKey,omitempty"`

	// ServiceTokenHashes are bcrypt hashes of the bearer tokens the app
	// backend uses to call the token issuance endpoint
	ServiceTokenHashes []string `json:"serviceTokenHashes,omitempty"`

	TokenTTL      time.Duration `json:"-"`
	PendingTTL    time.Duration `json:"-"`
	SweepInterval time.Duration `json:"-"`

	Storage             StorageKind `json:"storage,omitempty"`
	GCPProject          string      `json:"gcpProject,omitempty"`
	FirestoreDatabase   string      `json:"firestoreDatabase,omitempty"`
	FirestoreCollection string      `json:"firestoreCollection,omitempty"`

	Google *GoogleConfig `json:"google,omitempty"`
}

// Config represents the config structure with resolved values
type Config struct {
	Version string       `json:"version"`
	Bridge  BridgeConfig `json:"bridge"`
}

// ParseConfigValue parses a JSON value that is either a plain string or
// an {"$env": "VAR_NAME"} reference resolved against the environment
func ParseConfigValue(raw json.RawMessage) (string, error) {
	// Try plain string first
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}

	// Try reference object
	var ref map[string]string
	if err := json.Unmarshal(raw, &ref); err != nil {
		return "", fmt.Errorf("config value must be string or reference object")
	}

	if envVar, ok := ref["$env"]; ok {
		value := os.Getenv(envVar)
		if value == "" {
			return "", fmt.Errorf("environment variable %s not set", envVar)
		}
		// Strip surrounding quotes if present (only matching pairs)
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		return value, nil
	}

	return "", fmt.Errorf("unknown reference type in config value")
}
