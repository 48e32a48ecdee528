package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// UnmarshalJSON implements custom unmarshaling for BridgeConfig,
// resolving env references and parsing duration strings
func (b *BridgeConfig) UnmarshalJSON(data []byte) error {
	type rawBridge struct {
		BaseURL             json.RawMessage `json:"baseURL"`
		Addr                json.RawMessage `json:"addr"`
		AllowedOrigins      []string        `json:"allowedOrigins"`
		SigningSecret       json.RawMessage `json:"signingSecret"`
		EncryptionKey       json.RawMessage `json:"encryptionKey,omitempty"`
		ServiceTokenHashes  []string        `json:"serviceTokenHashes"`
		TokenTTL            string          `json:"tokenTtl,omitempty"`
		PendingTTL          string          `json:"pendingTtl,omitempty"`
		SweepInterval       string          `json:"sweepInterval,omitempty"`
		Storage             StorageKind     `json:"storage,omitempty"`
		GCPProject          json.RawMessage `json:"gcpProject,omitempty"`
		FirestoreDatabase   string          `json:"firestoreDatabase,omitempty"`
		FirestoreCollection string          `json:"firestoreCollection,omitempty"`
		Google              json.RawMessage `json:"google,omitempty"`
	}

	var raw rawBridge
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	b.AllowedOrigins = raw.AllowedOrigins
	b.ServiceTokenHashes = raw.ServiceTokenHashes
	b.Storage = raw.Storage
	b.FirestoreDatabase = raw.FirestoreDatabase
	b.FirestoreCollection = raw.FirestoreCollection

	if raw.BaseURL != nil {
		value, err := ParseConfigValue(raw.BaseURL)
		if err != nil {
			return fmt.Errorf("parsing baseURL: %w", err)
		}
		b.BaseURL = value
	}

	if raw.Addr != nil {
		value, err := ParseConfigValue(raw.Addr)
		if err != nil {
			return fmt.Errorf("parsing addr: %w", err)
		}
		b.Addr = value
	}

	if raw.SigningSecret != nil {
		value, err := ParseConfigValue(raw.SigningSecret)
		if err != nil {
			return fmt.Errorf("parsing signingSecret: %w", err)
		}
		b.SigningSecret = Secret(value)
	}

	if raw.EncryptionKey != nil {
		value, err := ParseConfigValue(raw.EncryptionKey)
		if err != nil {
			return fmt.Errorf("parsing encryptionKey: %w", err)
		}
		b.EncryptionKey = Secret(value)
	}

	if raw.GCPProject != nil {
		value, err := ParseConfigValue(raw.GCPProject)
		if err != nil {
			return fmt.Errorf("parsing gcpProject: %w", err)
		}
		b.GCPProject = value
	}

	if raw.TokenTTL != "" {
		ttl, err := time.ParseDuration(raw.TokenTTL)
		if err != nil {
			return fmt.Errorf("parsing tokenTtl: %w", err)
		}
		b.TokenTTL = ttl
	}

	if raw.PendingTTL != "" {
		ttl, err := time.ParseDuration(raw.PendingTTL)
		if err != nil {
			return fmt.Errorf("parsing pendingTtl: %w", err)
		}
		b.PendingTTL = ttl
	}

	if raw.SweepInterval != "" {
		interval, err := time.ParseDuration(raw.SweepInterval)
		if err != nil {
			return fmt.Errorf("parsing sweepInterval: %w", err)
		}
		b.SweepInterval = interval
	}

	if raw.Google != nil {
		var google GoogleConfig
		if err := json.Unmarshal(raw.Google, &google); err != nil {
			return fmt.Errorf("parsing google: %w", err)
		}
		b.Google = &google
	}

	return nil
}

// UnmarshalJSON implements custom unmarshaling for GoogleConfig
func (g *GoogleConfig) UnmarshalJSON(data []byte) error {
	type rawGoogle struct {
		ClientID       json.RawMessage `json:"clientId"`
		ClientSecret   json.RawMessage `json:"clientSecret"`
		RedirectURI    json.RawMessage `json:"redirectUri"`
		AllowedDomains []string        `json:"allowedDomains"`
	}

	var raw rawGoogle
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	g.AllowedDomains = raw.AllowedDomains

	if raw.ClientID != nil {
		value, err := ParseConfigValue(raw.ClientID)
		if err != nil {
			return fmt.Errorf("parsing clientId: %w", err)
		}
		g.ClientID = value
	}

	if raw.ClientSecret != nil {
		value, err := ParseConfigValue(raw.ClientSecret)
		if err != nil {
			return fmt.Errorf("parsing clientSecret: %w", err)
		}
		g.ClientSecret = Secret(value)
	}

	if raw.RedirectURI != nil {
		value, err := ParseConfigValue(raw.RedirectURI)
		if err != nil {
			return fmt.Errorf("parsing redirectUri: %w", err)
		}
		g.RedirectURI = value
	}

	return nil
}
