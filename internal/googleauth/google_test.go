package googleauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traino/session-bridge/internal/config"
	"golang.org/x/oauth2"
)

func TestAuthURL(t *testing.T) {
	googleConfig := config.GoogleConfig{
		ClientID:     "test-client-id",
		ClientSecret: config.Secret("test-client-secret"),
		RedirectURI:  "https://bridge.example.com/oauth/callback",
	}

	state := "test-state-parameter"
	authURL := AuthURL(googleConfig, state)

	assert.Contains(t, authURL, "https://accounts.google.com/o/oauth2/auth")
	assert.Contains(t, authURL, "client_id=test-client-id")
	assert.Contains(t, authURL, "redirect_uri=https%3A%2F%2Fbridge.example.com%2Foauth%2Fcallback")
	assert.Contains(t, authURL, "state=test-state-parameter")
	assert.Contains(t, authURL, "access_type=offline")
	assert.Contains(t, authURL, "prompt=consent")
	assert.Contains(t, authURL, "scope=openid+profile+email")
}

func TestExchangeCodeForToken(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/token", r.URL.Path)

		err := r.ParseForm()
		require.NoError(t, err)

		assert.Equal(t, "test-code", r.FormValue("code"))
		assert.Equal(t, "test-client-id", r.FormValue("client_id"))
		assert.Equal(t, "test-client-secret", r.FormValue("client_secret"))
		assert.Equal(t, "https://bridge.example.com/oauth/callback", r.FormValue("redirect_uri"))
		assert.Equal(t, "authorization_code", r.FormValue("grant_type"))

		response := map[string]any{
			"access_token":  "mock-access-token",
			"refresh_token": "mock-refresh-token",
			"token_type":    "Bearer",
			"expires_in":    3600,
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			t.Errorf("failed to encode response: %v", err)
		}
	}))
	defer tokenServer.Close()

	t.Setenv("GOOGLE_OAUTH_TOKEN_URL", tokenServer.URL+"/token")

	googleConfig := config.GoogleConfig{
		ClientID:     "test-client-id",
		ClientSecret: config.Secret("test-client-secret"),
		RedirectURI:  "https://bridge.example.com/oauth/callback",
	}

	token, err := ExchangeCodeForToken(context.Background(), googleConfig, "test-code")
	require.NoError(t, err)
	require.NotNil(t, token)

	assert.Equal(t, "mock-access-token", token.AccessToken)
	assert.Equal(t, "mock-refresh-token", token.RefreshToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.WithinDuration(t, time.Now().Add(3600*time.Second), token.Expiry, 5*time.Second)
}

func TestValidateUser(t *testing.T) {
	newUserInfoServer := func(t *testing.T, info UserInfo) *httptest.Server {
		t.Helper()
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "GET", r.Method)
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(info); err != nil {
				t.Errorf("failed to encode response: %v", err)
			}
		}))
	}

	t.Run("valid user in allowed domain", func(t *testing.T) {
		server := newUserInfoServer(t, UserInfo{
			Email:         "user@example.com",
			HostedDomain:  "example.com",
			Name:          "Test User",
			VerifiedEmail: true,
		})
		defer server.Close()
		t.Setenv("GOOGLE_USERINFO_URL", server.URL)

		googleConfig := config.GoogleConfig{
			AllowedDomains: []string{"example.com", "test.com"},
		}

		token := &oauth2.Token{AccessToken: "mock-token"}
		userInfo, err := ValidateUser(context.Background(), googleConfig, token)

		require.NoError(t, err)
		assert.Equal(t, "user@example.com", userInfo.Email)
		assert.Equal(t, "Test User", userInfo.Name)
		assert.True(t, userInfo.VerifiedEmail)
	})

	t.Run("user outside allowed domains", func(t *testing.T) {
		server := newUserInfoServer(t, UserInfo{
			Email: "user@evil.com",
		})
		defer server.Close()
		t.Setenv("GOOGLE_USERINFO_URL", server.URL)

		googleConfig := config.GoogleConfig{
			AllowedDomains: []string{"example.com"},
		}

		token := &oauth2.Token{AccessToken: "mock-token"}
		_, err := ValidateUser(context.Background(), googleConfig, token)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "not allowed")
	})

	t.Run("no domain restriction", func(t *testing.T) {
		server := newUserInfoServer(t, UserInfo{
			Email: "anyone@anywhere.com",
		})
		defer server.Close()
		t.Setenv("GOOGLE_USERINFO_URL", server.URL)

		token := &oauth2.Token{AccessToken: "mock-token"}
		userInfo, err := ValidateUser(context.Background(), config.GoogleConfig{}, token)

		require.NoError(t, err)
		assert.Equal(t, "anyone@anywhere.com", userInfo.Email)
	})
}
