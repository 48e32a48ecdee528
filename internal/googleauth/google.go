package googleauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"slices"

	"github.com/traino/session-bridge/internal/config"
	"github.com/traino/session-bridge/internal/emailutil"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// UserInfo represents Google user information
type UserInfo struct {
	Email         string `json:"email"`
	HostedDomain  string `json:"hd"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	VerifiedEmail bool   `json:"verified_email"`
}

// AuthURL generates a Google OAuth authorization URL
func AuthURL(googleConfig config.GoogleConfig, state string) string {
	oauthConfig := newOAuth2Config(googleConfig)
	return oauthConfig.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
	)
}

// ExchangeCodeForToken exchanges the authorization code for a token
func ExchangeCodeForToken(ctx context.Context, googleConfig config.GoogleConfig, code string) (*oauth2.Token, error) {
	oauthConfig := newOAuth2Config(googleConfig)
	return oauthConfig.Exchange(ctx, code)
}

// ValidateUser fetches the user's profile with the Google OAuth token and
// checks domain membership
func ValidateUser(ctx context.Context, googleConfig config.GoogleConfig, token *oauth2.Token) (UserInfo, error) {
	oauthConfig := newOAuth2Config(googleConfig)
	client := oauthConfig.Client(ctx, token)
	userInfoURL := "https://www.googleapis.com/oauth2/v2/userinfo"
	if customURL := os.Getenv("GOOGLE_USERINFO_URL"); customURL != "" {
		userInfoURL = customURL
	}
	resp, err := client.Get(userInfoURL)
	if err != nil {
		return UserInfo{}, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UserInfo{}, fmt.Errorf("failed to get user info: status %d", resp.StatusCode)
	}

	var userInfo UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return UserInfo{}, fmt.Errorf("failed to decode user info: %w", err)
	}

	if len(googleConfig.AllowedDomains) > 0 {
		userDomain := emailutil.ExtractDomain(userInfo.Email)
		if !slices.Contains(googleConfig.AllowedDomains, userDomain) {
			return UserInfo{}, fmt.Errorf("domain '%s' is not allowed. Contact your administrator", userDomain)
		}
	}

	return userInfo, nil
}

// newOAuth2Config creates the OAuth2 config from our Config
func newOAuth2Config(googleConfig config.GoogleConfig) oauth2.Config {
	// Use custom OAuth endpoints if provided (for testing)
	endpoint := google.Endpoint
	if authURL := os.Getenv("GOOGLE_OAUTH_AUTH_URL"); authURL != "" {
		endpoint.AuthURL = authURL
	}
	if tokenURL := os.Getenv("GOOGLE_OAUTH_TOKEN_URL"); tokenURL != "" {
		endpoint.TokenURL = tokenURL
	}

	return oauth2.Config{
		ClientID:     googleConfig.ClientID,
		ClientSecret: string(googleConfig.ClientSecret),
		RedirectURL:  googleConfig.RedirectURI,
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint:     endpoint,
	}
}
