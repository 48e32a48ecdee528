package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/traino/session-bridge/internal/config"
	"github.com/traino/session-bridge/internal/cookie"
	"github.com/traino/session-bridge/internal/crypto"
	"github.com/traino/session-bridge/internal/googleauth"
	jsonwriter "github.com/traino/session-bridge/internal/json"
	"github.com/traino/session-bridge/internal/log"
	"github.com/traino/session-bridge/internal/pending"
	"github.com/traino/session-bridge/internal/transfer"
)

// loginStateTTL bounds how long a Google sign-in redirect stays valid
const loginStateTTL = 10 * time.Minute

// loginState is the signed OAuth state carried through the Google redirect
type loginState struct {
	AuthCode string `json:"auth_code"`
	Nonce    string `json:"nonce"`
}

// BridgeHandlers handles session transfer endpoints
type BridgeHandlers struct {
	cfg         config.BridgeConfig
	codec       *transfer.Codec
	pending     pending.Store
	stateSigner crypto.TokenSigner
}

// NewBridgeHandlers creates handlers for the session transfer endpoints
func NewBridgeHandlers(cfg config.BridgeConfig, codec *transfer.Codec, store pending.Store) *BridgeHandlers {
	return &BridgeHandlers{
		cfg:         cfg,
		codec:       codec,
		pending:     store,
		stateSigner: crypto.NewTokenSigner([]byte(cfg.SigningSecret), loginStateTTL),
	}
}

type generateTokenRequest struct {
	Email   string `json:"email"`
	Session string `json:"session"`
}

type generateTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// GenerateTokenHandler issues a signed transfer token for an authenticated
// platform session. Service authentication happens in middleware.
func (h *BridgeHandlers) GenerateTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req generateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonwriter.WriteBadRequest(w, "Invalid request body")
		return
	}

	token, err := h.codec.Issue(req.Email, req.Session)
	if err != nil {
		log.LogDebugWithFields("bridge", "Token issue rejected", map[string]any{
			"error": err.Error(),
		})
		jsonwriter.WriteBadRequest(w, err.Error())
		return
	}

	_ = jsonwriter.Write(w, generateTokenResponse{
		Token:     token,
		ExpiresIn: int(h.codec.TTL().Seconds()),
	})
}

// RestoreSessionHandler verifies a transfer token from the query string and
// establishes the browser session cookie. Invalid or expired tokens land on
// the expired page instead of an error response, since the caller is a
// WebView the user is looking at.
func (h *BridgeHandlers) RestoreSessionHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	claims := h.codec.Verify(token)
	if claims == nil {
		http.Redirect(w, r, "/session/expired", http.StatusFound)
		return
	}

	cookie.SetSession(w, claims.OriginalSession, h.codec.TTL())

	log.LogInfoWithFields("bridge", "Session restored", map[string]any{
		"email": claims.Email,
	})

	http.Redirect(w, r, sanitizeReturnPath(r.URL.Query().Get("return")), http.StatusFound)
}

// sanitizeReturnPath only allows relative paths on this host, so a crafted
// return parameter cannot bounce the browser to another origin
func sanitizeReturnPath(path string) string {
	if path == "" || !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return "/"
	}
	if strings.Contains(path, "\\") {
		return "/"
	}
	return path
}

type pollResponse struct {
	Ready        bool   `json:"ready"`
	SessionToken string `json:"sessionToken,omitempty"`
}

// CheckSessionHandler lets the app poll for a completed sign-in by one-time
// code. The code is consumed on the first hit that finds it.
func (h *BridgeHandlers) CheckSessionHandler(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		jsonwriter.WriteBadRequest(w, "Missing code parameter")
		return
	}

	token, err := h.pending.Consume(r.Context(), code)
	if err != nil {
		if errors.Is(err, pending.ErrCodeNotFound) {
			_ = jsonwriter.Write(w, pollResponse{Ready: false})
			return
		}
		log.LogErrorWithFields("bridge", "Pending session lookup failed", map[string]any{
			"error": err.Error(),
		})
		jsonwriter.WriteInternalServerError(w, "Internal Server Error")
		return
	}

	_ = jsonwriter.Write(w, pollResponse{Ready: true, SessionToken: token})
}

// ExpiredPageHandler renders the page shown when a transfer token could not
// be verified
func (h *BridgeHandlers) ExpiredPageHandler(w http.ResponseWriter, r *http.Request) {
	renderPage(w, http.StatusOK, expiredPageTemplate, pageData{
		Title:   "Session expired",
		Message: "Your sign-in link has expired. Please go back to the app and try again.",
	})
}

// LoginHandler starts the Google sign-in flow for an app-generated one-time
// code. The code travels through the OAuth state, signed so the callback can
// trust it.
func (h *BridgeHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Google == nil {
		jsonwriter.WriteNotFound(w, "Google sign-in is not configured")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		jsonwriter.WriteBadRequest(w, "Missing code parameter")
		return
	}

	nonce, err := crypto.GenerateSecureToken()
	if err != nil {
		log.LogError("Failed to generate login nonce: %v", err)
		jsonwriter.WriteInternalServerError(w, "Internal Server Error")
		return
	}

	state, err := h.stateSigner.Sign(loginState{AuthCode: code, Nonce: nonce})
	if err != nil {
		log.LogError("Failed to sign login state: %v", err)
		jsonwriter.WriteInternalServerError(w, "Internal Server Error")
		return
	}

	http.Redirect(w, r, googleauth.AuthURL(*h.cfg.Google, state), http.StatusFound)
}

// CallbackHandler completes the Google sign-in flow. On success the transfer
// token is parked in the pending registry under the app's one-time code and
// the browser gets a session cookie plus a "return to the app" page.
func (h *BridgeHandlers) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Google == nil {
		jsonwriter.WriteNotFound(w, "Google sign-in is not configured")
		return
	}

	query := r.URL.Query()
	if errParam := query.Get("error"); errParam != "" {
		log.LogWarnWithFields("bridge", "Google sign-in denied", map[string]any{
			"error": errParam,
		})
		renderPage(w, http.StatusOK, expiredPageTemplate, pageData{
			Title:   "Sign-in cancelled",
			Message: "Google sign-in was not completed. Please go back to the app and try again.",
		})
		return
	}

	var st loginState
	if err := h.stateSigner.Verify(query.Get("state"), &st); err != nil {
		log.LogDebugWithFields("bridge", "Rejected callback state", map[string]any{
			"error": err.Error(),
		})
		http.Redirect(w, r, "/session/expired", http.StatusFound)
		return
	}

	oauthToken, err := googleauth.ExchangeCodeForToken(r.Context(), *h.cfg.Google, query.Get("code"))
	if err != nil {
		log.LogError("Failed to exchange authorization code: %v", err)
		renderPage(w, http.StatusBadGateway, expiredPageTemplate, pageData{
			Title:   "Sign-in failed",
			Message: "We could not complete the sign-in with Google. Please go back to the app and try again.",
		})
		return
	}

	userInfo, err := googleauth.ValidateUser(r.Context(), *h.cfg.Google, oauthToken)
	if err != nil {
		log.LogWarnWithFields("bridge", "User validation failed", map[string]any{
			"error": err.Error(),
		})
		renderPage(w, http.StatusForbidden, expiredPageTemplate, pageData{
			Title:   "Access denied",
			Message: err.Error(),
		})
		return
	}

	sessionCredential, err := crypto.GenerateSecureToken()
	if err != nil {
		log.LogError("Failed to generate session credential: %v", err)
		jsonwriter.WriteInternalServerError(w, "Internal Server Error")
		return
	}

	transferToken, err := h.codec.Issue(userInfo.Email, sessionCredential)
	if err != nil {
		log.LogError("Failed to issue transfer token: %v", err)
		jsonwriter.WriteInternalServerError(w, "Internal Server Error")
		return
	}

	if err := h.pending.Store(r.Context(), st.AuthCode, transferToken); err != nil {
		log.LogError("Failed to store pending session: %v", err)
		jsonwriter.WriteInternalServerError(w, "Internal Server Error")
		return
	}

	cookie.SetSession(w, sessionCredential, h.codec.TTL())

	log.LogInfoWithFields("bridge", "Sign-in completed", map[string]any{
		"email": userInfo.Email,
	})

	renderPage(w, http.StatusOK, callbackPageTemplate, pageData{
		Title:   "You're signed in",
		Message: "You can close this window and return to the app.",
	})
}
