package server

import (
	"net/http"

	"github.com/traino/session-bridge/internal/config"
)

// NewRouter builds the HTTP routing table with the standard middleware chain
func NewRouter(cfg config.BridgeConfig, handlers *BridgeHandlers) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /health", NewHealthHandler())

	mux.Handle("POST /session/token", ChainMiddleware(
		http.HandlerFunc(handlers.GenerateTokenHandler),
		NewServiceAuthMiddleware(cfg.ServiceTokenHashes),
	))
	mux.HandleFunc("GET /session/restore", handlers.RestoreSessionHandler)
	mux.HandleFunc("GET /session/poll", handlers.CheckSessionHandler)
	mux.HandleFunc("GET /session/expired", handlers.ExpiredPageHandler)

	mux.HandleFunc("GET /oauth/login", handlers.LoginHandler)
	mux.HandleFunc("GET /oauth/callback", handlers.CallbackHandler)

	return ChainMiddleware(mux,
		NewCORSMiddleware(cfg.AllowedOrigins),
		NewRecoverMiddleware("http"),
		NewLoggerMiddleware("http"),
	)
}
