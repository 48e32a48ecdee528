// Package internal wires the session bridge application together.
package internal

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/traino/session-bridge/internal/config"
	"github.com/traino/session-bridge/internal/crypto"
	"github.com/traino/session-bridge/internal/log"
	"github.com/traino/session-bridge/internal/pending"
	"github.com/traino/session-bridge/internal/server"
	"github.com/traino/session-bridge/internal/transfer"
)

// Bridge represents the complete session bridge application
type Bridge struct {
	config     config.Config
	httpServer *server.HTTPServer
	sweeper    *pending.Sweeper
}

// NewBridge creates the session bridge application with all dependencies built
func NewBridge(ctx context.Context, cfg config.Config) (*Bridge, error) {
	log.LogInfoWithFields("bridge", "Building session bridge application", map[string]any{
		"baseURL": cfg.Bridge.BaseURL,
		"storage": string(cfg.Bridge.Storage),
	})

	if _, err := url.Parse(cfg.Bridge.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	store, err := setupStorage(ctx, cfg.Bridge)
	if err != nil {
		return nil, fmt.Errorf("failed to setup storage: %w", err)
	}

	codec, err := transfer.NewCodec([]byte(cfg.Bridge.SigningSecret), cfg.Bridge.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer codec: %w", err)
	}

	handlers := server.NewBridgeHandlers(cfg.Bridge, codec, store)
	router := server.NewRouter(cfg.Bridge, handlers)

	return &Bridge{
		config:     cfg,
		httpServer: server.NewHTTPServer(router, cfg.Bridge.Addr),
		sweeper:    pending.NewSweeper(store, cfg.Bridge.SweepInterval),
	}, nil
}

// Run starts the application and blocks until shutdown
func (b *Bridge) Run() error {
	log.LogInfoWithFields("bridge", "Starting session bridge", map[string]any{
		"addr": b.config.Bridge.Addr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b.sweeper.Start(ctx)

	// Channel to signal errors that should trigger shutdown
	errChan := make(chan error, 1)

	go func() {
		if err := b.httpServer.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var shutdownReason string
	select {
	case sig := <-sigChan:
		shutdownReason = fmt.Sprintf("signal %v", sig)
		log.LogInfoWithFields("bridge", "Received shutdown signal", map[string]any{
			"signal": sig.String(),
		})
	case err := <-errChan:
		shutdownReason = fmt.Sprintf("error: %v", err)
		log.LogErrorWithFields("bridge", "Shutting down due to error", map[string]any{
			"error": err.Error(),
		})
	case <-ctx.Done():
		shutdownReason = "context cancelled"
		log.LogInfoWithFields("bridge", "Context cancelled, shutting down", nil)
	}

	log.LogInfoWithFields("bridge", "Starting graceful shutdown", map[string]any{
		"reason":  shutdownReason,
		"timeout": "30s",
	})
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := b.httpServer.Stop(shutdownCtx); err != nil {
		log.LogErrorWithFields("bridge", "HTTP server shutdown error", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	b.sweeper.Stop()

	log.LogInfoWithFields("bridge", "Application shutdown complete", map[string]any{
		"reason": shutdownReason,
	})
	return nil
}

// setupStorage creates the pending session store based on configuration
func setupStorage(ctx context.Context, cfg config.BridgeConfig) (pending.Store, error) {
	if cfg.Storage == config.StorageKindFirestore {
		log.LogInfoWithFields("storage", "Using Firestore pending session store", map[string]any{
			"project":    cfg.GCPProject,
			"database":   cfg.FirestoreDatabase,
			"collection": cfg.FirestoreCollection,
		})
		encryptor, err := crypto.NewEncryptor([]byte(cfg.EncryptionKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create encryptor: %w", err)
		}
		store, err := pending.NewFirestoreStore(
			ctx,
			cfg.GCPProject,
			cfg.FirestoreDatabase,
			cfg.FirestoreCollection,
			cfg.PendingTTL,
			encryptor,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Firestore store: %w", err)
		}
		return store, nil
	}

	log.LogInfoWithFields("storage", "Using in-memory pending session store", map[string]any{})
	return pending.NewMemoryStore(cfg.PendingTTL), nil
}
