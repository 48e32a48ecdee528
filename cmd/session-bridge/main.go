package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/traino/session-bridge/internal"
	"github.com/traino/session-bridge/internal/config"
	"github.com/traino/session-bridge/internal/log"
)

var BuildVersion = "dev"

func generateDefaultConfig(path string) error {
	defaultConfig := map[string]any{
		"version": "v1",
		"bridge": map[string]any{
			"baseURL":            "https://bridge.yourcompany.com",
			"addr":               ":8080",
			"allowedOrigins":     []string{"https://app.yourcompany.com"},
			"signingSecret":      map[string]string{"$env": "BRIDGE_SIGNING_SECRET"},
			"serviceTokenHashes": []string{"$2a$10$replace-with-bcrypt-hash"},
			"tokenTtl":           "1h",
			"pendingTtl":         "15m",
			"sweepInterval":      "5m",
			"storage":            "memory",
			"google": map[string]any{
				"clientId":       map[string]string{"$env": "GOOGLE_CLIENT_ID"},
				"clientSecret":   map[string]string{"$env": "GOOGLE_CLIENT_SECRET"},
				"redirectUri":    "https://bridge.yourcompany.com/oauth/callback",
				"allowedDomains": []string{"yourcompany.com"},
			},
		},
	}

	data, err := json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func main() {
	conf := flag.String("config", "", "path to config file (required)")
	version := flag.Bool("version", false, "print version and exit")
	help := flag.Bool("help", false, "print help and exit")
	configInit := flag.String("config-init", "", "generate default config file at specified path")
	validate := flag.Bool("validate", false, "validate config file and exit")
	flag.Parse()
	if *help {
		flag.Usage()
		return
	}
	if *version {
		fmt.Println(BuildVersion)
		return
	}
	if *configInit != "" {
		if err := generateDefaultConfig(*configInit); err != nil {
			log.LogError("Failed to generate config: %v", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default config at: %s\n", *configInit)
		return
	}

	if *conf == "" {
		fmt.Fprintf(os.Stderr, "Error: -config flag is required\n")
		fmt.Fprintf(os.Stderr, "Run with -help for usage information\n")
		os.Exit(1)
	}

	if *validate {
		fmt.Printf("Validating: %s\n", *conf)
		if _, err := config.Load(*conf); err != nil {
			fmt.Printf("Result: FAIL\n  - %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Result: PASS")
		return
	}

	cfg, err := config.Load(*conf)
	if err != nil {
		log.LogError("Failed to load config: %v", err)
		os.Exit(1)
	}

	log.LogInfoWithFields("main", "Starting session-bridge", map[string]any{
		"version": BuildVersion,
		"config":  *conf,
	})

	ctx := context.Background()
	bridge, err := internal.NewBridge(ctx, cfg)
	if err != nil {
		log.LogError("Failed to create session bridge: %v", err)
		os.Exit(1)
	}

	if err := bridge.Run(); err != nil {
		log.LogError("Failed to start server: %v", err)
		os.Exit(1)
	}
}
