package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/applytrack/internal/ai"
	"github.com/jonathan/applytrack/internal/binding"
	"github.com/jonathan/applytrack/internal/config"
	"github.com/jonathan/applytrack/internal/db"
	"github.com/jonathan/applytrack/internal/lifecycle"
)

// Flags shared by every subcommand.
var (
	flagConfigPath  string
	flagDatabaseURL string
	flagUserID      string
	flagAPIKey      string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	rootCmd.PersistentFlags().StringVar(&flagDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	rootCmd.PersistentFlags().StringVar(&flagUserID, "user-id", "", "User UUID to operate as (optional, defaults to APPLYTRACK_USER_ID env var)")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
}

// env holds everything a subcommand needs once configuration is resolved.
type env struct {
	cfg       config.Config
	userID    uuid.UUID
	store     *db.DB
	lifecycle *lifecycle.Manager
	binding   *binding.Manager
	client    ai.Client
}

func (e *env) close() {
	if e.client != nil {
		_ = e.client.Close()
	}
	if e.store != nil {
		e.store.Close()
	}
}

// setup resolves configuration (file, then env, then flags), connects to the
// database, and wires the managers. The Gemini client is only created when an
// API key is configured.
func setup(ctx context.Context, cmd *cobra.Command) (*env, error) {
	var cfg config.Config
	if flagConfigPath != "" {
		loaded, err := config.LoadConfig(flagConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}
	cfg.ApplyEnv()

	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = flagDatabaseURL
	}
	if cmd.Flags().Changed("user-id") {
		cfg.UserID = flagUserID
	}
	if cmd.Flags().Changed("api-key") {
		cfg.GeminiAPIKey = flagAPIKey
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.UserID == "" {
		return nil, fmt.Errorf("--user-id flag or APPLYTRACK_USER_ID environment variable is required")
	}
	uid, err := uuid.Parse(cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id format: %w", err)
	}

	store, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	e := &env{cfg: cfg, userID: uid, store: store}
	e.lifecycle = lifecycle.NewManager(store)

	var customizer binding.Customizer
	if cfg.GeminiAPIKey != "" {
		client, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			store.Close()
			return nil, err
		}
		e.client = client
		customizer = ai.NewCustomizer(client)
	}
	e.binding = binding.NewManager(store, customizer)

	return e, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readContent returns the contents of path, or stdin when path is "-".
func readContent(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return string(data), nil
}
