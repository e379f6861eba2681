package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"flyergen/internal/infra"
	"flyergen/internal/infra/credentials"
)

// providertoken stores an image provider API token in the database, where it
// overrides the matching environment variable on the next registry reload.
func main() {
	var (
		keyFlag      string
		providerFlag string
	)
	flag.StringVar(&keyFlag, "key", "", "API key for the selected provider (falls back to environment)")
	flag.StringVar(&providerFlag, "provider", "", "image provider to configure (ideogram, fal, huggingface or stability)")
	flag.Parse()

	provider := strings.TrimSpace(strings.ToLower(providerFlag))
	envKeys := map[string]string{
		credentials.ProviderIdeogram:    "IDEOGRAM_API_KEY",
		credentials.ProviderFal:         "FAL_API_KEY",
		credentials.ProviderHuggingFace: "HUGGINGFACE_API_KEY",
		credentials.ProviderStability:   "STABILITY_API_KEY",
	}
	envKey, ok := envKeys[provider]
	if !ok {
		fmt.Fprintf(os.Stderr, "unsupported provider %q\n", providerFlag)
		os.Exit(1)
	}

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv(envKey))
	}
	if key == "" {
		fmt.Fprintf(os.Stderr, "%s API key is required via -key or %s\n", provider, envKey)
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "providertoken").Str("provider", provider).Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	ctxExec, cancelExec := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelExec()
	if err := store.SetToken(ctxExec, provider, key); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist %s api key: %v\n", provider, err)
		os.Exit(1)
	}

	fmt.Printf("%s API key stored successfully\n", provider)
}
