package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/velora-shop/storefront-backend/internal/cart"
	"github.com/velora-shop/storefront-backend/internal/cart/boltstore"
	"github.com/velora-shop/storefront-backend/internal/client/api"
	"github.com/velora-shop/storefront-backend/internal/client/cli"
	"github.com/velora-shop/storefront-backend/pkg/logger"
	"golang.org/x/term"
)

func main() {
	serverURL := flag.String("server", envOr("SHOPPER_SERVER", "http://localhost:8080"), "Storefront API URL")
	dbPath := flag.String("db", envOr("CART_DB_PATH", "shopper.db"), "Path to the local cart database")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Usage = func() { cli.PrintUsage(os.Stderr) }
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger.Initialize(logger.Config{
		Level:  level,
		Format: "console",
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := boltstore.New(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open cart database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := storage.Close(); err != nil {
			logger.Error("Failed to close cart database", err)
		}
	}()

	apiClient, err := api.NewClient(*serverURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	runner := cli.New(apiClient, cart.New(storage), storage, os.Stdout, readPassword)
	if err := runner.Run(ctx, flag.Args()); err != nil {
		if !errors.Is(err, cli.ErrUsage) || flag.NArg() > 0 {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
