package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/murmurapp/searchcore/internal/adapters/driving/cli"
	"github.com/murmurapp/searchcore/internal/logger"
)

// version is set by the release build via -ldflags.
var version = "dev"

func main() {
	// Load .env if present so OPENAI_API_KEY can live next to the
	// binary during development.
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded: %v", err)
	}

	if err := cli.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
