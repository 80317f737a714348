// Package main is the jobtrail command line entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/runnerr0/jobtrail/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := cli.Run(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
