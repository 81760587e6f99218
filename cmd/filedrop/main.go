package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"filedrop/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// A missing .env file is fine; explicit environment always wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := newRootCmd(cfg).Execute(); err != nil {
		for _, line := range formatCLIError(err) {
			fmt.Fprintln(os.Stderr, line)
		}
		os.Exit(1)
	}
}
