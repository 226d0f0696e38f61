package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/gigledger/cashflow/internal/commands"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
