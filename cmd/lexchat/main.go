package main

import (
	"github.com/joho/godotenv"

	"github.com/custodia-labs/lexchat/internal/adapters/driving/cli"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	// Secrets (OPENAI_API_KEY, GROQ_API_KEY, JWT_SECRET) may come from
	// a .env file; a missing file is not an error.
	_ = godotenv.Load()

	cli.Execute(version)
}
