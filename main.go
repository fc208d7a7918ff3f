package main

import (
	"github.com/joho/godotenv"

	"roastmachine/cmd"
)

func main() {
	// API keys live in .env during local development; missing file is fine.
	_ = godotenv.Load()

	cmd.Execute()
}
