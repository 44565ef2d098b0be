package main

import (
	"budgettracker/cmd"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env for local development; the environment wins in production.
	_ = godotenv.Load()

	cmd.Execute()
}
