package main

import (
	"os"

	"github.com/joho/godotenv"

	"quizmaster/internal/cli"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
