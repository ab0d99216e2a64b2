package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/outpost-labs/outpost/cmd/agent/commands"
	"github.com/outpost-labs/outpost/internal/logger"
)

func main() {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	logger.Initialize()

	if err := commands.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
