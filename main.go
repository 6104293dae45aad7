package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/foodifind/foodifind/pkg/cli"
)

func main() {
	// .env is optional; ignore a missing file
	_ = godotenv.Load()

	ctx := context.Background()
	if err := cli.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Message)
		os.Exit(err.Code)
	}
}
