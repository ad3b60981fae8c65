package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"joke-browser/internal/config"
	"joke-browser/internal/jokeapi"
	"joke-browser/pkg/logger"
)

func main() {
	baseURL := flag.String("base-url", "https://official-joke-api.appspot.com", "joke API base URL")
	path := flag.String("path", "/jokes/random/250", "joke list path")
	timeout := flag.Duration("timeout", jokeapi.DefaultTimeout, "request timeout")
	show := flag.Int("show", 5, "number of jokes to print")
	flag.Parse()

	logger.Init("debug", "text", os.Stderr)

	fmt.Println("=== Fetching Jokes ===")
	fmt.Println()

	client := jokeapi.New(config.APIConfig{
		BaseURL: *baseURL,
		Path:    *path,
		Timeout: *timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout+5*time.Second)
	defer cancel()

	batch, err := client.FetchAll(ctx)
	if err != nil {
		fmt.Printf("✗ %s\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Fetched %d jokes from %s\n", len(batch), client.URL())
	for i, j := range batch {
		if i >= *show {
			break
		}
		fmt.Printf("  #%d [%s] %s / %s\n", j.ID, j.Type, j.Setup, j.Punchline)
	}

	fmt.Println()
	fmt.Println("=== Done ===")
}
