// ABOUTME: Main entry point for Lifeline MCP server with stdio transport
// ABOUTME: Initializes storage, the pipeline stages, and all MCP tools
package main

import (
	"log"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/lifeline/internal/config"
	"github.com/harper/lifeline/internal/core"
	"github.com/harper/lifeline/internal/llm"
	"github.com/harper/lifeline/internal/mcp"
	"github.com/harper/lifeline/internal/storage"
)

func main() {
	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.OpenAIKey == "" {
		log.Fatal("OPENAI_API_KEY is required; summarization tools cannot run without it")
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer func() { _ = store.Close() }()

	gen, err := llm.NewOpenAIGeneratorWithConfig(&llm.ClientConfig{
		APIKey:     cfg.OpenAIKey,
		ChatModel:  cfg.ChatModel,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	})
	if err != nil {
		log.Fatalf("Failed to initialize generator: %v", err)
	}

	profiler := core.NewProfiler(store, gen)
	coverage := core.NewCoverageAggregator(store, gen)
	coverage.SetTurnWindow(cfg.CoverageTurnWindow)
	summarizer := core.NewSummarizer(store, gen, profiler, coverage)
	summarizer.SetFirstRunTurnLimit(cfg.FirstRunTurnLimit)
	rebuilder := core.NewRebuilder(store, gen)
	rebuilder.SetBackfillWindow(cfg.BackfillWindow)
	rebuilder.SetFallbackCount(cfg.FallbackSummaryCount)

	server := mcpserver.NewMCPServer(
		"Lifeline Memory Pipeline",
		"0.1.0",
	)
	mcp.RegisterTools(server, store, summarizer, rebuilder, coverage)

	log.Println("Lifeline MCP server starting on stdio...")
	if err := mcpserver.ServeStdio(server); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
