// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents like Claude to drive the pipeline via stdio
package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/lifeline/internal/core"
	"github.com/harper/lifeline/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs Lifeline as an MCP (Model Context Protocol) server, exposing
summarize_conversation, rebuild_insights, recompute_coverage, and
get_profile as tools over stdio.

Configure in Claude Desktop's config file to enable the tools.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  lifeline mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "lifeline": {
  #       "command": "lifeline",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	store, cfg, err := openStorage()
	if err != nil {
		return err
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		_ = store.Close()
		return err
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

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !quiet {
		log.Println("Lifeline MCP server starting on stdio...")
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		if !quiet {
			log.Println("Shutdown signal received, gracefully shutting down...")
		}
		if err := store.Close(); err != nil {
			log.Printf("Warning: Error closing storage: %v", err)
		}
		if !quiet {
			log.Println("Shutdown complete")
		}

	case err := <-serverErr:
		_ = store.Close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
