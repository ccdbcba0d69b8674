// ABOUTME: MCP tool definitions and registration for the lifeline server
// ABOUTME: Exposes the pipeline entry points as tools over stdio transport
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/lifeline/internal/core"
	"github.com/harper/lifeline/internal/storage"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, store *storage.Storage, summarizer *core.Summarizer, rebuilder *core.Rebuilder, coverage *core.CoverageAggregator) *Handlers {
	handlers := &Handlers{
		storage:    store,
		summarizer: summarizer,
		rebuilder:  rebuilder,
		coverage:   coverage,
	}

	// 1. summarize_conversation - incremental per-conversation summary update
	server.AddTool(mcp.Tool{
		Name:        "summarize_conversation",
		Description: "Incrementally update the rolling summary for one conversation, processing only turns newer than the stored anchor.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "User whose conversation should be summarized",
				},
				"conversation_id": map[string]interface{}{
					"type":        "string",
					"description": "Conversation to summarize",
				},
			},
			Required: []string{"user_id", "conversation_id"},
		},
	}, handlers.SummarizeConversation)

	// 2. rebuild_insights - full cross-session resynthesis
	server.AddTool(mcp.Tool{
		Name:        "rebuild_insights",
		Description: "Backfill missing summaries, distill durable life themes plus a master narrative, and atomically replace the user's insight rows. Intended for the end-session trigger.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "User to rebuild insights for",
				},
			},
			Required: []string{"user_id"},
		},
	}, handlers.RebuildInsights)

	// 3. recompute_coverage - batch coverage recompute over the recent turn window
	server.AddTool(mcp.Tool{
		Name:        "recompute_coverage",
		Description: "Recompute life-chapter coverage scores for a user across the recent turn window.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "User to recompute coverage for",
				},
			},
			Required: []string{"user_id"},
		},
	}, handlers.RecomputeCoverage)

	// 4. get_profile - read the lifetime profile
	server.AddTool(mcp.Tool{
		Name:        "get_profile",
		Description: "Fetch the user's lifetime profile narrative and structured observations.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "User whose profile to fetch",
				},
			},
			Required: []string{"user_id"},
		},
	}, handlers.GetProfile)

	return handlers
}
