// ABOUTME: MCP tool handler implementations for the lifeline server
// ABOUTME: Thin wrappers around the core pipeline with JSON tool results
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/lifeline/internal/core"
	"github.com/harper/lifeline/internal/storage"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	storage    *storage.Storage
	summarizer *core.Summarizer
	rebuilder  *core.Rebuilder
	coverage   *core.CoverageAggregator
}

// SummarizeConversation handles the summarize_conversation tool
func (h *Handlers) SummarizeConversation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id argument is required and must be a string"), nil
	}
	conversationID, err := request.RequireString("conversation_id")
	if err != nil {
		return mcp.NewToolResultError("conversation_id argument is required and must be a string"), nil
	}

	outcome, err := h.summarizer.SummarizeConversation(ctx, userID, conversationID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summarization failed: %v", err)), nil
	}

	responseJSON, err := json.Marshal(outcome)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// RebuildInsights handles the rebuild_insights tool
func (h *Handlers) RebuildInsights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id argument is required and must be a string"), nil
	}

	result, err := h.rebuilder.Rebuild(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rebuild failed: %v", err)), nil
	}

	responseJSON, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// RecomputeCoverage handles the recompute_coverage tool
func (h *Handlers) RecomputeCoverage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id argument is required and must be a string"), nil
	}

	if err := h.coverage.Recompute(ctx, userID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("coverage recompute failed: %v", err)), nil
	}

	report, err := h.storage.Coverage.GetReport(userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load coverage report: %v", err)), nil
	}

	responseJSON, err := json.Marshal(report)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// GetProfile handles the get_profile tool
func (h *Handlers) GetProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id argument is required and must be a string"), nil
	}

	profile, err := h.storage.Profiles.Get(userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load profile: %v", err)), nil
	}
	if profile == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no profile found for user %s", userID)), nil
	}

	responseJSON, err := json.Marshal(profile)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
