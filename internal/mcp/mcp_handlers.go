package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/repomind/repomind/core"
	"github.com/repomind/repomind/internal/contract"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	analyzer *core.Analyzer
	client   contract.InferenceClient
}

func (h *toolHandler) handleAnalyzeRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	analysis, err := h.analyzer.Analyze(ctx, url)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	result := *analysis.Result
	// Raw image bytes are of no use to a language model.
	result.PreviewImage = nil
	if !request.GetBool("include_readme", true) {
		result.Readme = ""
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleSummarizeRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	analysis, err := h.analyzer.Analyze(ctx, url)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	summary, err := h.client.Summarize(ctx, analysis.Result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summary failed: %v", err)), nil
	}
	return mcp.NewToolResultText(summary), nil
}

func (h *toolHandler) handleAskRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	question := strings.TrimSpace(request.GetString("question", ""))
	if question == "" {
		return mcp.NewToolResultError("question cannot be empty"), nil
	}

	analysis, err := core.AnalyzeAndSummarize(ctx, h.analyzer, h.client, url, request.GetBool("summarize", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	session := core.NewSession()
	session.ReplaceResult(url, analysis.Result)

	var answer strings.Builder
	for chunk := range session.Ask(ctx, h.client, question) {
		answer.WriteString(chunk)
	}
	result := mcp.NewToolResultText(answer.String())
	if analysis.SummaryErr != nil {
		result.Content = append(result.Content, mcp.NewTextContent(fmt.Sprintf("%s (%v)", core.NoSummaryNotice, analysis.SummaryErr)))
	}
	return result, nil
}
