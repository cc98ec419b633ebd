// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/repomind/repomind/core"
	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/internal/ollama"
)

// NewMCPServer initializes and configures the RepoMind MCP server without starting it.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) (*server.MCPServer, error) {
	client, err := ollama.FromConfig(baseCfg)
	if err != nil {
		return nil, err
	}
	analyzer := core.NewAnalyzer(baseCfg, core.NewGitClient(baseCfg), mgr)
	return NewServer(analyzer, client), nil
}

// NewServer registers the RepoMind tools backed by analyzer and client.
// This is exposed for unit testing.
func NewServer(analyzer *core.Analyzer, client contract.InferenceClient) *server.MCPServer {
	s := server.NewMCPServer(
		"RepoMind Repository Analysis Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		analyzer: analyzer,
		client:   client,
	}

	// --- 1. Tool: analyze_repository ---
	s.AddTool(mcp.NewTool("analyze_repository",
		mcp.WithDescription("Clone a public Git repository and report its languages, dependencies, commit activity, size, file tree and README."),
		mcp.WithString("url", mcp.Description("Clone URL of the repository."), mcp.Required()),
		mcp.WithBoolean("include_readme", mcp.Description("Include the full README text (defaults to true).")),
	), h.handleAnalyzeRepository)

	// --- 2. Tool: summarize_repository ---
	s.AddTool(mcp.NewTool("summarize_repository",
		mcp.WithDescription("Analyze a repository and ask the inference server for a short Markdown summary of its purpose and technologies."),
		mcp.WithString("url", mcp.Description("Clone URL of the repository."), mcp.Required()),
	), h.handleSummarizeRepository)

	// --- 3. Tool: ask_repository ---
	s.AddTool(mcp.NewTool("ask_repository",
		mcp.WithDescription("Answer a question about a repository using its analysis as context."),
		mcp.WithString("url", mcp.Description("Clone URL of the repository."), mcp.Required()),
		mcp.WithString("question", mcp.Description("The question to answer."), mcp.Required()),
		mcp.WithBoolean("summarize", mcp.Description("Summarize the repository first and include the summary as context.")),
	), h.handleAskRepository)

	return s
}

// StartMCPServer starts the RepoMind MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s, err := NewMCPServer(baseCfg, mgr)
	if err != nil {
		return err
	}
	return server.ServeStdio(s)
}
