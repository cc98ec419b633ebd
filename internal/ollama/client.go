// Package ollama talks to an Ollama-compatible inference server.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/internal/logger"
	"github.com/repomind/repomind/schema"
	"github.com/tidwall/gjson"
)

// ConnectionErrorChunk is yielded by Ask when the server cannot be reached or the stream breaks.
const ConnectionErrorChunk = "Error connecting to the inference server."

// maxLineSize bounds a single NDJSON line of the chat stream.
const maxLineSize = 1024 * 1024

const summaryPrompt = "Analyze the following Git repository data and provide a concise, expert summary in Markdown:\n\n%s\n\n" +
	"Generate:\n1. **Project Purpose:** A one-sentence summary.\n" +
	"2. **Key Technologies:** A bulleted list of tech.\n" +
	"3. **Overall Impression:** A short paragraph on its purpose and audience."

const chatPrompt = "You are an expert AI assistant. Use the repository context below to answer the user's question. " +
	"If the context is insufficient, say so.\n\n**CONTEXT:**\n---\n%s\n---\n\n**QUESTION:** %s"

// Client is an InferenceClient backed by the /api/chat endpoint.
type Client struct {
	endpoint string
	model    string

	summary *api.Client
	admin   *api.Client
	chat    *http.Client
}

var _ contract.InferenceClient = &Client{} // Compile-time check

// NewClient creates a client for endpoint using model. The timeouts bound the whole
// summary call and the whole chat stream respectively.
func NewClient(endpoint, model string, summaryTimeout, chatTimeout time.Duration) (*Client, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	base, err := url.Parse(endpoint)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid inference endpoint %q", endpoint)
	}
	return &Client{
		endpoint: endpoint,
		model:    model,
		summary:  api.NewClient(base, &http.Client{Timeout: summaryTimeout}),
		admin:    api.NewClient(base, &http.Client{Timeout: 10 * time.Second}),
		chat:     &http.Client{Timeout: chatTimeout},
	}, nil
}

// FromConfig creates a client from the validated config.
func FromConfig(cfg *contract.Config) (*Client, error) {
	return NewClient(cfg.Endpoint, cfg.Model, cfg.SummaryTimeout, cfg.ChatTimeout)
}

// Model returns the model identifier sent with every request.
func (c *Client) Model() string { return c.model }

// summaryInput is the part of an analysis embedded in the summary prompt.
type summaryInput struct {
	RepoName         string              `json:"repo_name"`
	Languages        map[string]int      `json:"languages"`
	Dependencies     map[string][]string `json:"dependencies"`
	TotalFiles       int                 `json:"total_files"`
	Contributors     int                 `json:"contributors"`
	LatestCommitDate string              `json:"latest_commit_date"`
	RepoSize         string              `json:"repo_size"`
	FileTree         string              `json:"file_tree"`
}

// SummaryPrompt builds the prompt sent by Summarize.
func SummaryPrompt(result *schema.AnalysisResult) (string, error) {
	data, err := json.Marshal(summaryInput{
		RepoName:         result.RepoName,
		Languages:        result.Languages,
		Dependencies:     result.Dependencies,
		TotalFiles:       result.TotalFiles,
		Contributors:     result.Contributors,
		LatestCommitDate: result.LatestCommitDate,
		RepoSize:         result.RepoSize,
		FileTree:         result.FileTree,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(summaryPrompt, data), nil
}

// ChatPrompt builds the prompt sent by Ask.
func ChatPrompt(chatCtx schema.ChatContext, question string) (string, error) {
	data, err := json.Marshal(chatCtx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(chatPrompt, data, question), nil
}

// Summarize asks the model for a Markdown summary of result in a single non-streaming call.
func (c *Client) Summarize(ctx context.Context, result *schema.AnalysisResult) (string, error) {
	prompt, err := SummaryPrompt(result)
	if err != nil {
		return "", &contract.RemoteCallError{Op: "summarize", Err: err}
	}

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: []api.Message{{Role: string(schema.UserRole), Content: prompt}},
		Stream:   &stream,
	}

	var sb strings.Builder
	err = c.summary.Chat(ctx, req, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", &contract.RemoteCallError{Op: "summarize", Err: err}
	}
	return sb.String(), nil
}

// chatRequest is the body of a streaming /api/chat call.
type chatRequest struct {
	Model    string               `json:"model"`
	Messages []schema.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
}

// Ask streams the model's answer to question about chatCtx.
// Blank and malformed lines are skipped. Any transport failure ends the
// sequence with ConnectionErrorChunk.
func (c *Client) Ask(ctx context.Context, chatCtx schema.ChatContext, question string) iter.Seq[string] {
	return func(yield func(string) bool) {
		prompt, err := ChatPrompt(chatCtx, question)
		if err != nil {
			logger.Warnf("failed to build chat prompt: %v", err)
			yield(ConnectionErrorChunk)
			return
		}
		body, err := json.Marshal(chatRequest{
			Model:    c.model,
			Messages: []schema.ChatMessage{{Role: schema.UserRole, Content: prompt}},
			Stream:   true,
		})
		if err != nil {
			yield(ConnectionErrorChunk)
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/chat", bytes.NewReader(body))
		if err != nil {
			yield(ConnectionErrorChunk)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/x-ndjson")

		resp, err := c.chat.Do(req)
		if err != nil {
			logger.Warnf("chat request failed: %v", err)
			yield(ConnectionErrorChunk)
			return
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			logger.Warnf("chat request returned status %d", resp.StatusCode)
			yield(ConnectionErrorChunk)
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(bytes.TrimSpace(line)) == 0 || !gjson.ValidBytes(line) {
				continue
			}
			parsed := gjson.ParseBytes(line)
			if content := parsed.Get("message.content").String(); content != "" {
				if !yield(content) {
					return
				}
			}
			if parsed.Get("done").Bool() {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Warnf("chat stream interrupted: %v", err)
			yield(ConnectionErrorChunk)
		}
	}
}

// ListModels returns the models served by the inference server.
func (c *Client) ListModels(ctx context.Context) ([]schema.ModelInfo, error) {
	resp, err := c.admin.List(ctx)
	if err != nil {
		return nil, &contract.RemoteCallError{Op: "list models", Err: err}
	}
	models := make([]schema.ModelInfo, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, schema.ModelInfo{
			Name:       m.Name,
			Size:       m.Size,
			Family:     m.Details.Family,
			Parameters: m.Details.ParameterSize,
			ModifiedAt: m.ModifiedAt,
		})
	}
	return models, nil
}

// Heartbeat reports whether the inference server is reachable.
func (c *Client) Heartbeat(ctx context.Context) error {
	if err := c.admin.Heartbeat(ctx); err != nil {
		return &contract.RemoteCallError{Op: "heartbeat", Err: err}
	}
	return nil
}

// Version returns the inference server version.
func (c *Client) Version(ctx context.Context) (string, error) {
	v, err := c.admin.Version(ctx)
	if err != nil {
		return "", &contract.RemoteCallError{Op: "version", Err: err}
	}
	return v, nil
}
