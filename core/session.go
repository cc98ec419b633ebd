package core

import (
	"context"
	"iter"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/schema"
)

// Session is one user's conversation about a single analyzed repository.
// A session is owned by one request at a time; the mutex protects readers
// such as the transcript endpoint.
type Session struct {
	ID         string
	PendingURL string
	Result     *schema.AnalysisResult
	Transcript []schema.ChatMessage

	mu sync.Mutex
}

// NewSession returns an empty session with a fresh identifier.
func NewSession() *Session {
	return &Session{ID: uuid.NewString()}
}

// ReplaceResult swaps in a new analysis. The transcript is append-only and
// carries over to the new repository.
func (s *Session) ReplaceResult(url string, result *schema.AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PendingURL = url
	s.Result = result
}

// SetSummary attaches an AI summary to the current result.
func (s *Session) SetSummary(summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Result != nil {
		s.Result = s.Result.WithSummary(summary)
	}
}

// Snapshot returns the current result and a copy of the transcript.
func (s *Session) Snapshot() (*schema.AnalysisResult, []schema.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Result, append([]schema.ChatMessage(nil), s.Transcript...)
}

// Ask records question, streams the answer from client and records the answer
// once the stream ends. Without a result it yields nothing.
func (s *Session) Ask(ctx context.Context, client contract.InferenceClient, question string) iter.Seq[string] {
	return func(yield func(string) bool) {
		s.mu.Lock()
		result := s.Result
		if result == nil {
			s.mu.Unlock()
			return
		}
		s.Transcript = append(s.Transcript, schema.ChatMessage{Role: schema.UserRole, Content: question})
		s.mu.Unlock()

		var answer strings.Builder
		defer func() {
			s.mu.Lock()
			s.Transcript = append(s.Transcript, schema.ChatMessage{Role: schema.AssistantRole, Content: answer.String()})
			s.mu.Unlock()
		}()

		for chunk := range client.Ask(ctx, result.ChatContext(), question) {
			answer.WriteString(chunk)
			if !yield(chunk) {
				return
			}
		}
	}
}
