package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/repomind/repomind/core"
	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/internal/logger"
	"github.com/repomind/repomind/schema"
)

// maxBodyBytes bounds request bodies; they only carry a URL or a question.
const maxBodyBytes = 64 * 1024

type analyzeRequest struct {
	URL       string `json:"url"`
	Summarize bool   `json:"summarize"`
}

type analyzeResponse struct {
	SessionID  string                 `json:"session_id"`
	CacheHit   bool                   `json:"cache_hit"`
	DurationMs int64                  `json:"duration_ms"`
	Result     *schema.AnalysisResult `json:"result"`
	// SummaryError explains why a requested summary is missing.
	SummaryError string `json:"summary_error,omitempty"`
}

type chatRequest struct {
	Question string `json:"question"`
}

type sessionResponse struct {
	SessionID string               `json:"session_id"`
	RepoURL   string               `json:"repo_url,omitempty"`
	RepoName  string               `json:"repo_name,omitempty"`
	Messages  []schema.ChatMessage `json:"messages"`
}

// writeJSONResponse writes a JSON response with the given data
func writeJSONResponse(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Debugf("failed to encode response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	writeJSONResponse(w, map[string]string{"error": message}, statusCode)
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

// sessionError maps registry errors to HTTP responses.
func sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errSessionNotFound):
		writeErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, errSessionBusy):
		writeErrorResponse(w, err.Error(), http.StatusConflict)
	default:
		writeErrorResponse(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.client.Heartbeat(r.Context()); err != nil {
		writeJSONResponse(w, map[string]string{"status": "degraded", "inference": err.Error()}, http.StatusServiceUnavailable)
		return
	}
	writeJSONResponse(w, map[string]string{"status": "ok", "inference": "ok"}, http.StatusOK)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	session := s.sessions.create()
	writeJSONResponse(w, sessionResponse{SessionID: session.ID, Messages: []schema.ChatMessage{}}, http.StatusCreated)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.remove(chi.URLParam(r, "id")) {
		sessionError(w, errSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		sessionError(w, err)
		return
	}
	result, transcript := session.Snapshot()
	resp := sessionResponse{SessionID: session.ID, Messages: transcript}
	if resp.Messages == nil {
		resp.Messages = []schema.ChatMessage{}
	}
	if result != nil {
		resp.RepoURL = result.RepoURL
		resp.RepoName = result.RepoName
	}
	writeJSONResponse(w, resp, http.StatusOK)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := contract.ValidateRepoURL(req.URL); err != nil {
		writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	session, release, err := s.sessions.acquire(chi.URLParam(r, "id"))
	if err != nil {
		sessionError(w, err)
		return
	}
	defer release()

	if !s.limiter.Allow() {
		s.metrics.rateLimited.Inc()
		w.Header().Set("Retry-After", "1")
		writeErrorResponse(w, "too many analyze requests", http.StatusTooManyRequests)
		return
	}

	start := time.Now()
	analysis, err := core.AnalyzeAndSummarize(r.Context(), s.analyzer, s.client, req.URL, req.Summarize)
	elapsed := time.Since(start)
	s.metrics.observeAnalysis(err, analysis != nil && analysis.CacheHit, elapsed)
	if err != nil {
		var cloneErr *contract.CloneError
		if errors.As(err, &cloneErr) {
			writeErrorResponse(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}

	session.ReplaceResult(strings.TrimSpace(req.URL), analysis.Result)
	resp := analyzeResponse{
		SessionID:  session.ID,
		CacheHit:   analysis.CacheHit,
		DurationMs: elapsed.Milliseconds(),
		Result:     analysis.Result,
	}
	if analysis.SummaryErr != nil {
		resp.SummaryError = analysis.SummaryErr.Error()
	}
	writeJSONResponse(w, resp, http.StatusOK)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeErrorResponse(w, "question cannot be empty", http.StatusBadRequest)
		return
	}

	session, release, err := s.sessions.acquire(chi.URLParam(r, "id"))
	if err != nil {
		sessionError(w, err)
		return
	}
	defer release()

	if result, _ := session.Snapshot(); result == nil {
		writeErrorResponse(w, "analyze a repository before chatting", http.StatusConflict)
		return
	}
	s.metrics.chatRequests.Inc()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	for chunk := range session.Ask(r.Context(), s.client, question) {
		if _, err := io.WriteString(w, chunk); err != nil {
			logger.Debugf("chat client went away: %v", err)
			return
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			logger.Debugf("failed to flush chat chunk: %v", err)
		}
	}
}
