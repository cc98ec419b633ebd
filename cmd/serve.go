package cmd

import (
	"github.com/repomind/repomind/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd starts the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve analysis and chat sessions over HTTP",
	Long: `Start an HTTP API for browser or service clients.

Routes:
  POST   /api/sessions               create a session
  POST   /api/sessions/{id}/analyze  analyze {"url": ..., "summarize": true}
  POST   /api/sessions/{id}/chat     stream an answer to {"question": ...}
  GET    /api/sessions/{id}/messages read the transcript
  DELETE /api/sessions/{id}          drop the session
  GET    /healthz                    inference server heartbeat
  GET    /metrics                    Prometheus metrics

Analyze requests are rate limited by --rate-limit.

Examples:
  repomind serve --listen :9000
  REPOMIND_CACHE_BACKEND=sqlite repomind serve`,
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return server.Serve(rootCtx, cfg, cacheManager)
	},
}
