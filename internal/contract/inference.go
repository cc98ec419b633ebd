package contract

import (
	"context"
	"iter"

	"github.com/repomind/repomind/schema"
)

// InferenceClient defines the calls made to the inference server.
type InferenceClient interface {
	// Summarize asks for a Markdown summary of the analysis in one non-streaming call.
	Summarize(ctx context.Context, result *schema.AnalysisResult) (string, error)

	// Ask streams the answer to question. Failures surface as a final error chunk.
	Ask(ctx context.Context, chatCtx schema.ChatContext, question string) iter.Seq[string]
}
