package contract

import (
	"context"
	"iter"
	"slices"

	"github.com/repomind/repomind/schema"
	"github.com/stretchr/testify/mock"
)

// MockInferenceClient is a mock implementation of InferenceClient for testing.
type MockInferenceClient struct {
	mock.Mock
}

var _ InferenceClient = &MockInferenceClient{} // Compile-time check

// Summarize implements the InferenceClient interface.
func (m *MockInferenceClient) Summarize(ctx context.Context, result *schema.AnalysisResult) (string, error) {
	ret := m.Called(ctx, result)
	return ret.String(0), ret.Error(1)
}

// Ask implements the InferenceClient interface. The mocked return value is the chunk list.
func (m *MockInferenceClient) Ask(ctx context.Context, chatCtx schema.ChatContext, question string) iter.Seq[string] {
	ret := m.Called(ctx, chatCtx, question)
	chunks, _ := ret.Get(0).([]string)
	return slices.Values(chunks)
}
