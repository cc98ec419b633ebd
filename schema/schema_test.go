package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommitHistogram(t *testing.T) {
	h := CommitHistogram{"2024-03": 4, "2023-12": 9, "2024-01": 1}
	assert.Equal(t, []string{"2023-12", "2024-01", "2024-03"}, h.Months())
	assert.Equal(t, 9, h.Max())

	var empty CommitHistogram
	assert.Empty(t, empty.Months())
	assert.Zero(t, empty.Max())
}

func TestWithSummary(t *testing.T) {
	original := &AnalysisResult{RepoName: "widgets"}
	summarized := original.WithSummary("A widget factory.")

	assert.False(t, original.HasSummary())
	assert.True(t, summarized.HasSummary())
	assert.Equal(t, "widgets", summarized.RepoName)
	assert.NotSame(t, original, summarized)
}

func TestChatContext(t *testing.T) {
	result := &AnalysisResult{
		RepoName:     "widgets",
		AISummary:    "A widget factory.",
		Languages:    map[string]int{"Go": 3},
		FileTree:     "📄 main.go",
		Readme:       "# Widgets",
		Dependencies: map[string][]string{"Python (requirements.txt)": {"flask"}},
		PreviewImage: []byte{1},
	}
	assert.Equal(t, ChatContext{
		RepoName:   "widgets",
		AISummary:  "A widget factory.",
		Languages:  map[string]int{"Go": 3},
		FileTree:   "📄 main.go",
		FullReadme: "# Widgets",
	}, result.ChatContext())
}
