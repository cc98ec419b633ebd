package contract

import (
	"context"

	"github.com/repomind/repomind/schema"
	"github.com/stretchr/testify/mock"
)

// MockGitClient is a mock implementation of GitClient for testing.
type MockGitClient struct {
	mock.Mock
}

var _ GitClient = &MockGitClient{} // Compile-time check

// Clone implements the GitClient interface.
func (m *MockGitClient) Clone(ctx context.Context, url, dir string, depth int) error {
	ret := m.Called(ctx, url, dir, depth)
	return ret.Error(0)
}

// RecentCommits implements the GitClient interface.
func (m *MockGitClient) RecentCommits(ctx context.Context, dir string, limit int) ([]schema.Commit, error) {
	ret := m.Called(ctx, dir, limit)
	commits, _ := ret.Get(0).([]schema.Commit)
	return commits, ret.Error(1)
}
