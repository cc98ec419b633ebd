package contract

import (
	"fmt"
)

// CloneError reports a failed repository acquisition. The analysis is aborted.
type CloneError struct {
	URL string
	Err error
}

func (e *CloneError) Error() string {
	return fmt.Sprintf("failed to clone %s: %v", e.URL, e.Err)
}

func (e *CloneError) Unwrap() error { return e.Err }

// ManifestParseError reports a dependency manifest that could not be parsed.
// It is logged and the manifest is treated as having no dependencies.
type ManifestParseError struct {
	Manifest string
	Err      error
}

func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Manifest, e.Err)
}

func (e *ManifestParseError) Unwrap() error { return e.Err }

// RemoteCallError reports a failed exchange with the inference server.
type RemoteCallError struct {
	Op  string
	Err error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("inference server %s failed: %v", e.Op, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// CleanupError reports a temporary directory that could not be removed.
type CleanupError struct {
	Dir      string
	Attempts int
	Err      error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("failed to remove %s after %d attempts: %v", e.Dir, e.Attempts, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }
