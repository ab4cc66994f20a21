package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"simindex/internal/sink"
)

// FailureArtifact returns the conventional file name for an index's failed
// documents. Naming by index keeps runs against different indices from
// clobbering each other's artifacts; a rerun against the same index
// overwrites its own (last write wins).
func FailureArtifact(index string) string {
	return fmt.Sprintf("failed_docs_%s.json", index)
}

// WriteFailures persists the failed documents for index into dir as a JSON
// array of {document, reason} objects, re-loadable for inspection or retry.
// An empty failure list writes nothing and removes no prior artifact.
func WriteFailures(dir, index string, failures []sink.Failure) (string, error) {
	if len(failures) == 0 {
		return "", nil
	}
	b, err := json.MarshalIndent(failures, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encode failures: %w", err)
	}
	path := filepath.Join(dir, FailureArtifact(index))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write failures: %w", err)
	}
	return path, nil
}
