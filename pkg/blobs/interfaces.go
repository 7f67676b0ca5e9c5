// Package blobs stores and retrieves model artifacts (serialized models,
// tokenizer vocabularies) addressed by the hash of their contents.
package blobs

import "context"

type ArtifactReader interface {
	// If no such artifact exists, Download should return an error for which errors.Is(err, os.ErrNotExist) is true.
	Download(ctx context.Context, info ArtifactInfo, destPath string) error
}

type ArtifactStore interface {
	ArtifactReader
	// Upload uploads the file at sourcePath to the store, using the artifact hash as the object key.
	// If an object with the same hash already exists, Upload should do nothing and return no error.
	Upload(ctx context.Context, sourcePath string, info ArtifactInfo) error
}

// ArtifactInfo identifies one artifact in a model bundle.
type ArtifactInfo struct {
	// Name is the artifact's role in the bundle, e.g. "model" or "tokenizer".
	Name string
	// Hash is the hex-encoded SHA-256 of the artifact contents.
	Hash string
}
