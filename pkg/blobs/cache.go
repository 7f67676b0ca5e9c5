package blobs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Cache is a local content-addressed cache in front of an ArtifactReader.
// Artifacts are stored under their hash, so a cache hit never needs
// re-validation.
type Cache struct {
	Dir    string
	Reader ArtifactReader
}

// Fetch returns a local path for the artifact, downloading it on a cache
// miss. The downloaded file is verified against the artifact hash before
// being admitted to the cache.
func (c *Cache) Fetch(ctx context.Context, info ArtifactInfo) (string, error) {
	log := klog.FromContext(ctx)

	if info.Hash == "" {
		return "", fmt.Errorf("artifact %q has no hash", info.Name)
	}

	destPath := filepath.Join(c.Dir, info.Hash)
	if _, err := os.Stat(destPath); err == nil {
		log.V(2).Info("artifact cache hit", "name", info.Name, "hash", info.Hash)
		return destPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("checking cache for artifact %q: %w", info.Name, err)
	}

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache directory: %w", err)
	}

	log.Info("artifact cache miss", "name", info.Name, "hash", info.Hash)
	if err := c.Reader.Download(ctx, info, destPath); err != nil {
		return "", fmt.Errorf("downloading artifact %q: %w", info.Name, err)
	}

	gotHash, err := HashFile(destPath)
	if err != nil {
		return "", fmt.Errorf("hashing downloaded artifact %q: %w", info.Name, err)
	}
	if gotHash != info.Hash {
		if err := os.Remove(destPath); err != nil {
			log.Error(err, "removing corrupt artifact", "path", destPath)
		}
		return "", fmt.Errorf("artifact %q hash mismatch: got %s, want %s", info.Name, gotHash, info.Hash)
	}

	return destPath, nil
}

// FetchAll fetches the artifacts concurrently and returns local paths keyed
// by artifact name.
func (c *Cache) FetchAll(ctx context.Context, infos []ArtifactInfo) (map[string]string, error) {
	paths := make([]string, len(infos))

	errGroup, ctx := errgroup.WithContext(ctx)
	for i, info := range infos {
		errGroup.Go(func() error {
			path, err := c.Fetch(ctx, info)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := errGroup.Wait(); err != nil {
		return nil, err
	}

	byName := make(map[string]string, len(infos))
	for i, info := range infos {
		byName[info.Name] = paths[i]
	}
	return byName, nil
}

// HashFile returns the hex-encoded SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("hashing file: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
