// Command model-store serves model artifacts over HTTP, backed by a GCS
// bucket with a local content-addressed cache. With -upload it instead
// pushes a file to the bucket and prints its hash.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"

	"github.com/loomml/loom/pkg/blobs"
)

func main() {
	ctx := context.Background()
	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := klog.FromContext(ctx)

	listen := ":8080"
	cacheDir := os.Getenv("CACHE_DIR")
	if cacheDir == "" {
		// We expect CACHE_DIR to be set when running on kubernetes, but default sensibly for local dev
		cacheDir = "~/.cache/loom/artifacts"
	}
	uploadPath := ""
	flag.StringVar(&listen, "listen", listen, "listen address")
	flag.StringVar(&cacheDir, "cache-dir", cacheDir, "cache directory")
	flag.StringVar(&uploadPath, "upload", uploadPath, "upload the file at this path and exit")
	klog.InitFlags(nil)
	flag.Parse()

	if after, ok := strings.CutPrefix(cacheDir, "~/"); ok {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		cacheDir = filepath.Join(homeDir, after)
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return fmt.Errorf("creating cache directory %q: %w", cacheDir, err)
	}

	bucket := os.Getenv("ARTIFACT_BUCKET")
	if bucket == "" {
		return fmt.Errorf("must specify ARTIFACT_BUCKET env var")
	}
	bucketName, ok := strings.CutPrefix(bucket, "gs://")
	if !ok {
		return fmt.Errorf("ARTIFACT_BUCKET must be a GCS bucket URL (gs://<bucketName>)")
	}
	log.Info("using GCS artifact store", "bucket", bucketName)
	store := &blobs.GCSStore{Bucket: bucketName}

	if uploadPath != "" {
		return upload(ctx, store, uploadPath)
	}

	cache := &blobs.Cache{Dir: cacheDir, Reader: store}
	s := &httpServer{cache: cache}

	log.Info("serving artifacts", "listen", listen)
	if err := http.ListenAndServe(listen, s); err != nil {
		return fmt.Errorf("serving on %q: %w", listen, err)
	}

	return nil
}

func upload(ctx context.Context, store blobs.ArtifactStore, path string) error {
	hash, err := blobs.HashFile(path)
	if err != nil {
		return fmt.Errorf("hashing %q: %w", path, err)
	}
	info := blobs.ArtifactInfo{Name: filepath.Base(path), Hash: hash}
	if err := store.Upload(ctx, path, info); err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

type httpServer struct {
	cache *blobs.Cache
}

func (s *httpServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tokens := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if len(tokens) == 1 && tokens[0] != "" {
		if r.Method == "GET" {
			s.serveGETArtifact(w, r, tokens[0])
			return
		}
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	http.Error(w, "not found", http.StatusNotFound)
}

func (s *httpServer) serveGETArtifact(w http.ResponseWriter, r *http.Request, hash string) {
	ctx := r.Context()

	log := klog.FromContext(ctx)

	// TODO: Validate hash is hex, right length etc

	path, err := s.cache.Fetch(ctx, blobs.ArtifactInfo{Name: hash, Hash: hash})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		log.Error(err, "error fetching artifact", "hash", hash)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	log.Info("serving artifact", "path", path)
	http.ServeFile(w, r, path)
}
