// Command loom inspects and runs serialized models. With a prompt and a
// tokenizer it runs greedy text generation; with -describe it prints the
// model's inputs and outputs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"

	"github.com/loomml/loom/pkg/blobs"
	"github.com/loomml/loom/pkg/generate"
	"github.com/loomml/loom/pkg/graph"
	"github.com/loomml/loom/pkg/model"
	"github.com/loomml/loom/pkg/text"
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

	var modelPath, tokenizerPath string
	var modelHash, tokenizerHash string
	var bucket, cacheDir string
	var prompt, stopToken string
	var maxTokens int
	var timing, describe bool

	flag.StringVar(&modelPath, "model", "", "path to a model file")
	flag.StringVar(&tokenizerPath, "tokenizer", "", "path to a tokenizer.json file")
	flag.StringVar(&modelHash, "model-hash", "", "fetch the model by hash from the artifact store")
	flag.StringVar(&tokenizerHash, "tokenizer-hash", "", "fetch the tokenizer by hash from the artifact store")
	flag.StringVar(&bucket, "bucket", os.Getenv("ARTIFACT_BUCKET"), "artifact store bucket (gs://<name>)")
	flag.StringVar(&cacheDir, "cache-dir", defaultCacheDir(), "local artifact cache directory")
	flag.StringVar(&prompt, "prompt", "", "prompt text to generate from")
	flag.StringVar(&stopToken, "stop-token", "[SEP]", "token that ends generation")
	flag.IntVar(&maxTokens, "max-tokens", 64, "maximum number of tokens to generate")
	flag.BoolVar(&timing, "timing", false, "log per-operator timing")
	flag.BoolVar(&describe, "describe", false, "print the model's inputs and outputs and exit")
	klog.InitFlags(nil)
	flag.Parse()

	if modelHash != "" || tokenizerHash != "" {
		paths, err := fetchArtifacts(ctx, bucket, cacheDir, modelHash, tokenizerHash)
		if err != nil {
			return err
		}
		if p, ok := paths["model"]; ok {
			modelPath = p
		}
		if p, ok := paths["tokenizer"]; ok {
			tokenizerPath = p
		}
	}
	if modelPath == "" {
		return fmt.Errorf("must specify -model or -model-hash")
	}

	m, err := model.LoadFile(ctx, modelPath)
	if err != nil {
		return err
	}

	if describe {
		fmt.Printf("nodes: %d\n", m.Graph().NumNodes())
		fmt.Printf("inputs: %v\n", m.InputNames())
		fmt.Printf("outputs: %v\n", m.OutputNames())
		return nil
	}

	if prompt == "" {
		return fmt.Errorf("must specify -prompt (or -describe)")
	}
	if tokenizerPath == "" {
		return fmt.Errorf("must specify -tokenizer or -tokenizer-hash")
	}

	tokenizer, err := text.LoadTokenizer(ctx, tokenizerPath)
	if err != nil {
		return err
	}

	promptTokens, err := tokenizer.Encode(ctx, prompt)
	if err != nil {
		return fmt.Errorf("encoding prompt: %w", err)
	}

	config := generate.Config{MaxTokens: maxTokens}
	if timing {
		config.RunOptions = &graph.RunOptions{Timing: true}
	}
	if id, ok := tokenizer.TokenID(stopToken); ok {
		config.StopTokens = []text.TokenID{id}
	}

	log.Info("generating", "model", modelPath, "promptTokens", len(promptTokens), "maxTokens", maxTokens)
	tokens, err := generate.Generate(ctx, m, promptTokens, config)
	if err != nil {
		return err
	}

	output, err := tokenizer.Decode(ctx, tokens)
	if err != nil {
		return fmt.Errorf("decoding output: %w", err)
	}
	fmt.Println(output)

	return nil
}

func fetchArtifacts(ctx context.Context, bucket, cacheDir string, modelHash, tokenizerHash string) (map[string]string, error) {
	if bucket == "" {
		return nil, fmt.Errorf("must specify -bucket (or ARTIFACT_BUCKET env var) to fetch artifacts by hash")
	}
	store, err := storeForBucket(bucket)
	if err != nil {
		return nil, err
	}
	cache := &blobs.Cache{Dir: cacheDir, Reader: store}

	var infos []blobs.ArtifactInfo
	if modelHash != "" {
		infos = append(infos, blobs.ArtifactInfo{Name: "model", Hash: modelHash})
	}
	if tokenizerHash != "" {
		infos = append(infos, blobs.ArtifactInfo{Name: "tokenizer", Hash: tokenizerHash})
	}
	return cache.FetchAll(ctx, infos)
}

func storeForBucket(bucket string) (blobs.ArtifactStore, error) {
	name, ok := strings.CutPrefix(bucket, "gs://")
	if !ok {
		return nil, fmt.Errorf("bucket must be a GCS bucket URL (gs://<bucketName>)")
	}
	return &blobs.GCSStore{Bucket: name}, nil
}

func defaultCacheDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".loom-cache"
	}
	return filepath.Join(homeDir, ".cache", "loom", "artifacts")
}
