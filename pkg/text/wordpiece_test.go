package text

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testVocab() map[string]TokenID {
	return map[string]TokenID{
		"[UNK]":  0,
		"[CLS]":  1,
		"[SEP]":  2,
		"hello":  3,
		"world":  4,
		"un":     5,
		"##bel":  6,
		"##ieva": 7,
		"##ble":  8,
		"!":      9,
	}
}

func TestEncodeWords(t *testing.T) {
	tok, err := NewWordPiece(testVocab())
	if err != nil {
		t.Fatalf("NewWordPiece: %v", err)
	}

	got, err := tok.Encode(context.Background(), "Hello world!")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff([]TokenID{3, 4, 9}, got); diff != "" {
		t.Errorf("tokens (-want +got):\n%s", diff)
	}
}

func TestEncodeSubwords(t *testing.T) {
	tok, err := NewWordPiece(testVocab())
	if err != nil {
		t.Fatalf("NewWordPiece: %v", err)
	}

	got, err := tok.Encode(context.Background(), "unbelievable")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff([]TokenID{5, 6, 7, 8}, got); diff != "" {
		t.Errorf("tokens (-want +got):\n%s", diff)
	}
}

func TestEncodeUnknownWord(t *testing.T) {
	tok, err := NewWordPiece(testVocab())
	if err != nil {
		t.Fatalf("NewWordPiece: %v", err)
	}

	got, err := tok.Encode(context.Background(), "zzz")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff([]TokenID{0}, got); diff != "" {
		t.Errorf("tokens (-want +got):\n%s", diff)
	}
}

func TestEncodeStripsAccents(t *testing.T) {
	vocab := testVocab()
	vocab["cafe"] = 10
	tok, err := NewWordPiece(vocab)
	if err != nil {
		t.Fatalf("NewWordPiece: %v", err)
	}

	got, err := tok.Encode(context.Background(), "Café")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff([]TokenID{10}, got); diff != "" {
		t.Errorf("tokens (-want +got):\n%s", diff)
	}
}

func TestDecode(t *testing.T) {
	tok, err := NewWordPiece(testVocab())
	if err != nil {
		t.Fatalf("NewWordPiece: %v", err)
	}

	got, err := tok.Decode(context.Background(), []TokenID{3, 5, 6, 7, 8, 4})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if want := "hello unbelievable world"; got != want {
		t.Errorf("Decode = %q, want %q", got, want)
	}
}

func TestDecodeUnknownID(t *testing.T) {
	tok, err := NewWordPiece(testVocab())
	if err != nil {
		t.Fatalf("NewWordPiece: %v", err)
	}
	if _, err := tok.Decode(context.Background(), []TokenID{999}); err == nil {
		t.Fatal("expected an error for an unknown token ID")
	}
}

func TestLoadTokenizer(t *testing.T) {
	const tokenizerJSON = `{
		"added_tokens": [
			{"id": 1, "content": "[CLS]"},
			{"id": 2, "content": "[SEP]"}
		],
		"normalizer": {"type": "BertNormalizer", "lowercase": true},
		"model": {
			"type": "WordPiece",
			"unk_token": "[UNK]",
			"continuing_subword_prefix": "##",
			"vocab": {"[UNK]": 0, "[CLS]": 1, "[SEP]": 2, "hello": 3, "##o": 4, "hell": 5}
		}
	}`

	path := filepath.Join(t.TempDir(), "tokenizer.json")
	if err := os.WriteFile(path, []byte(tokenizerJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	tok, err := LoadTokenizer(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadTokenizer: %v", err)
	}
	if got := tok.VocabSize(); got != 6 {
		t.Errorf("VocabSize = %d, want 6", got)
	}

	// Special tokens pass through the word splitter unsplit.
	got, err := tok.Encode(context.Background(), "[CLS] Hello [SEP]")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff([]TokenID{1, 3, 2}, got); diff != "" {
		t.Errorf("tokens (-want +got):\n%s", diff)
	}
}

func TestLoadTokenizerRejectsBPE(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokenizer.json")
	if err := os.WriteFile(path, []byte(`{"model": {"type": "BPE", "vocab": {}}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTokenizer(context.Background(), path); err == nil {
		t.Fatal("expected an error for a BPE tokenizer")
	}
}

func TestNewWordPieceRequiresUnknownToken(t *testing.T) {
	if _, err := NewWordPiece(map[string]TokenID{"hello": 0}); err == nil {
		t.Fatal("expected an error for a vocabulary without [UNK]")
	}
}
