package text

import (
	"encoding/json"
	"fmt"
	"os"
)

// Supported subset of the tokenizer.json files generated by Hugging Face
// tokenizers.
type tokenizerJSON struct {
	AddedTokens []addedToken   `json:"added_tokens"`
	Normalizer  *normalizer    `json:"normalizer"`
	Model       tokenizerModel `json:"model"`
}

type addedToken struct {
	ID      int32  `json:"id"`
	Content string `json:"content"`
}

type normalizer struct {
	Type         string `json:"type"`
	Lowercase    bool   `json:"lowercase"`
	StripAccents *bool  `json:"strip_accents"`
}

type tokenizerModel struct {
	Type                    string           `json:"type"`
	Vocab                   map[string]int32 `json:"vocab"`
	UnkToken                string           `json:"unk_token"`
	ContinuingSubwordPrefix string           `json:"continuing_subword_prefix"`
}

func parseTokenizerJSON(data []byte) (*tokenizerJSON, error) {
	var parsed tokenizerJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing tokenizer JSON: %w", err)
	}
	return &parsed, nil
}

func readTokenizerJSON(path string) (*tokenizerJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tokenizer file: %w", err)
	}
	return parseTokenizerJSON(data)
}
