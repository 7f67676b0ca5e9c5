// Package text tokenizes text for model input, supporting the WordPiece
// scheme used by BERT-family models and the tokenizer.json vocabulary
// format.
package text

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"k8s.io/klog/v2"
)

// TokenID identifies one entry in a tokenizer vocabulary.
type TokenID = int32

// Tokenizer converts between text and token IDs.
type Tokenizer struct {
	vocab   map[string]TokenID
	byID    map[TokenID]string
	special map[string]bool

	lowercase    bool
	stripAccents bool

	unkToken        string
	subwordPrefix   string
	maxCharsPerWord int
}

// LoadTokenizer reads a tokenizer.json file. Only the WordPiece model type
// is supported.
func LoadTokenizer(ctx context.Context, path string) (*Tokenizer, error) {
	log := klog.FromContext(ctx)

	parsed, err := readTokenizerJSON(path)
	if err != nil {
		return nil, err
	}
	if parsed.Model.Type != "WordPiece" {
		return nil, fmt.Errorf("unsupported tokenizer model type %q", parsed.Model.Type)
	}

	t := &Tokenizer{
		vocab:           parsed.Model.Vocab,
		byID:            make(map[TokenID]string, len(parsed.Model.Vocab)),
		special:         make(map[string]bool),
		unkToken:        parsed.Model.UnkToken,
		subwordPrefix:   parsed.Model.ContinuingSubwordPrefix,
		maxCharsPerWord: 100,
	}
	if t.unkToken == "" {
		t.unkToken = "[UNK]"
	}
	if t.subwordPrefix == "" {
		t.subwordPrefix = "##"
	}
	for token, id := range t.vocab {
		t.byID[id] = token
	}
	for _, added := range parsed.AddedTokens {
		t.special[added.Content] = true
		if _, ok := t.vocab[added.Content]; !ok {
			t.vocab[added.Content] = added.ID
			t.byID[added.ID] = added.Content
		}
	}
	if n := parsed.Normalizer; n != nil {
		if n.Type != "BertNormalizer" {
			return nil, fmt.Errorf("unsupported normalizer type %q", n.Type)
		}
		t.lowercase = n.Lowercase
		// strip_accents defaults to the lowercase setting when unset.
		if n.StripAccents != nil {
			t.stripAccents = *n.StripAccents
		} else {
			t.stripAccents = n.Lowercase
		}
	}

	if _, ok := t.vocab[t.unkToken]; !ok {
		return nil, fmt.Errorf("tokenizer vocabulary is missing the unknown token %q", t.unkToken)
	}

	log.V(2).Info("loaded tokenizer", "path", path, "vocabSize", len(t.vocab))
	return t, nil
}

// NewWordPiece creates a tokenizer from an in-memory vocabulary, mainly for
// tests. The vocabulary must include "[UNK]".
func NewWordPiece(vocab map[string]TokenID) (*Tokenizer, error) {
	t := &Tokenizer{
		vocab:           vocab,
		byID:            make(map[TokenID]string, len(vocab)),
		special:         make(map[string]bool),
		lowercase:       true,
		stripAccents:    true,
		unkToken:        "[UNK]",
		subwordPrefix:   "##",
		maxCharsPerWord: 100,
	}
	for token, id := range vocab {
		t.byID[id] = token
	}
	if _, ok := t.vocab[t.unkToken]; !ok {
		return nil, fmt.Errorf("vocabulary is missing the unknown token %q", t.unkToken)
	}
	return t, nil
}

// VocabSize returns the number of entries in the vocabulary.
func (t *Tokenizer) VocabSize() int {
	return len(t.vocab)
}

// TokenID resolves a token's text to its ID.
func (t *Tokenizer) TokenID(token string) (TokenID, bool) {
	id, ok := t.vocab[token]
	return id, ok
}

// Encode converts text to token IDs. Words not representable with the
// vocabulary encode as the unknown token.
func (t *Tokenizer) Encode(ctx context.Context, text string) ([]TokenID, error) {
	var ids []TokenID
	// Special tokens are matched against the raw text, before
	// normalization can change their spelling.
	for _, segment := range t.splitSpecial(text) {
		if t.special[segment] {
			ids = append(ids, t.vocab[segment])
			continue
		}
		for _, word := range t.splitWords(t.normalize(segment)) {
			ids = append(ids, t.encodeWord(word)...)
		}
	}
	return ids, nil
}

// splitSpecial cuts text into special tokens and the plain text between
// them.
func (t *Tokenizer) splitSpecial(text string) []string {
	if len(t.special) == 0 {
		return []string{text}
	}
	var segments []string
	plainStart := 0
	for i := 0; i < len(text); {
		matched := ""
		for special := range t.special {
			if strings.HasPrefix(text[i:], special) && len(special) > len(matched) {
				matched = special
			}
		}
		if matched == "" {
			i++
			continue
		}
		if i > plainStart {
			segments = append(segments, text[plainStart:i])
		}
		segments = append(segments, matched)
		i += len(matched)
		plainStart = i
	}
	if plainStart < len(text) {
		segments = append(segments, text[plainStart:])
	}
	return segments
}

// Decode converts token IDs back to text. Subword tokens join their
// preceding token; other tokens are separated by spaces.
func (t *Tokenizer) Decode(ctx context.Context, ids []TokenID) (string, error) {
	var sb strings.Builder
	for i, id := range ids {
		token, ok := t.byID[id]
		if !ok {
			return "", fmt.Errorf("token ID %d is not in the vocabulary", id)
		}
		if rest, isSubword := strings.CutPrefix(token, t.subwordPrefix); isSubword {
			sb.WriteString(rest)
			continue
		}
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(token)
	}
	return sb.String(), nil
}

func (t *Tokenizer) normalize(text string) string {
	if t.stripAccents {
		var sb strings.Builder
		sb.Grow(len(text))
		for _, r := range norm.NFD.String(text) {
			if unicode.Is(unicode.Mn, r) {
				continue
			}
			sb.WriteRune(r)
		}
		text = sb.String()
	}
	if t.lowercase {
		text = strings.ToLower(text)
	}
	return text
}

// splitWords splits normalized text into words on whitespace, with each
// punctuation character forming a word of its own.
func (t *Tokenizer) splitWords(text string) []string {
	var words []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r):
			flush()
			words = append(words, string(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return words
}

// encodeWord applies the greedy longest-match-first WordPiece algorithm to
// a single word.
func (t *Tokenizer) encodeWord(word string) []TokenID {
	if id, ok := t.vocab[word]; ok {
		return []TokenID{id}
	}
	runes := []rune(word)
	if len(runes) > t.maxCharsPerWord {
		return []TokenID{t.vocab[t.unkToken]}
	}

	var ids []TokenID
	start := 0
	for start < len(runes) {
		end := len(runes)
		matched := false
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = t.subwordPrefix + piece
			}
			if id, ok := t.vocab[piece]; ok {
				ids = append(ids, id)
				matched = true
				break
			}
			end--
		}
		if !matched {
			return []TokenID{t.vocab[t.unkToken]}
		}
		start = end
	}
	return ids
}
