// Package tokenizer counts tokens for prompt-size guards.
package tokenizer

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used by current OpenAI chat models.
const DefaultEncoding = "cl100k_base"

// Counter counts tokens in a piece of text.
type Counter interface {
	Count(text string) int
}

// Tokenizer counts tokens with tiktoken. When the encoding cannot be loaded
// (no cached BPE file and no network) it falls back to a character estimate.
type Tokenizer struct {
	encoding string
	once     sync.Once
	enc      *tiktoken.Tiktoken
	loadErr  error
}

// New creates a tokenizer for the named encoding; empty selects DefaultEncoding.
func New(encoding string) *Tokenizer {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &Tokenizer{encoding: encoding}
}

func (t *Tokenizer) load() {
	t.once.Do(func() {
		t.enc, t.loadErr = tiktoken.GetEncoding(t.encoding)
	})
}

// Count returns the number of tokens in text.
func (t *Tokenizer) Count(text string) int {
	if text == "" {
		return 0
	}
	t.load()
	if t.loadErr != nil || t.enc == nil {
		return Estimate(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Exact reports whether counts come from the real encoding.
func (t *Tokenizer) Exact() bool {
	t.load()
	return t.loadErr == nil && t.enc != nil
}

// Estimate approximates a token count as one token per four characters,
// rounded up.
func Estimate(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

// EstimateCounter is a Counter that never touches tiktoken.
type EstimateCounter struct{}

// Count implements Counter.
func (EstimateCounter) Count(text string) int { return Estimate(text) }
