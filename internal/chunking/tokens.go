package chunking

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates the token length of a text span.
// Estimates only feed chunk size budgeting; they never need to match
// the embedding backend's tokenizer exactly.
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens with the cl100k_base BPE encoding.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter creates a counter backed by cl100k_base.
// Fails when the encoding data is unavailable (e.g., offline first run).
func NewTiktokenCounter() (*TiktokenCounter, error) {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding: %w", err)
	}
	return &TiktokenCounter{encoding: encoding}, nil
}

// Count returns the exact BPE token count for text.
func (tc *TiktokenCounter) Count(text string) int {
	return len(tc.encoding.Encode(text, nil, nil))
}

// HeuristicCounter approximates tokens as characters divided by four,
// which tracks English text closely enough for budgeting.
type HeuristicCounter struct{}

// Count returns the approximate token count for text.
// Non-empty text always counts as at least one token.
func (HeuristicCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	n := utf8.RuneCountInString(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}

// NewTokenCounter returns the tiktoken counter when its encoding data
// is available and the heuristic counter otherwise.
func NewTokenCounter() TokenCounter {
	tc, err := NewTiktokenCounter()
	if err != nil {
		return HeuristicCounter{}
	}
	return tc
}
