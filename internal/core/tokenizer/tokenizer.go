// Package tokenizer provides the counts attached to every converted
// document: an exact whitespace word count and a cheap token estimate.
package tokenizer

import "strings"

// WordCount counts whitespace-delimited tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Estimate approximates the token count of text (~4 chars per token).
// Good enough for sizing embeddings; swap in a real BPE tokenizer if chunk
// boundaries ever need to be exact.
func Estimate(text string) int {
	n := len([]rune(text))
	if n <= 0 {
		return 0
	}
	return (n + 3) / 4
}
