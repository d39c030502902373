// Package ingest extracts text from files, splits it into passages and embeds them.
package ingest

import "strings"

// Splitter cuts text into overlapping windows of whole words.
type Splitter struct {
	words   int
	overlap int
}

// NewSplitter creates a splitter producing windows of words words, each sharing overlap
// words with the previous one. An overlap of words or more advances one word at a time.
func NewSplitter(words, overlap int) *Splitter {
	if words <= 0 {
		words = 1
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Splitter{words: words, overlap: overlap}
}

// Split returns the windows of text in order. Whitespace-only text yields nil.
func (s *Splitter) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := s.words - s.overlap
	if step <= 0 {
		step = 1
	}
	var out []string
	for i := 0; i < len(words); i += step {
		end := min(i+s.words, len(words))
		out = append(out, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
	}
	return out
}
