package embedding

import "strings"

// BERT special token ids used by WordEncoder.
const (
	clsTokenID = 101
	sepTokenID = 102
	vocabSize  = 30000
)

// WordEncoder is a whitespace tokenizer with hash-based ids. It needs no vocabulary file and
// is used with the mock backend and in tests.
type WordEncoder struct{}

// Encode splits text into words and maps each to a stable id, framed by [CLS] and [SEP].
func (WordEncoder) Encode(text string, addSpecialTokens bool) (Encoding, error) {
	words := strings.Fields(text)
	n := len(words)
	if addSpecialTokens {
		n += 2
	}
	enc := Encoding{IDs: make([]int64, 0, n), AttentionMask: make([]int64, n)}
	if addSpecialTokens {
		enc.IDs = append(enc.IDs, clsTokenID)
	}
	for _, w := range words {
		enc.IDs = append(enc.IDs, int64(HashString(w)%vocabSize)+sepTokenID+1)
	}
	if addSpecialTokens {
		enc.IDs = append(enc.IDs, sepTokenID)
	}
	for i := range enc.AttentionMask {
		enc.AttentionMask[i] = 1
	}
	return enc, nil
}

// HashString returns a deterministic non-negative hash of s.
func HashString(s string) int {
	var h uint32
	for _, c := range s {
		h = 31*h + uint32(c)
	}
	return int(h)
}
