package embedding

// Encoding is the token sequence for one text.
type Encoding struct {
	IDs           []int64
	AttentionMask []int64
}

// Len returns the number of tokens.
func (e Encoding) Len() int { return len(e.IDs) }

// Encoder turns text into token ids. Implementations wrap a concrete vocabulary.
type Encoder interface {
	Encode(text string, addSpecialTokens bool) (Encoding, error)
}

// TokenBatch is a row-major Rows x SeqLen block of ids and mask bits.
type TokenBatch struct {
	IDs    []int64
	Mask   []int64
	Rows   int
	SeqLen int
}

// Tokenizer builds fixed-shape input tensors for a chunk of texts.
type Tokenizer struct {
	enc Encoder
}

// NewTokenizer wraps enc.
func NewTokenizer(enc Encoder) *Tokenizer {
	return &Tokenizer{enc: enc}
}

// Prepare encodes texts with special tokens and lays them out as a TokenBatch whose width is
// the longest encoding, capped at maxSeq. Longer encodings are truncated and shorter rows are
// padded with id 0 and mask 0.
func (t *Tokenizer) Prepare(texts []string, maxSeq int) (*TokenBatch, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	encodings := make([]Encoding, len(texts))
	longest := 0
	for i, text := range texts {
		enc, err := t.enc.Encode(text, true)
		if err != nil {
			return nil, newError(KindTokenization, "", err)
		}
		if len(enc.AttentionMask) != len(enc.IDs) {
			return nil, errorf(KindTokenization, "encoding %d has %d ids but %d mask bits", i, len(enc.IDs), len(enc.AttentionMask))
		}
		encodings[i] = enc
		if enc.Len() > longest {
			longest = enc.Len()
		}
	}

	seqLen := min(longest, maxSeq)
	if seqLen < 1 {
		seqLen = 1
	}

	batch := &TokenBatch{
		IDs:    make([]int64, len(texts)*seqLen),
		Mask:   make([]int64, len(texts)*seqLen),
		Rows:   len(texts),
		SeqLen: seqLen,
	}
	for row, enc := range encodings {
		off := row * seqLen
		n := min(enc.Len(), seqLen)
		copy(batch.IDs[off:off+n], enc.IDs[:n])
		copy(batch.Mask[off:off+n], enc.AttentionMask[:n])
	}
	return batch, nil
}
