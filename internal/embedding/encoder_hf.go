package embedding

import (
	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// HFEncoder encodes with a HuggingFace tokenizer.json vocabulary.
type HFEncoder struct {
	tk *tokenizer.Tokenizer
}

// LoadHFEncoder reads a tokenizer.json file.
func LoadHFEncoder(path string) (*HFEncoder, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, newError(KindTokenization, "load "+path, err)
	}
	return &HFEncoder{tk: tk}, nil
}

// Encode runs the full normalize/pre-tokenize/model/post-process pipeline on text.
func (h *HFEncoder) Encode(text string, addSpecialTokens bool) (Encoding, error) {
	enc, err := h.tk.EncodeSingle(text, addSpecialTokens)
	if err != nil {
		return Encoding{}, err
	}
	ids := enc.GetIds()
	mask := enc.GetAttentionMask()
	out := Encoding{IDs: make([]int64, len(ids)), AttentionMask: make([]int64, len(ids))}
	for i, id := range ids {
		out.IDs[i] = int64(id)
		if i < len(mask) {
			out.AttentionMask[i] = int64(mask[i])
		} else {
			out.AttentionMask[i] = 1
		}
	}
	return out, nil
}
