package embedding

// Tensor input names understood by the ONNX session.
const (
	inputIDs           = "input_ids"
	inputAttentionMask = "attention_mask"
	inputTokenTypeIDs  = "token_type_ids"
)

// Session owns a loaded model and runs forward passes. A Session serves one call at a time.
type Session interface {
	// Run feeds batch x seqLen ids and mask and returns one output row per input row.
	Run(ids, mask []int64, batch, seqLen int) ([][]float32, error)
	// Provider names the execution provider, for diagnostics.
	Provider() string
	Close() error
}
