package embedding

import (
	"math"

	"github.com/hyperjump/embedd/pkg/utils"
)

// zeroNormThreshold is the norm below which a vector is treated as all zeros.
const zeroNormThreshold = 1e-12

func l2Norm(v []float32) float64 {
	return utils.L2Norm(v)
}

// Normalize returns v scaled to unit L2 length in a new slice. When the norm is below 1e-12
// v itself is returned unchanged and ok is false; dividing would produce NaN or Inf.
func Normalize(v []float32) (out []float32, ok bool) {
	norm := l2Norm(v)
	if norm < zeroNormThreshold || math.IsNaN(norm) {
		return v, false
	}
	out = make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, true
}
