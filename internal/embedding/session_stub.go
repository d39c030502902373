//go:build !cgo
// +build !cgo

package embedding

import (
	"github.com/hyperjump/embedd/internal/config"
)

// OpenSession fails when built without CGO: ONNX Runtime is a C library.
func OpenSession(cfg config.EmbeddingConfig) (Session, error) {
	const msg = "ONNX session requires CGO; build with CGO_ENABLED=1 and onnxruntime"
	if cfg.UseAccelerated {
		return nil, errorf(KindAcceleratorUnavailable, msg)
	}
	return nil, errorf(KindBackend, msg)
}
