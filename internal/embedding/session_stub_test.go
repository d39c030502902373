//go:build !cgo
// +build !cgo

package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperjump/embedd/internal/config"
)

func TestOpenSession_WithoutCgo(t *testing.T) {
	_, err := OpenSession(config.CPUOnlyConfig(1))
	assert.ErrorIs(t, err, ErrBackend)

	_, err = OpenSession(config.DefaultEmbeddingConfig())
	assert.ErrorIs(t, err, ErrAcceleratorUnavailable)
}
