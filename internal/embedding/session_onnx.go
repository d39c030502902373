//go:build cgo
// +build cgo

package embedding

import (
	"strconv"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/embedd/internal/config"
)

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

// initRuntime loads the onnxruntime shared library once per process.
func initRuntime(libPath string) error {
	runtimeOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		runtimeErr = ort.InitializeEnvironment()
	})
	return runtimeErr
}

// onnxSession runs an encoder through ONNX Runtime with dynamic (batch, seq) input shapes.
type onnxSession struct {
	session  *ort.DynamicAdvancedSession
	inputs   []string
	provider string
}

// OpenSession loads cfg.ModelPath on the execution provider cfg selects. Accelerated mode never
// falls back to CPU; callers that want CPU must retry with a CPU config.
func OpenSession(cfg config.EmbeddingConfig) (Session, error) {
	if err := initRuntime(cfg.RuntimeLibrary); err != nil {
		return nil, newError(KindBackend, "initialize onnx runtime", err)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, newError(KindBackend, "create session options", err)
	}
	defer opts.Destroy()

	if cfg.UseAccelerated {
		if err := appendCUDA(opts, cfg.DeviceID); err != nil {
			return nil, newError(KindAcceleratorUnavailable, "device "+strconv.Itoa(cfg.DeviceID), err)
		}
	} else {
		if err := opts.SetIntraOpNumThreads(cfg.NumThreads); err != nil {
			return nil, newError(KindBackend, "set intra-op threads", err)
		}
	}

	inputs := cfg.InputNames
	if len(inputs) == 0 {
		inputs = []string{inputIDs, inputAttentionMask}
	}
	sess, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputs, []string{cfg.OutputName}, opts)
	if err != nil {
		// The CUDA provider is only fully brought up when the session is created.
		if cfg.UseAccelerated && strings.Contains(strings.ToLower(err.Error()), "cuda") {
			return nil, newError(KindAcceleratorUnavailable, cfg.ModelPath, err)
		}
		return nil, newError(KindInvalidModel, cfg.ModelPath, err)
	}
	return &onnxSession{
		session:  sess,
		inputs:   inputs,
		provider: cfg.ExecutionProvider(),
	}, nil
}

func appendCUDA(opts *ort.SessionOptions, deviceID int) error {
	cudaOpts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return err
	}
	defer cudaOpts.Destroy()
	if err := cudaOpts.Update(map[string]string{"device_id": strconv.Itoa(deviceID)}); err != nil {
		return err
	}
	return opts.AppendExecutionProviderCUDA(cudaOpts)
}

// Run builds (batch, seqLen) int64 tensors for each model input and returns the float32 output rows.
func (s *onnxSession) Run(ids, mask []int64, batch, seqLen int) ([][]float32, error) {
	idShape, err := NewShape2D(len(ids), batch, seqLen)
	if err != nil {
		return nil, err
	}
	if _, err := NewShape2D(len(mask), batch, seqLen); err != nil {
		return nil, err
	}
	shape := ort.NewShape(idShape.Dims()...)

	inputs := make([]ort.Value, 0, len(s.inputs))
	defer func() {
		for _, v := range inputs {
			_ = v.Destroy()
		}
	}()
	for _, name := range s.inputs {
		var data []int64
		switch name {
		case inputAttentionMask:
			data = mask
		case inputTokenTypeIDs:
			data = make([]int64, len(ids))
		default:
			data = ids
		}
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, newError(KindInternal, "create "+name+" tensor", err)
		}
		inputs = append(inputs, t)
	}

	outputs := []ort.Value{nil}
	if err := s.session.Run(inputs, outputs); err != nil {
		return nil, newError(KindBackend, "run", err)
	}
	defer func() {
		if outputs[0] != nil {
			_ = outputs[0].Destroy()
		}
	}()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, errorf(KindInternal, "output is not a float32 tensor")
	}
	return splitRows(out.GetData(), []int64(out.GetShape()), batch)
}

func (s *onnxSession) Provider() string { return s.provider }

// Close destroys the session.
func (s *onnxSession) Close() error {
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return err
}
