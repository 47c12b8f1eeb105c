package transcribe

import (
	"errors"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ErrInvalidModel is returned when a downloaded model fails validation.
var ErrInvalidModel = errors.New("invalid model")

// modelInputName is the input tensor name of the silero STT models.
const modelInputName = "input"

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

// initRuntime loads the ONNX Runtime shared library once per process.
// An empty libPath uses the library's platform default name.
func initRuntime(libPath string) error {
	runtimeOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			runtimeErr = fmt.Errorf("initializing onnxruntime: %w", err)
		}
	})
	return runtimeErr
}

// ShutdownRuntime releases the ONNX Runtime environment if it was started.
func ShutdownRuntime() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// Logits holds a row-major [Batch, Frames, Labels] score tensor.
type Logits struct {
	Data   []float32
	Batch  int
	Frames int
	Labels int
}

// Row returns the [Frames, Labels] scores of batch item i.
func (l Logits) Row(i int) []float32 {
	size := l.Frames * l.Labels
	return l.Data[i*size : (i+1)*size]
}

// inferenceSession runs a batch of padded audio through a model.
type inferenceSession interface {
	Run(input []float32, batch, samples int) (Logits, error)
	Close() error
}

// modelIO names the tensors a validated model is run with.
type modelIO struct {
	input  string
	output string
}

// validateModel performs structural checks on an ONNX model file and
// returns the tensor names to bind.
func validateModel(path string) (modelIO, error) {
	info, err := os.Stat(path)
	if err != nil {
		return modelIO{}, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if info.Size() == 0 {
		return modelIO{}, fmt.Errorf("%w: %s is empty", ErrInvalidModel, path)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return modelIO{}, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	return checkModelIO(inputs, outputs)
}

// checkModelIO requires a single float tensor input named "input" and at
// least one output; the first output carries the label scores.
func checkModelIO(inputs, outputs []ort.InputOutputInfo) (modelIO, error) {
	if len(inputs) != 1 {
		return modelIO{}, fmt.Errorf("%w: want 1 input, got %d", ErrInvalidModel, len(inputs))
	}
	in := inputs[0]
	if in.Name != modelInputName {
		return modelIO{}, fmt.Errorf("%w: input is named %q, want %q", ErrInvalidModel, in.Name, modelInputName)
	}
	if in.OrtValueType != ort.ONNXTypeTensor || in.DataType != ort.TensorElementDataTypeFloat {
		return modelIO{}, fmt.Errorf("%w: input %q is not a float tensor", ErrInvalidModel, in.Name)
	}
	if len(outputs) == 0 {
		return modelIO{}, fmt.Errorf("%w: model has no outputs", ErrInvalidModel)
	}
	return modelIO{input: in.Name, output: outputs[0].Name}, nil
}

// onnxSession is an inferenceSession backed by ONNX Runtime.
type onnxSession struct {
	session *ort.DynamicAdvancedSession
}

// openONNXSession validates the model at path and prepares a session for it.
func openONNXSession(libPath, path string) (inferenceSession, error) {
	if err := initRuntime(libPath); err != nil {
		return nil, err
	}
	names, err := validateModel(path)
	if err != nil {
		return nil, err
	}
	s, err := ort.NewDynamicAdvancedSession(path, []string{names.input}, []string{names.output}, nil)
	if err != nil {
		return nil, fmt.Errorf("creating inference session: %w", err)
	}
	return &onnxSession{session: s}, nil
}

func (s *onnxSession) Run(input []float32, batch, samples int) (Logits, error) {
	in, err := ort.NewTensor(ort.NewShape(int64(batch), int64(samples)), input)
	if err != nil {
		return Logits{}, fmt.Errorf("creating input tensor: %w", err)
	}
	defer in.Destroy()

	outputs := []ort.Value{nil}
	if err := s.session.Run([]ort.Value{in}, outputs); err != nil {
		return Logits{}, fmt.Errorf("running inference: %w", err)
	}
	defer outputs[0].Destroy()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return Logits{}, fmt.Errorf("unexpected output type %T", outputs[0])
	}
	shape := out.GetShape()
	if len(shape) != 3 {
		return Logits{}, fmt.Errorf("output has rank %d, want 3", len(shape))
	}

	return Logits{
		Data:   append([]float32(nil), out.GetData()...),
		Batch:  int(shape[0]),
		Frames: int(shape[1]),
		Labels: int(shape[2]),
	}, nil
}

func (s *onnxSession) Close() error {
	return s.session.Destroy()
}
