package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// Recorder captures audio from the default microphone.
type Recorder struct {
	ctx        *malgo.AllocatedContext
	sampleRate uint32
	channels   uint32

	mu  sync.Mutex
	buf []float32
}

// NewRecorder initializes the audio backend. Call Close() when done.
func NewRecorder(sampleRate, channels uint32) (*Recorder, error) {
	if sampleRate == 0 || channels == 0 {
		return nil, fmt.Errorf("audio: sample rate and channels must be > 0")
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audio: initializing context: %w", err)
	}

	return &Recorder{
		ctx:        ctx,
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

// SampleRate returns the capture sample rate in Hz.
func (r *Recorder) SampleRate() int {
	return int(r.sampleRate)
}

// Record captures from the default input device until ctx is done and
// returns the recording as mono float32 samples.
func (r *Recorder) Record(ctx context.Context) ([]float32, error) {
	r.mu.Lock()
	r.buf = r.buf[:0]
	r.mu.Unlock()

	deviceCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceCfg.Capture.Format = malgo.FormatF32
	deviceCfg.Capture.Channels = r.channels
	deviceCfg.SampleRate = r.sampleRate

	device, err := malgo.InitDevice(r.ctx.Context, deviceCfg, malgo.DeviceCallbacks{
		Data: r.onData,
	})
	if err != nil {
		return nil, fmt.Errorf("audio: initializing capture device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return nil, fmt.Errorf("audio: starting capture device: %w", err)
	}

	<-ctx.Done()

	if err := device.Stop(); err != nil {
		return nil, fmt.Errorf("audio: stopping capture device: %w", err)
	}

	r.mu.Lock()
	captured := make([]float32, len(r.buf))
	copy(captured, r.buf)
	r.mu.Unlock()

	return Downmix(captured, int(r.channels)), nil
}

// Close releases the audio backend.
func (r *Recorder) Close() error {
	if r.ctx == nil {
		return nil
	}
	if err := r.ctx.Uninit(); err != nil {
		return fmt.Errorf("audio: uninitializing context: %w", err)
	}
	r.ctx.Free()
	r.ctx = nil
	return nil
}

// onData is the malgo callback invoked when captured frames are available.
// pSample holds little-endian float32 samples, interleaved by channel.
func (r *Recorder) onData(_, pSample []byte, frameCount uint32) {
	samples := bytesToFloat32(pSample, frameCount*r.channels)

	r.mu.Lock()
	r.buf = append(r.buf, samples...)
	r.mu.Unlock()
}

// bytesToFloat32 converts raw bytes (little-endian float32) to a float32 slice.
func bytesToFloat32(data []byte, sampleCount uint32) []float32 {
	n := int(sampleCount)
	if avail := len(data) / 4; n > avail {
		n = avail
	}
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return samples
}
