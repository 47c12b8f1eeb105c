package audio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")

	samples := make([]float32, 1600)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}

	if err := WriteWAV(path, samples, 16000); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	got, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV() error = %v", err)
	}
	if rate != 16000 {
		t.Errorf("sample rate = %d, want 16000", rate)
	}
	if len(got) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		if d := math.Abs(float64(got[i] - samples[i])); d > 1e-3 {
			t.Fatalf("sample %d = %f, want %f", i, got[i], samples[i])
		}
	}
}

func TestWriteWAVClips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := WriteWAV(path, []float32{2, -2}, 8000); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}
	got, _, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV() error = %v", err)
	}
	if len(got) != 2 || got[0] < 0.99 || got[1] > -0.99 {
		t.Errorf("clipped samples = %v, want about [1 -1]", got)
	}
}

func TestReadWAVInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.wav")
	if err := os.WriteFile(path, []byte("not a riff file"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ReadWAV(path); err == nil {
		t.Error("ReadWAV() should fail on non-WAV input")
	}
}

func TestDownmix(t *testing.T) {
	stereo := []float32{1, 0, 0.5, 0.5, -1, 1}
	mono := Downmix(stereo, 2)

	want := []float32{0.5, 0.5, 0}
	if len(mono) != len(want) {
		t.Fatalf("Downmix() returned %d samples, want %d", len(mono), len(want))
	}
	for i := range want {
		if mono[i] != want[i] {
			t.Errorf("mono[%d] = %f, want %f", i, mono[i], want[i])
		}
	}

	same := []float32{0.1, 0.2}
	if got := Downmix(same, 1); &got[0] != &same[0] {
		t.Error("Downmix() with one channel should return the input slice")
	}
}

func writeRawWAV(t *testing.T, path string, bitDepth int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, 16000, bitDepth, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 16000},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

func TestReadWAVBitDepths(t *testing.T) {
	tests := []struct {
		bitDepth int
		data     []int
		want     float32
		wantErr  bool
	}{
		{bitDepth: 8, data: []int{128, 255}, wantErr: true},
		{bitDepth: 16, data: []int{16384, -16384}, want: 0.5},
		{bitDepth: 24, data: []int{4194304, -4194304}, want: 0.5},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d-bit", tt.bitDepth), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "raw.wav")
			writeRawWAV(t, path, tt.bitDepth, tt.data)

			samples, _, err := ReadWAV(path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ReadWAV() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadWAV() error = %v", err)
			}
			if len(samples) != 2 || math.Abs(float64(samples[0]-tt.want)) > 1e-6 || math.Abs(float64(samples[1]+tt.want)) > 1e-6 {
				t.Errorf("ReadWAV() = %v, want [%v %v]", samples, tt.want, -tt.want)
			}
		})
	}
}
