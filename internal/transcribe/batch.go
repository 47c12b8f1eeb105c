package transcribe

import (
	"fmt"

	"github.com/chaz8081/scraper/internal/audio"
)

// minInputSamples is the shortest input the model accepts (0.8s at 16kHz);
// shorter batches are zero-padded up to it.
const minInputSamples = 12800

// SplitIntoBatches groups paths into consecutive batches of at most size.
func SplitIntoBatches(paths []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	var batches [][]string
	for start := 0; start < len(paths); start += size {
		end := start + size
		if end > len(paths) {
			end = len(paths)
		}
		batches = append(batches, paths[start:end])
	}
	return batches
}

// ReadBatch decodes each WAV file in the batch, requiring sampleRate.
func ReadBatch(paths []string, sampleRate int) ([][]float32, error) {
	clips := make([][]float32, 0, len(paths))
	for _, p := range paths {
		samples, rate, err := audio.ReadWAV(p)
		if err != nil {
			return nil, err
		}
		if rate != sampleRate {
			return nil, fmt.Errorf("%s: sample rate %d, want %d", p, rate, sampleRate)
		}
		clips = append(clips, samples)
	}
	return clips, nil
}

// PrepareModelInput packs clips into a zero-padded row-major
// [len(clips), width] matrix and returns it with width. The width is the
// longest clip, but never less than minInputSamples.
func PrepareModelInput(clips [][]float32) ([]float32, int) {
	width := minInputSamples
	for _, c := range clips {
		if len(c) > width {
			width = len(c)
		}
	}
	input := make([]float32, len(clips)*width)
	for i, c := range clips {
		copy(input[i*width:], c)
	}
	return input, width
}
