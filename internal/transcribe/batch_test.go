package transcribe

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/chaz8081/scraper/internal/audio"
)

func TestSplitIntoBatches(t *testing.T) {
	paths := []string{"a", "b", "c", "d", "e"}

	tests := []struct {
		size int
		want [][]string
	}{
		{10, [][]string{{"a", "b", "c", "d", "e"}}},
		{2, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}},
		{5, [][]string{{"a", "b", "c", "d", "e"}}},
		{0, [][]string{{"a"}, {"b"}, {"c"}, {"d"}, {"e"}}},
	}
	for _, tt := range tests {
		got := SplitIntoBatches(paths, tt.size)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitIntoBatches(size=%d) = %v, want %v", tt.size, got, tt.want)
		}
	}

	if got := SplitIntoBatches(nil, 10); len(got) != 0 {
		t.Errorf("SplitIntoBatches(nil) = %v, want empty", got)
	}
}

func TestPrepareModelInput(t *testing.T) {
	long := make([]float32, minInputSamples+5)
	for i := range long {
		long[i] = 1
	}
	short := []float32{0.5, 0.25}

	input, width := PrepareModelInput([][]float32{short, long})
	if width != len(long) {
		t.Fatalf("width = %d, want %d", width, len(long))
	}
	if len(input) != 2*width {
		t.Fatalf("len(input) = %d, want %d", len(input), 2*width)
	}
	if input[0] != 0.5 || input[1] != 0.25 || input[2] != 0 || input[width-1] != 0 {
		t.Error("short clip should be copied then zero-padded")
	}
	if input[width] != 1 || input[2*width-1] != 1 {
		t.Error("long clip should fill its row")
	}
}

func TestPrepareModelInputMinimumWidth(t *testing.T) {
	_, width := PrepareModelInput([][]float32{{1, 2, 3}})
	if width != minInputSamples {
		t.Errorf("width = %d, want %d", width, minInputSamples)
	}
}

func TestReadBatch(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.wav")
	if err := audio.WriteWAV(a, []float32{0.5, -0.5}, 16000); err != nil {
		t.Fatal(err)
	}
	if err := audio.WriteWAV(b, []float32{0.1}, 16000); err != nil {
		t.Fatal(err)
	}

	clips, err := ReadBatch([]string{a, b}, 16000)
	if err != nil {
		t.Fatalf("ReadBatch() error = %v", err)
	}
	if len(clips) != 2 || len(clips[0]) != 2 || len(clips[1]) != 1 {
		t.Errorf("ReadBatch() clip lengths wrong: %v", clips)
	}

	if _, err := ReadBatch([]string{a}, 8000); err == nil {
		t.Error("ReadBatch() should reject a sample rate mismatch")
	}
}
