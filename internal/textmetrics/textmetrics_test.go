package textmetrics

import (
	"math"
	"testing"
)

func TestComputeWER(t *testing.T) {
	tests := []struct {
		name                string
		ref, hyp            string
		wantRate            float64
		wantSub, wantIns    int
		wantDel, wantTokens int
	}{
		{"exact match", "hello world", "hello world", 0, 0, 0, 0, 2},
		{"case and punctuation ignored", "Hello, World!", "hello world", 0, 0, 0, 0, 2},
		{"one substitution", "the quick brown fox", "the quick red fox", 0.25, 1, 0, 0, 4},
		{"one deletion", "the quick brown fox", "the brown fox", 0.25, 0, 0, 1, 4},
		{"one insertion", "the quick fox", "the quick brown fox", 1.0 / 3, 0, 1, 0, 3},
		{"empty hypothesis", "one two three", "", 1, 0, 0, 3, 3},
		{"mixed edits", "a b c d", "a x c d e", 0.5, 1, 1, 0, 4},
		{"extra whitespace", "  spaced   out  ", "spaced out", 0, 0, 0, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeWER(tt.ref, tt.hyp)
			if math.Abs(got.Rate-tt.wantRate) > 1e-9 {
				t.Errorf("Rate = %v, want %v", got.Rate, tt.wantRate)
			}
			if got.Substitutions != tt.wantSub || got.Insertions != tt.wantIns || got.Deletions != tt.wantDel {
				t.Errorf("edits = S%d I%d D%d, want S%d I%d D%d",
					got.Substitutions, got.Insertions, got.Deletions, tt.wantSub, tt.wantIns, tt.wantDel)
			}
			if got.RefTokens != tt.wantTokens {
				t.Errorf("RefTokens = %d, want %d", got.RefTokens, tt.wantTokens)
			}
			if got.Edits() != tt.wantSub+tt.wantIns+tt.wantDel {
				t.Errorf("Edits() = %d", got.Edits())
			}
		})
	}
}

func TestComputeWERAllEditKinds(t *testing.T) {
	got := ComputeWER("a b c d e", "a x c e f")
	if got.Edits() != 3 || math.Abs(got.Rate-0.6) > 1e-9 {
		t.Errorf("ComputeWER() = %+v, want 3 edits and rate 0.6", got)
	}
	if got.Substitutions+got.Insertions+got.Deletions != got.Edits() {
		t.Errorf("edit counts %+v do not sum to Edits()", got)
	}

	del := ComputeWER("a b c", "a c")
	if del.Deletions != 1 || del.Insertions != 0 || del.Substitutions != 0 {
		t.Errorf("single deletion counted as %+v", del)
	}
	ins := ComputeWER("a c", "a b c")
	if ins.Insertions != 1 || ins.Deletions != 0 || ins.Substitutions != 0 {
		t.Errorf("single insertion counted as %+v", ins)
	}
}

func TestComputeWEREmptyReference(t *testing.T) {
	got := ComputeWER("", "noise here")
	if got.RefTokens != 0 || got.Insertions != 2 || got.Rate != 0 {
		t.Errorf("ComputeWER(empty ref) = %+v", got)
	}
}

func TestComputeCER(t *testing.T) {
	tests := []struct {
		name     string
		ref, hyp string
		want     float64
	}{
		{"exact", "HELLO", "hello", 0},
		{"ocr confusion", "HELLO", "HELL0", 0.2},
		{"dropped char", "page one", "pge one", 1.0 / 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeCER(tt.ref, tt.hyp)
			if math.Abs(got.Rate-tt.want) > 1e-9 {
				t.Errorf("ComputeCER(%q, %q).Rate = %v, want %v", tt.ref, tt.hyp, got.Rate, tt.want)
			}
		})
	}
}

func TestWords(t *testing.T) {
	got := Words("It's  a Test.\nNew-line")
	want := []string{"its", "a", "test", "newline"}
	if len(got) != len(want) {
		t.Fatalf("Words() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Words()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
