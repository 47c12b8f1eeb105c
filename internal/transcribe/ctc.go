package transcribe

import (
	"fmt"
	"strings"
)

const (
	blankLabel  = "_"
	spaceLabel  = " "
	repeatLabel = "2" // emits the previous character again
	// repeatMarker separates a repeated character from its twin so the
	// duplicate collapse keeps both; it is stripped from the final text.
	repeatMarker = "$"
)

// Decoder turns per-frame label scores into text with greedy CTC decoding.
type Decoder struct {
	labels    []string
	blankIdx  int
	repeatIdx int // -1 when the label set has no repeat token
}

// NewDecoder builds a decoder for the given label set. The set must contain
// the blank "_" and space " " labels.
func NewDecoder(labels []string) (*Decoder, error) {
	d := &Decoder{labels: labels, blankIdx: -1, repeatIdx: -1}
	hasSpace := false
	for i, l := range labels {
		switch l {
		case blankLabel:
			d.blankIdx = i
		case spaceLabel:
			hasSpace = true
		case repeatLabel:
			d.repeatIdx = i
		}
	}
	if d.blankIdx < 0 {
		return nil, fmt.Errorf("labels have no blank %q", blankLabel)
	}
	if !hasSpace {
		return nil, fmt.Errorf("labels have no space label")
	}
	return d, nil
}

// NumLabels returns the size of the label set.
func (d *Decoder) NumLabels() int {
	return len(d.labels)
}

// Decode decodes one utterance. probs is a row-major [frames, labels] matrix.
func (d *Decoder) Decode(probs []float32) (string, error) {
	n := len(d.labels)
	if len(probs)%n != 0 {
		return "", fmt.Errorf("decode: %d scores is not a multiple of %d labels", len(probs), n)
	}

	var symbols []string
	for t := 0; t < len(probs)/n; t++ {
		idx := argmax(probs[t*n : (t+1)*n])

		if idx == d.repeatIdx {
			if len(symbols) == 0 {
				// A repeat with nothing before it cannot be honored.
				symbols = append(symbols, spaceLabel)
				continue
			}
			prev := symbols[len(symbols)-1]
			symbols = append(symbols, repeatMarker, prev)
			continue
		}
		if idx != d.blankIdx {
			symbols = append(symbols, d.labels[idx])
		}
	}

	var b strings.Builder
	for i, s := range symbols {
		if i > 0 && s == symbols[i-1] {
			continue
		}
		b.WriteString(s)
	}
	return strings.TrimSpace(strings.ReplaceAll(b.String(), repeatMarker, "")), nil
}

// argmax returns the index of the largest value, preferring the first on ties.
func argmax(row []float32) int {
	best := 0
	for i := 1; i < len(row); i++ {
		if row[i] > row[best] {
			best = i
		}
	}
	return best
}
