// Package textmetrics scores extracted text against a reference with edit
// distance based error rates.
package textmetrics

import (
	"strings"
	"unicode"
)

// Result counts the edits that turn a reference into a hypothesis.
type Result struct {
	Rate          float64 // edits per reference token; 0 is a perfect match
	Substitutions int
	Insertions    int
	Deletions     int
	RefTokens     int
}

// Edits returns the total number of edits.
func (r Result) Edits() int {
	return r.Substitutions + r.Insertions + r.Deletions
}

// ComputeWER returns the word error rate of hypothesis against reference.
// Both are lowercased and stripped of punctuation before comparison.
func ComputeWER(reference, hypothesis string) Result {
	return align(Words(reference), Words(hypothesis))
}

// ComputeCER returns the character error rate of hypothesis against
// reference after the same normalization as ComputeWER, with runs of
// whitespace collapsed to one space.
func ComputeCER(reference, hypothesis string) Result {
	return align(chars(reference), chars(hypothesis))
}

// Words normalizes s and splits it into words.
func Words(s string) []string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	return strings.Fields(s)
}

func chars(s string) []string {
	joined := strings.Join(Words(s), " ")
	out := make([]string, 0, len(joined))
	for _, r := range joined {
		out = append(out, string(r))
	}
	return out
}

// cell is one entry of the alignment table: the cheapest edit script for
// a prefix pair, with its edit counts.
type cell struct {
	cost, subs, ins, dels int
}

func (c cell) substitute() cell { return cell{c.cost + 1, c.subs + 1, c.ins, c.dels} }
func (c cell) insert() cell { return cell{c.cost + 1, c.subs, c.ins + 1, c.dels} }
func (c cell) delete() cell { return cell{c.cost + 1, c.subs, c.ins, c.dels + 1} }

// align computes a Levenshtein alignment over two rows of the table,
// preferring substitutions, then deletions, then insertions on ties.
func align(ref, hyp []string) Result {
	if len(ref) == 0 {
		return Result{Insertions: len(hyp)}
	}

	prev := make([]cell, len(hyp)+1)
	curr := make([]cell, len(hyp)+1)
	for j := 1; j <= len(hyp); j++ {
		prev[j] = prev[j-1].insert()
	}

	for i := 1; i <= len(ref); i++ {
		curr[0] = prev[0].delete()
		for j := 1; j <= len(hyp); j++ {
			if ref[i-1] == hyp[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			best := prev[j-1].substitute()
			if d := prev[j].delete(); d.cost < best.cost {
				best = d
			}
			if in := curr[j-1].insert(); in.cost < best.cost {
				best = in
			}
			curr[j] = best
		}
		prev, curr = curr, prev
	}

	last := prev[len(hyp)]
	return Result{
		Rate:          float64(last.cost) / float64(len(ref)),
		Substitutions: last.subs,
		Insertions:    last.ins,
		Deletions:     last.dels,
		RefTokens:     len(ref),
	}
}
