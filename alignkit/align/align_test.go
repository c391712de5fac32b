// Copyright © 2024-2025 alignkit authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package align

import (
	"errors"
	"strings"
	"testing"

	"github.com/seqlabs/alignkit/alignkit/submat"
)

func newTestAligner(match, mismatch, open, ext int, linked bool) *Aligner {
	return NewAligner(&Options{
		Submat:         submat.Uniform("test", []byte("ACGTXYBDE"), match, mismatch),
		GapOpen:        open,
		GapExt:         ext,
		LinkedGaps:     linked,
		SaveAlignments: true,
	})
}

func TestLocal(t *testing.T) {
	alg := newTestAligner(3, -3, -2, -1, false)

	r, err := alg.Local([]byte("TGTTACGG"), []byte("GGTTGACTA"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer RecycleAlignResult(r)

	if r.Score != 13 {
		t.Errorf("score: %d, expected 13", r.Score)
	}
	if string(r.AlignA) != "GTT-AC" || string(r.AlignM) != "||| ||" || string(r.AlignB) != "GTTGAC" {
		t.Errorf("alignment:\n%s\n%s\n%s", r.AlignA, r.AlignM, r.AlignB)
	}
	if r.QBegin != 2 || r.QEnd != 6 || r.TBegin != 2 || r.TEnd != 7 {
		t.Errorf("ranges: %d-%d, %d-%d", r.QBegin, r.QEnd, r.TBegin, r.TEnd)
	}
	if r.Len != 6 || r.Matches != 5 || r.Gaps != 1 {
		t.Errorf("len: %d, matches: %d, gaps: %d", r.Len, r.Matches, r.Gaps)
	}
}

func TestLocalScoring(t *testing.T) {
	alg := newTestAligner(2, -1, -2, -1, false)

	r, err := alg.Local([]byte("TGTTACGG"), []byte("GGTTGACTA"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer RecycleAlignResult(r)

	if r.Score != 8 {
		t.Errorf("score: %d, expected 8", r.Score)
	}
	if string(r.AlignA) != "GTT-AC" || string(r.AlignB) != "GTTGAC" {
		t.Errorf("alignment:\n%s\n%s", r.AlignA, r.AlignB)
	}
}

func TestSelfAlignment(t *testing.T) {
	alg := newTestAligner(5, -4, -2, -1, false)

	r, err := alg.Local([]byte("ABCDE"), []byte("ABCDE"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer RecycleAlignResult(r)

	if r.Score != 25 {
		t.Errorf("score: %d, expected 25", r.Score)
	}
	if r.QBegin != 1 || r.QEnd != 5 || r.TBegin != 1 || r.TEnd != 5 {
		t.Errorf("ranges: %d-%d, %d-%d", r.QBegin, r.QEnd, r.TBegin, r.TEnd)
	}
	if r.Identity() != 100 {
		t.Errorf("identity: %f", r.Identity())
	}
}

func TestSubstring(t *testing.T) {
	alg := newTestAligner(3, -3, -2, -1, false)

	r, err := alg.Local([]byte("TTGAC"), []byte("GGTTGACTA"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer RecycleAlignResult(r)

	if r.Score != 15 {
		t.Errorf("score: %d, expected 15", r.Score)
	}
	if r.QBegin != 1 || r.QEnd != 5 || r.TBegin != 3 || r.TEnd != 7 {
		t.Errorf("ranges: %d-%d, %d-%d", r.QBegin, r.QEnd, r.TBegin, r.TEnd)
	}
	if r.Gaps != 0 || r.Matches != 5 {
		t.Errorf("matches: %d, gaps: %d", r.Matches, r.Gaps)
	}
}

// swapping the two sequences mirrors the alignment
func TestTranspose(t *testing.T) {
	alg := newTestAligner(3, -3, -2, -1, false)

	r, err := alg.Local([]byte("GGTTGACTA"), []byte("TGTTACGG"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer RecycleAlignResult(r)

	if r.Score != 13 {
		t.Errorf("score: %d, expected 13", r.Score)
	}
	if string(r.AlignA) != "GTTGAC" || string(r.AlignB) != "GTT-AC" {
		t.Errorf("alignment:\n%s\n%s", r.AlignA, r.AlignB)
	}
	if r.QBegin != 2 || r.QEnd != 7 || r.TBegin != 2 || r.TEnd != 6 {
		t.Errorf("ranges: %d-%d, %d-%d", r.QBegin, r.QEnd, r.TBegin, r.TEnd)
	}
}

func TestDeterminism(t *testing.T) {
	alg := newTestAligner(3, -3, -2, -1, false)

	a := []byte("TGTTACGG")
	b := []byte("GGTTGACTA")

	r1, err := alg.Local(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	s1 := string(r1.AlignA) + "\n" + string(r1.AlignB)
	score1 := r1.Score
	RecycleAlignResult(r1)

	for i := 0; i < 10; i++ {
		r2, err := alg.Local(a, b)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if r2.Score != score1 || string(r2.AlignA)+"\n"+string(r2.AlignB) != s1 {
			t.Fatalf("run %d differs: score %d\n%s\n%s", i, r2.Score, r2.AlignA, r2.AlignB)
		}
		RecycleAlignResult(r2)
	}
}

func TestNoAlignment(t *testing.T) {
	alg := newTestAligner(1, -1, -2, -1, false)

	r, err := alg.Local([]byte("AAAA"), []byte("TTTT"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer RecycleAlignResult(r)

	if !r.Empty() {
		t.Errorf("expected an empty result, got score %d", r.Score)
	}
	if r.QBegin != 0 || r.QEnd != 0 || r.TBegin != 0 || r.TEnd != 0 {
		t.Errorf("ranges of an empty result: %d-%d, %d-%d", r.QBegin, r.QEnd, r.TBegin, r.TEnd)
	}
	if len(r.AlignA) != 0 {
		t.Errorf("alignment of an empty result: %s", r.AlignA)
	}
}

func TestEmptySequence(t *testing.T) {
	alg := newTestAligner(1, -1, -2, -1, false)

	if _, err := alg.Local([]byte(""), []byte("ACGT")); !errors.Is(err, ErrEmptySeq) {
		t.Errorf("expected ErrEmptySeq, got %v", err)
	}
	if _, err := alg.Local([]byte("ACGT"), nil); !errors.Is(err, ErrEmptySeq) {
		t.Errorf("expected ErrEmptySeq, got %v", err)
	}
}

func TestUnknownSymbol(t *testing.T) {
	alg := newTestAligner(1, -1, -2, -1, false)

	_, err := alg.Local([]byte("AC!GT"), []byte("ACGT"))
	var uerr *UnknownSymbolError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UnknownSymbolError, got %v", err)
	}
	if uerr.Symbol != '!' || uerr.Seq != 1 {
		t.Errorf("symbol: %q, seq: %d", uerr.Symbol, uerr.Seq)
	}

	_, err = alg.Local([]byte("ACGT"), []byte("ACZT"))
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UnknownSymbolError, got %v", err)
	}
	if uerr.Symbol != 'Z' || uerr.Seq != 2 {
		t.Errorf("symbol: %q, seq: %d", uerr.Symbol, uerr.Seq)
	}
}

// a gap in one sequence directly following a gap in the other is only
// allowed with LinkedGaps, and charged a fresh gap open
func TestLinkedGaps(t *testing.T) {
	a := []byte("AAXXXBB")
	b := []byte("AAYYBB")

	alg := newTestAligner(5, -3, -2, -1, true)
	r, err := alg.Local(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if r.Score != 13 {
		t.Errorf("linked score: %d, expected 13", r.Score)
	}
	if string(r.AlignA) != "AA--XXXBB" || string(r.AlignB) != "AAYY---BB" {
		t.Errorf("linked alignment:\n%s\n%s", r.AlignA, r.AlignB)
	}
	RecycleAlignResult(r)

	alg = newTestAligner(5, -3, -2, -1, false)
	r, err = alg.Local(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if r.Score != 12 {
		t.Errorf("unlinked score: %d, expected 12", r.Score)
	}
	if string(r.AlignA) != "AAXXXBB" || string(r.AlignB) != "AA-YYBB" {
		t.Errorf("unlinked alignment:\n%s\n%s", r.AlignA, r.AlignB)
	}
	RecycleAlignResult(r)
}

func TestCIGAR(t *testing.T) {
	alg := newTestAligner(3, -3, -2, -1, false)

	r, err := alg.Local([]byte("TGTTACGG"), []byte("GGTTGACTA"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer RecycleAlignResult(r)

	if cigar := string(r.CIGAR()); cigar != "3M1D2M" {
		t.Errorf("cigar: %s, expected 3M1D2M", cigar)
	}
}

func TestComplete(t *testing.T) {
	alg := newTestAligner(3, -3, -2, -1, false)

	a := []byte("TGTTACGG")
	b := []byte("GGTTGACTA")
	r, err := alg.Local(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer RecycleAlignResult(r)

	x, m, y := r.Complete(a, b)
	if string(x) != "T(GTT-AC)GG" {
		t.Errorf("query line: %q", x)
	}
	if string(m) != " (||| ||)  " {
		t.Errorf("match line: %q", m)
	}
	if string(y) != "G(GTTGAC)TA" {
		t.Errorf("subject line: %q", y)
	}
}

func TestSaveMatrix(t *testing.T) {
	alg := newTestAligner(3, -3, -2, -1, false)
	alg.Options.SaveMatrix = true

	r, err := alg.Local([]byte("ACGT"), []byte("ACGT"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer RecycleAlignResult(r)

	if len(r.Matrix) == 0 {
		t.Fatalf("expected a rendered matrix")
	}
	t.Logf("matrix:\n%s", r.Matrix)

	// every line has the same width, so the symbols of sequence b in
	// the header sit over their score columns
	lines := strings.Split(strings.TrimRight(string(r.Matrix), "\n"), "\n")
	if len(lines) != 6 { // header + 5 rows of the 5x5 matrix
		t.Fatalf("expected 6 lines, got %d", len(lines))
	}
	for i, line := range lines[1:] {
		if len(line) != len(lines[0]) {
			t.Errorf("line %d: width %d, header width %d", i+1, len(line), len(lines[0]))
		}
	}
}
