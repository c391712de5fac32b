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

// Package align implements Smith-Waterman local alignment with affine
// gap penalties (Gotoh's three-matrix formulation).
//
// Three score matrices are carried per cell: M for alignments ending in
// a match/mismatch, Ix for alignments ending with a gap in the target
// (consuming a query symbol), and Iy for alignments ending with a gap
// in the query. Because Ix/Iy already hold the best score of a gap
// ending at the adjacent cell, each cell only combines its three
// immediate neighbors instead of scanning all prior gap lengths, so the
// fill pass is O(mn). Each score matrix has a companion traceback
// matrix recording which matrix its value came from.
package align

import (
	"errors"
	"fmt"
	"math"

	"github.com/seqlabs/alignkit/alignkit/submat"
	"github.com/seqlabs/alignkit/alignkit/util"
)

// From records which matrix the value stored in a cell came from.
// Halt marks the implicit zero of local alignment: traceback ends here.
type From uint8

const (
	FromM From = iota
	FromIx
	FromIy
	Halt
)

func (f From) String() string {
	switch f {
	case FromM:
		return "M"
	case FromIx:
		return "Ix"
	case FromIy:
		return "Iy"
	case Halt:
		return "*"
	}
	return "?"
}

// ErrEmptySeq means one of the input sequences has zero length.
var ErrEmptySeq = errors.New("align: empty sequence")

// UnknownSymbolError means a sequence contains a symbol the
// substitution matrix defines no scores for.
type UnknownSymbolError struct {
	Symbol byte
	Seq    int // 1 for the query, 2 for the target
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("align: symbol %q of sequence %d not covered by the score table", e.Symbol, e.Seq)
}

// Options contains all alignment options.
type Options struct {
	Submat *submat.Matrix // substitution score table

	GapOpen int // penalty for starting a gap, expected <= 0
	GapExt  int // penalty for extending an open gap, expected <= 0

	// LinkedGaps allows a gap chain to open directly from the
	// orthogonal gap matrix at the adjacent cell, i.e. two gap
	// extensions in different directions with no match/mismatch in
	// between. The second chain is charged a fresh gap open.
	LinkedGaps bool

	// save alignment strings
	// AT-GTTAT
	// || | ||
	// ATCG-TAC
	SaveAlignments bool
	// render the F matrix into the result, only for debugging
	SaveMatrix bool
}

// DefaultOptions is the default Options, without a substitution matrix.
var DefaultOptions = Options{
	GapOpen: -2,
	GapExt:  -1,

	SaveAlignments: true,
}

// scores below never win a max but survive adding gap penalties
const minScore = math.MinInt / 4

// Aligner computes local alignments. The score and traceback matrices
// are reused between calls, so an Aligner must not be shared by
// concurrent goroutines.
type Aligner struct {
	Options *Options

	// reusable matrices, (m+1) x (n+1), addressed by idx(i, j, w)
	m, ix, iy, f []int
	tm, tix, tiy []From
}

// NewAligner returns an aligner. The options must carry a substitution
// matrix.
func NewAligner(options *Options) *Aligner {
	return &Aligner{Options: options}
}

func idx(i, j, w int) int {
	return i*w + j
}

func growInts(s *[]int, n int) []int {
	if n <= cap(*s) {
		return (*s)[:n]
	}
	*s = make([]int, n)
	return *s
}

func growFroms(s *[]From, n int) []From {
	if n <= cap(*s) {
		return (*s)[:n]
	}
	*s = make([]From, n)
	return *s
}

// check validates the inputs against the options.
func (alg *Aligner) check(a, b []byte) error {
	if len(a) == 0 || len(b) == 0 {
		return ErrEmptySeq
	}
	sm := alg.Options.Submat
	for _, c := range a {
		if !sm.Has(c) {
			return &UnknownSymbolError{Symbol: c, Seq: 1}
		}
	}
	for _, c := range b {
		if !sm.Has(c) {
			return &UnknownSymbolError{Symbol: c, Seq: 2}
		}
	}
	return nil
}

// Local aligns a (the query) and b (the target) and returns the best
// local alignment. A score of 0 (r.Empty()) means no positive-scoring
// alignment exists; it is a valid result, not an error.
// Please remember to recycle the result after using
// by calling RecycleAlignResult.
func (alg *Aligner) Local(a, b []byte) (*AlignResult, error) {
	if err := alg.check(a, b); err != nil {
		return nil, err
	}

	h := len(a) + 1 // height of the matrices
	w := len(b) + 1 // width of the matrices
	alg.fill(a, b, h, w)

	r := poolAlignResult.Get().(*AlignResult)
	r.Reset()

	if alg.Options.SaveMatrix {
		r.Matrix = alg.renderMatrix(a, b)
	}

	score, bi, bj := alg.best(h, w)
	r.Score = score
	if score == 0 { // no cell beats the implicit zero
		return r, nil
	}

	alg.traceback(a, b, bi, bj, r)
	return r, nil
}

// fill populates the score and traceback matrices in increasing i then
// increasing j order, so the three predecessor cells of every cell are
// final before it is computed.
//
// Tie-break policy, applied consistently so the reconstructed alignment
// is deterministic: for M, prefer continuing from M, then Ix, then Iy,
// then the implicit zero; for Ix/Iy, prefer extending over opening, and
// opening from M over the cross-matrix open. A candidate replaces the
// preferred one only when strictly greater.
func (alg *Aligner) fill(a, b []byte, h, w int) {
	n := h * w
	m := growInts(&alg.m, n)
	ix := growInts(&alg.ix, n)
	iy := growInts(&alg.iy, n)
	f := growInts(&alg.f, n)
	tm := growFroms(&alg.tm, n)
	tix := growFroms(&alg.tix, n)
	tiy := growFroms(&alg.tiy, n)

	open := alg.Options.GapOpen
	ext := alg.Options.GapExt
	linked := alg.Options.LinkedGaps
	sm := alg.Options.Submat

	// ---------------------------------------------------
	// initialize

	// row 0 and column 0: no symbols consumed. M is impossible there,
	// Ix/Iy hold a leading gap chain of open + ext*(k-1).
	m[0] = 0
	ix[0], iy[0] = minScore, minScore
	f[0] = 0
	tm[0], tix[0], tiy[0] = Halt, Halt, Halt
	for j := 1; j < w; j++ {
		m[j] = minScore
		ix[j] = minScore // a gap in the target must consume a query symbol
		iy[j] = open + ext*(j-1)
		f[j] = 0
		tm[j], tix[j], tiy[j] = Halt, Halt, Halt
	}
	var k int
	for i := 1; i < h; i++ {
		k = idx(i, 0, w)
		m[k] = minScore
		ix[k] = open + ext*(i-1)
		iy[k] = minScore
		f[k] = 0
		tm[k], tix[k], tiy[k] = Halt, Halt, Halt
	}

	// ---------------------------------------------------
	// compute

	var ca byte
	var kd, ku, kl int
	var s, best, v int
	var from From
	for i := 1; i < h; i++ {
		ca = a[i-1]
		for j := 1; j < w; j++ {
			k = idx(i, j, w)
			kd = k - w - 1 // (i-1, j-1)
			ku = k - w     // (i-1, j)
			kl = k - 1     // (i, j-1)

			s = sm.Score(ca, b[j-1])

			// M: the best diagonal predecessor, floored at the
			// implicit zero, plus the pair score
			best, from = m[kd], FromM
			if ix[kd] > best {
				best, from = ix[kd], FromIx
			}
			if iy[kd] > best {
				best, from = iy[kd], FromIy
			}
			if 0 > best {
				best, from = 0, Halt
			}
			m[k] = best + s
			tm[k] = from

			// Ix: gap in the target, consuming query symbol i
			best, from = ix[ku]+ext, FromIx
			if v = m[ku] + open; v > best {
				best, from = v, FromM
			}
			if linked {
				if v = iy[ku] + open; v > best {
					best, from = v, FromIy
				}
			}
			ix[k] = best
			tix[k] = from

			// Iy: gap in the query, consuming target symbol j
			best, from = iy[kl]+ext, FromIy
			if v = m[kl] + open; v > best {
				best, from = v, FromM
			}
			if linked {
				if v = ix[kl] + open; v > best {
					best, from = v, FromIx
				}
			}
			iy[k] = best
			tiy[k] = from

			// F: the overall best score ending exactly here, >= 0
			best = 0
			if m[k] > best {
				best = m[k]
			}
			if ix[k] > best {
				best = ix[k]
			}
			if iy[k] > best {
				best = iy[k]
			}
			f[k] = best
		}
	}
}

// best scans F in row-major order and returns the maximum score and the
// first cell attaining it. All-zero matrices yield (0, 0, 0).
func (alg *Aligner) best(h, w int) (int, int, int) {
	f := alg.f
	best, bi, bj := 0, 0, 0
	var k int
	for i := 1; i < h; i++ {
		k = idx(i, 1, w)
		for j := 1; j < w; j++ {
			if f[k] > best {
				best, bi, bj = f[k], i, j
			}
			k++
		}
	}
	return best, bi, bj
}

// traceback walks backward from cell (bi, bj), starting in whichever
// matrix attained the maximum there, until a Halt tag or a matrix
// boundary. At every step only the tag of the matrix currently being
// traced is consulted.
func (alg *Aligner) traceback(a, b []byte, bi, bj int, r *AlignResult) {
	w := len(b) + 1
	save := alg.Options.SaveAlignments

	k := idx(bi, bj, w)
	state := FromM
	best := alg.m[k]
	if alg.ix[k] > best {
		best, state = alg.ix[k], FromIx
	}
	if alg.iy[k] > best {
		best, state = alg.iy[k], FromIy
	}

	r.QEnd, r.TEnd = bi, bj

	i, j := bi, bj
	var next From
	for i > 0 && j > 0 {
		k = idx(i, j, w)
		switch state {
		case FromM:
			next = alg.tm[k]
			if a[i-1] == b[j-1] {
				r.Matches++
			}
			if save {
				r.AlignA = append(r.AlignA, a[i-1])
				r.AlignB = append(r.AlignB, b[j-1])
				if a[i-1] == b[j-1] {
					r.AlignM = append(r.AlignM, '|')
				} else {
					r.AlignM = append(r.AlignM, ' ')
				}
			}
			r.Len++
			i--
			j--
		case FromIx:
			next = alg.tix[k]
			if save {
				r.AlignA = append(r.AlignA, a[i-1])
				r.AlignB = append(r.AlignB, '-')
				r.AlignM = append(r.AlignM, ' ')
			}
			r.Gaps++
			r.Len++
			i--
		case FromIy:
			next = alg.tiy[k]
			if save {
				r.AlignA = append(r.AlignA, '-')
				r.AlignB = append(r.AlignB, b[j-1])
				r.AlignM = append(r.AlignM, ' ')
			}
			r.Gaps++
			r.Len++
			j--
		}
		if next == Halt {
			break
		}
		state = next
	}

	r.QBegin, r.TBegin = i+1, j+1

	if save {
		util.ReverseBytes(r.AlignA)
		util.ReverseBytes(r.AlignM)
		util.ReverseBytes(r.AlignB)
	}
}
