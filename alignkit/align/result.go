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
	"strconv"
	"sync"
)

// AlignResult holds the details of one local alignment.
// Coordinates are 1-based and inclusive, zero when no alignment exists.
type AlignResult struct {
	Score int // score of the traced segment

	QBegin, QEnd int // span of the segment in the query
	TBegin, TEnd int // span of the segment in the target

	Len     int // length of the alignment, gaps included
	Matches int // number of matched symbols
	Gaps    int // number of gap columns

	AlignA []byte // alignment string for the query
	AlignM []byte // matching symbols, "|" for match, " " otherwise
	AlignB []byte // alignment string for the target

	Matrix []byte // rendered F matrix, only when Options.SaveMatrix
}

// Reset resets all the values.
func (r *AlignResult) Reset() {
	r.Score = 0
	r.QBegin, r.QEnd = 0, 0
	r.TBegin, r.TEnd = 0, 0
	r.Len = 0
	r.Matches = 0
	r.Gaps = 0

	if r.AlignA != nil {
		r.AlignA = r.AlignA[:0]
	}
	if r.AlignM != nil {
		r.AlignM = r.AlignM[:0]
	}
	if r.AlignB != nil {
		r.AlignB = r.AlignB[:0]
	}
	r.Matrix = nil
}

// Empty reports whether no positive-scoring local alignment exists.
// This is a valid terminal result, not an error.
func (r *AlignResult) Empty() bool {
	return r.Score == 0
}

// Identity returns the percentage of matched columns.
func (r *AlignResult) Identity() float64 {
	if r.Len == 0 {
		return 0
	}
	return float64(r.Matches) / float64(r.Len) * 100
}

var poolAlignResult = &sync.Pool{New: func() interface{} {
	r := &AlignResult{}
	r.AlignA = make([]byte, 0, 1024)
	r.AlignM = make([]byte, 0, 1024)
	r.AlignB = make([]byte, 0, 1024)
	return r
}}

// RecycleAlignResult recycles an alignment result.
func RecycleAlignResult(r *AlignResult) {
	if r != nil {
		poolAlignResult.Put(r)
	}
}

// CIGAR returns the CIGAR string of the traced segment with the query
// as the read: M for match/mismatch columns, I for gaps in the target,
// D for gaps in the query. Needs Options.SaveAlignments.
func (r *AlignResult) CIGAR() []byte {
	if len(r.AlignA) == 0 {
		return nil
	}

	cigar := make([]byte, 0, 16)
	var op, prev byte
	var count int
	for k := range r.AlignA {
		switch {
		case r.AlignA[k] == '-':
			op = 'D'
		case r.AlignB[k] == '-':
			op = 'I'
		default:
			op = 'M'
		}
		if op == prev {
			count++
			continue
		}
		if count > 0 {
			cigar = strconv.AppendInt(cigar, int64(count), 10)
			cigar = append(cigar, prev)
		}
		prev, count = op, 1
	}
	cigar = strconv.AppendInt(cigar, int64(count), 10)
	cigar = append(cigar, prev)
	return cigar
}

// Complete returns the aligned strings flanked by the unaligned prefix
// and suffix of the original sequences, with the traced segment wrapped
// in parentheses:
//
//	 TG(TT-AC)GG
//	   (|| ||)
//	GGT(TTGAC)TA
//
// The flanks are pure splices of the inputs and carry no score.
// Needs Options.SaveAlignments.
func (r *AlignResult) Complete(a, b []byte) (x, m, y []byte) {
	if len(r.AlignA) == 0 {
		return nil, nil, nil
	}

	fi := r.QBegin - 1 // number of query symbols before the segment
	fj := r.TBegin - 1
	front := fi
	if fj > front {
		front = fj
	}
	back := len(a) - r.QEnd
	if n := len(b) - r.TEnd; n > back {
		back = n
	}

	size := front + 1 + r.Len + 1 + back
	x = make([]byte, 0, size)
	m = make([]byte, 0, size)
	y = make([]byte, 0, size)

	for d := front; d >= 1; d-- {
		if fi-d >= 0 {
			x = append(x, a[fi-d])
		} else {
			x = append(x, ' ')
		}
		m = append(m, ' ')
		if fj-d >= 0 {
			y = append(y, b[fj-d])
		} else {
			y = append(y, ' ')
		}
	}

	x = append(x, '(')
	m = append(m, '(')
	y = append(y, '(')
	x = append(x, r.AlignA...)
	m = append(m, r.AlignM...)
	y = append(y, r.AlignB...)
	x = append(x, ')')
	m = append(m, ')')
	y = append(y, ')')

	for d := 0; d < back; d++ {
		if r.QEnd+d < len(a) {
			x = append(x, a[r.QEnd+d])
		} else {
			x = append(x, ' ')
		}
		m = append(m, ' ')
		if r.TEnd+d < len(b) {
			y = append(y, b[r.TEnd+d])
		} else {
			y = append(y, ' ')
		}
	}

	return x, m, y
}
