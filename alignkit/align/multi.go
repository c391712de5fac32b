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
	"sort"

	"github.com/rdleal/intervalst/interval"
)

type cell struct {
	score int
	i, j  int
}

// Locals returns up to limit local alignments whose query spans and
// target spans are mutually non-overlapping, best score first.
// End cells are ranked by F score (row-major order breaking ties), each
// is traced back, and candidates intersecting an accepted alignment on
// either axis are skipped. The first result is the one Local returns.
// An empty slice means no positive-scoring alignment exists.
func (alg *Aligner) Locals(a, b []byte, limit int) ([]*AlignResult, error) {
	if err := alg.check(a, b); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 1
	}

	h := len(a) + 1
	w := len(b) + 1
	alg.fill(a, b, h, w)

	f := alg.f
	cells := make([]cell, 0, 256)
	var k int
	for i := 1; i < h; i++ {
		k = idx(i, 1, w)
		for j := 1; j < w; j++ {
			if f[k] > 0 {
				cells = append(cells, cell{f[k], i, j})
			}
			k++
		}
	}
	if len(cells) == 0 {
		return nil, nil
	}

	var rendered []byte
	if alg.Options.SaveMatrix {
		rendered = alg.renderMatrix(a, b)
	}

	// stable sort keeps the row-major earliest-wins policy among ties
	sort.SliceStable(cells, func(x, y int) bool { return cells[x].score > cells[y].score })

	cmpFn := func(x, y int) int { return x - y }
	qtree := interval.NewSearchTree[int, int](cmpFn)
	ttree := interval.NewSearchTree[int, int](cmpFn)

	results := make([]*AlignResult, 0, limit)
	for _, c := range cells {
		if len(results) == limit {
			break
		}

		r := poolAlignResult.Get().(*AlignResult)
		r.Reset()
		r.Score = c.score
		alg.traceback(a, b, c.i, c.j, r)

		// intervals are half-open, hence the end+1
		if _, ok := qtree.AnyIntersection(r.QBegin, r.QEnd+1); ok {
			RecycleAlignResult(r)
			continue
		}
		if _, ok := ttree.AnyIntersection(r.TBegin, r.TEnd+1); ok {
			RecycleAlignResult(r)
			continue
		}

		qtree.Insert(r.QBegin, r.QEnd+1, len(results))
		ttree.Insert(r.TBegin, r.TEnd+1, len(results))
		results = append(results, r)
	}

	if len(results) > 0 {
		results[0].Matrix = rendered
	}
	return results, nil
}
