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
	"bytes"
	"fmt"
)

// renderMatrix renders the F matrix after a fill pass, only for
// debugging and the matrix dump of the CLI.
func (alg *Aligner) renderMatrix(a, b []byte) []byte {
	h := len(a) + 1
	w := len(b) + 1
	f := alg.f

	var buf bytes.Buffer

	// b along the top, over columns j >= 1
	buf.WriteString("      ")
	for j := 0; j < len(b); j++ {
		buf.WriteString(fmt.Sprintf(" %4c", b[j]))
	}
	buf.WriteByte('\n')

	var k int
	for i := 0; i < h; i++ {
		if i == 0 {
			buf.WriteByte(' ')
		} else {
			buf.WriteByte(a[i-1])
		}

		for j := 0; j < w; j++ {
			k = idx(i, j, w)
			buf.WriteString(fmt.Sprintf(" %4d", f[k]))
		}
		buf.WriteByte('\n')
	}

	return buf.Bytes()
}
