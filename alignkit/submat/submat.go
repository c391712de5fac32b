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

// Package submat provides substitution score matrices for pairwise
// sequence alignment, either built-in or parsed from whitespace-delimited
// text files.
//
// The file format is a header row of single-character symbols, followed
// by one row per symbol: the symbol itself and one integer score per
// column. Row symbols must appear in the same order as the header.
// Lines starting with '#' and blank lines are ignored.
package submat

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// ErrMalformed means a score table file could not be parsed:
// a bad header, a missing or misordered row, or a missing score.
var ErrMalformed = errors.New("submat: malformed score table")

const notset int16 = -1

// Matrix is an immutable substitution score table over an ASCII
// alphabet. Lookups are case-insensitive.
type Matrix struct {
	Name    string
	symbols []byte // header order, uppercased
	scores  []int  // len(symbols) x len(symbols), row-major
	cmap    [128]int16
}

// Symbols returns the alphabet in header order.
func (m *Matrix) Symbols() []byte { return m.symbols }

// Size returns the number of symbols in the alphabet.
func (m *Matrix) Size() int { return len(m.symbols) }

// Has reports whether the matrix defines scores for the given symbol.
func (m *Matrix) Has(c byte) bool {
	return c < 128 && m.cmap[c] != notset
}

// Score returns the score of aligning symbol a against symbol b.
// Both symbols must be covered by the matrix, see Has.
func (m *Matrix) Score(a, b byte) int {
	return m.scores[int(m.cmap[a])*len(m.symbols)+int(m.cmap[b])]
}

// String renders the matrix in its own file format.
func (m *Matrix) String() string {
	var buf bytes.Buffer
	n := len(m.symbols)
	for j, c := range m.symbols {
		if j == 0 {
			buf.WriteString(fmt.Sprintf("%3c", c))
		} else {
			buf.WriteString(fmt.Sprintf(" %3c", c))
		}
	}
	buf.WriteByte('\n')
	for i, c := range m.symbols {
		buf.WriteByte(c)
		for j := 0; j < n; j++ {
			buf.WriteString(fmt.Sprintf(" %3d", m.scores[i*n+j]))
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func toLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c - 'A' + 'a'
	}
	return c
}

func newMatrix(name string, symbols []byte) *Matrix {
	m := &Matrix{
		Name:    name,
		symbols: symbols,
		scores:  make([]int, len(symbols)*len(symbols)),
	}
	for i := range m.cmap {
		m.cmap[i] = notset
	}
	for i, c := range symbols {
		m.cmap[toUpper(c)] = int16(i)
		m.cmap[toLower(c)] = int16(i)
	}
	return m
}

// Uniform builds a match/mismatch matrix over the given alphabet:
// match on the diagonal, mismatch everywhere else.
func Uniform(name string, alphabet []byte, match int, mismatch int) *Matrix {
	symbols := make([]byte, len(alphabet))
	for i, c := range alphabet {
		symbols[i] = toUpper(c)
	}
	m := newMatrix(name, symbols)
	n := len(symbols)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				m.scores[i*n+j] = match
			} else {
				m.scores[i*n+j] = mismatch
			}
		}
	}
	return m
}

// Read parses a matrix from a file. Transparently handles gzip etc,
// and "-" for stdin.
func Read(file string) (*Matrix, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}
	m, err := Parse(fh)
	if err != nil {
		fh.Close()
		return nil, errors.Wrap(err, file)
	}
	if m.Name == "" {
		m.Name = file
	}
	return m, fh.Close()
}

// Parse parses a matrix from a reader. See the package documentation
// for the format.
func Parse(r io.Reader) (*Matrix, error) {
	lines, err := contentLines(r)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.Wrap(ErrMalformed, "empty input")
	}

	header := bytes.Fields(lines[0])
	symbols := make([]byte, 0, len(header))
	for _, f := range header {
		if len(f) != 1 || f[0] > 127 {
			return nil, errors.Wrapf(ErrMalformed, "header symbol %q is not a single ASCII character", f)
		}
		symbols = append(symbols, toUpper(f[0]))
	}
	for i, c := range symbols {
		for _, d := range symbols[i+1:] {
			if c == d {
				return nil, errors.Wrapf(ErrMalformed, "duplicated symbol: %c", c)
			}
		}
	}

	n := len(symbols)
	m := newMatrix("", symbols)

	if len(lines)-1 < n {
		return nil, errors.Wrapf(ErrMalformed, "%d symbols in header but only %d score rows", n, len(lines)-1)
	}
	if len(lines)-1 > n {
		return nil, errors.Wrapf(ErrMalformed, "%d symbols in header but %d score rows", n, len(lines)-1)
	}

	for i, line := range lines[1:] {
		fields := bytes.Fields(line)
		if len(fields) != n+1 {
			return nil, errors.Wrapf(ErrMalformed, "row %d: expected a symbol and %d scores, got %d fields", i+1, n, len(fields))
		}
		if len(fields[0]) != 1 {
			return nil, errors.Wrapf(ErrMalformed, "row %d: row symbol %q is not a single character", i+1, fields[0])
		}
		// row symbols must match the header order, otherwise column
		// lookups would silently return scores of the wrong pair
		if toUpper(fields[0][0]) != symbols[i] {
			return nil, errors.Wrapf(ErrMalformed, "row %d: symbol %c does not match header symbol %c",
				i+1, fields[0][0], symbols[i])
		}
		for j := 0; j < n; j++ {
			v, err := strconv.Atoi(string(fields[j+1]))
			if err != nil {
				return nil, errors.Wrapf(ErrMalformed, "row %d: bad score %q", i+1, fields[j+1])
			}
			m.scores[i*n+j] = v
		}
	}

	return m, nil
}

// contentLines splits the input into lines, dropping blank lines and
// anything after a '#'.
func contentLines(r io.Reader) ([][]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var lines [][]byte
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if i := bytes.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}
