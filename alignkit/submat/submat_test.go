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

package submat

import (
	"errors"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `
# a toy DNA matrix
  A   C   G   T
A  2  -1  -1  -1
C -1   2  -1  -1
G -1  -1   2  -1   # trailing comment
T -1  -1  -1   2
`
	m, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if m.Size() != 4 || string(m.Symbols()) != "ACGT" {
		t.Errorf("symbols: %s", m.Symbols())
	}
	if m.Score('A', 'A') != 2 || m.Score('A', 'C') != -1 || m.Score('G', 'T') != -1 {
		t.Errorf("scores: A/A=%d, A/C=%d, G/T=%d", m.Score('A', 'A'), m.Score('A', 'C'), m.Score('G', 'T'))
	}
	// lookups are case-insensitive
	if m.Score('a', 't') != -1 || m.Score('c', 'c') != 2 {
		t.Errorf("lowercase scores: a/t=%d, c/c=%d", m.Score('a', 't'), m.Score('c', 'c'))
	}
	if !m.Has('g') || m.Has('X') || m.Has('!') {
		t.Errorf("Has: g=%v, X=%v, !=%v", m.Has('g'), m.Has('X'), m.Has('!'))
	}
}

func TestParseAsymmetric(t *testing.T) {
	input := `
  A C
A 3 -2
C -1 4
`
	m, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// scores are taken as written, no symmetry is enforced
	if m.Score('A', 'C') != -2 || m.Score('C', 'A') != -1 {
		t.Errorf("A/C=%d, C/A=%d", m.Score('A', 'C'), m.Score('C', 'A'))
	}
}

func TestParseMalformed(t *testing.T) {
	inputs := []struct {
		name  string
		input string
	}{
		{"empty", "# only comments\n\n"},
		{"multi-char header symbol", "AB C\nA 1 2\nC 3 4\n"},
		{"duplicated symbol", "A C A\nA 1 2 3\nC 4 5 6\nA 7 8 9\n"},
		{"missing row", "A C\nA 1 2\n"},
		{"extra row", "A C\nA 1 2\nC 3 4\nG 5 6\n"},
		{"misordered row", "A C\nC 3 4\nA 1 2\n"},
		{"wrong field count", "A C\nA 1\nC 3 4\n"},
		{"bad score", "A C\nA 1 x\nC 3 4\n"},
	}

	for _, c := range inputs {
		_, err := Parse(strings.NewReader(c.input))
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: expected ErrMalformed, got %v", c.name, err)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	m := Uniform("toy", []byte("ACGT"), 5, -4)
	m2, err := Parse(strings.NewReader(m.String()))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if string(m2.Symbols()) != string(m.Symbols()) || m2.Score('A', 'A') != 5 || m2.Score('A', 'G') != -4 {
		t.Errorf("round trip differs:\n%s\n%s", m, m2)
	}
}

func TestUniform(t *testing.T) {
	m := Uniform("toy", []byte("acgt"), 3, -3)
	if string(m.Symbols()) != "ACGT" {
		t.Errorf("symbols: %s", m.Symbols())
	}
	if m.Score('A', 'a') != 3 || m.Score('t', 'G') != -3 {
		t.Errorf("A/a=%d, t/G=%d", m.Score('A', 'a'), m.Score('t', 'G'))
	}
}

func TestBuiltins(t *testing.T) {
	names := Names()
	if len(names) == 0 {
		t.Fatal("no built-in matrices")
	}

	m, ok := Get("BLOSUM62")
	if !ok {
		t.Fatal("BLOSUM62 not found")
	}
	if m.Score('A', 'A') != 4 || m.Score('C', 'C') != 9 || m.Score('W', 'W') != 11 {
		t.Errorf("BLOSUM62: A/A=%d, C/C=%d, W/W=%d", m.Score('A', 'A'), m.Score('C', 'C'), m.Score('W', 'W'))
	}
	if m.Score('A', 'W') != m.Score('W', 'A') {
		t.Errorf("BLOSUM62 not symmetric: A/W=%d, W/A=%d", m.Score('A', 'W'), m.Score('W', 'A'))
	}

	// lookup is case-insensitive
	if _, ok = Get("blosum62"); !ok {
		t.Error("lowercase lookup failed")
	}

	m, ok = Get("EDNA")
	if !ok {
		t.Fatal("EDNA not found")
	}
	if m.Score('A', 'A') != 5 || m.Score('A', 'C') != -4 || m.Score('A', 'N') != -2 {
		t.Errorf("EDNA: A/A=%d, A/C=%d, A/N=%d", m.Score('A', 'A'), m.Score('A', 'C'), m.Score('A', 'N'))
	}

	if _, ok = Get("nonexistent"); ok {
		t.Error("unexpected matrix: nonexistent")
	}
}
