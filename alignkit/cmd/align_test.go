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

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/seqlabs/alignkit/alignkit/align"
)

func TestWriteAlignBlocks(t *testing.T) {
	r := &align.AlignResult{
		Score:  13,
		QBegin: 2, QEnd: 6,
		TBegin: 2, TEnd: 7,
		Len: 6, Matches: 5, Gaps: 1,
		AlignA: []byte("GTT-AC"),
		AlignM: []byte("||| ||"),
		AlignB: []byte("GTTGAC"),
	}

	var buf bytes.Buffer
	writeAlignBlocks(&buf, r, 60)

	expected := "Query  2  GTT-AC  6\n" +
		"          ||| ||\n" +
		"Sbjct  2  GTTGAC  7\n" +
		"\n\n"
	if buf.String() != expected {
		t.Errorf("blocks:\n%s\nexpected:\n%s", buf.String(), expected)
	}
}

func TestWriteAlignBlocksWrapped(t *testing.T) {
	r := &align.AlignResult{
		Score:  13,
		QBegin: 2, QEnd: 6,
		TBegin: 2, TEnd: 7,
		Len: 6, Matches: 5, Gaps: 1,
		AlignA: []byte("GTT-AC"),
		AlignM: []byte("||| ||"),
		AlignB: []byte("GTTGAC"),
	}

	var buf bytes.Buffer
	writeAlignBlocks(&buf, r, 4)

	// coordinates advance by the non-gap symbols of each block
	expected := "Query  2  GTT-  4\n" +
		"          ||| \n" +
		"Sbjct  2  GTTG  5\n" +
		"\n" +
		"Query  5  AC  6\n" +
		"          ||\n" +
		"Sbjct  6  AC  7\n" +
		"\n\n"
	if buf.String() != expected {
		t.Errorf("blocks:\n%s\nexpected:\n%s", buf.String(), expected)
	}
}

func TestNgaps(t *testing.T) {
	if n := ngaps([]byte("GTT-AC")); n != 1 {
		t.Errorf("ngaps: %d, expected 1", n)
	}
	if n := ngaps([]byte("----")); n != 4 {
		t.Errorf("ngaps: %d, expected 4", n)
	}
	if n := ngaps([]byte("ACGT")); n != 0 {
		t.Errorf("ngaps: %d, expected 0", n)
	}
}

func TestReadAlignPairPlain(t *testing.T) {
	file := filepath.Join(t.TempDir(), "pair.txt")
	err := os.WriteFile(file, []byte("# a comment\ntgttacgg\nGGTTGACTA\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}

	qID, tID, q, tt := readAlignPair(file)
	if qID != "seq1" || tID != "seq2" {
		t.Errorf("ids: %s, %s", qID, tID)
	}
	if string(q) != "TGTTACGG" || string(tt) != "GGTTGACTA" {
		t.Errorf("seqs: %s, %s", q, tt)
	}
}

func TestReadAlignPairFasta(t *testing.T) {
	file := filepath.Join(t.TempDir(), "pair.fasta")
	err := os.WriteFile(file, []byte(">q1 some description\nTGTT\nacgg\n>t1\nGGTTGACTA\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}

	qID, tID, q, tt := readAlignPair(file)
	if qID != "q1" || tID != "t1" {
		t.Errorf("ids: %s, %s", qID, tID)
	}
	if string(q) != "TGTTACGG" || string(tt) != "GGTTGACTA" {
		t.Errorf("seqs: %s, %s", q, tt)
	}
}

func TestLoadProfile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "profile.toml")
	err := os.WriteFile(file, []byte("submat = \"EDNA\"\ngap-open = -5\nlinked-gaps = true\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}

	p, err := loadProfile(file)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if p.Submat == nil || *p.Submat != "EDNA" {
		t.Errorf("submat: %v", p.Submat)
	}
	if p.GapOpen == nil || *p.GapOpen != -5 {
		t.Errorf("gap-open: %v", p.GapOpen)
	}
	if p.GapExt != nil {
		t.Errorf("gap-ext should be unset, got %v", *p.GapExt)
	}
	if p.LinkedGaps == nil || !*p.LinkedGaps {
		t.Errorf("linked-gaps: %v", p.LinkedGaps)
	}

	if _, err = loadProfile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected an error for a missing explicit profile")
	}
}
