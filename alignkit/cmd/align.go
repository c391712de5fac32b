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
	"fmt"
	"io"
	"strings"

	"github.com/seqlabs/alignkit/alignkit/align"
	"github.com/seqlabs/alignkit/alignkit/submat"
	"github.com/seqlabs/alignkit/alignkit/util"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
)

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Align one pair of sequences",
	Long: `Align one pair of sequences

Input:
  1. A plain text file with one sequence per line, or
  2. A FASTA file (plain or gzipped), detected by a leading '>'.
     On stdin, each FASTA record must be on a single line.
  Only the first two sequences/records are used. Sequences are
  uppercased before alignment.

Scoring:
  The substitution table (-s/--submat) is a built-in name
  ('alignkit matrices' lists them) or the path of a score table file.
  Gap penalties are non-positive: -g/--gap-open is charged for the
  first column of a gap, -e/--gap-ext for each additional column, so
  a gap of length L costs open + ext*(L-1).
  Defaults may also come from a TOML profile (--profile or
  ~/.alignkit.toml); explicit flags win over the profile.

Attention:
  1. A pair with no positive-scoring local alignment is reported as
     such with exit code 0. Malformed input exits non-zero.
  2. -n/--max-hsps > 1 reports up to that many alignments with
     mutually non-overlapping query and subject spans.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		infile := getFlagString(cmd, "infile")
		outFile := getFlagString(cmd, "out-file")
		maxHSPs := getFlagPositiveInt(cmd, "max-hsps")
		lineWidth := getFlagPositiveInt(cmd, "line-width")
		showMatrix := getFlagBool(cmd, "show-matrix")
		complete := getFlagBool(cmd, "complete")

		smName := getFlagString(cmd, "submat")
		gapOpen := getFlagNonPositiveInt(cmd, "gap-open")
		gapExt := getFlagNonPositiveInt(cmd, "gap-ext")
		linkedGaps := getFlagBool(cmd, "linked-gaps")

		// profile values fill in flags the user did not set
		profile := profileFromFlags(cmd)
		if profile != nil {
			if !cmd.Flags().Changed("submat") && profile.Submat != nil {
				smName = *profile.Submat
			}
			if !cmd.Flags().Changed("gap-open") && profile.GapOpen != nil {
				gapOpen = *profile.GapOpen
			}
			if !cmd.Flags().Changed("gap-ext") && profile.GapExt != nil {
				gapExt = *profile.GapExt
			}
			if !cmd.Flags().Changed("linked-gaps") && profile.LinkedGaps != nil {
				linkedGaps = *profile.LinkedGaps
			}
		}

		sm := getSubmat(smName)

		qID, tID, q, t := readAlignPair(infile)
		if opt.Verbose {
			log.Infof("query: %s (%d bp), subject: %s (%d bp), matrix: %s",
				qID, len(q), tID, len(t), sm.Name)
		}

		alg := align.NewAligner(&align.Options{
			Submat:         sm,
			GapOpen:        gapOpen,
			GapExt:         gapExt,
			LinkedGaps:     linkedGaps,
			SaveAlignments: true,
			SaveMatrix:     showMatrix,
		})

		var results []*align.AlignResult
		var err error
		if maxHSPs > 1 {
			results, err = alg.Locals(q, t, maxHSPs)
		} else {
			var r *align.AlignResult
			r, err = alg.Local(q, t)
			if r != nil && !r.Empty() {
				results = []*align.AlignResult{r}
			} else if r != nil {
				// keep the empty result for the matrix dump
				if showMatrix {
					results = []*align.AlignResult{r}
				} else {
					align.RecycleAlignResult(r)
				}
			}
		}
		checkError(err)

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		var buffer *bytes.Buffer
		var wrapped []byte

		fmt.Fprintf(outfh, "Query = %s\nLength = %d\n", qID, len(q))
		wrapped, buffer = util.WrapByteSlice(q, lineWidth, buffer)
		outfh.Write(wrapped)
		outfh.WriteString("\n\n")

		fmt.Fprintf(outfh, ">%s\nLength = %d\n", tID, len(t))
		wrapped, buffer = util.WrapByteSlice(t, lineWidth, buffer)
		outfh.Write(wrapped)
		outfh.WriteString("\n\n")

		if showMatrix && len(results) > 0 && results[0].Matrix != nil {
			outfh.Write(results[0].Matrix)
			outfh.WriteByte('\n')
		}

		if len(results) == 0 || results[0].Empty() {
			fmt.Fprintf(outfh, "No positive-scoring local alignment.\n")
			for _, r := range results {
				align.RecycleAlignResult(r)
			}
			return
		}

		for k, r := range results {
			fmt.Fprintf(outfh, " HSP #%d\n", k+1)
			fmt.Fprintf(outfh, " Score = %d\n", r.Score)
			fmt.Fprintf(outfh, " Aligned length = %d, Identities = %.2f%%, Gaps = %d, CIGAR = %s\n",
				r.Len, r.Identity(), r.Gaps, r.CIGAR())
			fmt.Fprintf(outfh, " Query range = %d-%d, Subject range = %d-%d\n\n",
				r.QBegin, r.QEnd, r.TBegin, r.TEnd)

			writeAlignBlocks(outfh, r, lineWidth)

			if complete {
				x, m, y := r.Complete(q, t)
				outfh.Write(x)
				outfh.WriteByte('\n')
				outfh.Write(m)
				outfh.WriteByte('\n')
				outfh.Write(y)
				outfh.WriteByte('\n')
				outfh.WriteByte('\n')
			}

			align.RecycleAlignResult(r)
		}
	},
}

// writeAlignBlocks writes one alignment in blast-style blocks of the
// given width, advancing the 1-based coordinates by the number of
// non-gap symbols in each block.
func writeAlignBlocks(outfh io.Writer, r *align.AlignResult, width int) {
	posW := len(fmt.Sprintf("%d", max(r.QEnd, r.TEnd)))
	fQ := fmt.Sprintf("Query  %%-%dd  %%s  %%d\n", posW)
	fA := fmt.Sprintf("       %%%ds  %%s\n", posW)
	fT := fmt.Sprintf("Sbjct  %%-%dd  %%s  %%d\n", posW)

	rows := (r.Len + width - 1) / width

	qstart := r.QBegin
	tstart := r.TBegin
	var j, end int
	var qs, ts, ms []byte
	var qend, tend int
	for i := 0; i < rows; i++ {
		j = i * width
		if i < rows-1 {
			end = j + width
		} else {
			end = r.Len
		}
		qs, ms, ts = r.AlignA[j:end], r.AlignM[j:end], r.AlignB[j:end]

		qend = qstart + len(qs) - ngaps(qs) - 1
		tend = tstart + len(ts) - ngaps(ts) - 1

		fmt.Fprintf(outfh, fQ, qstart, qs, qend)
		fmt.Fprintf(outfh, fA, " ", ms)
		fmt.Fprintf(outfh, fT, tstart, ts, tend)
		fmt.Fprintln(outfh)

		qstart = qend + 1
		tstart = tend + 1
	}
	fmt.Fprintln(outfh)
}

// getSubmat resolves a built-in matrix name or a score table file,
// fatal on failure.
func getSubmat(name string) *submat.Matrix {
	if sm, ok := submat.Get(name); ok {
		return sm
	}
	sm, err := submat.Read(name)
	if err != nil {
		checkError(fmt.Errorf("-s/--submat: neither a built-in matrix (%s) nor a readable score table: %s",
			strings.Join(submat.Names(), ", "), err))
	}
	return sm
}

// readAlignPair reads the first two sequences from a two-line text file
// or a FASTA file, uppercased. FASTA on stdin must have one line per
// sequence.
func readAlignPair(file string) (qID, tID string, q, t []byte) {
	var isFasta bool
	if !isStdin(file) {
		fh, err := xopen.Ropen(file)
		checkError(err)
		b, err := fh.Peek(1)
		isFasta = err == nil && b[0] == '>'
		checkError(fh.Close())
	}

	if isFasta {
		fastxReader, err := fastx.NewReader(nil, file, "")
		checkError(err)
		defer fastxReader.Close()

		var record *fastx.Record
		for {
			record, err = fastxReader.Read()
			if err != nil {
				if err == io.EOF {
					break
				}
				checkError(fmt.Errorf("read seq in %s: %s", file, err))
			}
			if qID == "" {
				qID = string(record.ID)
				q = bytes.ToUpper(record.Seq.Seq)
			} else {
				tID = string(record.ID)
				t = bytes.ToUpper(record.Seq.Seq)
				break
			}
		}
	} else {
		fh, err := xopen.Ropen(file)
		checkError(err)
		data, err := io.ReadAll(fh)
		checkError(err)
		checkError(fh.Close())

		var id string
		n := 0
		for _, line := range bytes.Split(data, []byte{'\n'}) {
			line = bytes.TrimRight(line, "\r")
			if len(line) == 0 || line[0] == '#' {
				continue
			}
			if line[0] == '>' {
				id = ""
				if fields := bytes.Fields(line[1:]); len(fields) > 0 {
					id = string(fields[0])
				}
				continue
			}
			n++
			switch n {
			case 1:
				qID, q = id, bytes.ToUpper(line)
			case 2:
				tID, t = id, bytes.ToUpper(line)
			}
			if n == 2 {
				break
			}
			id = ""
		}
	}

	if len(q) == 0 || len(t) == 0 {
		checkError(fmt.Errorf("need two sequences in %s, see 'alignkit align --help' for input formats", file))
	}
	if qID == "" {
		qID = "seq1"
	}
	if tID == "" {
		tID = "seq2"
	}
	return qID, tID, q, t
}

func init() {
	RootCmd.AddCommand(alignCmd)

	alignCmd.Flags().StringP("infile", "i", "-",
		formatFlagUsage(`Input file with two sequences, plain text or FASTA ("-" for stdin).`))
	alignCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))

	alignCmd.Flags().StringP("submat", "s", "BLOSUM62",
		formatFlagUsage(`Substitution matrix, a built-in name or a score table file.`))
	alignCmd.Flags().IntP("gap-open", "g", -2,
		formatFlagUsage(`Gap open penalty, <= 0, charged for the first column of a gap.`))
	alignCmd.Flags().IntP("gap-ext", "e", -1,
		formatFlagUsage(`Gap extension penalty, <= 0, charged for each additional gap column.`))
	alignCmd.Flags().Bool("linked-gaps", false,
		formatFlagUsage(`Allow a gap in one sequence to directly follow a gap in the other.`))

	alignCmd.Flags().IntP("max-hsps", "n", 1,
		formatFlagUsage(`Maximum number of non-overlapping alignments to report.`))
	alignCmd.Flags().IntP("line-width", "w", 60,
		formatFlagUsage(`Line width of the alignment blocks.`))
	alignCmd.Flags().Bool("show-matrix", false,
		formatFlagUsage(`Print the score matrix, only sensible for short sequences.`))
	alignCmd.Flags().Bool("complete", false,
		formatFlagUsage(`Also print the alignment with its unaligned flanking sequences.`))
}
