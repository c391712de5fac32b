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
	"os"
	"strings"
	"sync"
	"time"

	"github.com/seqlabs/alignkit/alignkit/align"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/spf13/cobra"
	"github.com/twotwotwo/sorts/sortutil"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"github.com/zeebo/wyhash"
	"gonum.org/v1/gonum/stat"
)

// pairHashSeed salts the pair cache so unrelated runs do not share
// hash values by accident.
const pairHashSeed uint64 = 0x616c69676e6b6974

const batchHeader = "query\ttarget\tscore\talen\tpident\tgaps\tqstart\tqend\ttstart\ttend\tcigar"

type pairStats struct {
	score, alen, gaps          int
	pident                     float64
	qstart, qend, tstart, tend int
	cigar                      string
}

// newPairStats extracts the TSV fields of one pair. A result with no
// positive-scoring alignment keeps score 0, empty coordinates and an
// empty CIGAR.
func newPairStats(r *align.AlignResult) *pairStats {
	ps := &pairStats{score: r.Score}
	if !r.Empty() {
		ps.alen = r.Len
		ps.gaps = r.Gaps
		ps.pident = r.Identity()
		ps.qstart, ps.qend = r.QBegin, r.QEnd
		ps.tstart, ps.tend = r.TBegin, r.TEnd
		ps.cigar = string(r.CIGAR())
	}
	return ps
}

// batchRow formats one TSV row, newline included, columns as in
// batchHeader.
func batchRow(query, target []byte, ps *pairStats) string {
	return fmt.Sprintf("%s\t%s\t%d\t%d\t%.2f\t%d\t%d\t%d\t%d\t%d\t%s\n",
		query, target, ps.score, ps.alen, ps.pident, ps.gaps,
		ps.qstart, ps.qend, ps.tstart, ps.tend, ps.cigar)
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Align many query sequences against target sequences",
	Long: `Align many query sequences against target sequences

Input:
  -t/--target is a FASTA/Q file (plain or gzipped) with the target
  sequences, loaded into memory. Positional arguments are FASTA/Q
  files with query sequences. Every query is aligned against every
  target. Sequences are uppercased before alignment.

Output:
  One TSV row per pair. A pair with no positive-scoring local
  alignment gets score 0 and empty coordinates. Identical sequence
  pairs are aligned once and the result is reused.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		outputLog := opt.Verbose || opt.Log2File
		timeStart := time.Now()
		defer func() {
			if outputLog {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
				log.Info()
			}
			if opt.Log2File {
				fhLog.Close()
			}
		}()

		targetFile := getFlagString(cmd, "target")
		if targetFile == "" {
			checkError(fmt.Errorf("flag -t/--target needed"))
		}
		if len(args) == 0 {
			checkError(fmt.Errorf("one or more query files needed"))
		}
		outFile := getFlagString(cmd, "out-file")

		smName := getFlagString(cmd, "submat")
		gapOpen := getFlagNonPositiveInt(cmd, "gap-open")
		gapExt := getFlagNonPositiveInt(cmd, "gap-ext")
		linkedGaps := getFlagBool(cmd, "linked-gaps")

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

		aopt := &align.Options{
			Submat:         sm,
			GapOpen:        gapOpen,
			GapExt:         gapExt,
			LinkedGaps:     linkedGaps,
			SaveAlignments: true,
		}

		// ---------------------------------------------------------------

		targets := readAllRecords(targetFile)
		if len(targets) == 0 {
			checkError(fmt.Errorf("no sequences found in target file: %s", targetFile))
		}
		if opt.Verbose {
			log.Infof("%d target sequence(s) loaded from %s", len(targets), targetFile)
		}

		queries := make([]*fastx.Record, 0, 1024)
		for _, file := range args {
			queries = append(queries, readAllRecords(file)...)
		}
		if len(queries) == 0 {
			checkError(fmt.Errorf("no sequences found in query file(s)"))
		}
		if opt.Verbose {
			log.Infof("%d query sequence(s) loaded from %d file(s)", len(queries), len(args))
		}

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		fmt.Fprintln(outfh, batchHeader)

		// ---------------------------------------------------------------
		// process bar

		showProgressBar := opt.Verbose && !opt.Log2File
		var pbs *mpb.Progress
		var bar *mpb.Bar
		var chDuration chan time.Duration
		var doneDuration chan int
		if showProgressBar {
			pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
			bar = pbs.AddBar(int64(len(queries)),
				mpb.PrependDecorators(
					decor.Name("processed queries: ", decor.WC{W: len("processed queries: "), C: decor.DindentRight}),
					decor.Name("", decor.WCSyncSpaceR),
					decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
				),
				mpb.AppendDecorators(
					decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
					decor.EwmaETA(decor.ET_STYLE_GO, 3),
					decor.OnComplete(decor.Name(""), ". done"),
				),
			)

			chDuration = make(chan time.Duration, opt.NumCPUs)
			doneDuration = make(chan int)
			go func() {
				for t := range chDuration {
					bar.EwmaIncrBy(1, t)
				}
				doneDuration <- 1
			}()
		}

		// ---------------------------------------------------------------
		// workers, one query per job, aligned against all targets

		var cache sync.Map // pair hash -> *pairStats

		chOut := make(chan []string, opt.NumCPUs)
		done := make(chan int)
		scores := make([]float64, 0, len(queries)*len(targets))
		var aligned int
		go func() {
			for rows := range chOut {
				for _, row := range rows {
					outfh.WriteString(row)
				}
			}
			done <- 1
		}()

		chScore := make(chan []float64, opt.NumCPUs)
		doneScore := make(chan int)
		go func() {
			for ss := range chScore {
				for _, s := range ss {
					if s > 0 {
						aligned++
					}
					scores = append(scores, s)
				}
			}
			doneScore <- 1
		}()

		var wg sync.WaitGroup
		tokens := make(chan int, opt.NumCPUs)
		threadsFloat := float64(opt.NumCPUs)

		for _, query := range queries {
			wg.Add(1)
			tokens <- 1

			go func(query *fastx.Record) {
				startTime := time.Now()
				defer func() {
					if showProgressBar {
						chDuration <- time.Duration(float64(time.Since(startTime)) / threadsFloat)
					}
					<-tokens
					wg.Done()
				}()

				alg := align.NewAligner(aopt)
				rows := make([]string, 0, len(targets))
				ss := make([]float64, 0, len(targets))

				hq := wyhash.Hash(query.Seq.Seq, pairHashSeed)
				for _, target := range targets {
					var ps *pairStats

					h := wyhash.Hash(target.Seq.Seq, hq)
					if v, ok := cache.Load(h); ok {
						ps = v.(*pairStats)
					} else {
						r, err := alg.Local(query.Seq.Seq, target.Seq.Seq)
						checkError(err)

						ps = newPairStats(r)
						align.RecycleAlignResult(r)
						cache.Store(h, ps)
					}

					rows = append(rows, batchRow(query.ID, target.ID, ps))
					ss = append(ss, float64(ps.score))
				}

				chOut <- rows
				chScore <- ss
			}(query)
		}
		wg.Wait()
		close(chOut)
		<-done
		close(chScore)
		<-doneScore

		if showProgressBar {
			close(chDuration)
			<-doneDuration
			pbs.Wait()
		}

		// ---------------------------------------------------------------

		if outputLog {
			sortutil.Float64s(scores)
			var median float64
			n := len(scores)
			if n%2 == 1 {
				median = scores[n/2]
			} else {
				median = (scores[n/2-1] + scores[n/2]) / 2
			}
			log.Infof("%d pairs processed, %d with a positive-scoring alignment", n, aligned)
			log.Infof("score mean: %.2f, stdev: %.2f, median: %.2f",
				stat.Mean(scores, nil), stat.StdDev(scores, nil), median)
		}
	},
}

// readAllRecords loads all FASTA/Q records of a file into memory,
// sequences uppercased.
func readAllRecords(file string) []*fastx.Record {
	fastxReader, err := fastx.NewReader(nil, file, "")
	checkError(err)
	defer fastxReader.Close()

	records := make([]*fastx.Record, 0, 1024)
	var record *fastx.Record
	for {
		record, err = fastxReader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			checkError(fmt.Errorf("read seq in %s: %s", file, err))
		}
		record = record.Clone()
		record.Seq.Seq = bytes.ToUpper(record.Seq.Seq)
		records = append(records, record)
	}
	return records
}

func init() {
	RootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringP("target", "t", "",
		formatFlagUsage(`Target FASTA/Q file (plain or gzipped), loaded into memory.`))
	batchCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file (TSV), supports the ".gz" suffix ("-" for stdout).`))

	batchCmd.Flags().StringP("submat", "s", "BLOSUM62",
		formatFlagUsage(`Substitution matrix, a built-in name or a score table file.`))
	batchCmd.Flags().IntP("gap-open", "g", -2,
		formatFlagUsage(`Gap open penalty, <= 0, charged for the first column of a gap.`))
	batchCmd.Flags().IntP("gap-ext", "e", -1,
		formatFlagUsage(`Gap extension penalty, <= 0, charged for each additional gap column.`))
	batchCmd.Flags().Bool("linked-gaps", false,
		formatFlagUsage(`Allow a gap in one sequence to directly follow a gap in the other.`))

	batchCmd.SetUsageTemplate(usageTemplate("[flags] query.fasta [query2.fasta ...]"))
}
