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
	"fmt"
	"regexp"
	"strings"

	"github.com/seqlabs/alignkit/alignkit/submat"
	"github.com/spf13/cobra"
)

var matricesCmd = &cobra.Command{
	Use:   "matrices",
	Short: "List substitution matrices",
	Long: `List substitution matrices

Without flags, the built-in matrices are listed. With --dir, files
matching --pattern in the given directory (recursively, symlinks
followed) are parsed as score tables and reported, so a matrix
collection can be checked before use.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		dir := getFlagString(cmd, "dir")
		patternStr := getFlagString(cmd, "pattern")
		showTable := getFlagBool(cmd, "table")

		outFile := getFlagString(cmd, "out-file")
		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		if dir == "" {
			for _, name := range submat.Names() {
				sm, _ := submat.Get(name)
				fmt.Fprintf(outfh, "%s\t%d symbols: %s\n", sm.Name, sm.Size(), sm.Symbols())
				if showTable {
					fmt.Fprintf(outfh, "\n%s\n", sm)
				}
			}
			return
		}

		pattern, err := regexp.Compile(patternStr)
		if err != nil {
			checkError(fmt.Errorf("invalid --pattern: %s", err))
		}

		files, err := getFileListFromDir(dir, pattern, opt.NumCPUs)
		checkError(err)
		if opt.Verbose {
			log.Infof("%d file(s) matched in %s", len(files), dir)
		}

		var nOK, nBad int
		for _, file := range files {
			sm, err := submat.Read(file)
			if err != nil {
				nBad++
				fmt.Fprintf(outfh, "%s\tmalformed: %s\n", file, err)
				continue
			}
			nOK++
			fmt.Fprintf(outfh, "%s\t%d symbols: %s\n", file, sm.Size(), sm.Symbols())
			if showTable {
				fmt.Fprintf(outfh, "\n%s\n", sm)
			}
		}
		if opt.Verbose {
			log.Infof("%d parseable, %d malformed", nOK, nBad)
		}
	},
}

func init() {
	RootCmd.AddCommand(matricesCmd)

	matricesCmd.Flags().StringP("dir", "d", "",
		formatFlagUsage(`Directory to scan for score table files instead of listing built-ins.`))
	matricesCmd.Flags().StringP("pattern", "p", `\.(mat|txt)$`,
		formatFlagUsage(`Regular expression for matching file names in --dir.`))
	matricesCmd.Flags().Bool("table", false,
		formatFlagUsage(`Also print the score tables themselves.`))
	matricesCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))
}
