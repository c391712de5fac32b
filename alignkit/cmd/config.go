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
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/shenwei356/util/pathutil"
	"github.com/spf13/cobra"
)

const defaultProfileFile = ".alignkit.toml"

// Profile is an optional scoring profile in TOML format, read from
// --profile or ~/.alignkit.toml. Command-line flags always win over
// profile values.
//
//	submat = "BLOSUM62"   # built-in name or file path
//	gap-open = -2
//	gap-ext = -1
//	linked-gaps = false
type Profile struct {
	Submat     *string `toml:"submat"`
	GapOpen    *int    `toml:"gap-open"`
	GapExt     *int    `toml:"gap-ext"`
	LinkedGaps *bool   `toml:"linked-gaps"`
}

// loadProfile reads the scoring profile. With an empty file name the
// default location is tried and a missing file is not an error.
func loadProfile(file string) (*Profile, error) {
	if file == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, nil
		}
		file = filepath.Join(home, defaultProfileFile)
		existed, err := pathutil.Exists(file)
		if err != nil || !existed {
			return nil, nil
		}
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}

	p := &Profile{}
	if err = toml.Unmarshal(data, p); err != nil {
		return nil, errors.Wrap(err, file)
	}
	return p, nil
}

// profileFromFlags loads the profile named by --profile, fatal on a
// broken profile.
func profileFromFlags(cmd *cobra.Command) *Profile {
	p, err := loadProfile(getFlagString(cmd, "profile"))
	checkError(err)
	return p
}
