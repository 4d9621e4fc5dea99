package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const (
	// TimestampLayout stamps file and directory names, e.g. 20241201_143052.
	TimestampLayout = "20060102_150405"
	// DefaultResultsRoot holds per-run directories when --results-dir is unset.
	DefaultResultsRoot = "results"
)

var filenameReplacer = strings.NewReplacer(
	"-", "_", "/", "_", `\`, "_",
	"'", "", `"`, "", "(", "", ")", "", "[", "", "]", "",
	"{", "", "}", "", ":", "", ";", "", ",", "", ".", "",
)

// sanitizeFilenameComponent makes s safe to embed in a file name.
// Every whitespace rune, tabs and newlines included, becomes "_".
func sanitizeFilenameComponent(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, s)
	return filenameReplacer.Replace(s)
}

// reportFileName builds
// llm_report_<provider>_<cell>_<disease>_<model>_<algorithm>_<timestamp>.html.
func reportFileName(provider string, opts RunOptions, now time.Time) string {
	return fmt.Sprintf("llm_report_%s_%s_%s_%s_%s_%s.html",
		provider,
		sanitizeFilenameComponent(opts.Cell),
		sanitizeFilenameComponent(opts.Disease),
		sanitizeFilenameComponent(opts.Model),
		opts.Algorithm,
		now.Format(TimestampLayout),
	)
}

// reportPath places the report under --results-dir, or under
// results/run_<timestamp> when the flag is unset or ".".
func reportPath(provider string, opts RunOptions, now time.Time) string {
	name := reportFileName(provider, opts, now)
	if opts.ResultsDir != "" && filepath.Clean(opts.ResultsDir) != "." {
		return filepath.Join(opts.ResultsDir, name)
	}
	return filepath.Join(DefaultResultsRoot, "run_"+now.Format(TimestampLayout), name)
}
