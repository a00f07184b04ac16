// Package report renders a run summary as a human-readable listing. No files
// are written here; generation is pure so tests can assert on the text.
package report

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"srslint/internal/runner"
)

// Options controls what the report includes.
type Options struct {
	// Diffs appends a unified diff of the proposed fix for every file that
	// has one.
	Diffs bool
}

// Generate renders the whole run. Violations appear in stable
// (file, line, col, kind) order; a summary line closes the report.
func Generate(sum *runner.Summary, opts Options) string {
	var b strings.Builder

	files, violations, failures := 0, 0, 0
	for _, fr := range sum.Files {
		files++
		if fr.Err != nil {
			failures++
			fmt.Fprintf(&b, "%s: analysis failed: %v\n", fr.Path, fr.Err)
			continue
		}
		for _, v := range fr.Violations {
			violations++
			fmt.Fprintf(&b, "%s:%d:%d: %s: %s\n", v.File, v.Line, v.Col, v.Kind, v.Message)
		}
		for _, a := range fr.Anomalies {
			fmt.Fprintf(&b, "%s:%d:%d: anomaly: %s\n", a.File, a.Line, a.Col, a.Message)
		}
		for _, n := range fr.Notes {
			fmt.Fprintf(&b, "note: %s\n", n)
		}
	}

	if opts.Diffs {
		for _, fr := range sum.Files {
			if fr.Fixed == nil {
				continue
			}
			diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(string(fr.Src)),
				B:        difflib.SplitLines(string(fr.Fixed)),
				FromFile: fr.Path,
				ToFile:   fr.Path + " (fixed)",
				Context:  3,
			})
			if err != nil {
				fmt.Fprintf(&b, "%s: diff failed: %v\n", fr.Path, err)
				continue
			}
			b.WriteString(diff)
		}
	}

	fmt.Fprintf(&b, "%d file(s) scanned, %d violation(s)", files, violations)
	if failures > 0 {
		fmt.Fprintf(&b, ", %d analysis failure(s)", failures)
	}
	b.WriteString("\n")
	return b.String()
}
