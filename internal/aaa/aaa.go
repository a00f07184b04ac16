// Package aaa validates the Arrange/Act/Assert comment structure of test
// functions. Markers are matched case-insensitively across every comment
// style; a test whose own body carries no markers delegates to the helper
// functions it calls, one level deep, in call order.
package aaa

import (
	"fmt"
	"sort"
	"strings"

	"srslint/internal/cfunc"
	"srslint/internal/lexer"
	"srslint/internal/model"
)

// ExemptMarker skips a test entirely when attached to its declaration.
const ExemptMarker = "no-aaa"

var stages = []string{"arrange", "act", "assert"}

var missingKind = map[string]model.Kind{
	"arrange": model.MissingArrange,
	"act":     model.MissingAct,
	"assert":  model.MissingAssert,
}

// marker is one recognized AAA keyword occurrence.
type marker struct {
	stage  string
	offset int
}

// Validate checks every test function in f and returns the violations found.
// Unterminated and prototype records are excluded from analysis.
func Validate(path string, f *cfunc.File) []model.Violation {
	var out []model.Violation
	for _, fn := range f.Tests {
		if fn.BodyEnd < 0 {
			continue
		}
		if f.IsExempt(fn, ExemptMarker) {
			continue
		}
		markers := collect(f, fn.BodyStart, fn.BodyEnd)
		if vs := run(path, f.Src, fn, markers); len(vs) == 0 {
			continue
		}
		// The body alone does not satisfy the sequence: union in the markers
		// of directly called local helpers, positioned at their call sites,
		// and re-run the state machine. One level only.
		out = append(out, run(path, f.Src, fn, delegated(f, fn, markers))...)
	}
	return out
}

// delegated merges body markers with those of every locally defined, non-test
// helper the body invokes. Helper markers take the call-site offset so the
// merged sequence reflects call order. Only direct callees are searched.
func delegated(f *cfunc.File, fn cfunc.Function, body []marker) []marker {
	merged := append([]marker(nil), body...)
	for _, site := range f.CallSites(fn) {
		helper, ok := f.FunctionByName(site.Name)
		if !ok {
			continue
		}
		for _, m := range collect(f, helper.BodyStart, helper.BodyEnd) {
			merged = append(merged, marker{stage: m.stage, offset: site.Offset})
		}
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].offset < merged[j].offset })
	return merged
}

// run drives the marker state machine for one test function.
//
// A marker for a later stage advances past the expected one (the skipped
// stage surfaces as Missing at the end); a marker at or before an already
// completed stage is a regression or duplicate and yields WrongOrder, which
// suppresses Missing reports for that function.
func run(path string, src []byte, fn cfunc.Function, markers []marker) []model.Violation {
	expected := 0
	seen := make([]bool, len(stages))
	for _, m := range markers {
		if expected == len(stages) {
			// Terminal success: trailing markers (a second assert block,
			// a cleanup arrange) are ignored.
			break
		}
		k := stageIndex(m.stage)
		if k < expected {
			line, col := lexer.Position(src, m.offset)
			return []model.Violation{{
				File: path, Line: line, Col: col, Kind: model.WrongOrder,
				Message: fmt.Sprintf("test %s: %q marker out of order, expected %q", fn.Name, m.stage, stages[expected]),
			}}
		}
		seen[k] = true
		expected = k + 1
	}
	var out []model.Violation
	for k, s := range stages {
		if seen[k] {
			continue
		}
		line, col := lexer.Position(src, fn.NameStart)
		out = append(out, model.Violation{
			File: path, Line: line, Col: col, Kind: missingKind[s],
			Message: fmt.Sprintf("test %s has no %q comment", fn.Name, s),
		})
	}
	return out
}

func stageIndex(s string) int {
	for i, v := range stages {
		if v == s {
			return i
		}
	}
	return -1
}

// collect extracts AAA markers from every comment in [start, end), honoring
// any comment style and trailing free text ("arrange - setup values").
func collect(f *cfunc.File, start, end int) []marker {
	var out []marker
	for _, c := range f.Comments(start, end) {
		off := c.TextStart
		for _, line := range strings.SplitAfter(c.Text, "\n") {
			if stage, at, ok := matchMarker(line); ok {
				out = append(out, marker{stage: stage, offset: off + at})
			}
			off += len(line)
		}
	}
	return out
}

// matchMarker reports whether a comment line begins with an AAA keyword.
// Leading whitespace, '*' continuation and '/' doc-comment characters are
// skipped; the keyword must end at a non-identifier character so that e.g.
// "ASSERT_ARE_EQUAL" never matches "assert".
func matchMarker(line string) (stage string, at int, ok bool) {
	i := 0
	for i < len(line) {
		switch line[i] {
		case ' ', '\t', '\r', '*', '/', '-':
			i++
			continue
		}
		break
	}
	start := i
	for i < len(line) && isLetter(line[i]) {
		i++
	}
	if i < len(line) && (line[i] == '_' || isDigit(line[i])) {
		return "", 0, false
	}
	word := strings.ToLower(line[start:i])
	for _, s := range stages {
		if word == s {
			return s, start, true
		}
	}
	return "", 0, false
}

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
