// Package reconcile compares extracted requirement tags against the canonical
// requirement map and produces violations plus minimal corrective edits.
//
// An edit replaces only the bracketed payload substring of a drifted tag: the
// comment delimiter style, the prefix family token, and the padding observed
// inside the brackets are preserved exactly as found. Placement validation
// (prefix family vs. file role) lives here too; it is independent of whether
// the text matches canonically.
package reconcile

import (
	"fmt"
	"strings"

	"srslint/internal/cfunc"
	"srslint/internal/lexer"
	"srslint/internal/model"
	"srslint/internal/srstag"
)

// ExemptMarker skips a function's tags when attached to its declaration.
const ExemptMarker = "no-srs"

// Edit is one pending payload replacement, ordered by Start.
type Edit struct {
	ID    string
	Start int
	End   int
	Old   string
	New   string
	Line  int
}

// Result is the reconciliation outcome for one file.
type Result struct {
	Violations []model.Violation
	Notes      []string // informational: tags with no canonical counterpart
	Edits      []Edit
	Fixed      []byte // full corrected buffer; nil when no edits apply
}

// Reconcile checks every tag of one file against the canonical map and the
// file's role. Tags inside functions exempted with "no-srs" are skipped.
func Reconcile(path string, f *cfunc.File, tags []srstag.Tag, canon model.CanonicalMap, role model.Role) Result {
	var res Result
	exempt := exemptRanges(f)

	expected := srstag.PrefixCodes
	if role == model.RoleTest {
		expected = srstag.PrefixTests
	}

	type occurrence struct {
		text string
		line int
	}
	firstByID := make(map[string]occurrence)

	for _, tag := range tags {
		if exempt.contains(tag.Start) {
			continue
		}
		line, col := lexer.Position(f.Src, tag.Start)

		if tag.Prefix != expected {
			res.Violations = append(res.Violations, model.Violation{
				File: path, Line: line, Col: col, Kind: model.WrongPrefixForFileRole,
				Message: fmt.Sprintf("%s file must use %s tags, found %s", role, expected, tag.Token()),
			})
		}

		key := tag.Token()
		if prev, dup := firstByID[key]; dup {
			if normalize(prev.text) != normalize(tag.Text) {
				res.Violations = append(res.Violations, model.Violation{
					File: path, Line: line, Col: col, Kind: model.DuplicateIDConflict,
					Message: fmt.Sprintf("tag %s already appears at line %d with different text", tag.Token(), prev.line),
				})
			}
		} else {
			firstByID[key] = occurrence{text: tag.Text, line: line}
		}

		req, found := canon[tag.ID]
		if !found {
			res.Notes = append(res.Notes, fmt.Sprintf("%s:%d: tag %s has no canonical requirement", path, line, tag.Token()))
			continue
		}
		if normalize(tag.Text) == normalize(req.Text) {
			continue
		}
		res.Violations = append(res.Violations, model.Violation{
			File: path, Line: line, Col: col, Kind: model.TextDrift,
			Message: fmt.Sprintf("tag %s text drifted from canonical: want %q", tag.Token(), req.Text),
		})
		if tag.PayloadStart >= 0 {
			res.Edits = append(res.Edits, Edit{
				ID:    tag.Token(),
				Start: tag.PayloadStart,
				End:   tag.PayloadEnd,
				Old:   tag.Text,
				New:   req.Text,
				Line:  line,
			})
		}
	}

	if role == model.RoleTest {
		res.Violations = append(res.Violations, missingTags(path, f, tags)...)
	}

	if len(res.Edits) > 0 {
		res.Fixed = Apply(f.Src, res.Edits)
	}
	return res
}

// missingTags reports test functions that have no requirement tag in the
// comment run immediately above their declaration. Code between a tag and the
// test breaks the attachment; comments and blank lines do not.
func missingTags(path string, f *cfunc.File, tags []srstag.Tag) []model.Violation {
	var out []model.Violation
	for _, fn := range f.Tests {
		if fn.BodyEnd < 0 {
			continue
		}
		if f.IsExempt(fn, ExemptMarker) {
			continue
		}
		start, end := attachedRange(f, fn)
		tagged := false
		for _, tag := range tags {
			if tag.Start >= start && tag.Start < end {
				tagged = true
				break
			}
		}
		if tagged {
			continue
		}
		line, col := lexer.Position(f.Src, fn.NameStart)
		out = append(out, model.Violation{
			File: path, Line: line, Col: col, Kind: model.MissingTag,
			Message: fmt.Sprintf("test %s has no requirement tag", fn.Name),
		})
	}
	return out
}

// attachedRange returns the byte range of the contiguous comment run directly
// above a function declaration (and up to the declaration itself).
func attachedRange(f *cfunc.File, fn cfunc.Function) (int, int) {
	start := fn.NameStart
	comments := f.Comments(0, fn.NameStart)
	for i := len(comments) - 1; i >= 0; i-- {
		if !whitespaceOnly(f.Src, comments[i].End, start) {
			break
		}
		start = comments[i].Start
	}
	return start, fn.NameStart
}

func whitespaceOnly(src []byte, from, to int) bool {
	for i := from; i < to; i++ {
		switch src[i] {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}

// Apply splices the edits into src, back to front, returning a new buffer
// byte-identical to the input outside the replaced payload ranges.
func Apply(src []byte, edits []Edit) []byte {
	sorted := append([]Edit(nil), edits...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Start < sorted[j-1].Start; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	out := append([]byte(nil), src...)
	for i := len(sorted) - 1; i >= 0; i-- {
		e := sorted[i]
		out = append(out[:e.Start], append([]byte(e.New), out[e.End:]...)...)
	}
	return out
}

// normalize collapses every whitespace run to a single space and trims the
// edges. Used for comparison only; corrections always splice exact canonical
// text between the observed padding.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ranges is a set of half-open byte ranges.
type ranges [][2]int

func (rs ranges) contains(off int) bool {
	for _, r := range rs {
		if off >= r[0] && off < r[1] {
			return true
		}
	}
	return false
}

// exemptRanges collects the attachment-plus-body range of every function
// carrying the no-srs marker.
func exemptRanges(f *cfunc.File) ranges {
	var rs ranges
	for _, fn := range f.Functions {
		if !f.IsExempt(fn, ExemptMarker) {
			continue
		}
		start, _ := attachedRange(f, fn)
		end := fn.ParamsEnd + 1
		if fn.BodyEnd >= 0 {
			end = fn.BodyEnd + 1
		}
		rs = append(rs, [2]int{start, end})
	}
	return rs
}
