// Package patterns flags deprecated source constructs: direct vld.h
// includes and the legacy ENABLE_MOCKS define/undef bracketing that the
// umock_c include pair replaced. A trailing "force" comment on the same
// physical line (any casing) keeps a flagged line as-is.
package patterns

import (
	"regexp"
	"strings"

	"srslint/internal/cfunc"
	"srslint/internal/lexer"
	"srslint/internal/model"
)

const (
	enableMocksInclude  = `#include "umock_c/umock_c_ENABLE_MOCKS.h" // ============================== ENABLE_MOCKS`
	disableMocksInclude = `#include "umock_c/umock_c_DISABLE_MOCKS.h" // ============================== DISABLE_MOCKS`
)

var (
	vldInclude  = regexp.MustCompile(`^\s*#\s*include\s*["<]vld\.h[">]`)
	mocksDefine = regexp.MustCompile(`^\s*#\s*(define|undef)\s+ENABLE_MOCKS\b`)
)

// Result carries the findings for one file plus the corrected buffer.
// Fixed is nil when no line needed rewriting.
type Result struct {
	Violations []model.Violation
	Fixed      []byte
}

// Check scans every physical line of f for deprecated patterns. Lines whose
// directive sits inside a comment or string literal are ignored.
func Check(path string, f *cfunc.File) Result {
	var res Result
	var fixed strings.Builder
	changed := false

	src := f.Src
	for start := 0; start < len(src); {
		end := start
		for end < len(src) && src[end] != '\n' {
			end++
		}
		lineEnd := end
		if lineEnd > start && src[lineEnd-1] == '\r' {
			lineEnd--
		}
		if end < len(src) {
			end++ // keep the terminator with the line
		}
		line := string(src[start:lineEnd])

		replacement, msg := classify(f, start, lineEnd, line)
		if msg == "" {
			fixed.WriteString(string(src[start:end]))
			start = end
			continue
		}

		ln, col := lexer.Position(src, start+indent(line))
		res.Violations = append(res.Violations, model.Violation{
			File:    path,
			Line:    ln,
			Col:     col,
			Kind:    model.DeprecatedPattern,
			Message: msg,
		})
		changed = true
		if replacement != "" {
			fixed.WriteString(replacement)
			fixed.Write(src[lineEnd:end]) // original terminator, \r\n included
		}
		start = end
	}

	if changed {
		res.Fixed = []byte(fixed.String())
	}
	return res
}

// classify decides whether one line is a deprecated pattern. It returns the
// replacement line ("" means delete the line) and a violation message (""
// means the line is fine).
func classify(f *cfunc.File, start, lineEnd int, line string) (replacement, msg string) {
	off := start + indent(line)
	if off >= lineEnd {
		return "", ""
	}
	if f.Index.At(off) != lexer.Code {
		return "", ""
	}
	if forced(f, start, lineEnd) {
		return "", ""
	}

	if vldInclude.MatchString(line) {
		return "", "vld.h must not be included directly"
	}
	if m := mocksDefine.FindStringSubmatch(line); m != nil {
		if m[1] == "define" {
			return enableMocksInclude, "legacy ENABLE_MOCKS define, use the umock_c_ENABLE_MOCKS.h include"
		}
		return disableMocksInclude, "legacy ENABLE_MOCKS undef, use the umock_c_DISABLE_MOCKS.h include"
	}
	return "", ""
}

// forced reports whether a comment on the same line reads exactly "force",
// case-insensitively.
func forced(f *cfunc.File, start, lineEnd int) bool {
	for _, c := range f.Comments(start, lineEnd+1) {
		if c.Start < start {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(c.Text), "force") {
			return true
		}
	}
	return false
}

func indent(line string) int {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' {
			return i
		}
	}
	return len(line)
}
