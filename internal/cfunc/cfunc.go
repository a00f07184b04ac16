// Package cfunc locates function definitions and comments in scanned C
// source. It is structural, not syntactic: it anchors on an identifier
// followed by a parenthesized list and a braced body, using balanced-delimiter
// matching over lexical spans, so macro-wrapped parameter types and literals
// containing braces resolve the same as flat declarations.
package cfunc

import (
	"fmt"
	"strings"

	"srslint/internal/lexer"
)

// Function is one located definition or prototype.
//
// BodyStart/BodyEnd are the offsets of the opening and closing braces.
// BodyEnd is -1 for prototypes and for unterminated bodies; both are excluded
// from body analysis.
type Function struct {
	Name        string
	Anchor      string // anchor token for test functions ("" for plain C functions)
	NameStart   int
	ParamsStart int
	ParamsEnd   int
	BodyStart   int
	BodyEnd     int
	Prototype   bool

	// Unterminated marks a body whose closing brace was never found; the
	// function is reported as an anomaly and skipped, never fatal.
	Unterminated bool
}

// Comment is one line or block comment with its delimiters normalized away.
// Text is a direct slice of the source beginning at TextStart, so payload
// offsets can be mapped back for in-place edits.
type Comment struct {
	Start     int
	End       int
	Kind      lexer.Kind
	Text      string
	TextStart int
}

// File is the scan result for one source file. All records are created fresh
// per invocation and share the same backing source buffer.
type File struct {
	Src       []byte
	Spans     []lexer.Span
	Index     *lexer.Index
	Functions []Function
	Tests     []Function
	Anomalies []lexer.Anomaly
}

// cKeywords are identifiers that can precede a '(' without being a function
// name. Type keywords are included so declarations like
// "void(*fp)(int)" are not mistaken for a function named "void".
var cKeywords = map[string]bool{
	"if": true, "else": true, "for": true, "while": true, "do": true,
	"switch": true, "case": true, "return": true, "goto": true,
	"sizeof": true, "typedef": true, "struct": true, "union": true,
	"enum": true, "void": true, "int": true, "char": true, "long": true,
	"short": true, "float": true, "double": true, "unsigned": true,
	"signed": true, "const": true, "static": true, "extern": true,
	"inline": true, "volatile": true, "register": true,
}

// Parse scans src and locates every top-level function. Identifiers listed in
// anchors mark test registrations (e.g. TEST_FUNCTION): for those the function
// name is the token inside the anchor's parentheses, and the located function
// is additionally recorded in Tests, in source order.
func Parse(src []byte, anchors []string) *File {
	spans, lexAnoms := lexer.Scan(src)
	f := &File{
		Src:       src,
		Spans:     spans,
		Index:     lexer.NewIndex(spans),
		Anomalies: lexAnoms,
	}
	anchorSet := make(map[string]bool, len(anchors))
	for _, a := range anchors {
		anchorSet[a] = true
	}

	cur := newCursor(src, spans)
	depth := 0
	inDirective := false
	lineStart := true
	for !cur.eof() {
		off := cur.off()
		c := src[off]
		if inDirective {
			if c == '\n' && (off == 0 || src[off-1] != '\\') {
				inDirective = false
				lineStart = true
			}
			cur.advance()
			continue
		}
		switch {
		case c == '\n':
			lineStart = true
			cur.advance()
		case c == ' ' || c == '\t' || c == '\r':
			cur.advance()
		case c == '#' && lineStart:
			inDirective = true
			cur.advance()
		case c == '{':
			depth++
			lineStart = false
			cur.advance()
		case c == '}':
			if depth > 0 {
				depth--
			}
			lineStart = false
			cur.advance()
		case isIdentStart(c):
			start := off
			for !cur.eof() && isIdentChar(src[cur.off()]) {
				cur.advance()
			}
			name := string(src[start:cur.off()])
			lineStart = false
			if depth != 0 || cKeywords[name] {
				continue
			}
			next := f.locate(name, start, cur.off(), anchorSet[name])
			if next > cur.off() {
				cur.seek(next)
			}
		default:
			lineStart = false
			cur.advance()
		}
	}
	return f
}

// locate inspects the text following an identifier ending at end and records
// a function, test function, or prototype when the shape matches. It returns
// the offset scanning should resume from.
func (f *File) locate(name string, nameStart, end int, isAnchor bool) int {
	popen, ok := f.nextCode(end)
	if !ok || f.Src[popen] != '(' {
		return end
	}
	pclose := lexer.Match(f.Src, f.Index, popen, '(', ')')
	if pclose < 0 {
		f.Anomalies = append(f.Anomalies, lexer.Anomaly{
			Offset:  popen,
			Message: fmt.Sprintf("unmatched '(' after %s", name),
		})
		return len(f.Src)
	}

	fn := Function{
		Name:        name,
		NameStart:   nameStart,
		ParamsStart: popen,
		ParamsEnd:   pclose,
		BodyStart:   -1,
		BodyEnd:     -1,
	}
	if isAnchor {
		fn.Anchor = name
		inner := strings.Fields(string(f.Src[popen+1 : pclose]))
		if len(inner) > 0 {
			fn.Name = strings.TrimSuffix(inner[0], ",")
		}
	}

	after, ok := f.nextCode(pclose + 1)
	switch {
	case ok && f.Src[after] == '{':
		fn.BodyStart = after
		bclose := lexer.Match(f.Src, f.Index, after, '{', '}')
		if bclose < 0 {
			fn.Unterminated = true
			f.Anomalies = append(f.Anomalies, lexer.Anomaly{
				Offset:  after,
				Message: fmt.Sprintf("unterminated body of %s", fn.Name),
			})
			f.record(fn, isAnchor)
			return len(f.Src)
		}
		fn.BodyEnd = bclose
		f.record(fn, isAnchor)
		return bclose + 1
	case ok && f.Src[after] == ';':
		fn.Prototype = true
		f.record(fn, isAnchor)
		return after + 1
	default:
		// Neither a body nor a statement terminator: a macro invocation or
		// suite marker. Not a function.
		return pclose + 1
	}
}

func (f *File) record(fn Function, isTest bool) {
	f.Functions = append(f.Functions, fn)
	if isTest {
		f.Tests = append(f.Tests, fn)
	}
}

// nextCode returns the offset of the first non-whitespace Code byte at or
// after from, skipping literals and comments entirely.
func (f *File) nextCode(from int) (int, bool) {
	for i := from; i < len(f.Src); i++ {
		switch f.Src[i] {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if f.Index.At(i) != lexer.Code {
			continue
		}
		return i, true
	}
	return 0, false
}

// FunctionByName returns the first non-test function definition with a body
// matching name. Used for AAA helper delegation.
func (f *File) FunctionByName(name string) (Function, bool) {
	for _, fn := range f.Functions {
		if fn.Anchor == "" && fn.Name == name && fn.BodyEnd >= 0 {
			return fn, true
		}
	}
	return Function{}, false
}

// Comments returns, in source order, every comment wholly inside [start, end).
func (f *File) Comments(start, end int) []Comment {
	var out []Comment
	for _, sp := range f.Spans {
		if !sp.Kind.IsComment() || sp.Start < start || sp.End > end {
			continue
		}
		out = append(out, f.comment(sp))
	}
	return out
}

func (f *File) comment(sp lexer.Span) Comment {
	c := Comment{Start: sp.Start, End: sp.End, Kind: sp.Kind}
	switch sp.Kind {
	case lexer.LineComment:
		i := sp.Start
		for i < sp.End && f.Src[i] == '/' {
			i++
		}
		c.TextStart = i
		c.Text = string(f.Src[i:sp.End])
	case lexer.BlockComment:
		textEnd := sp.End
		if textEnd-sp.Start >= 4 && string(f.Src[textEnd-2:textEnd]) == "*/" {
			textEnd -= 2
		}
		c.TextStart = sp.Start + 2
		c.Text = string(f.Src[sp.Start+2 : textEnd])
	}
	return c
}

// CallSite is one invocation inside a function body.
type CallSite struct {
	Name   string
	Offset int
}

// CallSites returns the calls made inside fn's body, in first-call order,
// deduplicated by name. Keywords and identifiers inside literals or comments
// are excluded.
func (f *File) CallSites(fn Function) []CallSite {
	if fn.BodyStart < 0 || fn.BodyEnd < 0 {
		return nil
	}
	var order []CallSite
	seen := make(map[string]bool)
	i := fn.BodyStart + 1
	for i < fn.BodyEnd {
		if f.Index.At(i) != lexer.Code || !isIdentStart(f.Src[i]) {
			i++
			continue
		}
		start := i
		for i < fn.BodyEnd && f.Index.At(i) == lexer.Code && isIdentChar(f.Src[i]) {
			i++
		}
		name := string(f.Src[start:i])
		if cKeywords[name] {
			continue
		}
		if next, ok := f.nextCode(i); ok && next < fn.BodyEnd && f.Src[next] == '(' && !seen[name] {
			seen[name] = true
			order = append(order, CallSite{Name: name, Offset: start})
		}
	}
	return order
}

// Calls returns just the names of CallSites, in the same order.
func (f *File) Calls(fn Function) []string {
	sites := f.CallSites(fn)
	names := make([]string, len(sites))
	for i, s := range sites {
		names[i] = s.Name
	}
	return names
}

// IsExempt reports whether fn carries the given exemption marker (e.g.
// "no-aaa"): a comment whose whole text equals the marker, case-insensitive,
// on the declaration line or the line immediately above it.
func (f *File) IsExempt(fn Function, marker string) bool {
	declLine := lexer.LineOf(f.Src, fn.NameStart)
	for _, c := range f.Comments(0, len(f.Src)) {
		if !strings.EqualFold(strings.TrimSpace(c.Text), marker) {
			continue
		}
		line := lexer.LineOf(f.Src, c.Start)
		if line == declLine || line == declLine-1 {
			return true
		}
	}
	return false
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
