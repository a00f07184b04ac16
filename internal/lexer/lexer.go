// Package lexer performs the lexical classification of raw C source text.
//
// Scan splits a file into contiguous, non-overlapping spans of code, string
// and character literals, and line/block comments. Everything downstream
// (function location, comment extraction, tag reconciliation) works on these
// spans so that braces, parens, and brackets inside literals or comments can
// never confuse structural matching.
//
// The scanner never fails: malformed input (an unterminated literal or block
// comment) closes implicitly at end of line or end of file and is reported as
// an anomaly.
package lexer

import (
	"fmt"
	"sort"
)

// Kind classifies a span of source text.
type Kind uint8

const (
	Code Kind = iota
	StringLit
	CharLit
	LineComment
	BlockComment
)

func (k Kind) String() string {
	switch k {
	case Code:
		return "code"
	case StringLit:
		return "string"
	case CharLit:
		return "char"
	case LineComment:
		return "line-comment"
	case BlockComment:
		return "block-comment"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsComment reports whether the span kind is a line or block comment.
func (k Kind) IsComment() bool { return k == LineComment || k == BlockComment }

// Span is a half-open byte range [Start, End) with a single classification.
type Span struct {
	Start int
	End   int
	Kind  Kind
}

// Anomaly records a recoverable lexical defect at a byte offset.
type Anomaly struct {
	Offset  int
	Message string
}

// Scan classifies src into an ordered span sequence covering every byte
// exactly once. The returned anomalies describe unterminated literals and
// comments; the spans themselves are always well formed.
func Scan(src []byte) ([]Span, []Anomaly) {
	var spans []Span
	var anoms []Anomaly

	codeStart := 0
	flushCode := func(end int) {
		if end > codeStart {
			spans = append(spans, Span{Start: codeStart, End: end, Kind: Code})
		}
	}

	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '"' || c == '\'':
			start := i
			kind := StringLit
			what := "string"
			if c == '\'' {
				kind = CharLit
				what = "character"
			}
			i++
			terminated := false
			for i < len(src) {
				if src[i] == '\\' {
					// An escape consumes exactly the following character.
					i += 2
					continue
				}
				if src[i] == c {
					i++
					terminated = true
					break
				}
				if src[i] == '\n' {
					break
				}
				i++
			}
			if i > len(src) {
				i = len(src)
			}
			if !terminated {
				anoms = append(anoms, Anomaly{Offset: start, Message: "unterminated " + what + " literal"})
			}
			flushCode(start)
			spans = append(spans, Span{Start: start, End: i, Kind: kind})
			codeStart = i

		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			start := i
			for i < len(src) && src[i] != '\n' {
				i++
			}
			flushCode(start)
			spans = append(spans, Span{Start: start, End: i, Kind: LineComment})
			codeStart = i

		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			start := i
			i += 2
			terminated := false
			for i+1 < len(src) {
				if src[i] == '*' && src[i+1] == '/' {
					i += 2
					terminated = true
					break
				}
				i++
			}
			if !terminated {
				i = len(src)
				anoms = append(anoms, Anomaly{Offset: start, Message: "unterminated block comment"})
			}
			flushCode(start)
			spans = append(spans, Span{Start: start, End: i, Kind: BlockComment})
			codeStart = i

		default:
			i++
		}
	}
	flushCode(len(src))
	return spans, anoms
}

// Index answers "what kind of text is at this offset" in O(log n).
type Index struct {
	spans []Span
}

// NewIndex builds an offset index over the span sequence produced by Scan.
func NewIndex(spans []Span) *Index {
	return &Index{spans: spans}
}

// At returns the classification of the byte at off. Offsets outside every
// span are reported as Code.
func (ix *Index) At(off int) Kind {
	n := sort.Search(len(ix.spans), func(i int) bool { return ix.spans[i].End > off })
	if n < len(ix.spans) && ix.spans[n].Start <= off {
		return ix.spans[n].Kind
	}
	return Code
}

// Match returns the offset of the close delimiter matching the open delimiter
// at openOff, counting nesting depth over Code-classified bytes only.
// Delimiters inside literals or comments never affect the depth. Returns -1
// when the delimiter is unmatched at end of file.
func Match(src []byte, ix *Index, openOff int, open, close byte) int {
	depth := 0
	for i := openOff; i < len(src); i++ {
		c := src[i]
		if c != open && c != close {
			continue
		}
		if ix.At(i) != Code {
			continue
		}
		if c == open {
			depth++
		} else {
			depth--
			if depth <= 0 {
				return i
			}
		}
	}
	return -1
}

// Position converts a byte offset to 1-based line and column numbers.
// Columns count bytes, which matches the ASCII-heavy input this tool scans.
func Position(src []byte, off int) (line, col int) {
	if off > len(src) {
		off = len(src)
	}
	line, col = 1, 1
	for i := 0; i < off; i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// LineOf returns the 1-based line number of a byte offset.
func LineOf(src []byte, off int) int {
	line, _ := Position(src, off)
	return line
}
