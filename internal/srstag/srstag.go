// Package srstag extracts structured requirement tags from C comments.
//
// A tag has the shape <Family>_SRS_<MODULE>_<DD>_<NNN>: [ text ], where the
// family is Codes_ (production) or Tests_ (test code). Payloads track bracket
// nesting so legitimate brackets inside the text (array[index], "%s[%d]")
// do not terminate the tag early, and may continue across adjacent comments
// separated only by whitespace. Adjacent tags are parsed independently; text
// never bleeds from one payload into the next.
package srstag

import (
	"fmt"
	"regexp"
	"strings"

	"srslint/internal/cfunc"
	"srslint/internal/lexer"
)

// Prefix family tokens as they appear in source.
const (
	PrefixCodes = "Codes_SRS_"
	PrefixTests = "Tests_SRS_"
)

// Style records the delimiter style of the comment a tag starts in, so a
// corrective edit can be checked to preserve it.
type Style int

const (
	StyleLine  Style = iota // //
	StyleDoc                // ///
	StyleBlock              // /* */
)

func (s Style) String() string {
	switch s {
	case StyleDoc:
		return "///"
	case StyleBlock:
		return "/* */"
	}
	return "//"
}

// Tag is one extracted requirement tag.
//
// PayloadStart/PayloadEnd delimit the payload text in the source buffer,
// excluding the bracket padding, and are -1 when the payload spans more than
// one comment (such tags are compared but never auto-edited). Text is the
// payload with whole-payload bold markers stripped; LeadPad and TrailPad hold
// the whitespace found just inside the brackets.
type Tag struct {
	Prefix       string
	ID           string
	Text         string
	Start        int
	PayloadStart int
	PayloadEnd   int
	LeadPad      string
	TrailPad     string
	Style        Style
	MultiComment bool
}

// Token returns the tag exactly as written in source, e.g.
// "Codes_SRS_MOD_01_001". Prefix and ID overlap on "SRS_", so neither alone
// nor their concatenation is the source token.
func (t Tag) Token() string {
	return t.Prefix + strings.TrimPrefix(t.ID, "SRS_")
}

// tagHead matches the prefix family, the requirement id, and the colon.
var tagHead = regexp.MustCompile(`\b(Codes|Tests)_(SRS_[A-Za-z0-9_]+?_[0-9]+_[0-9]+)\s*:`)

// Extract returns every requirement tag in f, in source order, plus anomalies
// for tags whose payload never closes.
func Extract(f *cfunc.File) ([]Tag, []lexer.Anomaly) {
	comments := f.Comments(0, len(f.Src))
	var tags []Tag
	var anoms []lexer.Anomaly

	ci := 0
	pos := 0 // scan position within comments[ci].Text
	for ci < len(comments) {
		text := comments[ci].Text
		loc := tagHead.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			ci++
			pos = 0
			continue
		}
		headStart := pos + loc[0]
		headEnd := pos + loc[1]
		family := text[pos+loc[2] : pos+loc[3]]
		id := text[pos+loc[4] : pos+loc[5]]

		// The opening bracket must follow the colon, modulo spaces.
		k := headEnd
		for k < len(text) && (text[k] == ' ' || text[k] == '\t') {
			k++
		}
		if k >= len(text) || text[k] != '[' {
			pos = headEnd
			continue
		}

		start := comments[ci].TextStart + headStart
		pieces, endCi, endPos, ok := payload(f, comments, ci, k+1)
		if !ok {
			anoms = append(anoms, lexer.Anomaly{
				Offset:  start,
				Message: fmt.Sprintf("requirement tag %s_%s has no closing ']'", family, id),
			})
			// Resume after the head so a later tag in the same comment run
			// is still found.
			pos = headEnd
			continue
		}

		tags = append(tags, build(f, comments, family, id, start, pieces))
		ci = endCi
		pos = endPos
	}
	return tags, anoms
}

// piece is one contiguous payload segment within a single comment.
type piece struct {
	ci         int
	start, end int // offsets within the comment's Text
}

// payload scans from off inside comments[ci] until the bracket nesting depth
// returns to zero. It continues into following comments only when nothing but
// whitespace separates them in the source.
func payload(f *cfunc.File, comments []cfunc.Comment, ci, off int) (pieces []piece, endCi, endPos int, ok bool) {
	depth := 1
	segStart := off
	cur := off
	for {
		text := comments[ci].Text
		for cur < len(text) {
			switch text[cur] {
			case '[':
				depth++
			case ']':
				depth--
				if depth == 0 {
					pieces = append(pieces, piece{ci: ci, start: segStart, end: cur})
					return pieces, ci, cur + 1, true
				}
			}
			cur++
		}
		pieces = append(pieces, piece{ci: ci, start: segStart, end: len(text)})
		if ci+1 >= len(comments) || !whitespaceBetween(f.Src, comments[ci].End, comments[ci+1].Start) {
			return nil, 0, 0, false
		}
		ci++
		segStart, cur = 0, 0
	}
}

func whitespaceBetween(src []byte, from, to int) bool {
	for i := from; i < to; i++ {
		switch src[i] {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}

// build assembles the Tag record from its payload pieces.
func build(f *cfunc.File, comments []cfunc.Comment, family, id string, start int, pieces []piece) Tag {
	t := Tag{
		Prefix:       family + "_SRS_",
		ID:           id,
		Start:        start,
		PayloadStart: -1,
		PayloadEnd:   -1,
		Style:        styleOf(f, comments[pieces[0].ci]),
		MultiComment: len(pieces) > 1,
	}

	var raw string
	if len(pieces) == 1 {
		p := pieces[0]
		raw = comments[p.ci].Text[p.start:p.end]
	} else {
		parts := make([]string, len(pieces))
		for i, p := range pieces {
			parts[i] = comments[p.ci].Text[p.start:p.end]
		}
		raw = strings.Join(parts, "\n")
	}

	inner, boldOff := stripBold(raw)
	lead := len(inner) - len(strings.TrimLeft(inner, " \t"))
	t.LeadPad = inner[:lead]
	trimmed := inner[lead:]
	trail := len(trimmed) - len(strings.TrimRight(trimmed, " \t"))
	t.TrailPad = trimmed[len(trimmed)-trail:]
	t.Text = trimmed[:len(trimmed)-trail]

	if len(pieces) == 1 {
		p := pieces[0]
		base := comments[p.ci].TextStart
		t.PayloadStart = base + p.start + boldOff + lead
		t.PayloadEnd = base + p.end - boldOff - trail
	}
	return t
}

// stripBold removes markdown bold markers only when they wrap the entire
// payload ("[** text **]" style). Asterisks anywhere else, such as C pointer
// syntax, are preserved verbatim.
func stripBold(raw string) (string, int) {
	if len(raw) >= 4 && strings.HasPrefix(raw, "**") && strings.HasSuffix(raw, "**") {
		return raw[2 : len(raw)-2], 2
	}
	return raw, 0
}

// styleOf distinguishes //, ///, and block comments by their delimiters.
func styleOf(f *cfunc.File, c cfunc.Comment) Style {
	if c.Kind == lexer.BlockComment {
		return StyleBlock
	}
	if c.TextStart-c.Start >= 3 {
		return StyleDoc
	}
	return StyleLine
}
