package cfunc

import "srslint/internal/lexer"

// cursor iterates the Code-classified bytes of a file in source order,
// stepping over literal and comment spans.
type cursor struct {
	src    []byte
	ranges []lexer.Span
	r      int
	i      int
}

func newCursor(src []byte, spans []lexer.Span) *cursor {
	var ranges []lexer.Span
	for _, sp := range spans {
		if sp.Kind == lexer.Code {
			ranges = append(ranges, sp)
		}
	}
	c := &cursor{src: src, ranges: ranges}
	if len(ranges) > 0 {
		c.i = ranges[0].Start
	}
	return c
}

func (c *cursor) eof() bool { return c.r >= len(c.ranges) }

// off returns the current absolute byte offset.
func (c *cursor) off() int { return c.i }

// advance moves one byte forward, hopping across non-Code spans.
func (c *cursor) advance() {
	c.i++
	for c.r < len(c.ranges) && c.i >= c.ranges[c.r].End {
		c.r++
		if c.r < len(c.ranges) && c.i < c.ranges[c.r].Start {
			c.i = c.ranges[c.r].Start
		}
	}
}

// seek positions the cursor at the first Code byte at or after off.
// Seeking backwards is not supported; callers only ever skip forward.
func (c *cursor) seek(off int) {
	for c.r < len(c.ranges) && c.ranges[c.r].End <= off {
		c.r++
	}
	if c.r >= len(c.ranges) {
		c.i = off
		return
	}
	c.i = off
	if c.i < c.ranges[c.r].Start {
		c.i = c.ranges[c.r].Start
	}
}
