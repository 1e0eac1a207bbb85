package tagpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/opendax/errors"
	"github.com/wippyai/opendax/internal/ident"
)

// Segment is one identifier of a path with its optional index.
type Segment struct {
	Name     string
	Index    int
	Count    int // slice length, 0 without a slice
	HasIndex bool
	Sliced   bool
	Pos      int // byte offset of Name in the source path
}

// IsSlice reports whether the segment carries an [index:count] slice.
func (s Segment) IsSlice() bool {
	return s.Sliced
}

func (s Segment) String() string {
	switch {
	case s.IsSlice():
		return fmt.Sprintf("%s[%d:%d]", s.Name, s.Index, s.Count)
	case s.HasIndex:
		return fmt.Sprintf("%s[%d]", s.Name, s.Index)
	}
	return s.Name
}

// Format rebuilds the canonical text of a parsed path.
func Format(segs []Segment) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

type parser struct {
	src string
	pos int
}

// Parse splits a path into segments. Syntax errors report the byte position
// of the offending character.
func Parse(path string) ([]Segment, error) {
	p := &parser{src: path}
	var segs []Segment
	for {
		seg, err := p.segment(len(segs) == 0)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
		if p.eof() {
			return segs, nil
		}
		if err := p.expect('.'); err != nil {
			return nil, err
		}
	}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) errorf(format string, args ...any) error {
	return errors.InvalidPath(errors.PhaseResolve, []string{p.src},
		fmt.Sprintf("at position %d: ", p.pos)+fmt.Sprintf(format, args...))
}

func (p *parser) unexpected(want string) error {
	if p.eof() {
		return p.errorf("expected %s, got end of path", want)
	}
	return p.errorf("expected %s, got %q", want, p.peek())
}

func (p *parser) expect(c byte) error {
	if p.peek() != c || p.eof() {
		return p.unexpected(strconv.QuoteRune(rune(c)))
	}
	p.pos++
	return nil
}

func (p *parser) ident() (string, error) {
	start := p.pos
	if p.eof() || !ident.IsStart(p.peek()) {
		return "", p.unexpected("identifier")
	}
	for !p.eof() && ident.IsPart(p.peek()) {
		p.pos++
	}
	name := p.src[start:p.pos]
	if len(name) > ident.MaxLen {
		p.pos = start
		return "", p.errorf("identifier %q longer than %d characters", name, ident.MaxLen)
	}
	return name, nil
}

func (p *parser) number() (int, error) {
	start := p.pos
	for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, p.unexpected("index")
	}
	text := p.src[start:p.pos]
	n, err := strconv.Atoi(text)
	if err != nil {
		p.pos = start
		return 0, p.errorf("index %s out of range", text)
	}
	return n, nil
}

func (p *parser) segment(first bool) (Segment, error) {
	seg := Segment{Pos: p.pos}
	name, err := p.ident()
	if err != nil {
		return seg, err
	}
	seg.Name = name
	if p.peek() != '[' {
		return seg, nil
	}
	p.pos++

	if seg.Index, err = p.number(); err != nil {
		return seg, err
	}
	seg.HasIndex = true

	if p.peek() == ':' {
		if !first {
			return seg, p.errorf("slices are only allowed on the tag segment")
		}
		p.pos++
		seg.Sliced = true
		if seg.Count, err = p.number(); err != nil {
			return seg, err
		}
		if seg.Count == 0 {
			p.pos--
			return seg, p.errorf("slice count must be positive")
		}
	}
	if err := p.expect(']'); err != nil {
		return seg, err
	}
	return seg, nil
}
