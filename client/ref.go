package client

import (
	"context"

	"github.com/wippyai/opendax/tagpath"
)

// Ref is a path built one segment at a time. Refs are values; every builder
// method returns a new Ref and leaves the receiver unchanged.
//
//	c.Tag("dummy3").Index(1).Member("ddd").Member("mem2").Path() // "dummy3[1].ddd.mem2"
type Ref struct {
	c    *Client
	segs []tagpath.Segment
}

// Tag starts a Ref at the named tag.
func (c *Client) Tag(name string) Ref {
	return Ref{c: c, segs: []tagpath.Segment{{Name: name}}}
}

func (r Ref) last(fn func(*tagpath.Segment)) Ref {
	segs := make([]tagpath.Segment, len(r.segs))
	copy(segs, r.segs)
	fn(&segs[len(segs)-1])
	return Ref{c: r.c, segs: segs}
}

// Index selects element i of the last segment.
func (r Ref) Index(i int) Ref {
	return r.last(func(s *tagpath.Segment) {
		s.Index, s.Count, s.HasIndex, s.Sliced = i, 0, true, false
	})
}

// Slice selects count elements starting at i. Only the tag segment may be
// sliced, and count must be positive; other Refs fail when used.
func (r Ref) Slice(i, count int) Ref {
	return r.last(func(s *tagpath.Segment) {
		s.Index, s.Count, s.HasIndex, s.Sliced = i, count, true, true
	})
}

// Member descends into a compound member.
func (r Ref) Member(name string) Ref {
	segs := make([]tagpath.Segment, len(r.segs), len(r.segs)+1)
	copy(segs, r.segs)
	return Ref{c: r.c, segs: append(segs, tagpath.Segment{Name: name})}
}

// Path returns the text form of the Ref.
func (r Ref) Path() string {
	return tagpath.Format(r.segs)
}

func (r Ref) String() string {
	return r.Path()
}

// Resolve computes the address of the Ref.
func (r Ref) Resolve(ctx context.Context) (tagpath.Address, error) {
	return r.c.Resolve(ctx, r.Path())
}

// Read returns the value at the Ref.
func (r Ref) Read(ctx context.Context) (any, error) {
	return r.c.Read(ctx, r.Path())
}

// Write stores value at the Ref.
func (r Ref) Write(ctx context.Context, value any, opts ...WriteOption) error {
	return r.c.Write(ctx, r.Path(), value, opts...)
}

// Elements returns one Ref per element the Ref reads. A Ref that reads a
// single value returns itself.
func (r Ref) Elements(ctx context.Context) ([]Ref, error) {
	addr, err := r.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if !addr.Array {
		return []Ref{r}, nil
	}
	start := 0
	if s := r.segs[len(r.segs)-1]; s.IsSlice() {
		start = s.Index
	}
	out := make([]Ref, addr.Count)
	for i := range out {
		out[i] = r.Index(start + i)
	}
	return out, nil
}
