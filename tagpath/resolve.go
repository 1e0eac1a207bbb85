package tagpath

import (
	"context"
	"fmt"

	"github.com/wippyai/opendax/codec"
	"github.com/wippyai/opendax/directory"
	"github.com/wippyai/opendax/errors"
	"github.com/wippyai/opendax/types"
)

// Address is a resolved path: where its data lives and how to read it.
type Address struct {
	Tag  *directory.Tag
	Type *types.Type
	Path string
	// ByteOffset is the absolute server address of the first byte.
	ByteOffset uint32
	// BitOffset is the first bit inside that byte, always 0 unless Type is BOOL.
	BitOffset int
	// Count is the number of elements a read returns.
	Count int
	// Capacity is the number of elements from the first one to the end of
	// its array. A sequence written at the address may fill up to Capacity.
	Capacity int
	// Array reports whether reads return a sequence.
	Array bool
}

// Region returns the codec region for the address, positioned relative to
// ByteOffset.
func (a Address) Region() codec.Region {
	return codec.Region{
		Type:      a.Type,
		Name:      a.Path,
		BitOffset: a.BitOffset,
		Count:     a.Count,
		Capacity:  a.Capacity,
		Array:     a.Array,
	}
}

// Size returns the bytes a read of the address covers.
func (a Address) Size() int {
	return a.Region().Size()
}

func (a Address) String() string {
	return fmt.Sprintf("%s @%d.%d %s x%d", a.Path, a.ByteOffset, a.BitOffset, a.Type.Name(), a.Count)
}

// Resolve computes the address of segs within tag. segs[0] must name tag.
func Resolve(tag *directory.Tag, segs []Segment) (Address, error) {
	if len(segs) == 0 {
		return Address{}, errors.InvalidPath(errors.PhaseResolve, nil, "empty path")
	}
	if segs[0].Name != tag.Name {
		return Address{}, errors.InvalidPath(errors.PhaseResolve, []string{segs[0].Name},
			fmt.Sprintf("path does not start at tag %q", tag.Name))
	}

	var (
		cursor = int(tag.BaseOffset) * 8
		typ    = tag.Type
		dim    = tag.Count
		path   []string
		a      Address
	)
	for i, seg := range segs {
		if i > 0 {
			if a.Count > 1 {
				return Address{}, at(seg, errors.InvalidPath(errors.PhaseResolve, path,
					fmt.Sprintf("member %q of an array needs an index", seg.Name)))
			}
			if !typ.IsCompound() {
				return Address{}, at(seg, errors.InvalidPath(errors.PhaseResolve, path,
					fmt.Sprintf("%s is not a compound type, no member %q", typ.Name(), seg.Name)))
			}
			m, ok := typ.Lookup(seg.Name)
			if !ok {
				return Address{}, at(seg, errors.FieldUnknown(errors.PhaseResolve, path, seg.Name, typ.Name()))
			}
			cursor += m.ByteOffset*8 + m.BitOffset
			typ, dim = m.Type, m.Count
		}
		path = append(path, seg.String())

		switch {
		case seg.IsSlice():
			if seg.Index >= dim || seg.Count > dim-seg.Index {
				return Address{}, at(seg, errors.OutOfRange(errors.PhaseResolve, path, seg.Index, seg.Count, dim))
			}
			cursor += seg.Index * typ.Stride()
			a.Count, a.Capacity, a.Array = seg.Count, seg.Count, true
		case seg.HasIndex:
			if seg.Index >= dim {
				return Address{}, at(seg, errors.OutOfRange(errors.PhaseResolve, path, seg.Index, 1, dim))
			}
			cursor += seg.Index * typ.Stride()
			a.Count, a.Capacity, a.Array = 1, dim-seg.Index, false
		default:
			a.Count, a.Capacity, a.Array = dim, dim, dim > 1
		}
	}

	a.Tag = tag
	a.Type = typ
	a.Path = Format(segs)
	a.ByteOffset = uint32(cursor / 8)
	a.BitOffset = cursor % 8
	return a, nil
}

// at prefixes e's detail with the source position of seg.
func at(seg Segment, e *errors.Error) *errors.Error {
	e.Detail = fmt.Sprintf("at position %d: %s", seg.Pos, e.Detail)
	return e
}

// TagSource finds tags by name.
type TagSource interface {
	Lookup(ctx context.Context, name string) (*directory.Tag, error)
}

// Resolver resolves path strings against a tag source.
type Resolver struct {
	tags TagSource
}

// NewResolver returns a Resolver reading tags from src.
func NewResolver(src TagSource) *Resolver {
	return &Resolver{tags: src}
}

// Resolve parses path, looks up its tag and computes the address.
func (r *Resolver) Resolve(ctx context.Context, path string) (Address, error) {
	segs, err := Parse(path)
	if err != nil {
		return Address{}, err
	}
	tag, err := r.tags.Lookup(ctx, segs[0].Name)
	if err != nil {
		return Address{}, err
	}
	return Resolve(tag, segs)
}
