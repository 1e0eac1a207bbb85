package codec

import (
	"github.com/wippyai/opendax/types"
)

// Policy selects how out of range integers are written.
type Policy uint8

const (
	Strict Policy = iota // fail with an overflow error
	Clip                 // saturate to the type's bounds
)

func (p Policy) String() string {
	if p == Clip {
		return "clip"
	}
	return "strict"
}

// Region locates the elements an Encode or Decode works on, relative to
// the first byte of the buffer.
type Region struct {
	Type *types.Type
	// Name labels errors, usually the tag path.
	Name      string
	BitOffset int
	// Count is the number of elements a Decode produces.
	Count int
	// Capacity is the most elements an Encode may write.
	Capacity int
	// Array reports whether the region reads as a sequence.
	Array bool
}

// Span returns the bytes covering the first n elements of the region.
func (r Region) Span(n int) int {
	if n <= 0 {
		return 0
	}
	return (r.BitOffset + r.Type.SpanBits(n) + 7) / 8
}

// Size returns the bytes covering Count elements.
func (r Region) Size() int {
	return r.Span(r.Count)
}

// Patch is the result of an Encode. Only bits set in Mask carry new data.
type Patch struct {
	Data []byte
	Mask []byte
	// Elements is the number of elements written.
	Elements int
	// Clipped counts the integers saturated under Clip.
	Clipped int
}

// Full reports whether every bit of the patch is written.
func (p *Patch) Full() bool {
	for _, m := range p.Mask {
		if m != 0xff {
			return false
		}
	}
	return true
}

// Apply merges the patch into dst, which must start at the same byte.
func (p *Patch) Apply(dst []byte) {
	Merge(dst, p.Data, p.Mask)
}

// Merge replaces the bits of dst selected by mask with the bits of data.
func Merge(dst, data, mask []byte) {
	n := min(len(dst), len(data), len(mask))
	for i := 0; i < n; i++ {
		dst[i] = dst[i]&^mask[i] | data[i]&mask[i]
	}
}
