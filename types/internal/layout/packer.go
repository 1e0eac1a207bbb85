package layout

import "math"

// MaxBits is the largest layout a Packer accepts.
const MaxBits = math.MaxInt32

// Packer assigns offsets to members in declaration order.
type Packer struct {
	bits int
}

// Place reserves count elements of elemBits each and returns the offset of
// the first one. Packed elements continue from the current bit; others are
// moved to the next byte boundary first. ok is false, and nothing is
// reserved, when the layout would grow past MaxBits.
func (p *Packer) Place(elemBits, count int, packed bool) (byteOff, bitOff int, ok bool) {
	start := p.bits
	if !packed {
		start = AlignTo(start, 8)
	}
	if elemBits < 0 || count < 0 || start > MaxBits {
		return 0, 0, false
	}
	if elemBits > 0 && count > (MaxBits-start)/elemBits {
		return 0, 0, false
	}
	p.bits = start + elemBits*count
	return start / 8, start % 8, true
}

// Bits returns the number of bits reserved so far.
func (p *Packer) Bits() int {
	return p.bits
}

// Bytes returns the reserved size rounded up to whole bytes.
func (p *Packer) Bytes() int {
	return BytesFor(p.bits)
}

// BytesFor returns the bytes needed to hold bits.
func BytesFor(bits int) int {
	return (bits + 7) / 8
}

// AlignTo rounds offset up to a multiple of align, which must be a power of two.
func AlignTo(offset, align int) int {
	if align <= 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}
