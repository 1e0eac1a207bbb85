package codec

import (
	"math"

	"github.com/wippyai/opendax/errors"
	"github.com/wippyai/opendax/types"
)

// Decoder converts tag bytes into Go values.
type Decoder struct{}

// NewDecoder returns a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode reads Count elements of region r from data. data starts at the
// region's first byte.
func (d *Decoder) Decode(data []byte, r Region) (any, error) {
	if r.Type == nil {
		return nil, errors.InvalidData(errors.PhaseDecode, rootPath(r), "region has no type")
	}
	if need := r.Size(); len(data) < need {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path(rootPath(r)...).
			TagType(r.Type.Name()).
			Detail("short buffer: have %d bytes, need %d", len(data), need).
			Build()
	}
	if !r.Array {
		return d.element(data, r.Type, r.BitOffset), nil
	}
	return d.elements(data, r.Type, r.BitOffset, r.Count), nil
}

func (d *Decoder) elements(data []byte, t *types.Type, pos, count int) []any {
	out := make([]any, count)
	stride := t.Stride()
	for i := range out {
		out[i] = d.element(data, t, pos+i*stride)
	}
	return out
}

func (d *Decoder) element(data []byte, t *types.Type, pos int) any {
	switch t.Kind() {
	case types.KindBool:
		return data[pos/8]&(1<<(pos%8)) != 0
	case types.KindU8:
		return uint8(getUint(data, pos, 1))
	case types.KindS8:
		return int8(getUint(data, pos, 1))
	case types.KindU16:
		return uint16(getUint(data, pos, 2))
	case types.KindS16:
		return int16(getUint(data, pos, 2))
	case types.KindU32:
		return uint32(getUint(data, pos, 4))
	case types.KindS32:
		return int32(getUint(data, pos, 4))
	case types.KindU64:
		return getUint(data, pos, 8)
	case types.KindS64:
		return int64(getUint(data, pos, 8))
	case types.KindF32:
		return math.Float32frombits(uint32(getUint(data, pos, 4)))
	case types.KindF64:
		return math.Float64frombits(getUint(data, pos, 8))
	case types.KindCompound:
		rec := make(Record, t.NumMembers())
		for i := range rec {
			m := t.Member(i)
			mpos := pos + m.ByteOffset*8 + m.BitOffset
			rec[i].Name = m.Name
			if m.Count > 1 {
				rec[i].Value = d.elements(data, m.Type, mpos, m.Count)
			} else {
				rec[i].Value = d.element(data, m.Type, mpos)
			}
		}
		return rec
	}
	return nil
}

func getUint(data []byte, pos, size int) uint64 {
	off := pos / 8
	var u uint64
	for i := 0; i < size; i++ {
		u |= uint64(data[off+i]) << (8 * i)
	}
	return u
}
