package codec

import (
	"math"
	"math/big"
	"strconv"

	"github.com/wippyai/opendax/errors"
	"github.com/wippyai/opendax/types"
)

// Encoder converts Go values into tag bytes.
type Encoder struct{}

// NewEncoder returns an Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode converts value into a patch for region r. The value is fully
// validated before anything is returned; on error the patch is nil.
func (e *Encoder) Encode(value any, r Region, p Policy) (*Patch, error) {
	if r.Type == nil {
		return nil, errors.InvalidData(errors.PhaseEncode, rootPath(r), "region has no type")
	}
	path := rootPath(r)

	n := 1
	if seq, ok := asSequence(value, r.Type, r.Array); ok {
		n = len(seq)
		if n > r.Capacity {
			return nil, errors.TooBig(errors.PhaseEncode, path, n, r.Capacity)
		}
	}

	size := r.Span(n)
	s := &encodeState{
		data:   make([]byte, size),
		mask:   make([]byte, size),
		policy: p,
	}
	if n > 0 {
		if err := s.slot(value, r.Type, r.BitOffset, r.Capacity, r.Array, path); err != nil {
			return nil, err
		}
	}
	return &Patch{Data: s.data, Mask: s.mask, Elements: n, Clipped: s.clipped}, nil
}

// asSequence reports whether value is written as consecutive elements of t.
// A sequence given for a single compound fills its members instead.
func asSequence(value any, t *types.Type, array bool) ([]any, bool) {
	if t.IsCompound() && !array {
		return nil, false
	}
	if _, ok := mapping(value); ok {
		return nil, false
	}
	return sequence(value)
}

func rootPath(r Region) []string {
	if r.Name == "" {
		return nil
	}
	return []string{r.Name}
}

func withIndex(path []string, i int) []string {
	out := make([]string, len(path))
	copy(out, path)
	idx := "[" + strconv.Itoa(i) + "]"
	if len(out) == 0 {
		return []string{idx}
	}
	out[len(out)-1] += idx
	return out
}

func withMember(path []string, name string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, name)
}

type encodeState struct {
	data    []byte
	mask    []byte
	policy  Policy
	clipped int
}

// slot encodes value into up to capacity elements of t starting at bit pos.
func (s *encodeState) slot(value any, t *types.Type, pos, capacity int, array bool, path []string) error {
	seq, ok := asSequence(value, t, array)
	if !ok {
		return s.element(value, t, pos, path)
	}
	if len(seq) > capacity {
		return errors.TooBig(errors.PhaseEncode, path, len(seq), capacity)
	}
	stride := t.Stride()
	for i, v := range seq {
		if err := s.element(v, t, pos+i*stride, withIndex(path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (s *encodeState) element(value any, t *types.Type, pos int, path []string) error {
	switch k := t.Kind(); {
	case k == types.KindBool:
		b, ok := coerceBool(value)
		if !ok {
			return errors.TypeMismatch(errors.PhaseEncode, path, typeName(value), t.Name())
		}
		s.putBit(pos, b)
		return nil

	case k.IsInteger():
		i, ok := coerceInteger(value)
		if !ok {
			return errors.TypeMismatch(errors.PhaseEncode, path, typeName(value), t.Name())
		}
		u, err := s.fit(i, value, t, path)
		if err != nil {
			return err
		}
		s.putUint(pos, t.Size(), u)
		return nil

	case k == types.KindF32:
		f, ok := coerceFloat(value)
		if !ok {
			return errors.TypeMismatch(errors.PhaseEncode, path, typeName(value), t.Name())
		}
		s.putUint(pos, 4, uint64(math.Float32bits(float32(f))))
		return nil

	case k == types.KindF64:
		f, ok := coerceFloat(value)
		if !ok {
			return errors.TypeMismatch(errors.PhaseEncode, path, typeName(value), t.Name())
		}
		s.putUint(pos, 8, math.Float64bits(f))
		return nil

	case k == types.KindCompound:
		return s.compound(value, t, pos, path)
	}
	return errors.New(errors.PhaseEncode, errors.KindUnknownType).
		Path(path...).
		TagType(t.Name()).
		Detail("unsupported kind %v", t.Kind()).
		Build()
}

// fit range checks i against t and returns its two's complement bits.
func (s *encodeState) fit(i *big.Int, orig any, t *types.Type, path []string) (uint64, error) {
	b := bounds[t.Kind()]
	switch {
	case i.Cmp(b[0]) < 0:
		if s.policy != Clip {
			return 0, errors.Overflow(errors.PhaseEncode, path, orig, t.Name())
		}
		s.clipped++
		i = b[0]
	case i.Cmp(b[1]) > 0:
		if s.policy != Clip {
			return 0, errors.Overflow(errors.PhaseEncode, path, orig, t.Name())
		}
		s.clipped++
		i = b[1]
	}
	if i.Sign() < 0 {
		return uint64(i.Int64()), nil
	}
	return i.Uint64(), nil
}

func (s *encodeState) compound(value any, t *types.Type, pos int, path []string) error {
	if fields, ok := mapping(value); ok {
		for _, f := range fields {
			m, ok := t.Lookup(f.Name)
			if !ok {
				return errors.FieldUnknown(errors.PhaseEncode, path, f.Name, t.Name())
			}
			if err := s.member(f.Value, m, pos, path); err != nil {
				return err
			}
		}
		return nil
	}

	seq, ok := sequence(value)
	if !ok {
		return errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
			Path(path...).
			GoType(typeName(value)).
			TagType(t.Name()).
			Detail("compound needs a map, Record or sequence").
			Build()
	}
	if len(seq) > t.NumMembers() {
		return errors.New(errors.PhaseEncode, errors.KindTooBig).
			Path(path...).
			TagType(t.Name()).
			Value(len(seq)).
			Detail("%d values for %d members", len(seq), t.NumMembers()).
			Build()
	}
	for i, v := range seq {
		if err := s.member(v, t.Member(i), pos, path); err != nil {
			return err
		}
	}
	return nil
}

func (s *encodeState) member(value any, m types.Member, base int, path []string) error {
	pos := base + m.ByteOffset*8 + m.BitOffset
	return s.slot(value, m.Type, pos, m.Count, m.Count > 1, withMember(path, m.Name))
}

func (s *encodeState) putBit(pos int, v bool) {
	i, bit := pos/8, byte(1)<<(pos%8)
	if v {
		s.data[i] |= bit
	} else {
		s.data[i] &^= bit
	}
	s.mask[i] |= bit
}

// putUint stores the low size bytes of u little-endian at byte-aligned pos.
func (s *encodeState) putUint(pos, size int, u uint64) {
	off := pos / 8
	for i := 0; i < size; i++ {
		s.data[off+i] = byte(u >> (8 * i))
		s.mask[off+i] = 0xff
	}
}
