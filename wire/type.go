package wire

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/wippyai/opendax/errors"
	"github.com/wippyai/opendax/types"
)

// MaxDepth bounds compound nesting accepted by DecodeType.
const MaxDepth = 32

// TypeDesc is the decoded wire form of a type.
type TypeDesc struct {
	Name    string
	Members []MemberDesc
	Code    types.Code
}

// MemberDesc is one member of a compound TypeDesc.
type MemberDesc struct {
	Name  string
	Type  TypeDesc
	Count int
}

// AppendType appends the wire form of t to b.
func AppendType(b []byte, t *types.Type) []byte {
	b = appendUint(b, 1, uint32(t.Code()))
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendString(b, t.Name())
	for i := 0; i < t.NumMembers(); i++ {
		m := t.Member(i)
		var mb []byte
		mb = protowire.AppendTag(mb, 1, protowire.BytesType)
		mb = protowire.AppendString(mb, m.Name)
		mb = appendBytes(mb, 2, AppendType(nil, m.Type))
		mb = appendUint(mb, 3, uint32(m.Count))
		b = appendBytes(b, 3, mb)
	}
	return b
}

// EncodeType returns the wire form of t.
func EncodeType(t *types.Type) []byte {
	return AppendType(nil, t)
}

// DecodeType parses a wire form produced by EncodeType.
func DecodeType(data []byte) (TypeDesc, error) {
	return decodeType(data, 0)
}

func decodeType(data []byte, depth int) (TypeDesc, error) {
	var d TypeDesc
	if depth > MaxDepth {
		return d, errors.InvalidData(errors.PhaseTransport, nil, "type nesting too deep")
	}
	var inner error
	err := walk(data, "type", func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) bool {
		switch {
		case num == 1 && typ == protowire.VarintType:
			if v > math.MaxUint32 {
				inner = errors.InvalidData(errors.PhaseTransport, nil, fmt.Sprintf("type code %d out of range", v))
				return true
			}
			d.Code = types.Code(v)
		case num == 2 && typ == protowire.BytesType:
			d.Name = string(raw)
		case num == 3 && typ == protowire.BytesType:
			m, err := decodeMember(raw, depth)
			if err != nil {
				inner = err
				return true
			}
			d.Members = append(d.Members, m)
		case num <= 3:
			return false
		}
		return true
	})
	if err != nil {
		return TypeDesc{}, err
	}
	if inner != nil {
		return TypeDesc{}, inner
	}
	if d.Code.IsCompound() && len(d.Members) == 0 {
		return TypeDesc{}, errors.InvalidData(errors.PhaseTransport, []string{d.Name}, "compound type without members")
	}
	return d, nil
}

func decodeMember(data []byte, depth int) (MemberDesc, error) {
	m := MemberDesc{Count: 1}
	var inner error
	err := walk(data, "member", func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) bool {
		switch {
		case num == 1 && typ == protowire.BytesType:
			m.Name = string(raw)
		case num == 2 && typ == protowire.BytesType:
			t, err := decodeType(raw, depth+1)
			if err != nil {
				inner = err
			}
			m.Type = t
		case num == 3 && typ == protowire.VarintType:
			if v > math.MaxInt32 {
				inner = errors.InvalidData(errors.PhaseTransport, []string{m.Name}, fmt.Sprintf("member count %d out of range", v))
				return true
			}
			m.Count = int(v)
		case num <= 3:
			return false
		}
		return true
	})
	if err != nil {
		return MemberDesc{}, err
	}
	return m, inner
}

// ImportType decodes a type wire form and resolves it in r. Compounds r does
// not know yet are registered, members first; compounds r already knows must
// match the wire form exactly.
func ImportType(r *types.Registry, data []byte) (*types.Type, error) {
	d, err := DecodeType(data)
	if err != nil {
		return nil, err
	}
	return Import(r, d)
}

// Import resolves a decoded type in r, registering unknown compounds.
func Import(r *types.Registry, d TypeDesc) (*types.Type, error) {
	if !d.Code.IsCompound() {
		t, ok := r.ByCode(d.Code)
		if !ok {
			return nil, errors.UnknownType(errors.PhaseTransport, d.Code)
		}
		return t, nil
	}

	defs := make([]types.MemberDef, len(d.Members))
	for i, m := range d.Members {
		mt, err := Import(r, m.Type)
		if err != nil {
			return nil, err
		}
		defs[i] = types.MemberDef{Name: m.Name, Type: mt, Count: m.Count}
	}

	if existing, ok := r.Lookup(d.Name); ok {
		if err := sameDefinition(existing, defs); err != nil {
			return nil, err
		}
		return existing, nil
	}
	return r.RegisterCompound(d.Name, defs)
}

func sameDefinition(t *types.Type, defs []types.MemberDef) error {
	mismatch := func(format string, args ...any) error {
		return errors.New(errors.PhaseTransport, errors.KindTypeMismatch).
			TagType(t.Name()).
			Detail("server definition differs: %s", fmt.Sprintf(format, args...)).
			Build()
	}
	if !t.IsCompound() {
		return mismatch("%s is a scalar type", t.Name())
	}
	if t.NumMembers() != len(defs) {
		return mismatch("%d members, want %d", len(defs), t.NumMembers())
	}
	for i, d := range defs {
		m := t.Member(i)
		count := d.Count
		if count == 0 {
			count = 1
		}
		if m.Name != d.Name || m.Count != count || m.Type != d.Type.(*types.Type) {
			return mismatch("member %d is %s", i, d.Name)
		}
	}
	return nil
}
