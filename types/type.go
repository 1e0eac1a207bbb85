package types

import (
	"fmt"
	"strings"

	"github.com/wippyai/opendax/types/internal/layout"
)

// Code is the opaque numeric handle of a data type. Scalar codes are the
// fixed OpenDAX values; compound codes carry CustomFlag.
type Code uint32

// CustomFlag marks the code of a registered compound type.
const CustomFlag Code = 0x80000000

// Scalar type codes.
const (
	Bool  Code = 0x0010
	Byte  Code = 0x0003
	Sint  Code = 0x0013
	Word  Code = 0x0004
	Int   Code = 0x0014
	Uint  Code = 0x0024
	Dword Code = 0x0005
	Dint  Code = 0x0015
	Udint Code = 0x0025
	Real  Code = 0x0045
	Lword Code = 0x0006
	Lint  Code = 0x0016
	Ulint Code = 0x0026
	Lreal Code = 0x0036
)

// IsCompound reports whether c names a compound type.
func (c Code) IsCompound() bool {
	return c&CustomFlag != 0
}

func (c Code) String() string {
	if c.IsCompound() {
		return fmt.Sprintf("cdt#%d", uint32(c&^CustomFlag))
	}
	if t, ok := scalarsByCode[c]; ok {
		return t.name
	}
	return fmt.Sprintf("0x%04x", uint32(c))
}

// Ref identifies a type for resolution: a Name, a Code, or a *Type.
type Ref interface {
	ref()
}

// Name refers to a type by its registered name. Names are case-insensitive.
type Name string

func (Name) ref()  {}
func (Code) ref()  {}
func (*Type) ref() {}

// Type describes a scalar or compound data type. Types are immutable once
// created; accessors return copies.
type Type struct {
	index   map[string]int
	name    string
	members []Member
	bits    int
	code    Code
	kind    Kind
}

// Member is one field of a compound type.
type Member struct {
	Type       *Type
	Name       string
	Count      int
	ByteOffset int
	BitOffset  int
}

// Name returns the canonical name.
func (t *Type) Name() string { return t.name }

// Code returns the type handle.
func (t *Type) Code() Code { return t.code }

// Kind returns the variant discriminator.
func (t *Type) Kind() Kind { return t.kind }

// IsBool reports whether elements of t are single bits.
func (t *Type) IsBool() bool { return t.kind == KindBool }

// IsCompound reports whether t is a compound type.
func (t *Type) IsCompound() bool { return t.kind == KindCompound }

// Bits returns the width of one element. For compounds this is the packed
// bit count before rounding to bytes.
func (t *Type) Bits() int { return t.bits }

// Size returns the size of one element in bytes. Booleans report 1 even
// though array elements are packed one bit apart.
func (t *Type) Size() int { return layout.BytesFor(t.bits) }

// Stride returns the distance in bits between consecutive array elements.
func (t *Type) Stride() int {
	if t.kind == KindBool {
		return 1
	}
	return t.Size() * 8
}

// SpanBits returns the bits occupied by count elements.
func (t *Type) SpanBits(count int) int {
	return t.Stride() * count
}

// SizeOf returns the bytes needed to hold count consecutive elements.
func (t *Type) SizeOf(count int) int {
	return layout.BytesFor(t.SpanBits(count))
}

// NumMembers returns the number of compound members.
func (t *Type) NumMembers() int { return len(t.members) }

// Member returns the i'th member in declaration order.
func (t *Type) Member(i int) Member { return t.members[i] }

// Members returns a copy of the compound's members in declaration order.
func (t *Type) Members() []Member {
	out := make([]Member, len(t.members))
	copy(out, t.members)
	return out
}

// Lookup finds a member by name.
func (t *Type) Lookup(name string) (Member, bool) {
	i, ok := t.index[name]
	if !ok {
		return Member{}, false
	}
	return t.members[i], true
}

func (t *Type) String() string {
	return t.name
}

// Equal reports whether t and o describe the same layout under the same names.
func (t *Type) Equal(o *Type) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil || t.kind != o.kind || t.bits != o.bits {
		return false
	}
	if t.kind != KindCompound {
		return true
	}
	if !strings.EqualFold(t.name, o.name) || len(t.members) != len(o.members) {
		return false
	}
	for i, m := range t.members {
		om := o.members[i]
		if m.Name != om.Name || m.Count != om.Count || !m.Type.Equal(om.Type) {
			return false
		}
	}
	return true
}

func newScalar(name string, code Code, kind Kind) *Type {
	return &Type{name: name, code: code, kind: kind, bits: kind.Bits()}
}

// Built-in scalar types. They are shared by every Registry.
var (
	BoolType  = newScalar("BOOL", Bool, KindBool)
	ByteType  = newScalar("BYTE", Byte, KindU8)
	SintType  = newScalar("SINT", Sint, KindS8)
	WordType  = newScalar("WORD", Word, KindU16)
	IntType   = newScalar("INT", Int, KindS16)
	UintType  = newScalar("UINT", Uint, KindU16)
	DwordType = newScalar("DWORD", Dword, KindU32)
	DintType  = newScalar("DINT", Dint, KindS32)
	UdintType = newScalar("UDINT", Udint, KindU32)
	RealType  = newScalar("REAL", Real, KindF32)
	LwordType = newScalar("LWORD", Lword, KindU64)
	LintType  = newScalar("LINT", Lint, KindS64)
	UlintType = newScalar("ULINT", Ulint, KindU64)
	LrealType = newScalar("LREAL", Lreal, KindF64)
)

var scalars = []*Type{
	BoolType, ByteType, SintType, WordType, IntType, UintType, DwordType,
	DintType, UdintType, RealType, LwordType, LintType, UlintType, LrealType,
}

var scalarsByCode = func() map[Code]*Type {
	m := make(map[Code]*Type, len(scalars))
	for _, t := range scalars {
		m[t.code] = t
	}
	return m
}()

// Scalars returns the built-in scalar types in table order.
func Scalars() []*Type {
	out := make([]*Type, len(scalars))
	copy(out, scalars)
	return out
}
