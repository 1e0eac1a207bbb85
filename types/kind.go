package types

// Kind discriminates the variants of Type.
type Kind uint8

const (
	KindBool Kind = iota
	KindU8
	KindS8
	KindU16
	KindS16
	KindU32
	KindS32
	KindU64
	KindS64
	KindF32
	KindF64
	KindCompound
)

var kindNames = [...]string{
	KindBool:     "bool",
	KindU8:       "u8",
	KindS8:       "s8",
	KindU16:      "u16",
	KindS16:      "s16",
	KindU32:      "u32",
	KindS32:      "s32",
	KindU64:      "u64",
	KindS64:      "s64",
	KindF32:      "f32",
	KindF64:      "f64",
	KindCompound: "compound",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsScalar reports whether k is a built-in atomic kind.
func (k Kind) IsScalar() bool {
	return k < KindCompound
}

// IsInteger reports whether k is a fixed-width integer kind.
func (k Kind) IsInteger() bool {
	return k >= KindU8 && k <= KindS64
}

// IsFloat reports whether k is an IEEE floating point kind.
func (k Kind) IsFloat() bool {
	return k == KindF32 || k == KindF64
}

// IsSigned reports whether k is a signed integer or float kind.
func (k Kind) IsSigned() bool {
	switch k {
	case KindS8, KindS16, KindS32, KindS64, KindF32, KindF64:
		return true
	}
	return false
}

// Bits returns the storage width of a scalar kind, 0 for compounds.
func (k Kind) Bits() int {
	switch k {
	case KindBool:
		return 1
	case KindU8, KindS8:
		return 8
	case KindU16, KindS16:
		return 16
	case KindU32, KindS32, KindF32:
		return 32
	case KindU64, KindS64, KindF64:
		return 64
	}
	return 0
}
