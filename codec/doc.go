// Package codec converts between Go values and the binary layout of tag data.
//
// Encoding and decoding dispatch on the tag's data type, never on the Go
// value's shape, so a three element []any written to a DINT[3] region is an
// array while the same slice written to a three member compound fills its
// members in order.
//
// # Values
//
// Integers accept every Go integer kind, *big.Int, bool and integral floats.
// Booleans accept bool, numbers (non-zero is true) and strings, where only
// the literal "0" is false. Floats accept any number. Compounds accept a
// map[string]any, a Record or a positional sequence. Arrays accept []any or
// any other slice.
//
// Decoding produces bool, the exact-width Go integer of the tag type
// (uint8, int16, ..., uint64), float32 or float64, []any for arrays and
// Record for compounds.
//
// # Overflow
//
// Under Strict an integer outside the range of its type fails with an
// overflow error. Under Clip it saturates to the nearest bound. Floats are
// never clipped.
//
// # Patches
//
// Encode returns a Patch holding the new bytes and a mask of the bits that
// were written. Bits outside the mask, such as neighbouring booleans or
// compound members missing from a map, must keep their stored value. A
// failed Encode returns no patch at all.
//
// All multi-byte values are little-endian.
package codec
