// Package layout computes member offsets for compound data types.
//
// # Layout Rules
//
// Members are placed in declaration order with a running bit cursor:
//   - Booleans (and boolean arrays) are one bit per element and continue
//     from the current bit, so consecutive boolean members share bytes.
//   - Every other member starts on the next byte boundary and occupies
//     count * element size bytes. Nested compounds occupy whole bytes.
//
// The compound size is the cursor rounded up to a whole byte.
//
// # Usage
//
//	var p layout.Packer
//	byteOff, bitOff, _ := p.Place(16, 1, false) // UINT
//	byteOff, bitOff, _ = p.Place(1, 10, true)   // BOOL[10]
//	size := p.Bytes()
//
// Place refuses placements that would grow the layout past MaxBits.
//
// This package is internal to types.
package layout
