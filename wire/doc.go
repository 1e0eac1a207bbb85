// Package wire encodes the payloads exchanged with a tag server.
//
// All messages use the protobuf wire format (varints and length-delimited
// fields) so they can be decoded with any protobuf tooling. Field numbers:
//
//	Type         1: code  2: name  3: repeated Member
//	Member       1: name  2: Type  3: count
//	ReadRequest  1: handle  2: offset  3: size
//	WriteRequest 1: handle  2: offset  3: data  4: mask
//	TagDelete    1: handle
//
// A Type carries its complete member tree, so a receiver can rebuild a
// compound type without further round trips. Compound codes are local to the
// registry that produced them; receivers match compounds by name.
package wire
