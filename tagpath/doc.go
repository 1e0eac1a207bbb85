// Package tagpath parses tag path expressions and resolves them to
// addresses in server memory.
//
// Grammar:
//
//	path    := segment ('.' member)*
//	segment := ident ('[' index (':' count)? ']')?
//	member  := ident ('[' index ']')?
//
// The first identifier names a tag; each following identifier names a
// member of the previous segment's compound type. An index selects one
// element of an array, a slice [index:count] selects count elements starting
// at index, and a missing index on an array addresses the whole array:
//
//	bool2              all 16 bits of a BOOL[16] tag
//	bool2[2]           one bit; a sequence written here may fill bits 2..15
//	bool2[2:3]         exactly bits 2, 3 and 4
//	dummy3[0].ddd.mem1 a member of the first element of a dingy[] tag
//
// Resolution is pure offset arithmetic over the tag's base offset and the
// member offsets computed when the compound was registered.
package tagpath
