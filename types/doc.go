// Package types defines the data types a tag can hold and the registry that
// resolves them.
//
// The scalar types are fixed: BOOL, the signed and unsigned integers from 8
// to 64 bits, and the REAL/LREAL floats. Their names are case-insensitive
// aliases taken from the OpenDAX type table:
//
//	bool
//	byte  sint                (8 bit, unsigned / signed)
//	word  uint  int           (16 bit)
//	dword udint dint          (32 bit)
//	lword ulint lint          (64 bit)
//	real  lreal               (float32 / float64)
//
// Compound data types (CDTs) are registered per Registry. Member offsets are
// computed once at registration:
//
//	r := types.NewRegistry()
//	dopey, _ := r.RegisterCompound("dopey", []types.MemberDef{
//		{Name: "mem1", Type: types.Uint},
//		{Name: "mem2", Type: types.Name("bool"), Count: 10},
//	})
//	// mem1 at byte 0, mem2 at byte 2 bit 0, dopey.Size() == 4
//
// Consecutive boolean members share bytes; any other member starts on the next
// byte boundary. A Type is immutable once returned.
package types
