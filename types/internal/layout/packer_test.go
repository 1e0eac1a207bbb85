package layout

import "testing"

func TestAlignTo(t *testing.T) {
	tests := []struct {
		offset, align, want int
	}{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{26, 8, 32},
		{5, 0, 5},
		{5, 1, 5},
	}
	for _, tc := range tests {
		if got := AlignTo(tc.offset, tc.align); got != tc.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", tc.offset, tc.align, got, tc.want)
		}
	}
}

func TestPackerBooleansShareBytes(t *testing.T) {
	var p Packer

	type placement struct {
		elemBits, count   int
		packed            bool
		wantByte, wantBit int
	}
	steps := []placement{
		{1, 3, true, 0, 0},   // BOOL[3]
		{1, 1, true, 0, 3},   // BOOL
		{1, 6, true, 0, 4},   // BOOL[6] crosses into byte 1
		{16, 1, false, 2, 0}, // UINT aligns to the next byte
		{1, 1, true, 4, 0},   // BOOL after UINT
		{8, 2, false, 5, 0},  // BYTE[2]
	}
	for i, s := range steps {
		gotByte, gotBit, ok := p.Place(s.elemBits, s.count, s.packed)
		if !ok || gotByte != s.wantByte || gotBit != s.wantBit {
			t.Errorf("step %d: Place = (%d, %d), want (%d, %d)", i, gotByte, gotBit, s.wantByte, s.wantBit)
		}
	}
	if p.Bits() != 56 {
		t.Errorf("Bits() = %d, want 56", p.Bits())
	}
	if p.Bytes() != 7 {
		t.Errorf("Bytes() = %d, want 7", p.Bytes())
	}
}

func TestPackerTrailingBitsRoundUp(t *testing.T) {
	var p Packer
	p.Place(16, 1, false)
	p.Place(1, 10, true)
	if p.Bits() != 26 {
		t.Errorf("Bits() = %d, want 26", p.Bits())
	}
	if p.Bytes() != 4 {
		t.Errorf("Bytes() = %d, want 4", p.Bytes())
	}
}

func TestPackerRejectsOverflow(t *testing.T) {
	tests := []struct {
		name            string
		elemBits, count int
	}{
		{"wraps", 64, 1 << 58},
		{"past max", 8, MaxBits/8 + 1},
		{"negative count", 8, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Packer
			p.Place(1, 3, true)
			if _, _, ok := p.Place(tt.elemBits, tt.count, false); ok {
				t.Fatal("Place accepted an oversized member")
			}
			if p.Bits() != 3 {
				t.Errorf("Bits() = %d after refused Place, want 3", p.Bits())
			}
		})
	}

	var p Packer
	if _, _, ok := p.Place(8, MaxBits/8, false); !ok {
		t.Fatal("Place refused a layout that fits")
	}
	if _, _, ok := p.Place(1, 8, true); ok {
		t.Error("Place accepted a member past MaxBits")
	}
}

func TestBytesFor(t *testing.T) {
	for bits, want := range map[int]int{0: 0, 1: 1, 8: 1, 9: 2, 64: 8} {
		if got := BytesFor(bits); got != want {
			t.Errorf("BytesFor(%d) = %d, want %d", bits, got, want)
		}
	}
}
