package wire

import (
	"errors"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	daxerrors "github.com/wippyai/opendax/errors"
	"github.com/wippyai/opendax/types"
)

func dingyRegistry(t *testing.T) *types.Registry {
	t.Helper()
	r := types.NewRegistry()
	_, err := r.RegisterAll([]types.CompoundDef{
		{Name: "dopey", Members: []types.MemberDef{
			{Name: "mem1", Type: types.Uint},
			{Name: "mem2", Type: types.Bool, Count: 10},
		}},
		{Name: "dingy", Members: []types.MemberDef{
			{Name: "ddd", Type: types.Name("dopey")},
			{Name: "mem3", Type: types.Bool, Count: 16},
		}},
	})
	if err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	return r
}

func TestImportTypeRegistersMembersFirst(t *testing.T) {
	src := dingyRegistry(t)
	dingy, _ := src.Lookup("dingy")

	dst := types.NewRegistry()
	got, err := ImportType(dst, EncodeType(dingy))
	if err != nil {
		t.Fatalf("ImportType: %v", err)
	}
	if !got.Equal(dingy) {
		t.Errorf("imported %v does not match source", got)
	}
	if got.Size() != dingy.Size() {
		t.Errorf("Size = %d, want %d", got.Size(), dingy.Size())
	}
	if _, ok := dst.Lookup("dopey"); !ok {
		t.Error("nested compound was not registered")
	}

	again, err := ImportType(dst, EncodeType(dingy))
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if again != got {
		t.Error("second import should resolve to the registered type")
	}
	if n := len(dst.Compounds()); n != 2 {
		t.Errorf("%d compounds after re-import, want 2", n)
	}
}

func TestImportScalar(t *testing.T) {
	r := types.NewRegistry()
	got, err := ImportType(r, EncodeType(types.LintType))
	if err != nil {
		t.Fatalf("ImportType: %v", err)
	}
	if got != types.LintType {
		t.Errorf("got %v, want LINT", got)
	}
}

func TestImportTypeErrors(t *testing.T) {
	src := dingyRegistry(t)
	dingy, _ := src.Lookup("dingy")

	conflicting := types.NewRegistry()
	if _, err := conflicting.RegisterCompound("dopey", []types.MemberDef{
		{Name: "mem1", Type: types.Int},
	}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		r    *types.Registry
		data []byte
		want error
	}{
		{"conflicting definition", conflicting, EncodeType(dingy), daxerrors.ErrTypeMismatch},
		{"unknown scalar code", types.NewRegistry(), appendUint(nil, 1, 0x7f), daxerrors.ErrUnknownType},
		{"truncated", types.NewRegistry(), EncodeType(dingy)[:5], daxerrors.ErrInvalidData},
		{"wrong wire type", types.NewRegistry(), appendBytes(nil, 1, []byte("x")), daxerrors.ErrInvalidData},
		{"compound without members", types.NewRegistry(), appendUint(nil, 1, uint32(types.CustomFlag)), daxerrors.ErrInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ImportType(tt.r, tt.data); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func compoundWithCount(count uint64) []byte {
	var mb []byte
	mb = appendBytes(mb, 1, []byte("a"))
	mb = appendBytes(mb, 2, EncodeType(types.LwordType))
	mb = protowire.AppendTag(mb, 3, protowire.VarintType)
	mb = protowire.AppendVarint(mb, count)
	b := appendUint(nil, 1, uint32(types.CustomFlag))
	b = appendBytes(b, 2, []byte("huge"))
	return appendBytes(b, 3, mb)
}

func TestImportTypeMemberCount(t *testing.T) {
	tests := []struct {
		name  string
		count uint64
	}{
		{"varint past int32", 1 << 60},
		{"layout past max", 1 << 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := types.NewRegistry()
			if _, err := ImportType(r, compoundWithCount(tt.count)); !errors.Is(err, daxerrors.ErrInvalidData) {
				t.Fatalf("err = %v, want invalid data", err)
			}
			if _, ok := r.Lookup("huge"); ok {
				t.Error("oversized compound was registered")
			}
		})
	}

	code := protowire.AppendTag(nil, 1, protowire.VarintType)
	code = protowire.AppendVarint(code, 1<<40)
	if _, err := DecodeType(code); !errors.Is(err, daxerrors.ErrInvalidData) {
		t.Errorf("wide type code: err = %v, want invalid data", err)
	}
}

func TestDecodeTypeDepthLimit(t *testing.T) {
	data := EncodeType(types.BoolType)
	for i := 0; i <= MaxDepth+1; i++ {
		var mb []byte
		mb = appendBytes(mb, 1, []byte("m"))
		mb = appendBytes(mb, 2, data)
		data = appendBytes(appendUint(nil, 1, uint32(types.CustomFlag)), 3, mb)
	}
	if _, err := DecodeType(data); !errors.Is(err, daxerrors.ErrInvalidData) {
		t.Errorf("err = %v, want invalid data", err)
	}
}
