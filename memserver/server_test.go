package memserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/wippyai/opendax"
	daxerrors "github.com/wippyai/opendax/errors"
	"github.com/wippyai/opendax/types"
	"github.com/wippyai/opendax/wire"
)

func newServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	ctx := context.Background()
	s, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(ctx) })
	return s
}

func allocate(t *testing.T, s *Server, name string, typ *types.Type, count int) opendax.TagInfo {
	t.Helper()
	info, err := s.TagAllocate(context.Background(), name, wire.EncodeType(typ), count)
	if err != nil {
		t.Fatalf("TagAllocate(%s): %v", name, err)
	}
	return info
}

func write(s *Server, op opendax.Opcode, req wire.WriteRequest) error {
	_, err := s.Request(context.Background(), op, req.Marshal())
	return err
}

func TestStoreModuleLimits(t *testing.T) {
	b := storeModule(1, 300)
	if !bytes.HasPrefix(b, []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}) {
		t.Fatalf("bad header % x", b[:8])
	}
	// 300 needs a two byte LEB128.
	if !bytes.Contains(b, []byte{0x01, 0x01, 0xac, 0x02}) {
		t.Errorf("limits not encoded: % x", b)
	}
}

func TestAllocateAndLookup(t *testing.T) {
	s := newServer(t, Config{})
	a := allocate(t, s, "bool1", types.BoolType, 1)
	b := allocate(t, s, "d_lint", types.LintType, 3)
	if used := s.Used(); used != b.BaseOffset+24 {
		t.Errorf("Used() = %d, want %d", used, b.BaseOffset+24)
	}

	if a.Handle == 0 || b.Handle == a.Handle {
		t.Errorf("handles %d, %d", a.Handle, b.Handle)
	}
	if a.BaseOffset == 0 || b.BaseOffset%tagAlign != 0 || b.BaseOffset < a.BaseOffset+1 {
		t.Errorf("offsets %d, %d", a.BaseOffset, b.BaseOffset)
	}

	got, err := s.TagLookup(context.Background(), "d_lint")
	if err != nil {
		t.Fatal(err)
	}
	if got.Handle != b.Handle || got.Count != 3 || got.BaseOffset != b.BaseOffset {
		t.Errorf("lookup = %+v, want %+v", got, b)
	}
	typ, err := wire.ImportType(types.NewRegistry(), got.Type)
	if err != nil || typ != types.LintType {
		t.Errorf("lookup type = %v, %v", typ, err)
	}

	if _, err := s.TagLookup(context.Background(), "nope"); !errors.Is(err, daxerrors.ErrUnknownTag) {
		t.Errorf("missing lookup err = %v", err)
	}
}

func TestAllocateErrors(t *testing.T) {
	s := newServer(t, Config{MaxPages: 1})
	allocate(t, s, "dummy", types.UintType, 1)

	tests := []struct {
		name  string
		tag   string
		typ   []byte
		count int
		want  error
	}{
		{"duplicate", "dummy", wire.EncodeType(types.UintType), 1, daxerrors.ErrDuplicateTag},
		{"bad name", "no-dash", wire.EncodeType(types.UintType), 1, daxerrors.ErrInvalidData},
		{"zero count", "z", wire.EncodeType(types.UintType), 0, daxerrors.ErrInvalidData},
		{"bad type", "z", []byte{0xff}, 1, daxerrors.ErrInvalidData},
		{"exhausted", "big", wire.EncodeType(types.LrealType), 9000, daxerrors.ErrTooBig},
		{"count wraps size", "huge", wire.EncodeType(types.LwordType), 1 << 58, daxerrors.ErrTooBig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.TagAllocate(context.Background(), tt.tag, tt.typ, tt.count); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if names := s.TagNames(); len(names) != 1 {
		t.Errorf("tags after failures = %v", names)
	}
}

func TestGrowsMemory(t *testing.T) {
	s := newServer(t, Config{MaxPages: 4})
	info := allocate(t, s, "big", types.LrealType, 20000)
	if s.mem.Size() < info.BaseOffset+160000 {
		t.Errorf("memory size %d too small", s.mem.Size())
	}
	req := wire.WriteRequest{Handle: info.Handle, Offset: info.BaseOffset + 159992, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}}
	if err := write(s, opendax.OpWrite, req); err != nil {
		t.Fatalf("write at end: %v", err)
	}
}

func TestReadWrite(t *testing.T) {
	s := newServer(t, Config{})
	info := allocate(t, s, "d_dint", types.DintType, 2)

	if err := write(s, opendax.OpWrite, wire.WriteRequest{
		Handle: info.Handle, Offset: info.BaseOffset + 4, Data: []byte{0xff, 0xff, 0xff, 0x7f},
	}); err != nil {
		t.Fatal(err)
	}

	resp, err := s.Request(context.Background(), opendax.OpRead,
		wire.ReadRequest{Handle: info.Handle, Offset: info.BaseOffset, Size: 8}.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(resp, []byte{0, 0, 0, 0, 0xff, 0xff, 0xff, 0x7f}) {
		t.Errorf("read % x", resp)
	}
	raw, _ := s.Bytes("d_dint")
	if !bytes.Equal(raw, resp) {
		t.Errorf("Bytes = % x", raw)
	}
}

func TestMaskWrite(t *testing.T) {
	s := newServer(t, Config{})
	info := allocate(t, s, "bool2", types.BoolType, 16)
	if err := write(s, opendax.OpWrite, wire.WriteRequest{
		Handle: info.Handle, Offset: info.BaseOffset, Data: []byte{0xf7, 0xff},
	}); err != nil {
		t.Fatal(err)
	}

	if err := write(s, opendax.OpMaskWrite, wire.WriteRequest{
		Handle: info.Handle, Offset: info.BaseOffset, Data: []byte{0x00}, Mask: []byte{0x1c},
	}); err != nil {
		t.Fatal(err)
	}
	raw, _ := s.Bytes("bool2")
	if !bytes.Equal(raw, []byte{0xe3, 0xff}) {
		t.Errorf("bits = % x, want e3 ff", raw)
	}

	err := write(s, opendax.OpMaskWrite, wire.WriteRequest{Handle: info.Handle, Offset: info.BaseOffset, Data: []byte{1}})
	if !errors.Is(err, daxerrors.ErrInvalidData) {
		t.Errorf("mask write without mask err = %v", err)
	}
}

func TestRequestBounds(t *testing.T) {
	s := newServer(t, Config{})
	a := allocate(t, s, "a", types.DintType, 1)
	b := allocate(t, s, "b", types.DintType, 1)

	tests := []struct {
		name string
		op   opendax.Opcode
		req  []byte
		want error
	}{
		{"read past end", opendax.OpRead, wire.ReadRequest{Handle: a.Handle, Offset: a.BaseOffset + 2, Size: 4}.Marshal(), daxerrors.ErrOutOfBounds},
		{"read before start", opendax.OpRead, wire.ReadRequest{Handle: b.Handle, Offset: b.BaseOffset - 1, Size: 1}.Marshal(), daxerrors.ErrOutOfBounds},
		{"write into neighbour", opendax.OpWrite, wire.WriteRequest{Handle: a.Handle, Offset: b.BaseOffset, Data: []byte{1}}.Marshal(), daxerrors.ErrOutOfBounds},
		{"unknown handle", opendax.OpRead, wire.ReadRequest{Handle: 99, Size: 1}.Marshal(), daxerrors.ErrUnknownTag},
		{"unknown opcode", opendax.Opcode(42), nil, daxerrors.ErrInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Request(context.Background(), tt.op, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTypeCreateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newServer(t, Config{})
	local := types.NewRegistry()
	dopey, err := local.RegisterCompound("dopey", []types.MemberDef{
		{Name: "mem1", Type: types.Uint},
		{Name: "mem2", Type: types.Bool, Count: 10},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Request(ctx, opendax.OpTypeCreate, wire.EncodeType(dopey)); err != nil {
		t.Fatalf("type create: %v", err)
	}
	if _, ok := s.Registry().Lookup("dopey"); !ok {
		t.Fatal("server did not register dopey")
	}
	if _, err := s.Request(ctx, opendax.OpTypeCreate, wire.EncodeType(dopey)); err != nil {
		t.Errorf("identical redefinition should be accepted: %v", err)
	}

	info := allocate(t, s, "dummy2", dopey, 1)
	if _, err := s.Request(ctx, opendax.OpTagDelete, wire.TagDelete{Handle: info.Handle}.Marshal()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.TagLookup(ctx, "dummy2"); !errors.Is(err, daxerrors.ErrUnknownTag) {
		t.Errorf("deleted tag still found: %v", err)
	}
	if _, err := s.Request(ctx, opendax.OpTagDelete, wire.TagDelete{Handle: info.Handle}.Marshal()); !errors.Is(err, daxerrors.ErrUnknownTag) {
		t.Errorf("double delete err = %v", err)
	}
	allocate(t, s, "dummy2", dopey, 1)
}

func TestConcurrentClients(t *testing.T) {
	s := newServer(t, Config{})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("worker%d", i)
			info, err := s.TagAllocate(ctx, name, wire.EncodeType(types.UdintType), 1)
			if err != nil {
				errs <- err
				return
			}
			for n := 0; n < 50; n++ {
				req := wire.WriteRequest{Handle: info.Handle, Offset: info.BaseOffset, Data: []byte{byte(i), 0, 0, byte(n)}}
				if _, err := s.Request(ctx, opendax.OpWrite, req.Marshal()); err != nil {
					errs <- err
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	for i := 0; i < 8; i++ {
		raw, err := s.Bytes(fmt.Sprintf("worker%d", i))
		if err != nil {
			t.Fatal(err)
		}
		if raw[0] != byte(i) || raw[3] != 49 {
			t.Errorf("worker%d = % x", i, raw)
		}
	}
}

func TestNewConfigErrors(t *testing.T) {
	if _, err := New(context.Background(), Config{InitialPages: 5, MaxPages: 2}); !errors.Is(err, daxerrors.ErrInvalidData) {
		t.Errorf("err = %v", err)
	}
}
