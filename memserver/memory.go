package memserver

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/opendax/errors"
)

const (
	pageSize   = 65536
	memoryName = "tags"
)

// storeModule returns a wasm binary with no code and a single exported
// memory named "tags" with the given page limits.
func storeModule(minPages, maxPages uint32) []byte {
	var limits []byte
	limits = append(limits, 0x01) // min and max present
	limits = appendULEB(limits, minPages)
	limits = appendULEB(limits, maxPages)

	memSec := append([]byte{0x01}, limits...)

	exportSec := []byte{0x01, byte(len(memoryName))}
	exportSec = append(exportSec, memoryName...)
	exportSec = append(exportSec, 0x02, 0x00) // memory 0

	b := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	b = appendSection(b, 5, memSec)
	b = appendSection(b, 7, exportSec)
	return b
}

func appendSection(b []byte, id byte, content []byte) []byte {
	b = append(b, id)
	b = appendULEB(b, uint32(len(content)))
	return append(b, content...)
}

func appendULEB(b []byte, v uint32) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b = append(b, c|0x80)
			continue
		}
		return append(b, c)
	}
}

// linearMemory is tag storage backed by a wazero memory instance.
type linearMemory struct {
	runtime wazero.Runtime
	mem     api.Memory
	max     uint32
}

func newLinearMemory(ctx context.Context, minPages, maxPages uint32) (*linearMemory, error) {
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithMemoryLimitPages(maxPages))

	compiled, err := rt.CompileModule(ctx, storeModule(minPages, maxPages))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("compile store module: %w", err)
	}
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(memoryName))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("instantiate store module: %w", err)
	}
	mem := mod.ExportedMemory(memoryName)
	if mem == nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("store module exports no memory %q", memoryName)
	}
	return &linearMemory{runtime: rt, mem: mem, max: maxPages}, nil
}

func (m *linearMemory) Size() uint32 {
	return m.mem.Size()
}

// Ensure grows the memory until it holds at least n bytes.
func (m *linearMemory) Ensure(n uint64) error {
	have := uint64(m.mem.Size())
	if n <= have {
		return nil
	}
	delta := (n - have + pageSize - 1) / pageSize
	if have/pageSize+delta > uint64(m.max) {
		return errors.New(errors.PhaseTransport, errors.KindTooBig).
			Value(n).
			Detail("tag storage exhausted: need %d bytes, limit %d pages", n, m.max).
			Build()
	}
	if _, ok := m.mem.Grow(uint32(delta)); !ok {
		return errors.New(errors.PhaseTransport, errors.KindTooBig).
			Value(n).
			Detail("grow tag storage by %d pages failed", delta).
			Build()
	}
	return nil
}

// Read returns a copy of length bytes at offset.
func (m *linearMemory) Read(offset, length uint32) ([]byte, error) {
	view, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseTransport, offset, length, m.mem.Size())
	}
	out := make([]byte, length)
	copy(out, view)
	return out, nil
}

func (m *linearMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseTransport, offset, uint32(len(data)), m.mem.Size())
	}
	return nil
}

func (m *linearMemory) Close(ctx context.Context) error {
	return m.runtime.Close(ctx)
}
