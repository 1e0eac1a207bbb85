// Package memserver is an in-process tag server.
//
// Tag storage is the linear memory of a minimal WebAssembly module run by
// wazero. Tags are carved from it with a bump allocator aligned to 8 bytes
// and addressed by uint32 handles. Memory of deleted tags is not reused.
//
// A Server implements opendax.Transport and is safe for concurrent use by
// any number of clients.
package memserver

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/opendax"
	"github.com/wippyai/opendax/codec"
	"github.com/wippyai/opendax/errors"
	"github.com/wippyai/opendax/internal/ident"
	"github.com/wippyai/opendax/memserver/internal/handle"
	"github.com/wippyai/opendax/types"
	"github.com/wippyai/opendax/wire"
)

// Config holds configuration for server creation.
type Config struct {
	// InitialPages is the memory reserved at start in 64KB pages.
	// 0 means 1.
	InitialPages uint32

	// MaxPages caps tag storage in 64KB pages.
	// 0 means 256 (16MB).
	MaxPages uint32
}

const (
	defaultMaxPages = 256
	tagAlign        = 8
	// firstOffset keeps address 0 unused so a zero BaseOffset is never valid.
	firstOffset = tagAlign
	maxTagBits  = (1<<32 - 1) * 8
)

// Server stores tags for in-process clients.
type Server struct {
	mem      *linearMemory
	registry *types.Registry
	tags     *handle.Table[*record]
	byName   map[string]uint32
	log      *zap.Logger
	next     uint32
	mu       sync.Mutex
}

type record struct {
	typ    *types.Type
	name   string
	count  int
	offset uint32
	size   uint32
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used instead of the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// New starts a server with empty storage.
func New(ctx context.Context, cfg Config, opts ...Option) (*Server, error) {
	if cfg.InitialPages == 0 {
		cfg.InitialPages = 1
	}
	if cfg.MaxPages == 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.InitialPages > cfg.MaxPages {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Detail("initial pages %d exceed max pages %d", cfg.InitialPages, cfg.MaxPages).
			Build()
	}

	mem, err := newLinearMemory(ctx, cfg.InitialPages, cfg.MaxPages)
	if err != nil {
		return nil, err
	}
	s := &Server{
		mem:      mem,
		registry: types.NewRegistry(),
		tags:     handle.New[*record](),
		byName:   make(map[string]uint32),
		next:     firstOffset,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = Logger()
	}
	return s, nil
}

// Close releases the wazero runtime. The server must not be used afterwards.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem.Close(ctx)
}

// Registry returns the server's type registry. Callers must not modify it.
func (s *Server) Registry() *types.Registry {
	return s.registry
}

// TagAllocate creates a tag of count elements of the wire type typ.
func (s *Server) TagAllocate(_ context.Context, name string, typ []byte, count int) (opendax.TagInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !ident.Valid(name) {
		return opendax.TagInfo{}, errors.InvalidData(errors.PhaseTransport, []string{name}, "invalid tag name")
	}
	if _, ok := s.byName[name]; ok {
		return opendax.TagInfo{}, errors.DuplicateTag(errors.PhaseTransport, name)
	}
	if count < 1 {
		return opendax.TagInfo{}, errors.InvalidData(errors.PhaseTransport, []string{name},
			fmt.Sprintf("invalid count %d", count))
	}
	t, err := wire.ImportType(s.registry, typ)
	if err != nil {
		return opendax.TagInfo{}, err
	}

	if uint64(count) > maxTagBits/uint64(t.Stride()) {
		return opendax.TagInfo{}, errors.New(errors.PhaseTransport, errors.KindTooBig).
			Path(name).
			Detail("%d elements of %s do not fit the address space", count, t.Name()).
			Build()
	}
	size := uint64(t.SizeOf(count))
	offset := (uint64(s.next) + tagAlign - 1) &^ (tagAlign - 1)
	if offset+size > 1<<32-1 {
		return opendax.TagInfo{}, errors.New(errors.PhaseTransport, errors.KindTooBig).
			Path(name).
			Detail("tag of %d bytes does not fit the address space", size).
			Build()
	}
	if err := s.mem.Ensure(offset + size); err != nil {
		return opendax.TagInfo{}, err
	}

	rec := &record{typ: t, name: name, count: count, offset: uint32(offset), size: uint32(size)}
	h := s.tags.Insert(rec)
	s.byName[name] = h
	s.next = uint32(offset + size)

	s.log.Debug("tag allocated",
		zap.String("tag", name),
		zap.String("type", t.Name()),
		zap.Int("count", count),
		zap.Uint32("handle", h),
		zap.Uint32("offset", rec.offset),
		zap.Uint32("size", rec.size),
	)
	return s.info(h, rec), nil
}

// TagLookup reports the tag called name.
func (s *Server) TagLookup(_ context.Context, name string) (opendax.TagInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.byName[name]
	if !ok {
		return opendax.TagInfo{}, errors.UnknownTag(errors.PhaseTransport, name)
	}
	rec, _ := s.tags.Get(h)
	return s.info(h, rec), nil
}

func (s *Server) info(h uint32, rec *record) opendax.TagInfo {
	return opendax.TagInfo{
		Type:       wire.EncodeType(rec.typ),
		Handle:     h,
		BaseOffset: rec.offset,
		Count:      rec.count,
	}
}

// Request executes one opcode.
func (s *Server) Request(_ context.Context, op opendax.Opcode, payload []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch op {
	case opendax.OpRead:
		var req wire.ReadRequest
		if err := req.Unmarshal(payload); err != nil {
			return nil, err
		}
		if _, err := s.span(req.Handle, req.Offset, req.Size); err != nil {
			return nil, err
		}
		return s.mem.Read(req.Offset, req.Size)

	case opendax.OpWrite, opendax.OpMaskWrite:
		var req wire.WriteRequest
		if err := req.Unmarshal(payload); err != nil {
			return nil, err
		}
		if (op == opendax.OpMaskWrite) != (req.Mask != nil) {
			return nil, errors.InvalidData(errors.PhaseTransport, nil, op.String()+" with wrong mask presence")
		}
		if _, err := s.span(req.Handle, req.Offset, uint32(len(req.Data))); err != nil {
			return nil, err
		}
		if req.Mask == nil {
			return nil, s.mem.Write(req.Offset, req.Data)
		}
		cur, err := s.mem.Read(req.Offset, uint32(len(req.Data)))
		if err != nil {
			return nil, err
		}
		codec.Merge(cur, req.Data, req.Mask)
		return nil, s.mem.Write(req.Offset, cur)

	case opendax.OpTypeCreate:
		t, err := wire.ImportType(s.registry, payload)
		if err != nil {
			return nil, err
		}
		s.log.Debug("type created", zap.String("type", t.Name()))
		return nil, nil

	case opendax.OpTagDelete:
		var req wire.TagDelete
		if err := req.Unmarshal(payload); err != nil {
			return nil, err
		}
		rec, ok := s.tags.Remove(req.Handle)
		if !ok {
			return nil, errors.UnknownTag(errors.PhaseTransport, fmt.Sprintf("#%d", req.Handle))
		}
		delete(s.byName, rec.name)
		s.log.Debug("tag deleted", zap.String("tag", rec.name), zap.Uint32("handle", req.Handle))
		return nil, nil
	}
	return nil, errors.InvalidData(errors.PhaseTransport, nil, fmt.Sprintf("unsupported opcode %d", op))
}

// span checks that [offset, offset+length) lies inside the tag behind h.
func (s *Server) span(h, offset, length uint32) (*record, error) {
	rec, ok := s.tags.Get(h)
	if !ok {
		return nil, errors.UnknownTag(errors.PhaseTransport, fmt.Sprintf("#%d", h))
	}
	end := uint64(offset) + uint64(length)
	if offset < rec.offset || end > uint64(rec.offset)+uint64(rec.size) {
		return nil, errors.New(errors.PhaseTransport, errors.KindOutOfBounds).
			Path(rec.name).
			Value(offset).
			Detail("range [%d:%d] outside tag storage [%d:%d]", offset, end, rec.offset, rec.offset+rec.size).
			Build()
	}
	return rec, nil
}

// Bytes returns a copy of the storage of the named tag.
func (s *Server) Bytes(name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.byName[name]
	if !ok {
		return nil, errors.UnknownTag(errors.PhaseTransport, name)
	}
	rec, _ := s.tags.Get(h)
	return s.mem.Read(rec.offset, rec.size)
}

// TagNames returns the names of all live tags in sorted order.
func (s *Server) TagNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Used returns the bytes handed out by the allocator so far.
func (s *Server) Used() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

var _ opendax.Transport = (*Server)(nil)
