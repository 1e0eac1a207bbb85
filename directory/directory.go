// Package directory caches the tags a client has touched.
//
// A Directory maps tag names to their server handle, data type, element
// count and base offset. Entries are added by Add or by the first Lookup of a
// tag created elsewhere, and live until Delete; there is no other eviction, so
// a cache grows with the number of distinct tags its client uses.
package directory

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/wippyai/opendax"
	"github.com/wippyai/opendax/errors"
	"github.com/wippyai/opendax/internal/ident"
	"github.com/wippyai/opendax/types"
	"github.com/wippyai/opendax/wire"
)

// Tag is a named, typed region of server memory.
type Tag struct {
	Type       *types.Type
	Name       string
	Count      int
	Handle     uint32
	BaseOffset uint32
}

// Size returns the bytes the tag occupies on the server.
func (t *Tag) Size() int {
	return t.Type.SizeOf(t.Count)
}

// IsArray reports whether the tag holds more than one element.
func (t *Tag) IsArray() bool {
	return t.Count > 1
}

func (t *Tag) String() string {
	if t.IsArray() {
		return fmt.Sprintf("%s %s[%d]", t.Name, t.Type.Name(), t.Count)
	}
	return t.Name + " " + t.Type.Name()
}

// Directory is a per-client tag cache. It is not safe for concurrent use.
type Directory struct {
	transport opendax.Transport
	registry  *types.Registry
	metrics   *Metrics
	log       *zap.Logger
	tags      map[string]*Tag
}

// Option configures a Directory.
type Option func(*Directory)

// WithLogger sets the logger used instead of the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Directory) {
		d.log = l
	}
}

// WithMetrics records cache activity in m.
func WithMetrics(m *Metrics) Option {
	return func(d *Directory) {
		d.metrics = m
	}
}

// New creates an empty directory. Types of tags found on the server are
// imported into registry.
func New(t opendax.Transport, registry *types.Registry, opts ...Option) *Directory {
	d := &Directory{
		transport: t,
		registry:  registry,
		tags:      make(map[string]*Tag),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = Logger()
	}
	return d
}

// Add allocates a new tag on the server and caches it.
func (d *Directory) Add(ctx context.Context, name string, ref types.Ref, count int) (*Tag, error) {
	if !ident.Valid(name) {
		return nil, errors.InvalidData(errors.PhaseLookup, []string{name}, "invalid tag name")
	}
	if count < 1 {
		return nil, errors.InvalidData(errors.PhaseLookup, []string{name}, fmt.Sprintf("invalid count %d", count))
	}
	if _, ok := d.tags[name]; ok {
		return nil, errors.DuplicateTag(errors.PhaseLookup, name)
	}
	typ, err := d.registry.Resolve(ref)
	if err != nil {
		return nil, err
	}

	info, err := d.transport.TagAllocate(ctx, name, wire.EncodeType(typ), count)
	if err != nil {
		return nil, err
	}
	tag := &Tag{
		Name:       name,
		Type:       typ,
		Count:      count,
		Handle:     info.Handle,
		BaseOffset: info.BaseOffset,
	}
	d.tags[name] = tag
	d.metrics.allocated()
	d.log.Debug("tag allocated",
		zap.String("tag", name),
		zap.String("type", typ.Name()),
		zap.Int("count", count),
		zap.Uint32("handle", info.Handle),
	)
	return tag, nil
}

// Lookup returns the cached tag, asking the server on a miss.
func (d *Directory) Lookup(ctx context.Context, name string) (*Tag, error) {
	if tag, ok := d.tags[name]; ok {
		d.metrics.lookup(resultHit)
		return tag, nil
	}

	d.log.Debug("tag cache miss", zap.String("tag", name))
	info, err := d.transport.TagLookup(ctx, name)
	if err != nil {
		d.metrics.lookup(resultError)
		return nil, err
	}
	if info.Count < 1 {
		d.metrics.lookup(resultError)
		return nil, errors.InvalidData(errors.PhaseLookup, []string{name},
			fmt.Sprintf("server reports count %d", info.Count))
	}
	typ, err := wire.ImportType(d.registry, info.Type)
	if err != nil {
		d.metrics.lookup(resultError)
		return nil, err
	}
	d.metrics.lookup(resultMiss)

	tag := &Tag{
		Name:       name,
		Type:       typ,
		Count:      info.Count,
		Handle:     info.Handle,
		BaseOffset: info.BaseOffset,
	}
	d.tags[name] = tag
	d.metrics.imported()
	return tag, nil
}

// Delete destroys a tag on the server and drops it from the cache.
func (d *Directory) Delete(ctx context.Context, name string) error {
	tag, err := d.Lookup(ctx, name)
	if err != nil {
		return err
	}
	if _, err := d.transport.Request(ctx, opendax.OpTagDelete, wire.TagDelete{Handle: tag.Handle}.Marshal()); err != nil {
		return err
	}
	delete(d.tags, name)
	d.metrics.deleted()
	d.log.Debug("tag deleted", zap.String("tag", name), zap.Uint32("handle", tag.Handle))
	return nil
}

// Cached returns the cached tag without contacting the server.
func (d *Directory) Cached(name string) (*Tag, bool) {
	tag, ok := d.tags[name]
	return tag, ok
}

// Tags returns the cached tags sorted by name.
func (d *Directory) Tags() []*Tag {
	out := make([]*Tag, 0, len(d.tags))
	for _, t := range d.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of cached tags.
func (d *Directory) Len() int {
	return len(d.tags)
}
