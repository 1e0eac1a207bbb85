// Package client is the typed read/write API over a tag server.
//
// A Client owns its type registry and tag cache; nothing is shared between
// clients, and a Client is not safe for concurrent use. Run one client per
// goroutine.
//
//	c := client.New("daxc", transport)
//	if _, err := c.AddTag(ctx, "d_dint", types.Name("dint"), 1, nil); err != nil { ... }
//	err := c.Write(ctx, "d_dint", 2147483648, client.WithClip())
//	v, err := c.Read(ctx, "d_dint") // int32(2147483647)
//
// Errors from the transport are returned unchanged.
package client

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/opendax"
	"github.com/wippyai/opendax/codec"
	"github.com/wippyai/opendax/directory"
	"github.com/wippyai/opendax/tagpath"
	"github.com/wippyai/opendax/types"
	"github.com/wippyai/opendax/wire"
)

// Client reads and writes tags by path.
type Client struct {
	transport opendax.Transport
	registry  *types.Registry
	dir       *directory.Directory
	resolver  *tagpath.Resolver
	encoder   *codec.Encoder
	decoder   *codec.Decoder
	metrics   *directory.Metrics
	log       *zap.Logger
	name      string
	id        uuid.UUID
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used instead of the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithMetrics records tag cache activity in m.
func WithMetrics(m *directory.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client talking to t.
func New(name string, t opendax.Transport, opts ...Option) *Client {
	c := &Client{
		transport: t,
		registry:  types.NewRegistry(),
		encoder:   codec.NewEncoder(),
		decoder:   codec.NewDecoder(),
		name:      name,
		id:        uuid.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = Logger()
	}
	c.log = c.log.With(zap.String("client", name), zap.Stringer("id", c.id))

	dirOpts := []directory.Option{directory.WithLogger(c.log)}
	if c.metrics != nil {
		dirOpts = append(dirOpts, directory.WithMetrics(c.metrics))
	}
	c.dir = directory.New(t, c.registry, dirOpts...)
	c.resolver = tagpath.NewResolver(c.dir)
	return c
}

// Name returns the name the client was created with.
func (c *Client) Name() string { return c.name }

// ID returns the instance id used in log fields.
func (c *Client) ID() uuid.UUID { return c.id }

// Registry returns the client's type registry.
func (c *Client) Registry() *types.Registry { return c.registry }

// Tags returns the tags the client has cached, sorted by name.
func (c *Client) Tags() []*directory.Tag { return c.dir.Tags() }

// AddCDT registers a compound type locally and on the server. When the server
// rejects it the type stays registered locally.
func (c *Client) AddCDT(ctx context.Context, name string, members []types.MemberDef) (*types.Type, error) {
	t, err := c.registry.RegisterCompound(name, members)
	if err != nil {
		return nil, err
	}
	if _, err := c.transport.Request(ctx, opendax.OpTypeCreate, wire.EncodeType(t)); err != nil {
		return nil, err
	}
	c.log.Debug("cdt added", zap.String("type", name), zap.Int("size", t.Size()))
	return t, nil
}

// AddCDTs registers a batch of compound types that may refer to each other
// in any order.
func (c *Client) AddCDTs(ctx context.Context, defs []types.CompoundDef) ([]*types.Type, error) {
	ts, err := c.registry.RegisterAll(defs)
	if err != nil {
		return nil, err
	}
	for _, t := range c.registry.Compounds() {
		if !contains(ts, t) {
			continue
		}
		if _, err := c.transport.Request(ctx, opendax.OpTypeCreate, wire.EncodeType(t)); err != nil {
			return nil, err
		}
		c.log.Debug("cdt added", zap.String("type", t.Name()), zap.Int("size", t.Size()))
	}
	return ts, nil
}

func contains(ts []*types.Type, t *types.Type) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}

// CDT returns the member list of a compound type with member types as codes.
func (c *Client) CDT(ref types.Ref) ([]types.MemberDef, error) {
	return c.registry.Definition(ref)
}

// AddTag creates a tag of count elements. A non-nil initial value is written
// right away; if that write fails the tag is deleted again.
func (c *Client) AddTag(ctx context.Context, name string, ref types.Ref, count int, initial any) (*directory.Tag, error) {
	tag, err := c.dir.Add(ctx, name, ref, count)
	if err != nil {
		return nil, err
	}
	if initial == nil {
		return tag, nil
	}
	if err := c.Write(ctx, name, initial); err != nil {
		if derr := c.dir.Delete(ctx, name); derr != nil {
			c.log.Warn("delete after failed initial write", zap.String("tag", name), zap.Error(derr))
		}
		return nil, err
	}
	return tag, nil
}

// DeleteTag destroys a tag on the server and forgets it.
func (c *Client) DeleteTag(ctx context.Context, name string) error {
	return c.dir.Delete(ctx, name)
}

// Resolve computes the address of path.
func (c *Client) Resolve(ctx context.Context, path string) (tagpath.Address, error) {
	return c.resolver.Resolve(ctx, path)
}

// Read returns the value at path.
func (c *Client) Read(ctx context.Context, path string) (any, error) {
	addr, err := c.Resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	return c.read(ctx, addr)
}

func (c *Client) read(ctx context.Context, addr tagpath.Address) (any, error) {
	req := wire.ReadRequest{Handle: addr.Tag.Handle, Offset: addr.ByteOffset, Size: uint32(addr.Size())}
	data, err := c.transport.Request(ctx, opendax.OpRead, req.Marshal())
	if err != nil {
		return nil, err
	}
	return c.decoder.Decode(data, addr.Region())
}

// WriteOption configures a single write.
type WriteOption func(*writeConfig)

type writeConfig struct {
	policy codec.Policy
}

// WithClip saturates out of range integers instead of failing.
func WithClip() WriteOption {
	return func(w *writeConfig) {
		w.policy = codec.Clip
	}
}

// WithPolicy selects the overflow policy explicitly.
func WithPolicy(p codec.Policy) WriteOption {
	return func(w *writeConfig) {
		w.policy = p
	}
}

// Write stores value at path. Nothing is written unless the whole value
// converts.
func (c *Client) Write(ctx context.Context, path string, value any, opts ...WriteOption) error {
	addr, err := c.Resolve(ctx, path)
	if err != nil {
		return err
	}
	return c.write(ctx, addr, value, opts)
}

func (c *Client) write(ctx context.Context, addr tagpath.Address, value any, opts []WriteOption) error {
	var cfg writeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	patch, err := c.encoder.Encode(value, addr.Region(), cfg.policy)
	if err != nil {
		return err
	}
	if len(patch.Data) == 0 {
		return nil
	}
	if patch.Clipped > 0 {
		c.log.Debug("write clipped",
			zap.String("path", addr.Path),
			zap.Int("values", patch.Clipped),
		)
	}

	req := wire.WriteRequest{Handle: addr.Tag.Handle, Offset: addr.ByteOffset, Data: patch.Data}
	op := opendax.OpWrite
	if !patch.Full() {
		op = opendax.OpMaskWrite
		req.Mask = patch.Mask
	}
	_, err = c.transport.Request(ctx, op, req.Marshal())
	return err
}
