package wire

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/wippyai/opendax/errors"
)

// ReadRequest asks for size bytes at an absolute offset inside a tag.
type ReadRequest struct {
	Handle uint32
	Offset uint32
	Size   uint32
}

// WriteRequest stores Data at an absolute offset inside a tag. When Mask is
// set only the bits it marks are replaced.
type WriteRequest struct {
	Data   []byte
	Mask   []byte
	Handle uint32
	Offset uint32
}

// TagDelete names a tag to destroy.
type TagDelete struct {
	Handle uint32
}

func appendUint(b []byte, num protowire.Number, v uint32) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// Marshal encodes the request.
func (r ReadRequest) Marshal() []byte {
	b := appendUint(nil, 1, r.Handle)
	b = appendUint(b, 2, r.Offset)
	return appendUint(b, 3, r.Size)
}

// Unmarshal decodes a request produced by Marshal.
func (r *ReadRequest) Unmarshal(data []byte) error {
	*r = ReadRequest{}
	return walk(data, "read request", func(num protowire.Number, typ protowire.Type, v uint64, _ []byte) bool {
		if num <= 3 && typ != protowire.VarintType {
			return false
		}
		switch num {
		case 1:
			r.Handle = uint32(v)
		case 2:
			r.Offset = uint32(v)
		case 3:
			r.Size = uint32(v)
		}
		return true
	})
}

// Marshal encodes the request.
func (r WriteRequest) Marshal() []byte {
	b := appendUint(nil, 1, r.Handle)
	b = appendUint(b, 2, r.Offset)
	b = appendBytes(b, 3, r.Data)
	if r.Mask != nil {
		b = appendBytes(b, 4, r.Mask)
	}
	return b
}

// Unmarshal decodes a request produced by Marshal.
func (r *WriteRequest) Unmarshal(data []byte) error {
	*r = WriteRequest{}
	err := walk(data, "write request", func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) bool {
		switch {
		case num == 1 && typ == protowire.VarintType:
			r.Handle = uint32(v)
		case num == 2 && typ == protowire.VarintType:
			r.Offset = uint32(v)
		case num == 3 && typ == protowire.BytesType:
			r.Data = raw
		case num == 4 && typ == protowire.BytesType:
			r.Mask = raw
		case num <= 4:
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	if r.Mask != nil && len(r.Mask) != len(r.Data) {
		return errors.InvalidData(errors.PhaseTransport, nil, "write mask length differs from data")
	}
	return nil
}

// Marshal encodes the request.
func (r TagDelete) Marshal() []byte {
	return appendUint(nil, 1, r.Handle)
}

// Unmarshal decodes a request produced by Marshal.
func (r *TagDelete) Unmarshal(data []byte) error {
	*r = TagDelete{}
	return walk(data, "tag delete", func(num protowire.Number, typ protowire.Type, v uint64, _ []byte) bool {
		if num == 1 {
			if typ != protowire.VarintType {
				return false
			}
			r.Handle = uint32(v)
		}
		return true
	})
}

// walk calls fn for every varint or length-delimited field of data. Other
// wire types are skipped. fn returns false to reject a field.
func walk(data []byte, what string, fn func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) bool) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return malformed(what, n)
		}
		data = data[n:]

		var (
			v   uint64
			raw []byte
		)
		switch typ {
		case protowire.VarintType:
			v, n = protowire.ConsumeVarint(data)
		case protowire.BytesType:
			raw, n = protowire.ConsumeBytes(data)
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return malformed(what, n)
			}
			data = data[n:]
			continue
		}
		if n < 0 {
			return malformed(what, n)
		}
		data = data[n:]
		if !fn(num, typ, v, raw) {
			return errors.InvalidData(errors.PhaseTransport, nil, "unexpected wire type in "+what)
		}
	}
	return nil
}

func malformed(what string, n int) error {
	return errors.New(errors.PhaseTransport, errors.KindInvalidData).
		Detail("malformed %s", what).
		Cause(protowire.ParseError(n)).
		Build()
}
