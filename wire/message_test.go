package wire

import (
	"bytes"
	"errors"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	daxerrors "github.com/wippyai/opendax/errors"
)

func TestWriteRequest(t *testing.T) {
	tests := []struct {
		name string
		req  WriteRequest
	}{
		{"plain", WriteRequest{Handle: 3, Offset: 4096, Data: []byte{1, 2, 3, 4}}},
		{"masked", WriteRequest{Handle: 7, Offset: 8, Data: []byte{0x14, 0}, Mask: []byte{0x1c, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got WriteRequest
			if err := got.Unmarshal(tt.req.Marshal()); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if got.Handle != tt.req.Handle || got.Offset != tt.req.Offset {
				t.Errorf("header = %d@%d, want %d@%d", got.Handle, got.Offset, tt.req.Handle, tt.req.Offset)
			}
			if !bytes.Equal(got.Data, tt.req.Data) || !bytes.Equal(got.Mask, tt.req.Mask) {
				t.Errorf("payload = %x/%x, want %x/%x", got.Data, got.Mask, tt.req.Data, tt.req.Mask)
			}
			if (got.Mask == nil) != (tt.req.Mask == nil) {
				t.Error("mask presence not preserved")
			}
		})
	}
}

func TestWriteRequestMaskLength(t *testing.T) {
	bad := WriteRequest{Handle: 1, Data: []byte{1, 2}, Mask: []byte{0xff}}
	var got WriteRequest
	if err := got.Unmarshal(bad.Marshal()); !errors.Is(err, daxerrors.ErrInvalidData) {
		t.Errorf("err = %v, want invalid data", err)
	}
}

func TestReadRequestSkipsUnknownFields(t *testing.T) {
	b := ReadRequest{Handle: 2, Offset: 16, Size: 6}.Marshal()
	b = protowire.AppendTag(b, 9, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, 0xdeadbeef)
	b = appendBytes(b, 10, []byte("future"))

	var got ReadRequest
	if err := got.Unmarshal(b); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != (ReadRequest{Handle: 2, Offset: 16, Size: 6}) {
		t.Errorf("got %+v", got)
	}
}

func TestTagDeleteMalformed(t *testing.T) {
	var got TagDelete
	err := got.Unmarshal([]byte{0x08})
	if !errors.Is(err, daxerrors.ErrInvalidData) {
		t.Fatalf("err = %v, want invalid data", err)
	}
	var de *daxerrors.Error
	if !errors.As(err, &de) || de.Cause == nil {
		t.Error("parse error should be kept as cause")
	}
}
