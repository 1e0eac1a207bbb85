package opendax

import "context"

// Opcode selects the server operation carried by a Transport request.
type Opcode uint8

const (
	OpRead       Opcode = iota + 1 // payload: wire.ReadRequest, response: raw bytes
	OpWrite                        // payload: wire.WriteRequest without mask
	OpMaskWrite                    // payload: wire.WriteRequest with mask
	OpTypeCreate                   // payload: wire type, response: empty
	OpTagDelete                    // payload: wire.TagDelete
)

var opcodeNames = [...]string{
	OpRead:       "read",
	OpWrite:      "write",
	OpMaskWrite:  "mask-write",
	OpTypeCreate: "type-create",
	OpTagDelete:  "tag-delete",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "unknown"
}

// TagInfo is what the server reports about a tag.
type TagInfo struct {
	// Type is the wire form of the tag's data type, see package wire.
	Type       []byte
	Handle     uint32
	BaseOffset uint32
	Count      int
}

// Transport is the synchronous request/response channel to a tag server.
//
// Errors returned by a Transport are passed to callers of the engine
// unchanged. TagLookup reports a missing tag with an error matching
// errors.ErrUnknownTag; TagAllocate reports an existing name with an
// error matching errors.ErrDuplicateTag.
type Transport interface {
	Request(ctx context.Context, op Opcode, payload []byte) ([]byte, error)
	TagLookup(ctx context.Context, name string) (TagInfo, error)
	TagAllocate(ctx context.Context, name string, typ []byte, count int) (TagInfo, error)
}
