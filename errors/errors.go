package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRegister  Phase = "register"  // type registration
	PhaseResolve   Phase = "resolve"   // tag path resolution
	PhaseEncode    Phase = "encode"    // Go to tag bytes
	PhaseDecode    Phase = "decode"    // tag bytes to Go
	PhaseLookup    Phase = "lookup"    // tag directory
	PhaseTransport Phase = "transport" // server round trip
	PhaseConfig    Phase = "config"    // schema loading
)

// Kind categorizes the error
type Kind string

const (
	KindUnknownTag    Kind = "unknown_tag"
	KindUnknownType   Kind = "unknown_type"
	KindDuplicateTag  Kind = "duplicate_tag"
	KindDuplicateType Kind = "duplicate_type"
	KindRecursiveType Kind = "recursive_type"
	KindInvalidPath   Kind = "invalid_path"
	KindRange         Kind = "range"
	KindOverflow      Kind = "overflow"
	KindTooBig        Kind = "too_big"
	KindTransport     Kind = "transport"
	KindTypeMismatch  Kind = "type_mismatch"
	KindInvalidData   Kind = "invalid_data"
	KindOutOfBounds   Kind = "out_of_bounds"
)

// Sentinels for errors.Is. A sentinel has no phase and matches its kind in any phase.
var (
	ErrUnknownTag    = &Error{Kind: KindUnknownTag}
	ErrUnknownType   = &Error{Kind: KindUnknownType}
	ErrDuplicateTag  = &Error{Kind: KindDuplicateTag}
	ErrDuplicateType = &Error{Kind: KindDuplicateType}
	ErrRecursiveType = &Error{Kind: KindRecursiveType}
	ErrInvalidPath   = &Error{Kind: KindInvalidPath}
	ErrRange         = &Error{Kind: KindRange}
	ErrOverflow      = &Error{Kind: KindOverflow}
	ErrTooBig        = &Error{Kind: KindTooBig}
	ErrTransport     = &Error{Kind: KindTransport}
	ErrTypeMismatch  = &Error{Kind: KindTypeMismatch}
	ErrInvalidData   = &Error{Kind: KindInvalidData}
	ErrOutOfBounds   = &Error{Kind: KindOutOfBounds}
)

// Error is the structured error type used throughout the engine
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	GoType  string
	TagType string
	Detail  string
	Path    []string
}

// Error renders "phase: kind at a.b.c (go type into tag type): detail: cause",
// leaving out the parts that are empty.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Phase != "" {
		fmt.Fprintf(&b, "%s: ", e.Phase)
	}
	b.WriteString(string(e.Kind))
	if len(e.Path) > 0 {
		fmt.Fprintf(&b, " at %s", strings.Join(e.Path, "."))
	}
	switch {
	case e.GoType != "" && e.TagType != "":
		fmt.Fprintf(&b, " (%s into %s)", e.GoType, e.TagType)
	case e.GoType != "":
		fmt.Fprintf(&b, " (%s)", e.GoType)
	case e.TagType != "":
		fmt.Fprintf(&b, " (%s)", e.TagType)
	}
	for _, s := range []string{e.Detail, causeText(e.Cause)} {
		if s != "" {
			b.WriteString(": ")
			b.WriteString(s)
		}
	}
	return b.String()
}

func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Kinds must be equal; the
// phase must be equal too unless target has none.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e.Kind != t.Kind {
		return false
	}
	return t.Phase == "" || e.Phase == t.Phase
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

// Builder assembles an *Error one field at a time.
type Builder struct {
	e *Error
}

// New starts an error of the given phase and kind.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{e: &Error{Phase: phase, Kind: kind}}
}

// Path sets the location, one element per path segment.
func (b *Builder) Path(path ...string) *Builder {
	b.e.Path = path
	return b
}

func (b *Builder) GoType(t string) *Builder {
	b.e.GoType = t
	return b
}

func (b *Builder) TagType(t string) *Builder {
	b.e.TagType = t
	return b
}

func (b *Builder) Value(v any) *Builder {
	b.e.Value = v
	return b
}

func (b *Builder) Cause(err error) *Builder {
	b.e.Cause = err
	return b
}

// Detail sets the message. With args, msg is a format string.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	b.e.Detail = msg
	return b
}

// Build returns the error. The builder must not be reused.
func (b *Builder) Build() *Error {
	return b.e
}

// TypeMismatch reports a Go value that cannot be stored as tagType.
func TypeMismatch(phase Phase, path []string, goType, tagType string) *Error {
	return New(phase, KindTypeMismatch).Path(path...).GoType(goType).TagType(tagType).Build()
}

// Overflow reports an integer outside the range of targetType.
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return New(phase, KindOverflow).
		Path(path...).
		TagType(targetType).
		Value(value).
		Detail("value %v overflows %s", value, targetType).
		Build()
}

// TooBig reports a sequence longer than its destination.
func TooBig(phase Phase, path []string, length, capacity int) *Error {
	return New(phase, KindTooBig).
		Path(path...).
		Value(length).
		Detail("%d elements exceed capacity %d", length, capacity).
		Build()
}

// OutOfRange reports an index, or a slice of count elements, past the end of
// an array of capacity elements.
func OutOfRange(phase Phase, path []string, index, count, capacity int) *Error {
	b := New(phase, KindRange).Path(path...).Value(index)
	if count > 1 {
		return b.Detail("elements [%d:%d] out of range (count %d)", index, uint64(index)+uint64(count), capacity).Build()
	}
	return b.Detail("index %d out of range (count %d)", index, capacity).Build()
}

// OutOfBounds reports raw byte access outside a region of size bytes.
func OutOfBounds(phase Phase, offset, length, size uint32) *Error {
	return New(phase, KindOutOfBounds).
		Value(offset).
		Detail("range [%d:%d] outside region of %d bytes", offset, uint64(offset)+uint64(length), size).
		Build()
}

func InvalidPath(phase Phase, path []string, detail string) *Error {
	return New(phase, KindInvalidPath).Path(path...).Detail("%s", detail).Build()
}

// FieldUnknown reports a member name typeName does not have.
func FieldUnknown(phase Phase, path []string, member, typeName string) *Error {
	return New(phase, KindInvalidPath).
		Path(path...).
		TagType(typeName).
		Detail("unknown member %q", member).
		Build()
}

func UnknownTag(phase Phase, name string) *Error {
	return New(phase, KindUnknownTag).Value(name).Detail("tag %q not found", name).Build()
}

func UnknownType(phase Phase, ref any) *Error {
	return New(phase, KindUnknownType).Value(ref).Detail("type %v not found", ref).Build()
}

func DuplicateTag(phase Phase, name string) *Error {
	return New(phase, KindDuplicateTag).Value(name).Detail("tag %q already exists", name).Build()
}

func DuplicateType(phase Phase, name string) *Error {
	return New(phase, KindDuplicateType).Value(name).Detail("type %q already registered", name).Build()
}

// RecursiveType reports a definition cycle; chain lists the names around it.
func RecursiveType(phase Phase, chain []string) *Error {
	return New(phase, KindRecursiveType).Path(chain...).Detail("type references itself").Build()
}

func InvalidData(phase Phase, path []string, detail string) *Error {
	return New(phase, KindInvalidData).Path(path...).Detail("%s", detail).Build()
}

// Transport wraps a failed round trip to the server.
func Transport(op string, cause error) *Error {
	return New(PhaseTransport, KindTransport).Cause(cause).Detail("%s", op).Build()
}

// Wrap attaches phase, kind and detail to cause.
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return New(phase, kind).Cause(cause).Detail("%s", detail).Build()
}
