// Package errors provides structured error types for the opendax engine.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the tag path, the Go and tag type names, the offending
// value and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
//		Path("dummy3[0]", "ddd", "mem1").
//		GoType("string").
//		TagType("UINT").
//		Detail("cannot convert string to integer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Overflow(errors.PhaseEncode, path, v, "DINT")
//	err := errors.UnknownTag(errors.PhaseLookup, "bool2")
//
// Every Kind has a sentinel (ErrOverflow, ErrUnknownTag, ...) that matches
// errors of that kind raised in any phase:
//
//	if errors.Is(err, errors.ErrOverflow) { ... }
package errors
