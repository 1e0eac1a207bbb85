// Package ident validates tag, type and member names.
package ident

// MaxLen is the longest name a server accepts.
const MaxLen = 32

// IsStart reports whether c may begin an identifier.
func IsStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsPart reports whether c may continue an identifier.
func IsPart(c byte) bool {
	return IsStart(c) || (c >= '0' && c <= '9')
}

// Valid reports whether s is a well formed name.
func Valid(s string) bool {
	if len(s) == 0 || len(s) > MaxLen || !IsStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !IsPart(s[i]) {
			return false
		}
	}
	return true
}
