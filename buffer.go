package sajson

// Buffer is a mutable view over the source JSON text. The parser owns
// exclusive mutable access to it for the duration of Parse and may
// rewrite bytes inside string literals in place while unescaping; bytes
// outside string literals are never modified.
//
// A Buffer has one of three provenances, mirroring sajson's
// mutable_string_view: an owned copy made from a read-only source (used
// when the caller hands us a string they still want to read afterwards),
// a borrowed caller-supplied mutable region (the caller promises no other
// reader aliases it during Parse), or the empty zero value used by a
// Document that failed to parse.
type Buffer struct {
	data []byte
}

// NewBufferFromString makes an owned, mutable copy of s. The original
// string is left untouched; the copy is what gets unescaped in place.
func NewBufferFromString(s string) Buffer {
	b := make([]byte, len(s))
	copy(b, s)
	return Buffer{data: b}
}

// NewBufferFromBytes wraps a caller-supplied mutable slice without
// copying. The caller must not read or write b for as long as the
// resulting Document (and any Buffer/Parse built from it) is alive, since
// Parse will rewrite bytes inside string literals in place.
func NewBufferFromBytes(b []byte) Buffer {
	return Buffer{data: b}
}

// Data returns the (possibly parser-mutated) underlying bytes.
func (b Buffer) Data() []byte {
	return b.data
}

// Length returns the number of bytes in the buffer.
func (b Buffer) Length() int {
	return len(b.data)
}
