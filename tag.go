package sajson

import "math/bits"

// Kind is the type of a parsed JSON value. The numbering is a stable part
// of the tape format: do not reorder.
type Kind uint8

const (
	KindInteger Kind = iota
	KindDouble
	KindNull
	KindFalse
	KindTrue
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindInteger: "integer",
	KindDouble:  "double",
	KindNull:    "null",
	KindFalse:   "false",
	KindTrue:    "true",
	KindString:  "string",
	KindArray:   "array",
	KindObject:  "object",
}

// String returns the kind name, e.g. "integer" or "object".
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// wordBits is the machine word width the tagged-word format is built on.
// The same Go binary will tag words differently on 386/arm (32-bit) than
// on amd64/arm64 (64-bit). Serializer writes every word as 64 bits but
// does not move the tag bits, so its output decodes correctly only on a
// host with the same word width.
const wordBits = bits.UintSize

const (
	typeBits  = 3
	typeShift = wordBits - typeBits
	typeMask  = uint(1)<<typeBits - 1
	valueMask = ^uint(0) >> typeBits
)

// rootMarker is the all-ones sentinel payload that identifies the
// outermost (root) frame while the parser is running.
const rootMarker = valueMask

// kindOf extracts the 3-bit kind tag from the top of a tagged word.
func kindOf(word uint) Kind {
	return Kind((word >> typeShift) & typeMask)
}

// payloadOf extracts the payload bits of a tagged word.
func payloadOf(word uint) uint {
	return word & valueMask
}

// encode packs a kind and a payload into one tagged word. The caller is
// responsible for ensuring payload fits in valueMask bits; the allocator's
// reserve fails (Parse reports OutOfMemory) once the structure region
// grows past what valueMask can address, so Parse never calls this with a
// bad value.
func encode(kind Kind, payload uint) uint {
	return (payload & valueMask) | (uint(kind) << typeShift)
}
