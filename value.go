package sajson

import (
	"fmt"
	"math"
)

// View is a read-only, random-access cursor into a parsed Document's tape.
// It carries no data of its own beyond a kind and an absolute index into
// the structure region; walking into children is pure index arithmetic,
// never a copy, which is what makes tape access O(1) per step.
//
// It is a single positioned cursor, not an iterator you Advance through a
// flat stream.
type View struct {
	doc  *Document
	kind Kind
	base int
}

// Kind reports the value's type.
func (v View) Kind() Kind {
	return v.kind
}

func (v View) words() []uint {
	return v.doc.alloc.words
}

// Length returns the number of elements (array) or key/value pairs
// (object). Panics if Kind is neither Array nor Object; callers are
// expected to check Kind first.
func (v View) Length() int {
	switch v.kind {
	case KindArray, KindObject:
		return int(v.words()[v.base])
	default:
		panic(fmt.Sprintf("sajson: Length called on %s", v.kind))
	}
}

// Get returns the i'th element of an array.
func (v View) Get(i int) View {
	if v.kind != KindArray {
		panic(fmt.Sprintf("sajson: Get called on %s", v.kind))
	}
	word := v.words()[v.base+1+i]
	return v.childView(word)
}

// KeyBytes returns the raw key bytes of the i'th entry of an object, in
// the unescaped (post-parse) buffer -- safe to read, never to retain past
// the Document's lifetime if the Buffer is reused.
func (v View) KeyBytes(i int) []byte {
	if v.kind != KindObject {
		panic(fmt.Sprintf("sajson: KeyBytes called on %s", v.kind))
	}
	words := v.words()
	start := words[v.base+1+i*3]
	end := words[v.base+1+i*3+1]
	return v.doc.buf.data[start:end]
}

// Value returns the i'th entry's value in an object.
func (v View) Value(i int) View {
	if v.kind != KindObject {
		panic(fmt.Sprintf("sajson: Value called on %s", v.kind))
	}
	word := v.words()[v.base+1+i*3+2]
	return v.childView(word)
}

func (v View) childView(word uint) View {
	kind := kindOf(word)
	payload := payloadOf(word)
	return View{doc: v.doc, kind: kind, base: v.base + int(payload)}
}

// FindKey looks up an object key by binary search over the sorted
// (key length, key bytes) order install guarantees -- O(log n), since
// objects are always installed with their entries in that order.
func (v View) FindKey(name string) (View, bool) {
	if v.kind != KindObject {
		panic(fmt.Sprintf("sajson: FindKey called on %s", v.kind))
	}
	n := v.Length()
	nameLen := len(name)
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		key := v.KeyBytes(mid)
		if len(key) != nameLen {
			if len(key) < nameLen {
				lo = mid + 1
			} else {
				hi = mid
			}
			continue
		}
		c := compareBytes(key, []byte(name))
		switch {
		case c == 0:
			return v.Value(mid), true
		case c < 0:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return View{}, false
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func (v View) numberBits() uint64 {
	words := v.words()
	if numberWordCount == 1 {
		return uint64(words[v.base])
	}
	lo := uint64(words[v.base])
	hi := uint64(words[v.base+1])
	return hi<<32 | lo
}

// IntegerValue returns the value as an int64. Panics if Kind is not
// KindInteger.
func (v View) IntegerValue() int64 {
	if v.kind != KindInteger {
		panic(fmt.Sprintf("sajson: IntegerValue called on %s", v.kind))
	}
	return int64(v.numberBits())
}

// DoubleValue returns the value as a float64. Panics if Kind is not
// KindDouble.
func (v View) DoubleValue() float64 {
	if v.kind != KindDouble {
		panic(fmt.Sprintf("sajson: DoubleValue called on %s", v.kind))
	}
	return math.Float64frombits(v.numberBits())
}

// NumberValue returns an integer or double value as a float64, for
// callers that don't care which numeric kind they got.
func (v View) NumberValue() float64 {
	switch v.kind {
	case KindInteger:
		return float64(v.IntegerValue())
	case KindDouble:
		return v.DoubleValue()
	default:
		panic(fmt.Sprintf("sajson: NumberValue called on %s", v.kind))
	}
}

// StringRange returns the [start, end) byte offsets of a string value
// within the Document's Buffer.
func (v View) StringRange() (start, end int) {
	if v.kind != KindString {
		panic(fmt.Sprintf("sajson: StringRange called on %s", v.kind))
	}
	words := v.words()
	return int(words[v.base]), int(words[v.base+1])
}

// StringBytes returns the decoded string's bytes. The returned slice
// aliases the Document's Buffer; copy it if it must outlive the Buffer
// being reused or discarded.
func (v View) StringBytes() []byte {
	start, end := v.StringRange()
	return v.doc.buf.data[start:end]
}

// StringValue copies the decoded string out as a Go string.
func (v View) StringValue() string {
	return string(v.StringBytes())
}

// Bool returns the value for KindTrue/KindFalse.
func (v View) Bool() bool {
	switch v.kind {
	case KindTrue:
		return true
	case KindFalse:
		return false
	default:
		panic(fmt.Sprintf("sajson: Bool called on %s", v.kind))
	}
}

// IsNull reports whether the value is KindNull.
func (v View) IsNull() bool {
	return v.kind == KindNull
}

// Interface decodes the value into a generic Go value (map[string]any,
// []any, string, float64, int64, bool, nil) -- convenient for tests and
// debug dumps, not a hot path.
func (v View) Interface() (interface{}, error) {
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindTrue:
		return true, nil
	case KindFalse:
		return false, nil
	case KindInteger:
		return v.IntegerValue(), nil
	case KindDouble:
		return v.DoubleValue(), nil
	case KindString:
		return v.StringValue(), nil
	case KindArray:
		n := v.Length()
		out := make([]interface{}, n)
		for i := 0; i < n; i++ {
			elem, err := v.Get(i).Interface()
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	case KindObject:
		n := v.Length()
		out := make(map[string]interface{}, n)
		for i := 0; i < n; i++ {
			val, err := v.Value(i).Interface()
			if err != nil {
				return nil, err
			}
			out[string(v.KeyBytes(i))] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("sajson: unknown kind %d", v.kind)
	}
}
