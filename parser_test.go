package sajson

import (
	"fmt"
	"sort"
	"testing"
)

func mustParse(t *testing.T, input string) *Document {
	t.Helper()
	doc := ParseString(input)
	if !doc.IsValid() {
		t.Fatalf("ParseString(%q): unexpected error: %v", input, doc.Err())
	}
	return doc
}

func TestParseEmptyArray(t *testing.T) {
	doc := mustParse(t, "[]")
	root := doc.Root()
	if root.Kind() != KindArray {
		t.Fatalf("kind = %s, want array", root.Kind())
	}
	if root.Length() != 0 {
		t.Fatalf("length = %d, want 0", root.Length())
	}
}

func TestParseNestedArrays(t *testing.T) {
	doc := mustParse(t, "[0,[0,[0],0],0]")
	root := doc.Root()
	if root.Length() != 3 {
		t.Fatalf("length = %d, want 3", root.Length())
	}
	if root.Get(0).Kind() != KindInteger || root.Get(0).IntegerValue() != 0 {
		t.Fatalf("elem 0 wrong")
	}
	mid := root.Get(1)
	if mid.Kind() != KindArray || mid.Length() != 3 {
		t.Fatalf("elem 1 wrong: %v", mid.Kind())
	}
	inner := mid.Get(1)
	if inner.Kind() != KindArray || inner.Length() != 1 {
		t.Fatalf("nested array wrong")
	}
	if inner.Get(0).IntegerValue() != 0 {
		t.Fatalf("deepest leaf wrong")
	}
}

func TestParseObjectSortedKeys(t *testing.T) {
	doc := mustParse(t, `{"b":1,"a":0}`)
	root := doc.Root()
	if root.Kind() != KindObject || root.Length() != 2 {
		t.Fatalf("unexpected root: %v len=%d", root.Kind(), root.Length())
	}
	if string(root.KeyBytes(0)) != "a" || root.Value(0).IntegerValue() != 0 {
		t.Fatalf("entry 0 wrong")
	}
	if string(root.KeyBytes(1)) != "b" || root.Value(1).IntegerValue() != 1 {
		t.Fatalf("entry 1 wrong")
	}
	if _, ok := root.FindKey("c"); ok {
		t.Fatalf("FindKey(c) should miss")
	}
}

func TestFindKeyPrefixDoesNotMatch(t *testing.T) {
	doc := mustParse(t, `{"prefix_key":0}`)
	root := doc.Root()
	if _, ok := root.FindKey("prefix"); ok {
		t.Fatalf("FindKey(prefix) should not match prefix_key")
	}
	v, ok := root.FindKey("prefix_key")
	if !ok || v.IntegerValue() != 0 {
		t.Fatalf("FindKey(prefix_key) failed")
	}
}

func TestParseNumbers(t *testing.T) {
	doc := mustParse(t, "[2e+3,0.5E-5,10E+22]")
	root := doc.Root()
	want := []float64{2000.0, 5e-6, 1e23}
	for i, w := range want {
		got := root.Get(i)
		if got.Kind() != KindDouble {
			t.Fatalf("elem %d kind = %s, want double", i, got.Kind())
		}
		if got.DoubleValue() != w {
			t.Fatalf("elem %d = %v, want %v", i, got.DoubleValue(), w)
		}
	}
}

func itoa(v int64) string {
	// minimal, allocation-light int64 formatter avoiding strconv import
	// duplication across tests; kept local since it's only test scaffolding.
	if v == 0 {
		return "[0]"
	}
	neg := v < 0
	var buf [24]byte
	i := len(buf)
	u := uint64(v)
	if neg {
		u = uint64(-v)
	}
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return "[" + string(buf[i:]) + "]"
}

func TestParseIntegerArrayRoundTrip(t *testing.T) {
	cases := []int64{0, -1, 1, 2147483647, -2147483648, 9223372036854775807, -9223372036854775808}
	for _, v := range cases {
		doc := mustParse(t, itoa(v))
		got := doc.Root().Get(0)
		if got.Kind() != KindInteger {
			t.Fatalf("%d: kind = %s, want integer", v, got.Kind())
		}
		if got.IntegerValue() != v {
			t.Fatalf("%d: got %d", v, got.IntegerValue())
		}
	}
}

func TestParseOverflowBecomesDouble(t *testing.T) {
	doc := mustParse(t, "[99999999999999999999999]")
	got := doc.Root().Get(0)
	if got.Kind() != KindDouble {
		t.Fatalf("kind = %s, want double", got.Kind())
	}
}

func TestParseSurrogatePair(t *testing.T) {
	doc := mustParse(t, `["\uD83D\uDE00"]`)
	s := doc.Root().Get(0).StringBytes()
	want := []byte{0xF0, 0x9F, 0x98, 0x80}
	if string(s) != string(want) {
		t.Fatalf("got %x, want %x", s, want)
	}
}

func TestParseSurrogatePairMixedCase(t *testing.T) {
	doc := mustParse(t, `["\ud950\uDf21"]`)
	s := doc.Root().Get(0).StringBytes()
	want := []byte{0xF1, 0xA4, 0x8C, 0xA1}
	if string(s) != string(want) {
		t.Fatalf("got %x, want %x", s, want)
	}
}

func TestParseLoneHighSurrogateRejected(t *testing.T) {
	doc := ParseString(`["\uD800"]`)
	if doc.IsValid() {
		t.Fatalf("lone high surrogate should be rejected")
	}
}

func TestParseLoneLowSurrogateRejected(t *testing.T) {
	doc := ParseString(`["\uDC00"]`)
	if doc.IsValid() {
		t.Fatalf("lone low surrogate should be rejected")
	}
	if doc.ErrorKind() != InvalidUTF16TrailSurrogate {
		t.Fatalf("kind = %s, want InvalidUTF16TrailSurrogate", doc.ErrorKind())
	}
}

func TestParseStringEscapes(t *testing.T) {
	doc := mustParse(t, `["a\"b\\c\/d\be\ff\ng\rh\ti"]`)
	s := doc.Root().Get(0).StringValue()
	want := "a\"b\\c/d\be\ff\ng\rh\ti"
	if s != want {
		t.Fatalf("got %q, want %q", s, want)
	}
}

func TestParseFastAndSlowStringPathsAgree(t *testing.T) {
	plain := mustParse(t, `["hello world, no escapes here!"]`)
	escaped := mustParse(t, `["hello world, no escapes here\u0021"]`)
	a := plain.Root().Get(0).StringValue()
	b := escaped.Root().Get(0).StringValue()
	if a != b {
		t.Fatalf("fast path %q != slow path %q", a, b)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		input   string
		kind    ErrorKind
		wantArg int
	}{
		{"", MissingRootElement, 0},
		{"[][]", ExpectedEndOfInput, 0},
		{"[0 0]", ExpectedComma, 0},
		{"{0:0}", MissingObjectKey, 0},
		{"[\x19\"]", IllegalCodepoint, 25},
		{"[-12e", UnexpectedEnd, 0},
	}
	for _, c := range cases {
		doc := ParseString(c.input)
		if doc.IsValid() {
			t.Errorf("input %q: expected error %s, got valid parse", c.input, c.kind)
			continue
		}
		if doc.ErrorKind() != c.kind {
			t.Errorf("input %q: error kind = %s, want %s", c.input, doc.ErrorKind(), c.kind)
		}
		if c.kind == IllegalCodepoint && doc.ErrorArg() != c.wantArg {
			t.Errorf("input %q: error arg = %d, want %d", c.input, doc.ErrorArg(), c.wantArg)
		}
	}
}

func TestTrailingCommaRejected(t *testing.T) {
	doc := ParseString("[0,]")
	if doc.IsValid() {
		t.Fatalf("trailing comma should be rejected")
	}
}

func TestLeadingCommaRejected(t *testing.T) {
	doc := ParseString("[,0]")
	if doc.IsValid() {
		t.Fatalf("leading comma should be rejected")
	}
	if doc.ErrorKind() != UnexpectedComma {
		t.Fatalf("kind = %s, want UnexpectedComma", doc.ErrorKind())
	}
}

func TestDynamicAllocationMatchesSingle(t *testing.T) {
	input := `{"a":[1,2,3],"b":{"c":"d"},"e":null,"f":true,"g":false,"h":1.5}`
	single := ParseString(input)
	dyn := ParseString(input, WithDynamicAllocation())
	if !single.IsValid() || !dyn.IsValid() {
		t.Fatalf("expected both to parse")
	}
	sv, err := single.Root().Interface()
	if err != nil {
		t.Fatal(err)
	}
	dv, err := dyn.Root().Interface()
	if err != nil {
		t.Fatal(err)
	}
	if fdump(sv) != fdump(dv) {
		t.Fatalf("single and dynamic allocation disagree:\n%v\n%v", sv, dv)
	}
}

func TestDynamicAllocationGrows(t *testing.T) {
	big := "["
	for i := 0; i < 500; i++ {
		if i > 0 {
			big += ","
		}
		big += fmt.Sprintf(`{"k":"value%d"}`, i)
	}
	big += "]"
	doc := ParseString(big, WithInitialWords(4))
	if !doc.IsValid() {
		t.Fatalf("unexpected error: %v", doc.Err())
	}
	if doc.Stats().Grows == 0 {
		t.Fatalf("expected at least one grow with a tiny initial size")
	}
	root := doc.Root()
	if root.Length() != 500 {
		t.Fatalf("length = %d, want 500", root.Length())
	}
	// Check every element's content, not just the root length -- a
	// grow-corrupted child payload still reports a correct length word
	// (the one word that happens to sit at the right place) while its
	// elements silently decode to garbage.
	for i := 0; i < 500; i++ {
		elem := root.Get(i)
		if elem.Kind() != KindObject || elem.Length() != 1 {
			t.Fatalf("elem %d: unexpected shape: kind=%s len=%d", i, elem.Kind(), elem.Length())
		}
		if string(elem.KeyBytes(0)) != "k" {
			t.Fatalf("elem %d: key = %q, want k", i, elem.KeyBytes(0))
		}
		want := fmt.Sprintf("value%d", i)
		if got := elem.Value(0).StringValue(); got != want {
			t.Fatalf("elem %d: value = %q, want %q", i, got, want)
		}
	}
}

// TestDynamicAllocationGrowthPreservesPendingScratchOffsets is a direct
// regression test for the cross-region delta bug: a plain integer array
// large enough to force at least one grow on a tiny initial arena, where
// every element before the grow would previously resolve to a stale
// (short-by-the-growth-amount) backward index once installed.
func TestDynamicAllocationGrowthPreservesPendingScratchOffsets(t *testing.T) {
	n := 64
	big := "["
	for i := 0; i < n; i++ {
		if i > 0 {
			big += ","
		}
		big += fmt.Sprintf("%d", i+1)
	}
	big += "]"
	doc := ParseString(big, WithInitialWords(4))
	if !doc.IsValid() {
		t.Fatalf("unexpected error: %v", doc.Err())
	}
	if doc.Stats().Grows == 0 {
		t.Fatalf("expected at least one grow with a tiny initial size")
	}
	root := doc.Root()
	if root.Length() != n {
		t.Fatalf("length = %d, want %d", root.Length(), n)
	}
	for i := 0; i < n; i++ {
		elem := root.Get(i)
		if elem.Kind() != KindInteger || elem.IntegerValue() != int64(i+1) {
			t.Fatalf("elem %d: kind=%s value=%v, want integer %d", i, elem.Kind(), elem, i+1)
		}
	}
}

func TestDuplicateKeysKeepLast(t *testing.T) {
	doc := mustParse(t, `{"a":1,"a":2}`)
	root := doc.Root()
	if root.Length() != 1 {
		t.Fatalf("length = %d, want 1 after dedup", root.Length())
	}
	v, ok := root.FindKey("a")
	if !ok {
		t.Fatalf("FindKey(a) missed")
	}
	if v.IntegerValue() != 2 {
		t.Fatalf("duplicate key policy: got %d, want last-write-wins value 2", v.IntegerValue())
	}
}

// fdump renders a decoded value deterministically (sorted object keys) so
// two independently-decoded trees can be compared by string equality
// without tripping over Go's randomized map iteration order.
func fdump(v interface{}) string {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s := "{"
		for _, k := range keys {
			s += k + ":" + fdump(t[k]) + ","
		}
		return s + "}"
	case []interface{}:
		s := "["
		for _, vv := range t {
			s += fdump(vv) + ","
		}
		return s + "]"
	default:
		return fmt.Sprintf("%v", t)
	}
}
