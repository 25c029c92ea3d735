package sajson

// Document owns a finished parse: the Buffer the source text lived in and
// the allocator holding the structure region. It is non-copyable in
// spirit (copying a Document aliases the same Buffer/allocator, which is
// harmless for reads but pointless) and movable -- a zero Document is a
// valid "errored, moved-from" Document.
type Document struct {
	buf   Buffer
	alloc *allocator

	rootKind Kind
	rootBase int

	err *ParseError
}

// Parse parses buf's current contents in place and returns the resulting
// Document. buf is mutated in place: string literals are unescaped
// in-place, as documented on Buffer. The caller retains ownership of buf's
// backing array through the returned Document only if buf came from
// NewBufferFromBytes; NewBufferFromString already made its own copy.
//
// By default this uses single_allocation, sized to one word per input
// byte (two on 32-bit words) -- a proven worst case, so growth never
// happens. Pass
// WithDynamicAllocation to trade that memory bound for a smaller typical
// footprint.
func Parse(buf Buffer, opts ...ParserOption) *Document {
	cfg := parseConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var alloc *allocator
	if cfg.dynamic {
		alloc = newDynamicAllocator(cfg.initialWords)
	} else {
		alloc = newSingleAllocator(buf.Length())
	}

	kind, base, perr := parseDocument(buf.data, alloc)
	if perr != nil {
		return &Document{buf: Buffer{}, err: perr}
	}
	return &Document{buf: buf, alloc: alloc, rootKind: kind, rootBase: base}
}

// ParseString is a convenience wrapper: it copies s into an owned Buffer
// and parses it, so the caller's string is never mutated.
func ParseString(s string, opts ...ParserOption) *Document {
	return Parse(NewBufferFromString(s), opts...)
}

// IsValid reports whether parsing succeeded.
func (d *Document) IsValid() bool {
	return d.err == nil
}

// Root returns a View over the document's root value. Panics if the
// document failed to parse; check IsValid first.
func (d *Document) Root() View {
	if d.err != nil {
		panic("sajson: Root called on an errored Document")
	}
	return View{doc: d, kind: d.rootKind, base: d.rootBase}
}

// Err returns the parse error, or nil on success.
func (d *Document) Err() error {
	if d.err == nil {
		return nil
	}
	return d.err
}

// ErrorLine returns the 1-based line of the first parse error, or 0 if
// the document is valid.
func (d *Document) ErrorLine() int {
	if d.err == nil {
		return 0
	}
	return d.err.Line
}

// ErrorColumn returns the 1-based column (counting bytes, not UTF-8 code
// points -- see ParseError.Column) of the first parse error, or 0 if the
// document is valid.
func (d *Document) ErrorColumn() int {
	if d.err == nil {
		return 0
	}
	return d.err.Column
}

// ErrorKind returns the stable error code, or Success if the document is
// valid.
func (d *Document) ErrorKind() ErrorKind {
	if d.err == nil {
		return Success
	}
	return d.err.Kind
}

// ErrorArg returns the error's extra argument, meaningful only for a
// subset of ErrorKind values (currently IllegalCodepoint).
func (d *Document) ErrorArg() int {
	if d.err == nil {
		return 0
	}
	return d.err.Arg
}

// Buffer returns the (possibly mutated) backing Buffer. Valid only when
// IsValid(); an errored Document retains no buffer.
func (d *Document) Buffer() Buffer {
	return d.buf
}

// Stats reports allocator behavior for the completed parse. Returns the
// zero value for an errored Document.
func (d *Document) Stats() AllocatorStats {
	if d.alloc == nil {
		return AllocatorStats{}
	}
	return d.alloc.stats()
}

// RawTape exposes the structure region's backing words and the root
// value's absolute word index, for FFI callers (cbinding's
// sajson_root_payload) that need a raw pointer into the tape rather than
// a View. Valid only when IsValid(); panics otherwise.
func (d *Document) RawTape() (words []uint, rootIndex int) {
	if d.err != nil {
		panic("sajson: RawTape called on an errored Document")
	}
	return d.alloc.words, d.rootBase
}
