//go:build sajson_cbinding

// Package main is the cgo FFI shim for host-language bindings, built only
// with -tags sajson_cbinding so the pure-Go module never requires cgo (or
// a C toolchain / CGO_ENABLED=1) by default -- the same build-tag
// discipline that keeps asm-only fast paths out of a portable default
// build.
//
// Exported functions cover parse_single/parse_dynamic, free, has_error,
// error_line/column/message, root_type/root_payload, input_bytes/length.
// Handles are opaque integer IDs that map to a *sajson.Document in a
// handle table, so C callers never see a Go pointer directly.
package main

/*
#include <stddef.h>
#include <stdint.h>
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/chadaustin/sajson"
)

var (
	handlesMu sync.Mutex
	handles   = map[C.uintptr_t]*sajson.Document{}
	nextID    C.uintptr_t
)

func store(doc *sajson.Document) C.uintptr_t {
	handlesMu.Lock()
	defer handlesMu.Unlock()
	nextID++
	handles[nextID] = doc
	return nextID
}

func lookup(h C.uintptr_t) *sajson.Document {
	handlesMu.Lock()
	defer handlesMu.Unlock()
	return handles[h]
}

//export sajson_parse_single
func sajson_parse_single(bytes *C.char, length C.size_t) C.uintptr_t {
	b := C.GoBytes(unsafe.Pointer(bytes), C.int(length))
	doc := sajson.Parse(sajson.NewBufferFromBytes(b))
	return store(doc)
}

//export sajson_parse_dynamic
func sajson_parse_dynamic(bytes *C.char, length C.size_t) C.uintptr_t {
	b := C.GoBytes(unsafe.Pointer(bytes), C.int(length))
	doc := sajson.Parse(sajson.NewBufferFromBytes(b), sajson.WithDynamicAllocation())
	return store(doc)
}

//export sajson_free
func sajson_free(handle C.uintptr_t) {
	handlesMu.Lock()
	defer handlesMu.Unlock()
	delete(handles, handle)
}

//export sajson_has_error
func sajson_has_error(handle C.uintptr_t) C.int {
	doc := lookup(handle)
	if doc == nil || !doc.IsValid() {
		return 1
	}
	return 0
}

//export sajson_error_line
func sajson_error_line(handle C.uintptr_t) C.size_t {
	return C.size_t(lookup(handle).ErrorLine())
}

//export sajson_error_column
func sajson_error_column(handle C.uintptr_t) C.size_t {
	return C.size_t(lookup(handle).ErrorColumn())
}

//export sajson_error_message
func sajson_error_message(handle C.uintptr_t) *C.char {
	doc := lookup(handle)
	if doc == nil || doc.IsValid() {
		return C.CString("")
	}
	return C.CString(doc.Err().Error())
}

//export sajson_root_type
func sajson_root_type(handle C.uintptr_t) C.uint8_t {
	doc := lookup(handle)
	if doc == nil || !doc.IsValid() {
		return 0
	}
	return C.uint8_t(doc.Root().Kind())
}

//export sajson_root_payload
func sajson_root_payload(handle C.uintptr_t) unsafe.Pointer {
	doc := lookup(handle)
	if doc == nil || !doc.IsValid() {
		return nil
	}
	words, rootIndex := doc.RawTape()
	if rootIndex >= len(words) {
		return nil
	}
	return unsafe.Pointer(&words[rootIndex])
}

//export sajson_input_length
func sajson_input_length(handle C.uintptr_t) C.size_t {
	doc := lookup(handle)
	if doc == nil {
		return 0
	}
	return C.size_t(doc.Buffer().Length())
}

//export sajson_input_bytes
func sajson_input_bytes(handle C.uintptr_t) *C.char {
	doc := lookup(handle)
	if doc == nil || doc.Buffer().Length() == 0 {
		return nil
	}
	return (*C.char)(unsafe.Pointer(&doc.Buffer().Data()[0]))
}

func main() {}
